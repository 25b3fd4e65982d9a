package domain

import "math"

// Totals are the aggregate amounts of a document. TotalTTC = TotalHT +
// TotalVAT always holds; under VAT exemption TotalVAT is zero and TotalTTC
// equals TotalHT.
type Totals struct {
	TotalHT  float64 `json:"total_ht"`
	TotalVAT float64 `json:"total_vat"`
	TotalTTC float64 `json:"total_ttc"`
}

// ComputeTotals derives aggregate amounts from the full item set. It is pure
// and must be called identically on creation and on edit. Accumulation keeps
// full float precision; rounding happens at presentation time only.
func ComputeTotals(items []LineItem, exemptVAT bool) Totals {
	var t Totals
	for _, item := range items {
		line := item.Quantity * item.UnitPrice
		rate := item.VATRate
		if exemptVAT {
			rate = 0
		}
		t.TotalHT += line
		t.TotalVAT += line * rate / 100
	}
	t.TotalTTC = t.TotalHT + t.TotalVAT
	return t
}

// ApplyVATExemption forces every line's stored VAT rate to zero so that
// downstream rendering matches the computed totals.
func ApplyVATExemption(items []LineItem) {
	for i := range items {
		items[i].VATRate = 0
	}
}

// RoundAmount applies two-digit display rounding.
func RoundAmount(v float64) float64 {
	return math.Round(v*100) / 100
}
