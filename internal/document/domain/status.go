package domain

// Status is the legal lifecycle state of a document. Exactly one status
// holds at any time; transitions are one-directional except administrative
// override back to DRAFT.
type Status string

const (
	StatusDraft    Status = "DRAFT"
	StatusSent     Status = "SENT"
	StatusViewed   Status = "VIEWED"
	StatusSigned   Status = "SIGNED"
	StatusRejected Status = "REJECTED"
	StatusExpired  Status = "EXPIRED"
	StatusPaid     Status = "PAID"
)

// quoteTransitions and invoiceTransitions list the reachable targets per
// current state. VIEWED and EXPIRED are auxiliary quote states.
var quoteTransitions = map[Status][]Status{
	StatusDraft:    {StatusSent},
	StatusSent:     {StatusViewed, StatusSigned, StatusRejected, StatusExpired, StatusDraft},
	StatusViewed:   {StatusSigned, StatusRejected, StatusExpired, StatusDraft},
	StatusSigned:   {StatusDraft},
	StatusRejected: {StatusDraft},
	StatusExpired:  {StatusDraft},
}

var invoiceTransitions = map[Status][]Status{
	StatusDraft: {StatusSent, StatusPaid},
	StatusSent:  {StatusPaid, StatusDraft},
}

// CanTransition reports whether a document of the given kind may move from
// one status to another. A same-status transition is always permitted; the
// caller treats it as an idempotent no-op.
func CanTransition(kind Kind, from, to Status) bool {
	if from == to {
		return true
	}

	var table map[Status][]Status
	switch kind {
	case KindInvoice:
		table = invoiceTransitions
	default:
		table = quoteTransitions
	}

	for _, target := range table[from] {
		if target == to {
			return true
		}
	}
	return false
}

// KnownStatus reports whether s is one of the recognized statuses for kind.
func KnownStatus(kind Kind, s Status) bool {
	switch kind {
	case KindInvoice:
		return s == StatusDraft || s == StatusSent || s == StatusPaid
	default:
		return s == StatusDraft || s == StatusSent || s == StatusViewed ||
			s == StatusSigned || s == StatusRejected || s == StatusExpired
	}
}
