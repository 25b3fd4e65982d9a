package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	clientdomain "github.com/smallbiznis/billora/internal/client/domain"
	clientrepo "github.com/smallbiznis/billora/internal/client/repository"
	"github.com/smallbiznis/billora/internal/clock"
	companydomain "github.com/smallbiznis/billora/internal/company/domain"
	companyrepo "github.com/smallbiznis/billora/internal/company/repository"
	"github.com/smallbiznis/billora/internal/document/domain"
	documentrepo "github.com/smallbiznis/billora/internal/document/repository"
	"github.com/smallbiznis/billora/internal/notification"
	"github.com/smallbiznis/billora/internal/providers/email"
	signaturedomain "github.com/smallbiznis/billora/internal/signature/domain"
	signaturerepo "github.com/smallbiznis/billora/internal/signature/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type fixture struct {
	db      *gorm.DB
	svc     domain.Service
	clock   *clock.FakeClock
	genID   *snowflake.Node
	company companydomain.Company
	client  clientdomain.Client
}

func newFixture(t *testing.T, exemptVAT bool, country string) *fixture {
	t.Helper()

	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, gdb.AutoMigrate(
		&companydomain.Company{},
		&clientdomain.Client{},
		&domain.Document{},
		&domain.LineItem{},
		&signaturedomain.Signature{},
	))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	fakeClock := clock.NewFakeClock(time.Date(2024, time.March, 4, 9, 0, 0, 0, time.UTC))

	company := companydomain.Company{
		ID:        node.Generate(),
		Name:      "Atelier Morel",
		Country:   country,
		Currency:  "EUR",
		ExemptVAT: exemptVAT,
	}
	require.NoError(t, gdb.Create(&company).Error)

	client := clientdomain.Client{
		ID:           node.Generate(),
		Name:         "Acme SARL",
		ContactEmail: "billing@acme.example",
		Currency:     "EUR",
		IsActive:     true,
	}
	require.NoError(t, gdb.Create(&client).Error)

	svc := New(Params{
		DB:            gdb,
		Log:           zap.NewNop(),
		GenID:         node,
		Clock:         fakeClock,
		Repo:          documentrepo.Provide(),
		CompanyRepo:   companyrepo.Provide(),
		ClientRepo:    clientrepo.Provide(),
		SignatureRepo: signaturerepo.Provide(),
		Email:         &email.NoOpProvider{},
		Notifier:      notification.NoOpDispatcher{},
	})

	return &fixture{
		db:      gdb,
		svc:     svc,
		clock:   fakeClock,
		genID:   node,
		company: company,
		client:  client,
	}
}

func items(vatRate float64) []domain.ItemInput {
	return []domain.ItemInput{
		{Description: "Consulting", Quantity: 1, UnitPrice: 2200, VATRate: vatRate, ItemType: domain.ItemTypeService},
	}
}

func TestCreateComputesTotals(t *testing.T) {
	f := newFixture(t, false, "FR")

	doc, err := f.svc.Create(context.Background(), domain.CreateDocumentRequest{
		Kind:     domain.KindInvoice,
		ClientID: f.client.ID,
		Items:    items(10),
	})
	require.NoError(t, err)

	assert.Equal(t, domain.StatusDraft, doc.Status)
	assert.InDelta(t, 2200.0, doc.TotalHT, 0.001)
	assert.InDelta(t, 220.0, doc.TotalVAT, 0.001)
	assert.InDelta(t, 2420.0, doc.TotalTTC, 0.001)
	assert.Equal(t, "EUR", doc.Currency)

	stored, err := f.svc.ListItems(context.Background(), doc.ID)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.InDelta(t, 10.0, stored[0].VATRate, 0.001)
}

func TestCreateFrenchExemptionForcesZeroRates(t *testing.T) {
	f := newFixture(t, true, "fr")

	doc, err := f.svc.Create(context.Background(), domain.CreateDocumentRequest{
		Kind:     domain.KindQuote,
		ClientID: f.client.ID,
		Items:    items(20),
	})
	require.NoError(t, err)

	assert.Zero(t, doc.TotalVAT)
	assert.InDelta(t, doc.TotalHT, doc.TotalTTC, 0.001)

	stored, err := f.svc.ListItems(context.Background(), doc.ID)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Zero(t, stored[0].VATRate)
}

func TestCreateExemptionRequiresFrance(t *testing.T) {
	f := newFixture(t, true, "DE")

	doc, err := f.svc.Create(context.Background(), domain.CreateDocumentRequest{
		Kind:     domain.KindInvoice,
		ClientID: f.client.ID,
		Items:    items(19),
	})
	require.NoError(t, err)

	assert.InDelta(t, 418.0, doc.TotalVAT, 0.001)
}

func TestCreateRejectsUnknownClient(t *testing.T) {
	f := newFixture(t, false, "FR")

	_, err := f.svc.Create(context.Background(), domain.CreateDocumentRequest{
		Kind:     domain.KindInvoice,
		ClientID: f.genID.Generate(),
		Items:    items(20),
	})
	assert.ErrorIs(t, err, clientdomain.ErrNotFound)
}

func TestCreateRejectsInvalidItems(t *testing.T) {
	f := newFixture(t, false, "FR")

	_, err := f.svc.Create(context.Background(), domain.CreateDocumentRequest{
		Kind:     domain.KindInvoice,
		ClientID: f.client.ID,
		Items:    []domain.ItemInput{{Quantity: -1, UnitPrice: 10}},
	})
	assert.ErrorIs(t, err, domain.ErrInvalidQuantity)

	_, err = f.svc.Create(context.Background(), domain.CreateDocumentRequest{
		Kind:     domain.KindInvoice,
		ClientID: f.client.ID,
	})
	assert.ErrorIs(t, err, domain.ErrInvalidItems)
}

func TestEditRecomputesTotalsAndDeactivatesSignatures(t *testing.T) {
	f := newFixture(t, false, "FR")

	doc, err := f.svc.Create(context.Background(), domain.CreateDocumentRequest{
		Kind:     domain.KindQuote,
		ClientID: f.client.ID,
		Items:    items(10),
	})
	require.NoError(t, err)

	sig := signaturedomain.Signature{
		ID:         f.genID.Generate(),
		DocumentID: doc.ID,
		Provider:   "documenso",
		ExternalID: "41",
		IsActive:   true,
	}
	require.NoError(t, f.db.Create(&sig).Error)

	edited, err := f.svc.Edit(context.Background(), domain.EditDocumentRequest{
		ID: doc.ID,
		Items: []domain.ItemInput{
			{Description: "Consulting", Quantity: 2, UnitPrice: 500, VATRate: 20},
		},
	})
	require.NoError(t, err)

	assert.InDelta(t, 1000.0, edited.TotalHT, 0.001)
	assert.InDelta(t, 200.0, edited.TotalVAT, 0.001)
	assert.InDelta(t, 1200.0, edited.TotalTTC, 0.001)

	var reloaded signaturedomain.Signature
	require.NoError(t, f.db.First(&reloaded, "id = ?", sig.ID).Error)
	assert.False(t, reloaded.IsActive)
}

func TestMarkAsPaidIsIdempotent(t *testing.T) {
	f := newFixture(t, false, "FR")

	doc, err := f.svc.Create(context.Background(), domain.CreateDocumentRequest{
		Kind:     domain.KindInvoice,
		ClientID: f.client.ID,
		Items:    items(20),
	})
	require.NoError(t, err)

	paid, err := f.svc.MarkAsPaid(context.Background(), doc.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPaid, paid.Status)
	require.NotNil(t, paid.PaidAt)
	firstPaidAt := *paid.PaidAt

	f.clock.Advance(time.Hour)

	again, err := f.svc.MarkAsPaid(context.Background(), doc.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPaid, again.Status)
	require.NotNil(t, again.PaidAt)
	assert.True(t, again.PaidAt.Equal(firstPaidAt))
}

func TestMarkAsPaidRejectsQuotes(t *testing.T) {
	f := newFixture(t, false, "FR")

	doc, err := f.svc.Create(context.Background(), domain.CreateDocumentRequest{
		Kind:     domain.KindQuote,
		ClientID: f.client.ID,
		Items:    items(20),
	})
	require.NoError(t, err)

	_, err = f.svc.MarkAsPaid(context.Background(), doc.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidKind)
}

func TestTransitionRejectsIllegalMove(t *testing.T) {
	f := newFixture(t, false, "FR")

	doc, err := f.svc.Create(context.Background(), domain.CreateDocumentRequest{
		Kind:     domain.KindQuote,
		ClientID: f.client.ID,
		Items:    items(20),
	})
	require.NoError(t, err)

	// A quote cannot be signed before it is sent.
	_, err = f.svc.Transition(context.Background(), doc.ID, domain.StatusSigned)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	sent, err := f.svc.Transition(context.Background(), doc.ID, domain.StatusSent)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusSent, sent.Status)

	signed, err := f.svc.Transition(context.Background(), doc.ID, domain.StatusSigned)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusSigned, signed.Status)
}

func TestTransitionSameStatusIsNoOp(t *testing.T) {
	f := newFixture(t, false, "FR")

	doc, err := f.svc.Create(context.Background(), domain.CreateDocumentRequest{
		Kind:     domain.KindInvoice,
		ClientID: f.client.ID,
		Items:    items(20),
	})
	require.NoError(t, err)

	same, err := f.svc.Transition(context.Background(), doc.ID, domain.StatusDraft)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusDraft, same.Status)
}

func TestSendMarksSent(t *testing.T) {
	f := newFixture(t, false, "FR")

	doc, err := f.svc.Create(context.Background(), domain.CreateDocumentRequest{
		Kind:     domain.KindInvoice,
		ClientID: f.client.ID,
		Items:    items(20),
	})
	require.NoError(t, err)

	sent, err := f.svc.Send(context.Background(), doc.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusSent, sent.Status)
}

func TestDeleteDeactivates(t *testing.T) {
	f := newFixture(t, false, "FR")

	doc, err := f.svc.Create(context.Background(), domain.CreateDocumentRequest{
		Kind:     domain.KindInvoice,
		ClientID: f.client.ID,
		Items:    items(20),
	})
	require.NoError(t, err)

	require.NoError(t, f.svc.Delete(context.Background(), doc.ID))

	reloaded, err := f.svc.GetByID(context.Background(), doc.ID)
	require.NoError(t, err)
	assert.False(t, reloaded.IsActive)

	_, err = f.svc.MarkAsPaid(context.Background(), doc.ID)
	assert.ErrorIs(t, err, domain.ErrInactive)
}

func TestCreateWithoutCompany(t *testing.T) {
	f := newFixture(t, false, "FR")
	require.NoError(t, f.db.Delete(&companydomain.Company{}, "id = ?", f.company.ID).Error)

	_, err := f.svc.Create(context.Background(), domain.CreateDocumentRequest{
		Kind:     domain.KindInvoice,
		ClientID: f.client.ID,
		Items:    items(20),
	})
	assert.ErrorIs(t, err, companydomain.ErrNotConfigured)
}
