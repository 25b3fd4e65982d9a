package webhook

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	clientdomain "github.com/smallbiznis/billora/internal/client/domain"
	clientrepo "github.com/smallbiznis/billora/internal/client/repository"
	"github.com/smallbiznis/billora/internal/clock"
	companydomain "github.com/smallbiznis/billora/internal/company/domain"
	companyrepo "github.com/smallbiznis/billora/internal/company/repository"
	documentdomain "github.com/smallbiznis/billora/internal/document/domain"
	documentrepo "github.com/smallbiznis/billora/internal/document/repository"
	documentservice "github.com/smallbiznis/billora/internal/document/service"
	"github.com/smallbiznis/billora/internal/notification"
	"github.com/smallbiznis/billora/internal/providers/email"
	signaturedomain "github.com/smallbiznis/billora/internal/signature/domain"
	signaturerepo "github.com/smallbiznis/billora/internal/signature/repository"
	"github.com/smallbiznis/billora/internal/signing/adapters"
	"github.com/smallbiznis/billora/internal/signing/domain"
	signingrepo "github.com/smallbiznis/billora/internal/signing/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const webhookSecret = "0f9b2c4d6e8a"

type webhookFixture struct {
	db     *gorm.DB
	svc    domain.Service
	docSvc documentdomain.Service
	genID  *snowflake.Node
	client clientdomain.Client
}

func newWebhookFixture(t *testing.T) *webhookFixture {
	t.Helper()

	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, gdb.AutoMigrate(
		&companydomain.Company{},
		&clientdomain.Client{},
		&documentdomain.Document{},
		&documentdomain.LineItem{},
		&signaturedomain.Signature{},
		&domain.ProviderConfig{},
	))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	company := companydomain.Company{ID: node.Generate(), Name: "Atelier Morel", Country: "FR", Currency: "EUR"}
	require.NoError(t, gdb.Create(&company).Error)

	client := clientdomain.Client{
		ID:           node.Generate(),
		Name:         "Acme SARL",
		ContactEmail: "billing@acme.example",
		IsActive:     true,
	}
	require.NoError(t, gdb.Create(&client).Error)

	docSvc := documentservice.New(documentservice.Params{
		DB:            gdb,
		Log:           zap.NewNop(),
		GenID:         node,
		Clock:         clock.NewFakeClock(time.Date(2024, time.March, 4, 10, 0, 0, 0, time.UTC)),
		Repo:          documentrepo.Provide(),
		CompanyRepo:   companyrepo.Provide(),
		ClientRepo:    clientrepo.Provide(),
		SignatureRepo: signaturerepo.Provide(),
		Email:         &email.NoOpProvider{},
		Notifier:      notification.NoOpDispatcher{},
	})

	svc := New(Params{
		DB:          gdb,
		Log:         zap.NewNop(),
		Registry:    adapters.NewRegistry(),
		Configs:     signingrepo.Provide(),
		Signatures:  signaturerepo.Provide(),
		DocumentSvc: docSvc,
	})

	return &webhookFixture{db: gdb, svc: svc, docSvc: docSvc, genID: node, client: client}
}

func (f *webhookFixture) enableProvider(t *testing.T, provider, baseURL string) {
	t.Helper()
	cfg := domain.ProviderConfig{
		Provider:          provider,
		BaseURL:           baseURL,
		APIKey:            "api-key",
		WebhookSecretHash: domain.HashWebhookSecret(webhookSecret),
		IsActive:          true,
	}
	require.NoError(t, signingrepo.Provide().Upsert(context.Background(), f.db, &cfg))
}

func (f *webhookFixture) makeDocument(t *testing.T, kind documentdomain.Kind, status documentdomain.Status) documentdomain.Document {
	t.Helper()
	doc, err := f.docSvc.Create(context.Background(), documentdomain.CreateDocumentRequest{
		Kind:     kind,
		ClientID: f.client.ID,
		Items: []documentdomain.ItemInput{
			{Description: "Consulting", Quantity: 1, UnitPrice: 1000, VATRate: 20},
		},
	})
	require.NoError(t, err)
	if status != documentdomain.StatusDraft {
		doc, err = f.docSvc.Transition(context.Background(), doc.ID, status)
		require.NoError(t, err)
	}
	return doc
}

func (f *webhookFixture) linkSignature(t *testing.T, documentID snowflake.ID, provider, externalID string) signaturedomain.Signature {
	t.Helper()
	sig := signaturedomain.Signature{
		ID:         f.genID.Generate(),
		DocumentID: documentID,
		Provider:   provider,
		ExternalID: externalID,
		IsActive:   true,
	}
	require.NoError(t, f.db.Create(&sig).Error)
	return sig
}

func (f *webhookFixture) documentStatus(t *testing.T, id snowflake.ID) documentdomain.Status {
	t.Helper()
	doc, err := f.docSvc.GetByID(context.Background(), id)
	require.NoError(t, err)
	return doc.Status
}

// documensoAPI serves the document status endpoint the adapter re-fetches
// from before trusting any webhook claim.
func documensoAPI(t *testing.T, status string, hits *int) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*hits++
		if r.URL.Path != "/api/v2-beta/documents/41" {
			http.NotFound(w, r)
			return
		}
		if r.Header.Get("Authorization") != "Bearer api-key" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		json.NewEncoder(w).Encode(map[string]any{"id": 41, "status": status})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func documensoDelivery(secret string, payloadStatus string) (http.Header, []byte) {
	header := http.Header{}
	header.Set("x-documenso-secret", secret)
	body := []byte(fmt.Sprintf(`{"event":"DOCUMENT_COMPLETED","payload":{"id":41,"status":%q}}`, payloadStatus))
	return header, body
}

func TestIngestDocumensoCompletedSignsQuote(t *testing.T) {
	f := newWebhookFixture(t)
	hits := 0
	srv := documensoAPI(t, "COMPLETED", &hits)
	f.enableProvider(t, "documenso", srv.URL)

	doc := f.makeDocument(t, documentdomain.KindQuote, documentdomain.StatusSent)
	sig := f.linkSignature(t, doc.ID, "documenso", "41")

	header, body := documensoDelivery(webhookSecret, "PENDING")
	require.NoError(t, f.svc.Ingest(context.Background(), "documenso", header, body))

	// The payload claimed PENDING; the status API said COMPLETED and wins.
	assert.Equal(t, documentdomain.StatusSigned, f.documentStatus(t, doc.ID))
	assert.Equal(t, 1, hits)

	var reloaded signaturedomain.Signature
	require.NoError(t, f.db.First(&reloaded, "id = ?", sig.ID).Error)
	assert.Equal(t, string(documentdomain.StatusSigned), reloaded.ProviderStatus)
}

func TestIngestDuplicateDeliveryIsNoOp(t *testing.T) {
	f := newWebhookFixture(t)
	hits := 0
	srv := documensoAPI(t, "COMPLETED", &hits)
	f.enableProvider(t, "documenso", srv.URL)

	doc := f.makeDocument(t, documentdomain.KindQuote, documentdomain.StatusSent)
	f.linkSignature(t, doc.ID, "documenso", "41")

	header, body := documensoDelivery(webhookSecret, "COMPLETED")
	require.NoError(t, f.svc.Ingest(context.Background(), "documenso", header, body))
	require.NoError(t, f.svc.Ingest(context.Background(), "documenso", header, body))

	assert.Equal(t, documentdomain.StatusSigned, f.documentStatus(t, doc.ID))
}

func TestIngestRejectsBadSecretBeforeAnyWork(t *testing.T) {
	f := newWebhookFixture(t)
	hits := 0
	srv := documensoAPI(t, "COMPLETED", &hits)
	f.enableProvider(t, "documenso", srv.URL)

	doc := f.makeDocument(t, documentdomain.KindQuote, documentdomain.StatusSent)
	f.linkSignature(t, doc.ID, "documenso", "41")

	header, body := documensoDelivery("wrong-secret", "COMPLETED")
	err := f.svc.Ingest(context.Background(), "documenso", header, body)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	assert.Equal(t, documentdomain.StatusSent, f.documentStatus(t, doc.ID))
	assert.Zero(t, hits, "unauthenticated delivery must not reach the provider API")

	header, body = documensoDelivery("", "COMPLETED")
	err = f.svc.Ingest(context.Background(), "documenso", header, body)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestIngestUnknownProvider(t *testing.T) {
	f := newWebhookFixture(t)
	err := f.svc.Ingest(context.Background(), "pandadoc", http.Header{}, []byte(`{}`))
	assert.ErrorIs(t, err, domain.ErrProviderNotFound)
}

func TestIngestDisabledProvider(t *testing.T) {
	f := newWebhookFixture(t)
	cfg := domain.ProviderConfig{
		Provider:          "documenso",
		WebhookSecretHash: domain.HashWebhookSecret(webhookSecret),
		IsActive:          false,
	}
	require.NoError(t, f.db.Create(&cfg).Error)

	header, body := documensoDelivery(webhookSecret, "COMPLETED")
	err := f.svc.Ingest(context.Background(), "documenso", header, body)
	assert.ErrorIs(t, err, domain.ErrProviderNotFound)
}

func TestIngestMalformedPayload(t *testing.T) {
	f := newWebhookFixture(t)
	hits := 0
	srv := documensoAPI(t, "COMPLETED", &hits)
	f.enableProvider(t, "documenso", srv.URL)

	header := http.Header{}
	header.Set("x-documenso-secret", webhookSecret)
	err := f.svc.Ingest(context.Background(), "documenso", header, []byte(`{"payload":{"id":0}}`))
	assert.ErrorIs(t, err, domain.ErrMalformedEvent)
}

func TestIngestUpstreamFailure(t *testing.T) {
	f := newWebhookFixture(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	t.Cleanup(srv.Close)
	f.enableProvider(t, "documenso", srv.URL)

	doc := f.makeDocument(t, documentdomain.KindQuote, documentdomain.StatusSent)
	f.linkSignature(t, doc.ID, "documenso", "41")

	header, body := documensoDelivery(webhookSecret, "COMPLETED")
	err := f.svc.Ingest(context.Background(), "documenso", header, body)
	assert.ErrorIs(t, err, domain.ErrUpstream)
	assert.Equal(t, documentdomain.StatusSent, f.documentStatus(t, doc.ID))
}

func TestIngestUnmatchedSignature(t *testing.T) {
	f := newWebhookFixture(t)
	hits := 0
	srv := documensoAPI(t, "COMPLETED", &hits)
	f.enableProvider(t, "documenso", srv.URL)

	header, body := documensoDelivery(webhookSecret, "COMPLETED")
	require.NoError(t, f.svc.Ingest(context.Background(), "documenso", header, body))
}

func TestIngestInactiveSignatureIsIgnored(t *testing.T) {
	f := newWebhookFixture(t)
	hits := 0
	srv := documensoAPI(t, "COMPLETED", &hits)
	f.enableProvider(t, "documenso", srv.URL)

	doc := f.makeDocument(t, documentdomain.KindQuote, documentdomain.StatusSent)
	sig := f.linkSignature(t, doc.ID, "documenso", "41")
	require.NoError(t, f.db.Model(&signaturedomain.Signature{}).
		Where("id = ?", sig.ID).Update("is_active", false).Error)

	header, body := documensoDelivery(webhookSecret, "COMPLETED")
	require.NoError(t, f.svc.Ingest(context.Background(), "documenso", header, body))
	assert.Equal(t, documentdomain.StatusSent, f.documentStatus(t, doc.ID))
}

func TestIngestAcksImpossibleTransition(t *testing.T) {
	f := newWebhookFixture(t)
	hits := 0
	srv := documensoAPI(t, "COMPLETED", &hits)
	f.enableProvider(t, "documenso", srv.URL)

	// SIGNED is not part of the invoice lifecycle, so the event is
	// acknowledged without changing the document.
	doc := f.makeDocument(t, documentdomain.KindInvoice, documentdomain.StatusSent)
	f.linkSignature(t, doc.ID, "documenso", "41")

	header, body := documensoDelivery(webhookSecret, "COMPLETED")
	require.NoError(t, f.svc.Ingest(context.Background(), "documenso", header, body))
	assert.Equal(t, documentdomain.StatusSent, f.documentStatus(t, doc.ID))
}

func TestIngestDocusealFormCompletedPaysInvoice(t *testing.T) {
	f := newWebhookFixture(t)
	f.enableProvider(t, "docuseal", "")

	doc := f.makeDocument(t, documentdomain.KindInvoice, documentdomain.StatusSent)
	f.linkSignature(t, doc.ID, "docuseal", "77")

	header := http.Header{}
	header.Set("x-docuseal-secret", webhookSecret)
	body := []byte(`{"event_type":"form.completed","data":{"id":77}}`)
	require.NoError(t, f.svc.Ingest(context.Background(), "docuseal", header, body))

	reloaded, err := f.docSvc.GetByID(context.Background(), doc.ID)
	require.NoError(t, err)
	assert.Equal(t, documentdomain.StatusPaid, reloaded.Status)
	assert.NotNil(t, reloaded.PaidAt)
}

func TestIngestDocusealIgnoresOtherEvents(t *testing.T) {
	f := newWebhookFixture(t)
	f.enableProvider(t, "docuseal", "")

	doc := f.makeDocument(t, documentdomain.KindInvoice, documentdomain.StatusSent)
	f.linkSignature(t, doc.ID, "docuseal", "77")

	header := http.Header{}
	header.Set("x-docuseal-secret", webhookSecret)
	body := []byte(`{"event_type":"form.viewed","data":{"id":77}}`)
	require.NoError(t, f.svc.Ingest(context.Background(), "docuseal", header, body))
	assert.Equal(t, documentdomain.StatusSent, f.documentStatus(t, doc.ID))
}

func TestIngestIsCaseInsensitiveOnProviderName(t *testing.T) {
	f := newWebhookFixture(t)
	hits := 0
	srv := documensoAPI(t, "COMPLETED", &hits)
	f.enableProvider(t, "documenso", srv.URL)

	doc := f.makeDocument(t, documentdomain.KindQuote, documentdomain.StatusSent)
	f.linkSignature(t, doc.ID, "documenso", "41")

	header, body := documensoDelivery(webhookSecret, "COMPLETED")
	require.NoError(t, f.svc.Ingest(context.Background(), "Documenso", header, body))
	assert.Equal(t, documentdomain.StatusSigned, f.documentStatus(t, doc.ID))
}
