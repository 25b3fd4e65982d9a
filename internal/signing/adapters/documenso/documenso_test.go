package documenso

import (
	"testing"

	documentdomain "github.com/smallbiznis/billora/internal/document/domain"
	"github.com/smallbiznis/billora/internal/signing/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEvent(t *testing.T) {
	a := New()

	event, err := a.ParseEvent([]byte(`{"event":"DOCUMENT_COMPLETED","payload":{"id":41,"status":"COMPLETED"}}`))
	require.NoError(t, err)
	assert.Equal(t, "41", event.ExternalID)
	assert.Equal(t, documentdomain.StatusSigned, event.Status)

	_, err = a.ParseEvent([]byte(`{"payload":{"id":0}}`))
	assert.ErrorIs(t, err, domain.ErrMalformedEvent)

	_, err = a.ParseEvent([]byte(`not json`))
	assert.ErrorIs(t, err, domain.ErrMalformedEvent)
}

func TestMapStatus(t *testing.T) {
	assert.Equal(t, documentdomain.StatusDraft, mapStatus("DRAFT"))
	assert.Equal(t, documentdomain.StatusSent, mapStatus("PENDING"))
	assert.Equal(t, documentdomain.StatusSigned, mapStatus("completed"))
	assert.Equal(t, documentdomain.StatusRejected, mapStatus("REJECTED"))
	assert.Empty(t, mapStatus("ARCHIVED"))
}

func TestAPIBaseURL(t *testing.T) {
	assert.Equal(t, "https://sign.example.com/api/v2-beta", apiBaseURL("https://sign.example.com"))
	assert.Equal(t, "https://sign.example.com/api/v2-beta", apiBaseURL("https://sign.example.com/"))
	assert.Equal(t, "https://sign.example.com/api/v1", apiBaseURL("https://sign.example.com/api/v1"))
}

func TestDescribe(t *testing.T) {
	desc := New().Describe()
	assert.Equal(t, ProviderName, desc.ID)
	assert.True(t, desc.Has(domain.CapabilityStatusAPI))
	assert.True(t, desc.Has(domain.CapabilityWebhookAuth))
}
