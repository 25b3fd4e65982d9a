package docuseal

import (
	"testing"

	documentdomain "github.com/smallbiznis/billora/internal/document/domain"
	"github.com/smallbiznis/billora/internal/signing/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEvent(t *testing.T) {
	a := New()

	event, err := a.ParseEvent([]byte(`{"event_type":"form.completed","data":{"id":77}}`))
	require.NoError(t, err)
	assert.Equal(t, "77", event.ExternalID)
	assert.Equal(t, documentdomain.StatusPaid, event.Status)

	// Only completion carries lifecycle meaning.
	_, err = a.ParseEvent([]byte(`{"event_type":"form.viewed","data":{"id":77}}`))
	assert.ErrorIs(t, err, domain.ErrUnknownEvent)

	_, err = a.ParseEvent([]byte(`{"event_type":"form.completed","data":{}}`))
	assert.ErrorIs(t, err, domain.ErrMalformedEvent)

	_, err = a.ParseEvent([]byte(`{"event_type":"form.completed","data":{"id":"abc"}}`))
	assert.ErrorIs(t, err, domain.ErrMalformedEvent)
}
