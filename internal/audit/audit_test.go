package audit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRecord(t *testing.T) {
	at := time.Date(2024, 3, 15, 10, 0, 0, 0, time.FixedZone("CET", 3600))
	r := NewRecord(ActionMatchCommitted, "transaction", "tx-1", "system", at, Payload{"payment_id": "pay-1"})

	assert.NotEmpty(t, r.ID)
	assert.Equal(t, ActionMatchCommitted, r.Action)
	assert.Equal(t, "tx-1", r.EntityID)
	assert.Equal(t, time.UTC, r.OccurredAt.Location())
	assert.True(t, at.Equal(r.OccurredAt))

	other := NewRecord(ActionMatchCommitted, "transaction", "tx-1", "system", at, nil)
	assert.NotEqual(t, r.ID, other.ID)
}

func TestPayloadRoundTrip(t *testing.T) {
	b, err := EncodePayload(Payload{
		"statement_id": "st-1",
		"count":        3,
		"confidence":   0.85,
		"matched":      true,
	})
	require.NoError(t, err)

	p, err := DecodePayload(b)
	require.NoError(t, err)
	assert.Equal(t, "st-1", p["statement_id"])
	assert.Equal(t, 0.85, p["confidence"])
	assert.Equal(t, true, p["matched"])
	assert.EqualValues(t, 3, p["count"])
}

func TestDecodePayload_Empty(t *testing.T) {
	p, err := DecodePayload(nil)
	require.NoError(t, err)
	assert.Empty(t, p)

	_, err = DecodePayload([]byte{0xc1})
	assert.Error(t, err)
}

func TestMemorySink(t *testing.T) {
	var sink MemorySink
	ctx := context.Background()
	now := time.Now()

	require.NoError(t, sink.Emit(ctx,
		NewRecord(ActionExceptionCreated, "exception", "ex-1", "system", now, nil),
		NewRecord(ActionExceptionCreated, "exception", "ex-2", "system", now, nil),
	))
	require.NoError(t, sink.Emit(ctx, NewRecord(ActionReconciliationComplete, "statement", "st-1", "system", now, nil)))

	records := sink.Records()
	require.Len(t, records, 3)
	assert.Equal(t, "ex-1", records[0].EntityID)
	assert.Len(t, sink.ByAction(ActionExceptionCreated), 2)
	assert.Empty(t, sink.ByAction(ActionManualMatchCreated))
}
