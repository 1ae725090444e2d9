// Package audit defines the immutable audit records emitted by every reconciliation
// commit and the sinks that receive them.
package audit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/vmihailenco/msgpack/v5"
)

// Action names the kind of change an audit record documents.
type Action string

const (
	ActionStatementImported      Action = "BANK_STATEMENT_IMPORTED"
	ActionReconciliationComplete Action = "RECONCILIATION_COMPLETED"
	ActionMatchCommitted         Action = "MATCH_COMMITTED"
	ActionExceptionCreated       Action = "EXCEPTION_CREATED"
	ActionExceptionResolved      Action = "EXCEPTION_RESOLVED"
	ActionExceptionStatusChanged Action = "EXCEPTION_STATUS_CHANGED"
	ActionManualMatchCreated     Action = "MANUAL_MATCH_CREATED"
)

// Payload is the free-form body of an audit record.
type Payload map[string]interface{}

// Record is one entry of the audit trail. Records are never updated.
type Record struct {
	ID         string    `json:"id" yaml:"id"`
	Action     Action    `json:"action" yaml:"action"`
	EntityType string    `json:"entity_type" yaml:"entity_type"`
	EntityID   string    `json:"entity_id" yaml:"entity_id"`
	ActorID    string    `json:"actor_id" yaml:"actor_id"`
	OccurredAt time.Time `json:"occurred_at" yaml:"occurred_at"`
	Payload    Payload   `json:"payload" yaml:"payload"`
}

// NewRecord builds a record with a fresh id.
func NewRecord(action Action, entityType, entityID, actorID string, at time.Time, payload Payload) Record {
	return Record{
		ID:         uuid.NewString(),
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		ActorID:    actorID,
		OccurredAt: at.UTC(),
		Payload:    payload,
	}
}

// Sink receives audit records.
type Sink interface {
	Emit(ctx context.Context, records ...Record) error
}

// EncodePayload serializes a payload for storage.
func EncodePayload(p Payload) ([]byte, error) {
	if p == nil {
		p = Payload{}
	}
	b, err := msgpack.Marshal(map[string]interface{}(p))
	if err != nil {
		return nil, fmt.Errorf("failed to encode audit payload: %w", err)
	}
	return b, nil
}

// DecodePayload reverses EncodePayload.
func DecodePayload(b []byte) (Payload, error) {
	p := Payload{}
	if len(b) == 0 {
		return p, nil
	}
	if err := msgpack.Unmarshal(b, &p); err != nil {
		return nil, fmt.Errorf("failed to decode audit payload: %w", err)
	}
	return p, nil
}

// MemorySink keeps records in memory. The zero value is ready to use.
type MemorySink struct {
	mu      sync.Mutex
	records []Record
}

// NewMemorySink creates an empty MemorySink.
func NewMemorySink() *MemorySink {
	return &MemorySink{}
}

// Emit appends records in order.
func (s *MemorySink) Emit(_ context.Context, records ...Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, records...)
	return nil
}

// Records returns a copy of everything emitted so far.
func (s *MemorySink) Records() []Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Record, len(s.records))
	copy(out, s.records)
	return out
}

// ByAction returns the records with the given action.
func (s *MemorySink) ByAction(action Action) []Record {
	var out []Record
	for _, r := range s.Records() {
		if r.Action == action {
			out = append(out, r)
		}
	}
	return out
}
