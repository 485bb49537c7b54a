// The submission ledger is the source of truth for "already contacted"
// across runs. Records are append-only; readers treat any sent record
// for an id as the dedup signal, so duplicate appends after a crash
// retry are harmless.

package ledger

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type Outcome string

const (
	OutcomeSent    Outcome = "sent"
	OutcomeSkipped Outcome = "skipped"
	OutcomeFailed  Outcome = "failed"
)

// Record is one contact attempt. Never mutated after creation.
type Record struct {
	ID          string    `json:"id"`
	PostingID   string    `json:"postingId"`
	ContactedAt time.Time `json:"contactedAt"`
	Outcome     Outcome   `json:"outcome"`
}

// NewRecord stamps a record for a posting contacted now.
func NewRecord(postingID string, outcome Outcome) Record {
	return Record{
		ID:          uuid.New().String(),
		PostingID:   postingID,
		ContactedAt: time.Now(),
		Outcome:     outcome,
	}
}

// Ledger is a durable append-only record store keyed by posting id.
type Ledger interface {
	// Exists reports whether the posting already has a sent record.
	Exists(ctx context.Context, postingID string) (bool, error)
	// Append stores the record. Idempotent under crash-then-retry.
	Append(ctx context.Context, rec Record) error
	Close() error
}
