package history

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// ChangeWriter is the persistence surface the recorder needs. *Repository
// implements it; tests substitute an in-memory fake.
type ChangeWriter interface {
	Insert(ctx context.Context, c Change) error
}

// Recorder writes item changes synchronously so the log order always
// matches the mutation order: an item's edit entry can never land before
// its add entry. Recording is best-effort: a storage failure is logged and
// swallowed, never surfaced to the mutation that triggered it.
type Recorder struct {
	writer ChangeWriter
}

// NewRecorder creates a new change Recorder.
func NewRecorder(writer ChangeWriter) *Recorder {
	return &Recorder{writer: writer}
}

// Record appends one change entry, assigning its id and timestamp.
func (r *Recorder) Record(ctx context.Context, c Change) {
	c.ID = uuid.NewString()
	c.CreatedAt = time.Now().UTC()

	if err := r.writer.Insert(ctx, c); err != nil {
		slog.Error("failed to record item change",
			"collection_id", c.CollectionID,
			"item_id", c.ItemID,
			"change_type", c.ChangeType,
			"error", err,
		)
	}
}
