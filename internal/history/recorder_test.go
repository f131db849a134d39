package history

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
)

type fakeWriter struct {
	inserted []Change
	err      error
}

func (f *fakeWriter) Insert(_ context.Context, c Change) error {
	if f.err != nil {
		return f.err
	}
	f.inserted = append(f.inserted, c)
	return nil
}

func TestRecorderAssignsIdentityAndTimestamp(t *testing.T) {
	writer := &fakeWriter{}
	rec := NewRecorder(writer)

	before := time.Now().UTC()
	rec.Record(context.Background(), Change{
		CollectionID: "col-1",
		ItemID:       "item-1",
		ChangeType:   ChangeAdd,
		AfterData:    map[string]any{"title": "Hello"},
	})

	if len(writer.inserted) != 1 {
		t.Fatalf("inserted = %d, want 1", len(writer.inserted))
	}
	c := writer.inserted[0]
	if err := uuid.Validate(c.ID); err != nil {
		t.Errorf("change id %q is not a uuid: %v", c.ID, err)
	}
	if c.CreatedAt.Before(before) || c.CreatedAt.After(time.Now().UTC()) {
		t.Errorf("created_at %v not within the call window", c.CreatedAt)
	}
	if c.ChangeType != ChangeAdd || c.ItemID != "item-1" {
		t.Errorf("change = %+v", c)
	}
}

func TestRecorderSwallowsWriteFailure(t *testing.T) {
	writer := &fakeWriter{err: errors.New("relation does not exist")}
	rec := NewRecorder(writer)

	// Must not panic and must not surface the failure.
	rec.Record(context.Background(), Change{
		CollectionID: "col-1",
		ItemID:       "item-1",
		ChangeType:   ChangeEdit,
	})

	if len(writer.inserted) != 0 {
		t.Errorf("inserted = %v, want none", writer.inserted)
	}
}

func TestRecorderPreservesMutationOrder(t *testing.T) {
	writer := &fakeWriter{}
	rec := NewRecorder(writer)
	ctx := context.Background()

	rec.Record(ctx, Change{ItemID: "item-1", ChangeType: ChangeAdd})
	rec.Record(ctx, Change{ItemID: "item-1", ChangeType: ChangeEdit})
	rec.Record(ctx, Change{ItemID: "item-1", ChangeType: ChangeDelete})

	want := []ChangeType{ChangeAdd, ChangeEdit, ChangeDelete}
	if len(writer.inserted) != len(want) {
		t.Fatalf("inserted = %d, want %d", len(writer.inserted), len(want))
	}
	for i, ct := range want {
		if writer.inserted[i].ChangeType != ct {
			t.Errorf("entry %d = %s, want %s", i, writer.inserted[i].ChangeType, ct)
		}
	}
}
