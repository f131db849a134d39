package notify

import (
	"errors"
	"testing"
)

func TestBagCollectsInOrder(t *testing.T) {
	var bag Bag
	bag.Add(Client("A", "title", "first"))
	bag.Add(Client("B", "body", "second"), Server("C", "third"))

	notes := bag.Notifications()
	if len(notes) != 3 {
		t.Fatalf("expected 3 notifications, got %d", len(notes))
	}
	if notes[0].Code != "A" || notes[1].Code != "B" || notes[2].Code != "C" {
		t.Errorf("unexpected order: %+v", notes)
	}
}

func TestBagErr(t *testing.T) {
	t.Run("empty bag returns nil", func(t *testing.T) {
		var bag Bag
		if err := bag.Err(); err != nil {
			t.Fatalf("expected nil, got %v", err)
		}
	})

	t.Run("non-empty bag returns Error", func(t *testing.T) {
		var bag Bag
		bag.Add(Client("X", "f", "bad"))

		err := bag.Err()
		var nerr *Error
		if !errors.As(err, &nerr) {
			t.Fatalf("expected *Error, got %T", err)
		}
		if len(nerr.Notifications) != 1 {
			t.Fatalf("expected 1 notification, got %d", len(nerr.Notifications))
		}
	})
}

func TestErrorHasServer(t *testing.T) {
	clientOnly := &Error{Notifications: []Notification{Client("A", "", "a")}}
	if clientOnly.HasServer() {
		t.Error("client-only error reported server severity")
	}

	mixed := &Error{Notifications: []Notification{Client("A", "", "a"), Server("B", "b")}}
	if !mixed.HasServer() {
		t.Error("mixed error did not report server severity")
	}
}

func TestErrorMessage(t *testing.T) {
	err := Single(Client("FIELD_REQUIRED", "title", "is required"))
	want := "FIELD_REQUIRED (title): is required"
	if err.Error() != want {
		t.Errorf("got %q, want %q", err.Error(), want)
	}
}
