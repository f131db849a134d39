// Package notify defines the structured notification vocabulary used to
// report expected failures across service boundaries: a stable code, a
// human-readable message, a severity, and optionally the offending field.
// Services collect notifications in a Bag and return them as a single error
// value, so a caller receives every field problem in one response instead of
// only the first.
package notify

import (
	"fmt"
	"strings"
)

// Severity classifies a notification as a caller mistake or an
// infrastructure failure.
type Severity string

const (
	// SeverityClient marks bad input: the caller can fix it and retry.
	SeverityClient Severity = "client"
	// SeverityServer marks an infrastructure failure. The message is
	// client-safe; full detail goes to the log, never to the caller.
	SeverityServer Severity = "server"
)

// Notification is one structured failure report.
type Notification struct {
	Code     string   `json:"code"`
	Message  string   `json:"message"`
	Severity Severity `json:"-"`
	Field    string   `json:"field,omitempty"`
}

// Client builds a client-severity notification.
func Client(code, field, message string) Notification {
	return Notification{Code: code, Message: message, Severity: SeverityClient, Field: field}
}

// Server builds a server-severity notification.
func Server(code, message string) Notification {
	return Notification{Code: code, Message: message, Severity: SeverityServer}
}

// Bag accumulates notifications for one operation.
type Bag struct {
	notes []Notification
}

// Add appends one or more notifications to the bag.
func (b *Bag) Add(notes ...Notification) {
	b.notes = append(b.notes, notes...)
}

// Empty reports whether no notifications have been collected.
func (b *Bag) Empty() bool {
	return len(b.notes) == 0
}

// Notifications returns the collected notifications in insertion order.
func (b *Bag) Notifications() []Notification {
	return b.notes
}

// Err returns the collected notifications as an *Error, or nil if the bag
// is empty. Services call this once at the end of an operation.
func (b *Bag) Err() error {
	if len(b.notes) == 0 {
		return nil
	}
	return &Error{Notifications: b.notes}
}

// Error carries the notifications of a failed operation across an error
// return. It is the only error type services surface for expected failures.
type Error struct {
	Notifications []Notification
}

// Error returns a summary of all carried notifications.
func (e *Error) Error() string {
	parts := make([]string, len(e.Notifications))
	for i, n := range e.Notifications {
		if n.Field != "" {
			parts[i] = fmt.Sprintf("%s (%s): %s", n.Code, n.Field, n.Message)
		} else {
			parts[i] = fmt.Sprintf("%s: %s", n.Code, n.Message)
		}
	}
	return strings.Join(parts, "; ")
}

// HasServer reports whether any carried notification is server-severity.
func (e *Error) HasServer() bool {
	for _, n := range e.Notifications {
		if n.Severity == SeverityServer {
			return true
		}
	}
	return false
}

// Single wraps one notification in an *Error. Convenience for fail-fast
// paths that report exactly one problem.
func Single(n Notification) error {
	return &Error{Notifications: []Notification{n}}
}
