package domain

import (
	"time"

	"github.com/google/uuid"
)

// ChangeEvent is a server-observed change to one row of a watched table.
// Delivery is at-least-once and unordered relative to local writes.
type ChangeEvent struct {
	Table    string
	Op       ChangeOp
	RecordID uuid.UUID // uuid.Nil for RESYNC
}

// Notification titles.
const (
	NotificationSuccess = "Success"
	NotificationError   = "Error"
)

// Notification variants.
const (
	VariantDefault     = "default"
	VariantDestructive = "destructive"
)

// Notification is a transient, user-facing message about the outcome of an operation.
type Notification struct {
	Title       string
	Description string
	Variant     string
	At          time.Time
}

// SuccessNotification builds a "Success" notification.
func SuccessNotification(description string) Notification {
	return Notification{Title: NotificationSuccess, Description: description, Variant: VariantDefault}
}

// ErrorNotification builds a destructive "Error" notification.
func ErrorNotification(description string) Notification {
	return Notification{Title: NotificationError, Description: description, Variant: VariantDestructive}
}

// IsError reports whether the notification reports a failure.
func (n Notification) IsError() bool {
	return n.Title == NotificationError
}
