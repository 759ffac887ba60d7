package model

import (
	"time"

	"github.com/google/uuid"
)

// NotifyKind is the severity of a user notification.
type NotifyKind int

const (
	NotifyInfo NotifyKind = iota
	NotifySuccess
	NotifyWarning
	NotifyError
	NotifyBasic
)

// String returns a human-readable name for the NotifyKind.
func (k NotifyKind) String() string {
	switch k {
	case NotifySuccess:
		return "success"
	case NotifyWarning:
		return "warning"
	case NotifyError:
		return "error"
	case NotifyBasic:
		return "basic"
	default:
		return "info"
	}
}

// Notification defaults.
const (
	DefaultNotifyDuration = 3500 * time.Millisecond
	ErrorNotifyDuration   = 5000 * time.Millisecond
	ShortNotifyDuration   = 1500 * time.Millisecond
)

// Notification is a transient, severity-tagged message for the UI.
type Notification struct {
	ID        string
	Kind      NotifyKind
	Message   string
	Duration  *time.Duration // nil keeps it until dismissed
	Progress  bool           // Show a countdown bar
	Closable  bool
	CreatedAt time.Time
}

// NewNotification creates a notification with the default lifetime.
func NewNotification(kind NotifyKind, message string) Notification {
	d := DefaultNotifyDuration
	return Notification{
		ID:        uuid.NewString(),
		Kind:      kind,
		Message:   message,
		Duration:  &d,
		Progress:  true,
		CreatedAt: time.Now(),
	}
}

// InfoNotification creates an info notification.
func InfoNotification(message string) Notification {
	return NewNotification(NotifyInfo, message)
}

// SuccessNotification creates a success notification.
func SuccessNotification(message string) Notification {
	return NewNotification(NotifySuccess, message)
}

// WarningNotification creates a warning notification.
func WarningNotification(message string) Notification {
	return NewNotification(NotifyWarning, message)
}

// ErrorNotification creates an error notification that stays a bit longer.
func ErrorNotification(message string) Notification {
	return NewNotification(NotifyError, message).WithDuration(ErrorNotifyDuration)
}

// BasicNotification creates an unstyled notification.
func BasicNotification(message string) Notification {
	return NewNotification(NotifyBasic, message)
}

// WithDuration returns a copy with the given lifetime.
func (n Notification) WithDuration(d time.Duration) Notification {
	n.Duration = &d
	return n
}

// Short returns a copy with the short lifetime.
func (n Notification) Short() Notification {
	return n.WithDuration(ShortNotifyDuration)
}

// Sticky returns a copy that stays until dismissed.
func (n Notification) Sticky() Notification {
	n.Duration = nil
	n.Progress = false
	n.Closable = true
	return n
}

// WithClosable returns a copy the user can dismiss.
func (n Notification) WithClosable() Notification {
	n.Closable = true
	return n
}

// WithoutProgress returns a copy without the countdown bar.
func (n Notification) WithoutProgress() Notification {
	n.Progress = false
	return n
}

// Expired reports whether the lifetime has elapsed at now.
func (n Notification) Expired(now time.Time) bool {
	if n.Duration == nil {
		return false
	}
	return !now.Before(n.CreatedAt.Add(*n.Duration))
}

// Remaining returns the fraction of lifetime left, 1 for sticky notifications.
func (n Notification) Remaining(now time.Time) float64 {
	if n.Duration == nil || *n.Duration <= 0 {
		return 1
	}
	left := n.CreatedAt.Add(*n.Duration).Sub(now)
	if left <= 0 {
		return 0
	}
	return float64(left) / float64(*n.Duration)
}
