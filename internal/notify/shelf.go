package notify

import (
	"time"

	"github.com/kostyay/kaspamon/internal/model"
)

// Shelf holds the notifications currently on screen.
// It lives on the UI side and is not safe for concurrent use.
type Shelf struct {
	items []model.Notification
	limit int

	errors   bool
	warnings bool
	infos    bool
}

// NewShelf creates a shelf showing at most limit notifications.
func NewShelf(limit int) *Shelf {
	if limit <= 0 {
		limit = 5
	}
	return &Shelf{limit: limit}
}

// Add places notifications on the shelf, evicting the oldest past the limit.
func (s *Shelf) Add(ns ...model.Notification) {
	for _, n := range ns {
		switch n.Kind {
		case model.NotifyError:
			s.errors = true
		case model.NotifyWarning:
			s.warnings = true
		case model.NotifyInfo:
			s.infos = true
		}
		s.items = append(s.items, n)
	}
	if over := len(s.items) - s.limit; over > 0 {
		s.items = append(s.items[:0], s.items[over:]...)
	}
}

// Prune removes notifications whose lifetime has elapsed.
func (s *Shelf) Prune(now time.Time) {
	kept := s.items[:0]
	for _, n := range s.items {
		if !n.Expired(now) {
			kept = append(kept, n)
		}
	}
	s.items = kept
}

// Dismiss removes the notification with the given id.
func (s *Shelf) Dismiss(id string) bool {
	for i, n := range s.items {
		if n.ID == id {
			s.items = append(s.items[:i], s.items[i+1:]...)
			return true
		}
	}
	return false
}

// DismissNewest removes the most recent notification.
func (s *Shelf) DismissNewest() bool {
	if len(s.items) == 0 {
		return false
	}
	return s.Dismiss(s.items[len(s.items)-1].ID)
}

// Items returns the notifications on the shelf, oldest first.
func (s *Shelf) Items() []model.Notification {
	out := make([]model.Notification, len(s.items))
	copy(out, s.items)
	return out
}

// Clear empties the shelf and resets the severity flags.
func (s *Shelf) Clear() {
	s.items = nil
	s.errors, s.warnings, s.infos = false, false, false
}

// HasErrors reports whether an error was shown since the last Clear.
func (s *Shelf) HasErrors() bool { return s.errors }

// HasWarnings reports whether a warning was shown since the last Clear.
func (s *Shelf) HasWarnings() bool { return s.warnings }

// HasInfos reports whether an info was shown since the last Clear.
func (s *Shelf) HasInfos() bool { return s.infos }
