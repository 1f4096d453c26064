// Package notifications stores per-user notifications in the
// notifications collection and optionally forwards each one to a webhook.
package notifications

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mediguide-lk/mediguide/internal/store"
)

// ErrNotFound is returned when a notification does not exist for the user.
var ErrNotFound = errors.New("notification not found")

// Service manages the notifications collection.
type Service struct {
	kv         store.KV
	dispatcher *Dispatcher
	now        func() time.Time

	mu sync.Mutex
}

// NewService creates a Service over kv. dispatcher may be nil.
func NewService(kv store.KV, dispatcher *Dispatcher) *Service {
	return &Service{kv: kv, dispatcher: dispatcher, now: time.Now}
}

func (s *Service) load(ctx context.Context) []Notification {
	return store.Load(ctx, s.kv, store.KeyNotifications, []Notification{})
}

// Notify stores n for its user and forwards it to the webhook, if any.
func (s *Service) Notify(ctx context.Context, n Notification) (Notification, error) {
	if n.UserID == "" {
		return Notification{}, errors.New("notification has no user")
	}
	if n.ID == "" {
		n.ID = uuid.New().String()
	}
	if n.Type == "" {
		n.Type = TypeInfo
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = s.now().UTC()
	}
	n.IsRead = false

	s.mu.Lock()
	all := s.load(ctx)
	err := store.Save(ctx, s.kv, store.KeyNotifications, append(all, n))
	s.mu.Unlock()
	if err != nil {
		return Notification{}, fmt.Errorf("saving notification: %w", err)
	}

	if s.dispatcher != nil {
		s.dispatcher.Send(ctx, n)
	}
	return n, nil
}

// List returns the user's notifications, newest first.
func (s *Service) List(ctx context.Context, userID string) []Notification {
	s.mu.Lock()
	all := s.load(ctx)
	s.mu.Unlock()

	out := []Notification{}
	for _, n := range all {
		if n.UserID == userID {
			out = append(out, n)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

// UnreadCount counts the user's unread notifications.
func (s *Service) UnreadCount(ctx context.Context, userID string) int {
	count := 0
	for _, n := range s.List(ctx, userID) {
		if !n.IsRead {
			count++
		}
	}
	return count
}

// MarkRead marks one of the user's notifications as read.
func (s *Service) MarkRead(ctx context.Context, userID, id string) error {
	changed, err := s.update(ctx, func(n *Notification) bool {
		return n.UserID == userID && n.ID == id
	})
	if err != nil {
		return err
	}
	if changed == 0 {
		return ErrNotFound
	}
	return nil
}

// MarkAllRead marks every notification of the user as read and returns how
// many changed.
func (s *Service) MarkAllRead(ctx context.Context, userID string) (int, error) {
	return s.update(ctx, func(n *Notification) bool { return n.UserID == userID && !n.IsRead })
}

// update marks matching notifications read. Matches that are already read
// still count, so MarkRead is idempotent.
func (s *Service) update(ctx context.Context, match func(*Notification) bool) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	all := s.load(ctx)
	changed := 0
	for i := range all {
		if match(&all[i]) {
			all[i].IsRead = true
			changed++
		}
	}
	if changed == 0 {
		return 0, nil
	}
	if err := store.Save(ctx, s.kv, store.KeyNotifications, all); err != nil {
		return 0, fmt.Errorf("saving notifications: %w", err)
	}
	return changed, nil
}
