// Package inquiries records price-overcharge reports, lets the administrator
// move them through review and summarises them for the dashboard.
package inquiries

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/mediguide-lk/mediguide/internal/audit"
	"github.com/mediguide-lk/mediguide/internal/notifications"
	"github.com/mediguide-lk/mediguide/internal/store"
)

// Notifier delivers notifications to users.
type Notifier interface {
	Notify(ctx context.Context, n notifications.Notification) (notifications.Notification, error)
}

// Service manages the inquiries collection.
type Service struct {
	kv       store.KV
	notifier Notifier
	audit    audit.Logger
	validate *validator.Validate
	now      func() time.Time

	mu sync.Mutex
}

// Option configures a Service.
type Option func(*Service)

// WithAudit records submissions and status changes.
func WithAudit(l audit.Logger) Option {
	return func(s *Service) { s.audit = l }
}

// NewService creates a Service. notifier may be nil.
func NewService(kv store.KV, notifier Notifier, opts ...Option) *Service {
	s := &Service{
		kv:       kv,
		notifier: notifier,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) load(ctx context.Context) []Inquiry {
	return store.Load(ctx, s.kv, store.KeyInquiries, []Inquiry{})
}

// Submit files a new Pending inquiry for userID.
func (s *Service) Submit(ctx context.Context, userID string, req SubmitRequest) (*Inquiry, error) {
	req.MedicineName = strings.TrimSpace(req.MedicineName)
	req.PricePaid = strings.TrimSpace(req.PricePaid)
	req.PharmacyName = strings.TrimSpace(req.PharmacyName)
	req.Location = strings.TrimSpace(req.Location)
	req.Date = strings.TrimSpace(req.Date)
	if err := s.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w (%v)", ErrInvalid, err)
	}

	now := s.now().UTC()
	if req.Date == "" {
		req.Date = now.Format(time.DateOnly)
	}
	inq := Inquiry{
		ID:           uuid.New().String(),
		UserID:       userID,
		MedicineName: req.MedicineName,
		PricePaid:    req.PricePaid,
		PharmacyName: req.PharmacyName,
		Location:     req.Location,
		Date:         req.Date,
		NIC:          strings.TrimSpace(req.NIC),
		Phone:        strings.TrimSpace(req.Phone),
		BillImage:    req.BillImage,
		Status:       StatusPending,
		SubmittedAt:  now,
	}

	s.mu.Lock()
	err := store.Save(ctx, s.kv, store.KeyInquiries, append(s.load(ctx), inq))
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}

	s.notify(ctx, notifications.Notification{
		UserID:           userID,
		Title:            "Inquiry submitted",
		Message:          fmt.Sprintf("Your report about %s at %s was received and is pending review.", inq.MedicineName, inq.PharmacyName),
		Type:             notifications.TypeSuccess,
		RelatedInquiryID: inq.ID,
	})
	s.record(ctx, audit.Entry{ActorType: audit.ActorUser, ActorID: userID, Action: audit.ActionInquirySubmit, Subject: inq.ID, Summary: inq.MedicineName})
	return &inq, nil
}

// ListForUser returns the user's inquiries, newest first.
func (s *Service) ListForUser(ctx context.Context, userID string) []Inquiry {
	return s.filter(ctx, func(i Inquiry) bool { return i.UserID == userID })
}

// List returns every inquiry, newest first, optionally limited to status.
func (s *Service) List(ctx context.Context, status Status) []Inquiry {
	return s.filter(ctx, func(i Inquiry) bool { return status == "" || i.Status == status })
}

func (s *Service) filter(ctx context.Context, keep func(Inquiry) bool) []Inquiry {
	s.mu.Lock()
	all := s.load(ctx)
	s.mu.Unlock()

	out := []Inquiry{}
	for _, inq := range all {
		if keep(inq) {
			out = append(out, inq)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].SubmittedAt.After(out[j].SubmittedAt) })
	return out
}

// Get returns one inquiry.
func (s *Service) Get(ctx context.Context, id string) (*Inquiry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, inq := range s.load(ctx) {
		if inq.ID == id {
			return &inq, nil
		}
	}
	return nil, ErrNotFound
}

// UpdateStatus moves an inquiry forward and notifies its user. Moving to the
// same or an earlier status is rejected.
func (s *Service) UpdateStatus(ctx context.Context, actorID, id string, status Status) (*Inquiry, error) {
	next, ok := statusRank[status]
	if !ok {
		return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidTransition, status)
	}

	s.mu.Lock()
	all := s.load(ctx)
	idx := -1
	for i := range all {
		if all[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		s.mu.Unlock()
		return nil, ErrNotFound
	}
	prev := all[idx].Status
	if next <= statusRank[prev] {
		s.mu.Unlock()
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, prev, status)
	}
	all[idx].Status = status
	updated := all[idx]
	err := store.Save(ctx, s.kv, store.KeyInquiries, all)
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}

	s.notify(ctx, statusNotification(updated))
	s.record(ctx, audit.Entry{
		ActorType: audit.ActorAdmin,
		ActorID:   actorID,
		Action:    audit.ActionInquiryStatus,
		Subject:   id,
		Summary:   fmt.Sprintf("%s -> %s", prev, status),
	})
	return &updated, nil
}

func statusNotification(inq Inquiry) notifications.Notification {
	n := notifications.Notification{
		UserID:           inq.UserID,
		RelatedInquiryID: inq.ID,
	}
	switch inq.Status {
	case StatusReviewed:
		n.Title = "Inquiry reviewed"
		n.Message = fmt.Sprintf("Your report about %s at %s has been reviewed.", inq.MedicineName, inq.PharmacyName)
		n.Type = notifications.TypeInfo
	case StatusActionTaken:
		n.Title = "Action taken"
		n.Message = fmt.Sprintf("Action has been taken on your report about %s at %s.", inq.MedicineName, inq.PharmacyName)
		n.Type = notifications.TypeSuccess
	}
	return n
}

// Analytics summarises every inquiry.
func (s *Service) Analytics(ctx context.Context) Analytics {
	s.mu.Lock()
	all := s.load(ctx)
	s.mu.Unlock()

	a := Analytics{
		Total:        len(all),
		TopMedicines: []MedicineCount{},
		Locations:    map[string]int{},
	}
	counts := map[string]int{}
	for _, inq := range all {
		switch inq.Status {
		case StatusPending:
			a.StatusDistribution.Pending++
		case StatusReviewed:
			a.StatusDistribution.Reviewed++
		case StatusActionTaken:
			a.StatusDistribution.ActionTaken++
		}
		counts[inq.MedicineName]++
		loc := inq.Location
		if loc == "" {
			loc = UnknownLocation
		}
		a.Locations[loc]++
	}

	for name, n := range counts {
		a.TopMedicines = append(a.TopMedicines, MedicineCount{Name: name, Count: n})
	}
	sort.Slice(a.TopMedicines, func(i, j int) bool {
		if a.TopMedicines[i].Count != a.TopMedicines[j].Count {
			return a.TopMedicines[i].Count > a.TopMedicines[j].Count
		}
		return a.TopMedicines[i].Name < a.TopMedicines[j].Name
	})
	if len(a.TopMedicines) > TopMedicineLimit {
		a.TopMedicines = a.TopMedicines[:TopMedicineLimit]
	}
	return a
}

func (s *Service) notify(ctx context.Context, n notifications.Notification) {
	if s.notifier == nil || n.UserID == "" {
		return
	}
	if _, err := s.notifier.Notify(ctx, n); err != nil {
		log.Printf("inquiries: notifying %s: %v", n.UserID, err)
	}
}

func (s *Service) record(ctx context.Context, e audit.Entry) {
	if s.audit == nil {
		return
	}
	e.Outcome = audit.OutcomeSuccess
	if err := s.audit.Log(ctx, e); err != nil {
		log.Printf("inquiries: %v", err)
	}
}
