package accounts

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/mediguide-lk/mediguide/internal/audit"
	"github.com/mediguide-lk/mediguide/internal/store"
)

// Config holds the fixed credential pairs.
type Config struct {
	AdminEmail    string
	AdminPassword string
	// DemoUser enables the user@mediguide.lk / user123 account.
	DemoUser bool
}

// Service manages the registered-users collection.
type Service struct {
	kv       store.KV
	cfg      Config
	audit    audit.Logger
	validate *validator.Validate
	cost     int

	mu sync.Mutex
}

// Option configures a Service.
type Option func(*Service)

// WithAudit records sign-ins and sign-ups.
func WithAudit(l audit.Logger) Option {
	return func(s *Service) { s.audit = l }
}

// WithHashCost overrides the bcrypt cost. Tests use bcrypt.MinCost.
func WithHashCost(cost int) Option {
	return func(s *Service) { s.cost = cost }
}

// NewService creates a Service over kv.
func NewService(kv store.KV, cfg Config, opts ...Option) *Service {
	s := &Service{
		kv:       kv,
		cfg:      cfg,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		cost:     bcrypt.DefaultCost,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) load(ctx context.Context) []UserProfile {
	return store.Load(ctx, s.kv, store.KeyUsers, []UserProfile{})
}

// Signup registers a new user and signs them in.
func (s *Service) Signup(ctx context.Context, req SignupRequest) (*Session, error) {
	req.FullName = strings.TrimSpace(req.FullName)
	req.Email = strings.TrimSpace(req.Email)
	req.NIC = strings.TrimSpace(req.NIC)
	req.Phone = strings.TrimSpace(req.Phone)
	if err := s.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w (%v)", ErrMissingFields, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	users := s.load(ctx)
	if s.reserved(req.Email) {
		return nil, ErrEmailTaken
	}
	for _, u := range users {
		if strings.EqualFold(u.Email, req.Email) {
			return nil, ErrEmailTaken
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.cost)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}
	user := UserProfile{
		ID:       uuid.New().String(),
		FullName: req.FullName,
		Email:    req.Email,
		Password: string(hash),
		NIC:      req.NIC,
		Phone:    req.Phone,
	}
	if err := store.Save(ctx, s.kv, store.KeyUsers, append(users, user)); err != nil {
		return nil, err
	}

	s.record(ctx, audit.Entry{ActorType: audit.ActorUser, ActorID: user.ID, Action: audit.ActionSignup, Subject: user.Email})
	return &Session{Role: RoleUser, User: user.Public(), ShowOnboarding: true}, nil
}

func (s *Service) reserved(email string) bool {
	return strings.EqualFold(email, s.cfg.AdminEmail) || (s.cfg.DemoUser && strings.EqualFold(email, DemoEmail))
}

// Login resolves credentials in order: administrator, registered users,
// demo user. Anything else is ErrInvalidCredentials.
func (s *Service) Login(ctx context.Context, email, password string) (*Session, error) {
	email = strings.TrimSpace(email)

	sess, err := s.login(ctx, email, password)
	entry := audit.Entry{ActorType: audit.ActorAnonymous, Action: audit.ActionLogin, Subject: email}
	if err != nil {
		entry.Outcome = audit.OutcomeRejected
		entry.Summary = err.Error()
	} else {
		entry.ActorType = audit.ActorUser
		if sess.Role == RoleAdmin {
			entry.ActorType = audit.ActorAdmin
		}
		entry.ActorID = sess.User.ID
		entry.Outcome = audit.OutcomeSuccess
	}
	s.record(ctx, entry)
	return sess, err
}

func (s *Service) login(ctx context.Context, email, password string) (*Session, error) {
	if s.cfg.AdminEmail != "" && strings.EqualFold(email, s.cfg.AdminEmail) && password == s.cfg.AdminPassword {
		return &Session{Role: RoleAdmin, User: UserProfile{ID: AdminID, FullName: "Administrator", Email: s.cfg.AdminEmail}}, nil
	}

	s.mu.Lock()
	users := s.load(ctx)
	for i, u := range users {
		if !strings.EqualFold(u.Email, email) {
			continue
		}
		ok, legacy := checkPassword(u.Password, password)
		if !ok {
			continue
		}
		if legacy {
			s.rehash(ctx, users, i, password)
		}
		s.mu.Unlock()
		return &Session{Role: RoleUser, User: u.Public(), ShowOnboarding: !s.onboarded(ctx, u.ID)}, nil
	}
	s.mu.Unlock()

	if s.cfg.DemoUser && strings.EqualFold(email, DemoEmail) && password == demoPass {
		return &Session{Role: RoleUser, User: DemoProfile(), ShowOnboarding: true}, nil
	}
	return nil, ErrInvalidCredentials
}

// checkPassword compares against a bcrypt hash, or against a legacy
// plaintext value; legacy reports the latter.
func checkPassword(stored, given string) (ok, legacy bool) {
	if strings.HasPrefix(stored, "$2") {
		return bcrypt.CompareHashAndPassword([]byte(stored), []byte(given)) == nil, false
	}
	return stored != "" && stored == given, true
}

// rehash replaces a plaintext password with its hash. Callers hold s.mu.
func (s *Service) rehash(ctx context.Context, users []UserProfile, i int, password string) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		log.Printf("accounts: rehashing password for %s: %v", users[i].ID, err)
		return
	}
	users[i].Password = string(hash)
	if err := store.Save(ctx, s.kv, store.KeyUsers, users); err != nil {
		log.Printf("accounts: saving rehashed password for %s: %v", users[i].ID, err)
	}
}

func (s *Service) onboarded(ctx context.Context, userID string) bool {
	_, ok, err := s.kv.Get(ctx, store.OnboardingKey(userID))
	if err != nil {
		log.Printf("accounts: reading onboarding flag: %v", err)
	}
	return ok
}

// CompleteOnboarding marks the onboarding tour as done for userID.
func (s *Service) CompleteOnboarding(ctx context.Context, userID string) error {
	if userID == "" {
		return ErrNotFound
	}
	if err := s.kv.Set(ctx, store.OnboardingKey(userID), []byte("true")); err != nil {
		return fmt.Errorf("saving onboarding flag: %w", err)
	}
	s.record(ctx, audit.Entry{ActorType: audit.ActorUser, ActorID: userID, Action: audit.ActionOnboarding})
	return nil
}

// Users returns every registered user without passwords.
func (s *Service) Users(ctx context.Context) []UserProfile {
	s.mu.Lock()
	defer s.mu.Unlock()
	users := s.load(ctx)
	out := make([]UserProfile, len(users))
	for i, u := range users {
		out[i] = u.Public()
	}
	return out
}

// Get returns the profile for id, including the fixed demo account.
func (s *Service) Get(ctx context.Context, id string) (UserProfile, error) {
	if s.cfg.DemoUser && id == DemoID {
		return DemoProfile(), nil
	}
	for _, u := range s.Users(ctx) {
		if u.ID == id {
			return u, nil
		}
	}
	return UserProfile{}, ErrNotFound
}

func (s *Service) record(ctx context.Context, e audit.Entry) {
	if s.audit == nil {
		return
	}
	if e.Outcome == "" {
		e.Outcome = audit.OutcomeSuccess
	}
	if err := s.audit.Log(ctx, e); err != nil {
		log.Printf("accounts: %v", err)
	}
}

// IsUserError reports whether err carries a message meant for the user.
func IsUserError(err error) bool {
	return errors.Is(err, ErrInvalidCredentials) || errors.Is(err, ErrMissingFields) || errors.Is(err, ErrEmailTaken)
}
