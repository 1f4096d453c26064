// Package app wires the MediGuide services together from a Config.
package app

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log"

	"github.com/mediguide-lk/mediguide/internal/accounts"
	"github.com/mediguide-lk/mediguide/internal/advisory"
	"github.com/mediguide-lk/mediguide/internal/audit"
	"github.com/mediguide-lk/mediguide/internal/config"
	"github.com/mediguide-lk/mediguide/internal/db"
	"github.com/mediguide-lk/mediguide/internal/gateway"
	"github.com/mediguide-lk/mediguide/internal/history"
	"github.com/mediguide-lk/mediguide/internal/inquiries"
	"github.com/mediguide-lk/mediguide/internal/llm"
	"github.com/mediguide-lk/mediguide/internal/notifications"
	"github.com/mediguide-lk/mediguide/internal/orchestrator"
	"github.com/mediguide-lk/mediguide/internal/store"
)

// App owns every long-lived service. There is one per process.
type App struct {
	Config   *config.Config
	Language advisory.Language

	DB            *db.DB
	KV            store.KV
	Audit         *audit.Store
	Accounts      *accounts.Service
	Tokens        *accounts.TokenIssuer
	Notifications *notifications.Service
	Inquiries     *inquiries.Service
	Provider      llm.Provider
	Usage         *llm.Meter
	Gateway       *gateway.Gateway
	Orchestrator  *orchestrator.Orchestrator

	// History is nil unless history.enabled is set.
	History *history.Index
}

type buildOptions struct {
	provider llm.Provider
	embedder history.Embedder
	memory   bool
}

// Option overrides part of the wiring, mostly for tests.
type Option func(*buildOptions)

// WithProvider uses p instead of building one from the config.
func WithProvider(p llm.Provider) Option {
	return func(o *buildOptions) { o.provider = p }
}

// WithEmbedder uses e for the history index.
func WithEmbedder(e history.Embedder) Option {
	return func(o *buildOptions) { o.embedder = e }
}

// InMemory keeps the database and history index in memory.
func InMemory() Option {
	return func(o *buildOptions) { o.memory = true }
}

// Build opens storage and constructs all services described by cfg.
func Build(ctx context.Context, cfg *config.Config, opts ...Option) (*App, error) {
	var bo buildOptions
	for _, opt := range opts {
		opt(&bo)
	}

	lang, ok := advisory.ParseLanguage(cfg.Language)
	if !ok {
		return nil, fmt.Errorf("unsupported language %q", cfg.Language)
	}

	a := &App{Config: cfg, Language: lang}

	var err error
	if bo.memory {
		a.DB, err = db.OpenMemory()
	} else {
		a.DB, err = db.Open(cfg.DBPath())
	}
	if err != nil {
		return nil, err
	}

	if err := a.build(ctx, bo); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

func (a *App) build(ctx context.Context, bo buildOptions) error {
	cfg := a.Config

	a.KV = store.NewSQLiteKV(a.DB)
	a.Audit = audit.NewStore(a.DB)

	a.Accounts = accounts.NewService(a.KV, accounts.Config{
		AdminEmail:    cfg.Accounts.AdminEmail,
		AdminPassword: cfg.Accounts.AdminPassword,
		DemoUser:      cfg.Accounts.DemoUser,
	}, accounts.WithAudit(a.Audit))

	secret := cfg.Server.JWTSecret
	if secret == "" {
		var err error
		if secret, err = randomSecret(); err != nil {
			return err
		}
		log.Printf("app: no server.jwt_secret configured, sessions will not survive a restart")
	}
	tokens, err := accounts.NewTokenIssuer(secret, cfg.Server.TokenTTL)
	if err != nil {
		return err
	}
	a.Tokens = tokens

	a.Notifications = notifications.NewService(a.KV, notifications.NewDispatcher(cfg.Notifications.WebhookURL))
	a.Inquiries = inquiries.NewService(a.KV, a.Notifications, inquiries.WithAudit(a.Audit))

	provider := bo.provider
	if provider == nil {
		provider, err = llm.NewProvider(ctx, string(cfg.Provider), cfg.Models.Structured)
		if err != nil {
			return fmt.Errorf("creating %s provider: %w", cfg.Provider, err)
		}
	}
	a.Provider = llm.NewRateLimitedProvider(provider, cfg.RequestsPerMinute)

	a.Usage = &llm.Meter{}
	a.Gateway = gateway.New(a.Provider, gateway.Models{
		Structured: cfg.Models.Structured,
		Image:      cfg.Models.Image,
		Pharmacy:   cfg.Models.Pharmacy,
	}, gateway.WithTemperature(cfg.Temperature), gateway.WithMeter(a.Usage))

	observers := []orchestrator.Observer{a.Audit}
	if cfg.History.Enabled {
		idx, err := a.openHistory(bo)
		if err != nil {
			return err
		}
		a.History = idx
		observers = append(observers, idx)
	}
	a.Orchestrator = orchestrator.New(a.Gateway, orchestrator.WithObserver(observers...))
	return nil
}

func (a *App) openHistory(bo buildOptions) (*history.Index, error) {
	emb := bo.embedder
	if emb == nil {
		var err error
		emb, err = history.NewEmbedder(string(a.Config.History.EmbeddingProvider), a.Config.History.EmbeddingModel)
		if err != nil {
			return nil, fmt.Errorf("history embedder: %w", err)
		}
	}
	dir := a.Config.HistoryDir()
	if bo.memory {
		dir = ""
	}
	return history.Open(history.ToChromemFunc(emb), dir)
}

// Close waits for background indexing and closes the database.
func (a *App) Close() error {
	if a.History != nil {
		a.History.Wait()
	}
	if a.DB == nil {
		return nil
	}
	return a.DB.Close()
}

func randomSecret() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generating session secret: %w", err)
	}
	return hex.EncodeToString(b), nil
}
