package bootstrap

import (
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	coreconfig "github.com/subtrackr/bot/core/config"
	"github.com/subtrackr/bot/core/logger"
	"github.com/subtrackr/bot/internal/api"
	"github.com/subtrackr/bot/internal/session"
)

// Options control the generic bootstrap pipeline shared between bots.
type Options struct {
	Config *coreconfig.Config

	LoggerInit func(*coreconfig.Config) error
	NewStore   func(coreconfig.SessionConfig) (session.Store, error)
	NewClient  func(coreconfig.BackendConfig) *api.Client
}

// Result exposes infrastructure initialized by the bootstrap pipeline.
type Result struct {
	Store    session.Store
	Sessions *session.Registry
	Backend  *api.Client
}

// Run initializes the logger, the session store, and the record backend
// client.
func Run(opts Options) (*Result, error) {
	if opts.Config == nil {
		return nil, fmt.Errorf("bootstrap: nil config provided")
	}

	loggerInit := opts.LoggerInit
	if loggerInit == nil {
		loggerInit = logger.InitLogger
	}
	if err := loggerInit(opts.Config); err != nil {
		return nil, fmt.Errorf("bootstrap: logger init failed: %w", err)
	}

	newStore := opts.NewStore
	if newStore == nil {
		newStore = NewSessionStore
	}
	store, err := newStore(opts.Config.Session)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: session store initialization failed: %w", err)
	}

	newClient := opts.NewClient
	if newClient == nil {
		newClient = NewBackendClient
	}

	return &Result{
		Store:    store,
		Sessions: session.NewRegistry(store),
		Backend:  newClient(opts.Config.Backend),
	}, nil
}

// NewSessionStore builds the session store selected by configuration.
func NewSessionStore(cfg coreconfig.SessionConfig) (session.Store, error) {
	switch cfg.Driver {
	case coreconfig.SessionDriverRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPass,
			DB:       cfg.RedisDB,
		})
		ttl := time.Duration(cfg.TTLSeconds) * time.Second
		return session.NewRedisStore(client, ttl), nil
	case coreconfig.SessionDriverMemory, "":
		return session.NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown session driver %q", cfg.Driver)
	}
}

// NewBackendClient builds the record service client from configuration.
func NewBackendClient(cfg coreconfig.BackendConfig) *api.Client {
	return api.NewClient(api.Options{
		BaseURL: cfg.BaseURL,
		Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second,
	})
}
