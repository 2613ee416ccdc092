// Package bootstrap turns a loaded configuration into a storage provider and the services on top of it.
package bootstrap

import (
	"context"
	"fmt"

	"github.com/julianstephens/growthtrack/internal/api"
	"github.com/julianstephens/growthtrack/internal/config"
	"github.com/julianstephens/growthtrack/internal/constants"
	"github.com/julianstephens/growthtrack/internal/logger"
	"github.com/julianstephens/growthtrack/internal/notifier"
	"github.com/julianstephens/growthtrack/internal/scheduler"
	"github.com/julianstephens/growthtrack/internal/storage"
	"github.com/julianstephens/growthtrack/internal/storage/dynamo"
	"github.com/julianstephens/growthtrack/internal/storage/postgres"
	"github.com/julianstephens/growthtrack/internal/storage/sqlite"
)

// Core is everything a binary needs after startup
type Core struct {
	Config    *config.Config
	Store     storage.Provider
	Scheduler *scheduler.Scheduler
	Services  *api.Services
}

// InitLogger configures the global logger from cfg
func InitLogger(cfg *config.Config) error {
	return logger.Init(logger.Config{
		Debug: cfg.Debug,
		Dir:   cfg.LogDir,
		JSON:  cfg.LogJSON,
		Level: cfg.LogLevel,
	})
}

// NewProvider returns the configured provider, not yet connected
func NewProvider(cfg *config.Config) (storage.Provider, error) {
	var store storage.Provider
	switch cfg.Storage.Provider {
	case constants.ProviderSQLite:
		store = sqlite.NewStore(cfg.Storage.SQLitePath)
	case constants.ProviderPostgres:
		if err := postgres.ValidateConnString(cfg.Storage.PostgresURL); err != nil {
			return nil, err
		}
		store = postgres.New(cfg.Storage.PostgresURL)
	case constants.ProviderDynamo:
		store = dynamo.New(dynamo.Options{
			Region:          cfg.AWS.Region,
			Endpoint:        cfg.AWS.Endpoint,
			AccessKeyID:     cfg.AWS.AccessKeyID,
			SecretAccessKey: cfg.AWS.SecretAccessKey,
			CreateTables:    cfg.AWS.CreateTables,
		})
	default:
		return nil, fmt.Errorf("%w: %q", config.ErrUnknownProvider, cfg.Storage.Provider)
	}

	if cfg.Storage.CacheSize > 0 {
		cached, err := storage.NewCached(store, cfg.Storage.CacheSize)
		if err != nil {
			return nil, fmt.Errorf("failed to create cache: %w", err)
		}
		return cached, nil
	}
	return store, nil
}

// New builds the provider, scheduler and services for cfg without connecting
func New(cfg *config.Config) (*Core, error) {
	store, err := NewProvider(cfg)
	if err != nil {
		return nil, err
	}
	return NewWithProvider(cfg, store, notifier.New(cfg.Notify.Timeout)), nil
}

// NewWithProvider wires the services over an existing provider and sender
func NewWithProvider(cfg *config.Config, store storage.Provider, sender notifier.Sender) *Core {
	sched := scheduler.New(sender, cfg.Notify.SlackWebhookURL)
	return &Core{
		Config:    cfg,
		Store:     store,
		Scheduler: sched,
		Services:  api.NewServices(store, cfg.Tables, sched),
	}
}

// Load connects to existing storage
func (c *Core) Load(ctx context.Context) error {
	if err := c.Store.Load(ctx); err != nil {
		return fmt.Errorf("failed to load %s storage: %w", c.Config.Storage.Provider, err)
	}
	logger.Debug("Storage loaded", "provider", c.Store.Describe())
	return nil
}

// Init creates the storage schema or tables for every service
func (c *Core) Init(ctx context.Context) error {
	if err := c.Store.Init(ctx, api.Tables(c.Config.Tables)...); err != nil {
		return fmt.Errorf("failed to initialize %s storage: %w", c.Config.Storage.Provider, err)
	}
	logger.Info("Storage initialized", "provider", c.Store.Describe())
	return nil
}

func (c *Core) Close() error {
	return c.Store.Close()
}

// StartLambda loads configuration from the environment, logs to stderr and
// connects storage. It is the common startup of the Lambda binaries.
func StartLambda(ctx context.Context) (*Core, error) {
	cfg, err := config.Load("", false)
	if err != nil {
		return nil, err
	}
	cfg.LogDir = ""
	if err := InitLogger(cfg); err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	if disableCache(cfg) {
		logger.Warn("Read cache disabled: other instances' writes would not evict it", "cache_size", cfg.Storage.CacheSize)
		cfg.Storage.CacheSize = 0
	}

	core, err := New(cfg)
	if err != nil {
		return nil, err
	}
	if err := core.Load(ctx); err != nil {
		return nil, err
	}
	return core, nil
}

// disableCache reports whether cfg asks for the process-local read cache,
// which concurrent Lambda instances cannot keep coherent
func disableCache(cfg *config.Config) bool {
	return cfg.Storage.CacheSize > 0
}

// APIOptions returns the fiber app options from cfg
func (c *Core) APIOptions() api.Options {
	return api.Options{Service: c.Config.Server.Service, CORSOrigins: c.Config.Server.CORSOrigins}
}
