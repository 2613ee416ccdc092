package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/pelletier/go-toml/v2"

	"github.com/julianstephens/growthtrack/internal/constants"
	"github.com/julianstephens/growthtrack/internal/keyring"
	"github.com/julianstephens/growthtrack/internal/logger"
)

var (
	ErrUnknownProvider     = errors.New("unknown storage provider")
	ErrEmbeddedCredentials = errors.New("postgres_url in the config file must not contain a password")
)

// Config is built once at process start and passed down explicitly
type Config struct {
	Debug    bool   `toml:"debug" env:"DEBUG"`
	LogDir   string `toml:"log_dir" env:"LOG_DIR"`
	LogJSON  bool   `toml:"log_json" env:"LOG_JSON"`
	LogLevel string `toml:"log_level" env:"LOG_LEVEL"`
	// DisableKeyring skips secret lookups on hosts without an OS keyring
	DisableKeyring bool `toml:"disable_keyring" env:"DISABLE_KEYRING"`

	Server   ServerConfig   `toml:"server"`
	Storage  StorageConfig  `toml:"storage"`
	AWS      AWSConfig      `toml:"aws"`
	Tables   TableConfig    `toml:"tables"`
	Notify   NotifyConfig   `toml:"notify"`
	Reminder ReminderConfig `toml:"reminder"`
}

type ServerConfig struct {
	Addr        string   `toml:"addr" env:"ADDR"`
	Service     string   `toml:"service" env:"SERVICE"`
	CORSOrigins []string `toml:"cors_origins" env:"CORS_ORIGINS" envSeparator:","`
}

type StorageConfig struct {
	Provider    string `toml:"provider" env:"STORAGE_PROVIDER"`
	SQLitePath  string `toml:"sqlite_path" env:"SQLITE_PATH"`
	PostgresURL string `toml:"postgres_url" env:"POSTGRES_URL"`
	// CacheSize enables the LRU read cache when positive. The cache is
	// process-local, so it is ignored by the Lambda entry points.
	CacheSize int `toml:"cache_size" env:"CACHE_SIZE"`
}

type AWSConfig struct {
	Region          string `toml:"region" env:"AWS_REGION"`
	Endpoint        string `toml:"dynamodb_endpoint" env:"DYNAMODB_ENDPOINT"`
	AccessKeyID     string `toml:"access_key_id" env:"AWS_ACCESS_KEY_ID"`
	SecretAccessKey string `toml:"secret_access_key" env:"AWS_SECRET_ACCESS_KEY"`
	CreateTables    bool   `toml:"create_tables" env:"DYNAMODB_CREATE_TABLES"`
}

type TableConfig struct {
	Goals     string `toml:"goals" env:"GOALS_TABLE"`
	Roadmaps  string `toml:"roadmaps" env:"ROADMAPS_TABLE"`
	Skills    string `toml:"skills" env:"SKILLS_TABLE"`
	Habits    string `toml:"habits" env:"HABITS_TABLE"`
	HabitLogs string `toml:"habit_logs" env:"HABIT_LOGS_TABLE"`
}

type NotifyConfig struct {
	SlackWebhookURL string        `toml:"slack_webhook_url" env:"SLACK_WEBHOOK_URL"`
	Timeout         time.Duration `toml:"timeout" env:"NOTIFY_TIMEOUT"`
}

type ReminderConfig struct {
	UserIDs     []string `toml:"user_ids" env:"REMINDER_USER_IDS" envSeparator:","`
	Concurrency int      `toml:"concurrency" env:"REMINDER_CONCURRENCY"`
}

var keyringGet = keyring.Get

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		LogDir: filepath.Join(constants.DefaultDir, "logs"),
		Server: ServerConfig{
			Addr:        ":8080",
			Service:     "all",
			CORSOrigins: []string{"*"},
		},
		Storage: StorageConfig{
			Provider:   constants.ProviderSQLite,
			SQLitePath: filepath.Join(constants.DefaultDir, "growth.db"),
		},
		AWS: AWSConfig{
			Region: "ap-northeast-1",
		},
		Tables: TableConfig{
			Goals:     constants.TableGoals,
			Roadmaps:  constants.TableRoadmaps,
			Skills:    constants.TableSkills,
			Habits:    constants.TableHabits,
			HabitLogs: constants.TableHabitLogs,
		},
		Notify: NotifyConfig{
			Timeout: constants.NotifyTimeout,
		},
		Reminder: ReminderConfig{
			UserIDs:     []string{constants.DefaultUserID},
			Concurrency: 4,
		},
	}
}

// DefaultPath is the config file read when none is given
func DefaultPath() string {
	return filepath.Join(constants.DefaultDir, "config.toml")
}

// Load layers the defaults, the TOML file at path and GROWTH_* environment variables.
// A missing file is ignored unless required is set. Secrets left empty are looked up
// in the OS keyring; keyring failures are not fatal.
func Load(path string, required bool) (*Config, error) {
	cfg := Default()

	if path != "" {
		if err := cfg.readFile(ExpandHome(path), required); err != nil {
			return nil, err
		}
	}

	if err := ParseEnv(cfg); err != nil {
		return nil, err
	}

	cfg.LogDir = ExpandHome(cfg.LogDir)
	cfg.Storage.SQLitePath = ExpandHome(cfg.Storage.SQLitePath)
	cfg.resolveSecrets()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) readFile(path string, required bool) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) && !required {
			return nil
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := toml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	if HasPassword(c.Storage.PostgresURL) {
		return ErrEmbeddedCredentials
	}
	return nil
}

// ParseEnv overlays GROWTH_* environment variables onto target
func ParseEnv(target any) error {
	if err := env.ParseWithOptions(target, env.Options{Prefix: constants.EnvPrefix}); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

func (c *Config) resolveSecrets() {
	if c.DisableKeyring {
		return
	}
	if c.Notify.SlackWebhookURL == "" {
		if v, err := keyringGet(keyring.WebhookURL); err == nil {
			c.Notify.SlackWebhookURL = v
		} else if !errors.Is(err, keyring.ErrNotFound) {
			logger.Debug("Keyring lookup failed", "secret", keyring.WebhookURL, "error", err)
		}
	}

	if c.Storage.Provider == constants.ProviderPostgres && c.Storage.PostgresURL == "" {
		if v, err := keyringGet(keyring.ConnectionString); err == nil {
			c.Storage.PostgresURL = v
		} else if !errors.Is(err, keyring.ErrNotFound) {
			logger.Debug("Keyring lookup failed", "secret", keyring.ConnectionString, "error", err)
		}
	}
}

// Validate rejects settings no component can run with
func (c *Config) Validate() error {
	providers := []string{constants.ProviderSQLite, constants.ProviderPostgres, constants.ProviderDynamo}
	if !slices.Contains(providers, c.Storage.Provider) {
		return fmt.Errorf("%w: %q (expected one of %s)", ErrUnknownProvider, c.Storage.Provider, strings.Join(providers, ", "))
	}
	if c.Storage.Provider == constants.ProviderPostgres && c.Storage.PostgresURL == "" {
		return errors.New("postgres provider requires a connection string (set GROWTH_POSTGRES_URL or store one in the keyring)")
	}
	if c.Notify.Timeout <= 0 {
		return fmt.Errorf("notify timeout must be positive, got %s", c.Notify.Timeout)
	}
	if c.Storage.CacheSize < 0 {
		return fmt.Errorf("cache size must not be negative, got %d", c.Storage.CacheSize)
	}
	if c.Reminder.Concurrency < 1 {
		c.Reminder.Concurrency = 1
	}
	return nil
}

// ExpandHome replaces a leading ~ with the user's home directory
func ExpandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}

// HasPassword reports whether a URI or DSN connection string embeds a password
func HasPassword(connStr string) bool {
	if connStr == "" {
		return false
	}
	if u, err := url.Parse(connStr); err == nil && u.User != nil {
		if _, set := u.User.Password(); set {
			return true
		}
	}
	for _, pair := range strings.Fields(connStr) {
		if k, _, ok := strings.Cut(pair, "="); ok && strings.EqualFold(k, "password") {
			return true
		}
	}
	return false
}
