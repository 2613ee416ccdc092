package cli

import (
	"errors"
	"fmt"

	"github.com/julianstephens/growthtrack/internal/config"
	"github.com/julianstephens/growthtrack/internal/keyring"
	"github.com/julianstephens/growthtrack/internal/storage/postgres"
)

type SecretCmd struct {
	Set    SecretSetCmd    `cmd:"" help:"Store a secret in the OS keyring."`
	Delete SecretDeleteCmd `cmd:"" help:"Remove a secret from the OS keyring."`
	Status SecretStatusCmd `cmd:"" help:"Show which secrets are stored."`
}

var secretNames = map[string]keyring.Secret{
	"webhook":  keyring.WebhookURL,
	"postgres": keyring.ConnectionString,
}

type SecretSetCmd struct {
	Name  string `arg:"" enum:"webhook,postgres" help:"Secret to store: webhook or postgres."`
	Value string `arg:"" help:"Secret value."`
}

func (c *SecretSetCmd) Run(ctx *Context) error {
	if c.Name == "postgres" {
		if err := postgres.ValidateConnString(c.Value); err != nil {
			return fmt.Errorf("invalid connection string: %w", err)
		}
		if config.HasPassword(c.Value) {
			ctx.println("⚠️  Warning: Connection string contains embedded credentials.")
			ctx.println("   It will be stored as-is in the encrypted OS keyring.")
		}
	}

	if err := keyring.Set(secretNames[c.Name], c.Value); err != nil {
		return err
	}
	ctx.printf("✓ %s stored in OS keyring\n", c.Name)
	return nil
}

type SecretDeleteCmd struct {
	Name string `arg:"" enum:"webhook,postgres" help:"Secret to remove: webhook or postgres."`
}

func (c *SecretDeleteCmd) Run(ctx *Context) error {
	if err := keyring.Delete(secretNames[c.Name]); err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return fmt.Errorf("no %s secret found in keyring", c.Name)
		}
		return err
	}
	ctx.printf("✓ %s deleted from OS keyring\n", c.Name)
	return nil
}

type SecretStatusCmd struct{}

func (c *SecretStatusCmd) Run(ctx *Context) error {
	if !keyring.IsAvailable() {
		ctx.println("❌ OS keyring is not available on this system")
		return keyring.ErrKeyringUnavailable
	}
	ctx.println("✓ OS keyring is available")

	for _, name := range []string{"webhook", "postgres"} {
		if _, err := keyring.Get(secretNames[name]); err == nil {
			ctx.printf("✓ %s is stored\n", name)
		} else {
			ctx.printf("ℹ %s is not stored\n", name)
		}
	}
	return nil
}
