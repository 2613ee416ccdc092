package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/julianstephens/growthtrack/internal/constants"
	"github.com/julianstephens/growthtrack/internal/keyring"
)

type DoctorCmd struct{}

func (cmd *DoctorCmd) Run(ctx *Context) error {
	ctx.println("Running diagnostics...")
	ctx.println()

	hasError := false
	fail := func(name string, err error) {
		ctx.printf("❌ %s: FAIL\n", name)
		ctx.printf("   Error: %v\n", err)
		hasError = true
	}

	cfg := ctx.Core.Config
	ctx.printf("✓ Configuration: OK (provider %s)\n", cfg.Storage.Provider)

	reachable := false
	if err := ctx.Core.Load(ctx.background()); err != nil {
		fail("Storage reachable", err)
	} else {
		ctx.printf("✓ Storage reachable: OK (%s)\n", ctx.Core.Store.Describe())
		reachable = true
	}

	if reachable {
		if err := checkLogIntegrity(ctx); err != nil {
			fail("Habit log integrity", err)
		} else {
			ctx.printf("✓ Habit log integrity: OK\n")
		}
	} else {
		ctx.printf("⊘ Habit log integrity: SKIPPED (storage not reachable)\n")
	}

	if cfg.Storage.Provider == constants.ProviderSQLite {
		if err := checkBackupsPresent(ctx); err != nil {
			ctx.printf("⚠ Backups: WARNING\n")
			ctx.printf("   %v\n", err)
		} else {
			ctx.printf("✓ Backups: OK\n")
		}
	}

	if ctx.Core.Scheduler.Configured() {
		ctx.printf("✓ Reminder webhook: OK\n")
	} else {
		ctx.printf("⚠ Reminder webhook: WARNING\n")
		ctx.printf("   Not configured. Set GROWTH_SLACK_WEBHOOK_URL or run 'growth secret set webhook <url>'\n")
	}

	if cfg.DisableKeyring {
		ctx.printf("⊘ OS keyring: SKIPPED (disabled in config)\n")
	} else if keyring.IsAvailable() {
		ctx.printf("✓ OS keyring: OK\n")
	} else {
		ctx.printf("⚠ OS keyring: WARNING\n")
		ctx.printf("   Not available, secrets must come from the config file or environment\n")
	}

	if err := checkClock(ctx.Now()); err != nil {
		fail("Clock/timezone", err)
	} else {
		zone, _ := ctx.Now().Zone()
		ctx.printf("✓ Clock/timezone: OK (%s)\n", zone)
	}

	ctx.println()
	if hasError {
		return errors.New("diagnostics found problems")
	}
	ctx.println("All checks passed.")
	return nil
}

func checkBackupsPresent(ctx *Context) error {
	mgr, err := backupManager(ctx)
	if err != nil {
		return err
	}
	backups, err := mgr.List()
	if err != nil {
		return fmt.Errorf("failed to list backups: %w", err)
	}
	if len(backups) == 0 {
		return errors.New("no backups found, consider creating one with 'growth backup create'")
	}
	return nil
}

func checkClock(now time.Time) error {
	if now.Year() < 2020 || now.Year() > 2100 {
		return fmt.Errorf("system time appears incorrect: %s", now.Format(time.RFC3339))
	}
	return nil
}

// checkLogIntegrity looks for this year's logs whose habit no longer exists
func checkLogIntegrity(ctx *Context) error {
	svc := ctx.Core.Services.Habits
	habits, err := svc.List(ctx.background(), ctx.UserID, "")
	if err != nil {
		return err
	}
	known := make(map[string]bool, len(habits))
	for _, h := range habits {
		known[h.HabitID] = true
	}

	year := ctx.Now().Year()
	logs, err := svc.LogsForUser(ctx.background(), ctx.UserID, fmt.Sprintf("%04d-01-01", year), fmt.Sprintf("%04d-12-31", year))
	if err != nil {
		return err
	}
	orphaned := 0
	for _, log := range logs {
		if !known[log.HabitID] {
			orphaned++
		}
	}
	if orphaned > 0 {
		return fmt.Errorf("found %d log(s) referencing deleted habits", orphaned)
	}
	return nil
}
