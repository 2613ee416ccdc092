package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/julianstephens/growthtrack/internal/backup"
	"github.com/julianstephens/growthtrack/internal/constants"
)

type BackupCmd struct {
	Create  BackupCreateCmd  `cmd:"" help:"Snapshot the SQLite database."`
	List    BackupListCmd    `cmd:"" help:"List snapshots, newest first."`
	Restore BackupRestoreCmd `cmd:"" help:"Replace the database with a snapshot."`
}

func backupManager(ctx *Context) (*backup.Manager, error) {
	cfg := ctx.Core.Config.Storage
	if cfg.Provider != constants.ProviderSQLite {
		return nil, fmt.Errorf("backups are only supported for the sqlite provider (current: %s)", cfg.Provider)
	}
	return backup.NewManager(cfg.SQLitePath), nil
}

type BackupCreateCmd struct{}

func (c *BackupCreateCmd) Run(ctx *Context) error {
	mgr, err := backupManager(ctx)
	if err != nil {
		return err
	}
	info, err := mgr.Create(ctx.background())
	if err != nil {
		return fmt.Errorf("backup failed: %w", err)
	}
	ctx.printf("✓ Backup created: %s\n", filepath.Base(info.Path))
	return nil
}

type BackupListCmd struct{}

func (c *BackupListCmd) Run(ctx *Context) error {
	mgr, err := backupManager(ctx)
	if err != nil {
		return err
	}
	backups, err := mgr.List()
	if err != nil {
		return fmt.Errorf("failed to list backups: %w", err)
	}

	if len(backups) == 0 {
		ctx.println("No backups found.")
		ctx.printf("Backups are stored in: %s\n", mgr.Dir())
		return nil
	}

	ctx.printf("Available backups (%d total, keeping most recent %d):\n\n", len(backups), backup.Keep)
	for _, b := range backups {
		ctx.printf("  %s  %s  (%.1f KB)\n",
			b.Timestamp.Format("2006-01-02 15:04:05"), filepath.Base(b.Path), float64(b.Size)/1024.0)
	}
	ctx.printf("\nBackup directory: %s\n", mgr.Dir())
	return nil
}

type BackupRestoreCmd struct {
	File string `arg:"" help:"Path or file name of the snapshot to restore."`
	Yes  bool   `short:"y" help:"Do not ask for confirmation."`
}

func (c *BackupRestoreCmd) Run(ctx *Context) error {
	mgr, err := backupManager(ctx)
	if err != nil {
		return err
	}

	path := c.File
	if !filepath.IsAbs(path) {
		if candidate := filepath.Join(mgr.Dir(), path); fileExists(candidate) {
			path = candidate
		}
	}
	if !fileExists(path) {
		return fmt.Errorf("backup file not found: %s", path)
	}

	if !c.Yes {
		ok, err := confirm(fmt.Sprintf("Replace the current database with %s? A snapshot of it is taken first.", filepath.Base(path)))
		if err != nil {
			return err
		}
		if !ok {
			ctx.println("Restore cancelled.")
			return nil
		}
	}

	if err := ctx.Core.Store.Close(); err != nil {
		ctx.printf("Warning: failed to close database connection: %v\n", err)
	}

	safety, err := mgr.Restore(ctx.background(), path)
	if err != nil {
		return fmt.Errorf("restore failed: %w", err)
	}
	if safety != nil {
		ctx.printf("Previous database saved as %s\n", filepath.Base(safety.Path))
	}
	ctx.println("✓ Database restored successfully!")
	ctx.println("Restart any running growth servers to use the restored database.")
	return nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
