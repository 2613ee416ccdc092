package main

import (
	"context"

	"github.com/alecthomas/kong"

	"github.com/julianstephens/growthtrack/internal/bootstrap"
	"github.com/julianstephens/growthtrack/internal/cli"
	"github.com/julianstephens/growthtrack/internal/config"
	"github.com/julianstephens/growthtrack/internal/constants"
	apperrors "github.com/julianstephens/growthtrack/internal/errors"
)

var CLI struct {
	Version kong.VersionFlag
	Config  string `help:"Config file path (TOML)." type:"path" default:"~/.config/growthtrack/config.toml"`
	Debug   bool   `help:"Enable debug logging."`
	User    string `help:"User id the command acts for." default:"default" env:"GROWTH_USER_ID"`

	Serve         cli.ServeCmd         `cmd:"" help:"Run the REST API server."`
	Init          cli.InitCmd          `cmd:"" help:"Initialize storage."`
	Habit         cli.HabitCmd         `cmd:"" help:"Manage habits and habit logs."`
	Today         cli.TodayCmd         `cmd:"" help:"Interactive checklist for today's habits." default:"1"`
	Contributions cli.ContributionsCmd `cmd:"" help:"Show the yearly contribution heat map."`
	Remind        cli.RemindCmd        `cmd:"" help:"Send today's habit reminder."`
	Backup        cli.BackupCmd        `cmd:"" help:"Create, list and restore SQLite backups."`
	Secret        cli.SecretCmd        `cmd:"" help:"Manage secrets in the OS keyring."`
	Doctor        cli.DoctorCmd        `cmd:"" help:"Run health checks and diagnostics."`
}

// commands that connect to storage themselves or not at all
var skipLoad = map[string]bool{
	"init":   true,
	"doctor": true,
	"secret": true,
	"backup": true,
}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name("growth"),
		kong.Description("Personal growth tracker: goals, roadmaps, skills and habits"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact:             true,
			NoExpandSubcommands: true,
		}),
		kong.Vars{"version": constants.Version},
	)

	cfg, err := config.Load(CLI.Config, false)
	if err != nil {
		apperrors.Fatal(err)
	}
	if CLI.Debug {
		cfg.Debug = true
	}
	if err := bootstrap.InitLogger(cfg); err != nil {
		apperrors.Fatal(err)
	}

	core, err := bootstrap.New(cfg)
	if err != nil {
		apperrors.Fatal(err)
	}
	defer core.Close()

	if sel := ctx.Selected(); sel != nil && !skipLoad[rootCommand(sel)] {
		if err := core.Load(context.Background()); err != nil {
			core.Close()
			apperrors.Fatal(err)
		}
	}

	if err := ctx.Run(cli.NewContext(core, CLI.User)); err != nil {
		core.Close()
		apperrors.Fatal(err)
	}
}

func rootCommand(node *kong.Node) string {
	for node.Parent != nil && node.Parent.Type != kong.ApplicationNode {
		node = node.Parent
	}
	return node.Name
}
