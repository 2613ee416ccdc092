package cli

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/julianstephens/growthtrack/internal/api"
	"github.com/julianstephens/growthtrack/internal/logger"
)

const shutdownTimeout = 15 * time.Second

type ServeCmd struct {
	Addr    string `help:"Listen address (default from config)."`
	Service string `help:"Mount a single service: goals, roadmaps, skills, habits or all."`
}

func (c *ServeCmd) Run(ctx *Context) error {
	opts := ctx.Core.APIOptions()
	if c.Service != "" {
		opts.Service = c.Service
	}
	app, err := api.New(ctx.Core.Services, opts)
	if err != nil {
		return err
	}

	addr := c.Addr
	if addr == "" {
		addr = ctx.Core.Config.Server.Addr
	}

	sigCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Starting server", "addr", addr, "service", opts.Service, "storage", ctx.Core.Store.Describe())
		ctx.printf("Listening on %s\n", addr)
		errCh <- app.Listen(addr)
	}()

	select {
	case err := <-errCh:
		return err
	case <-sigCtx.Done():
	}

	logger.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return app.ShutdownWithContext(shutdownCtx)
}
