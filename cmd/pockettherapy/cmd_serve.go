package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/xaenox/pocket-therapy/internal/api"
	"github.com/xaenox/pocket-therapy/internal/bot"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the Telegram bot and the HTTP API",
	Long: `Seeds the catalogs when the embedded version changed, then runs the
Telegram bot (when telegram.token is set) and the HTTP API (when
http.enabled) until interrupted.`,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	sigCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx := sigCtx

	a, err := buildApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	if _, err := a.seeder.Ensure(ctx); err != nil {
		return fmt.Errorf("failed to seed catalogs: %w", err)
	}

	if cfg.Telegram.Token == "" && !cfg.HTTP.Enabled {
		return fmt.Errorf("nothing to serve: set telegram.token or enable http")
	}

	g, ctx := errgroup.WithContext(ctx)
	if cfg.Telegram.Token != "" {
		b, err := bot.New(cfg.Telegram.Token, bot.Deps{
			Checkin:      a.checkin,
			Catalog:      a.catalog,
			Analyzer:     a.analyzer,
			Recommender:  a.recommender,
			Locator:      a.locator,
			DefaultLimit: cfg.Recommender.DefaultLimit,
		}, logger)
		if err != nil {
			return err
		}
		g.Go(func() error { return b.Start(ctx) })
	} else {
		logger.Warn("telegram.token is empty, bot disabled")
	}

	if cfg.HTTP.Enabled {
		srv := api.New(api.Deps{
			Checkin:      a.checkin,
			Catalog:      a.catalog,
			Analyzer:     a.analyzer,
			Recommender:  a.recommender,
			Locator:      a.locator,
			DefaultLimit: cfg.Recommender.DefaultLimit,
		}, logger)
		g.Go(func() error { return srv.Run(ctx, cfg.HTTP.Addr) })
	}

	if err := g.Wait(); err != nil && sigCtx.Err() == nil {
		return err
	}
	logger.Info("Shut down")
	return nil
}
