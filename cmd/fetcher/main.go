package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli"

	"nepsefetch/internal/browser"
	"nepsefetch/internal/config"
	"nepsefetch/internal/domain"
	"nepsefetch/internal/notify"
	"nepsefetch/internal/store"
	"nepsefetch/internal/usecase"
)

var logEnabled bool

func main() {
	app := cli.NewApp()
	app.Name = "nepsefetch"
	app.Usage = "download today's NEPSE end-of-day price CSV, at most once per trading day"
	app.Flags = []cli.Flag{
		cli.BoolFlag{
			Name:        "log, l",
			Usage:       "verbose diagnostics on stdout (default: near-silent for scheduled runs)",
			EnvVar:      "NEPSE_LOG",
			Destination: &logEnabled,
		},
	}
	app.Action = run

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "nepsefetch: %s\n", err)
		os.Exit(1)
	}
}

func run(*cli.Context) error {
	logger := newLogger(logEnabled)

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	fileStore := store.NewFileStore(cfg.DownloadDir, cfg.FileLabel, cfg.DateLayout)
	if err := fileStore.EnsureDir(); err != nil {
		return fmt.Errorf("create download dir %s: %w", cfg.DownloadDir, err)
	}

	var notifier domain.Notifier = notify.Nop{}
	if cfg.Telegram.BotToken != "" {
		tn, err := notify.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID)
		if err != nil {
			logger.Warn("telegram notifier unavailable", slog.String("error", err.Error()))
		} else {
			notifier = tn
		}
	}

	calendar := domain.NewTradingCalendar(cfg.WeekendDays)
	gate := usecase.NewScheduleGate(calendar, fileStore, logger)
	retriever := browser.NewChromeRetriever(cfg, logger)
	fetcher := usecase.NewFetcherService(
		gate, fileStore, retriever, notifier,
		fileStore.Dir(), cfg.Timeout, logger,
	)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	outcome, err := fetcher.Run(ctx)
	if err != nil {
		logger.Error("run failed", slog.String("error", err.Error()))
		return err
	}
	logger.Info("run finished", slog.String("outcome", string(outcome)))
	if outcome == domain.OutcomeFailed {
		return errors.New("could not download today's price file")
	}
	return nil
}

func newLogger(verbose bool) *slog.Logger {
	if !verbose {
		return slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, nil))
}
