package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"nepsefetch/internal/domain"
)

// ScheduleGate decides, before any browser work, whether today's sheet
// still has to be fetched. Pure decision over calendar state and the
// store listing; no side effects.
type ScheduleGate struct {
	calendar domain.TradingCalendar
	store    domain.ArtifactStore
	logger   *slog.Logger
}

func NewScheduleGate(calendar domain.TradingCalendar, store domain.ArtifactStore, logger *slog.Logger) *ScheduleGate {
	return &ScheduleGate{calendar: calendar, store: store, logger: logger}
}

// NeedsDownload reports whether a download is required for the day.
// Closed-market days return false without touching the store.
func (g *ScheduleGate) NeedsDownload(today time.Time) bool {
	if g.calendar.IsClosed(today) {
		g.logger.Info("📅 market closed today, skipping download",
			slog.String("weekday", today.Weekday().String()))
		return false
	}

	existing, err := g.store.ListForDate(today)
	if err != nil {
		// Can't prove the sheet is there, so assume it is not.
		g.logger.Warn("store listing failed, assuming download needed",
			slog.String("error", err.Error()))
		return true
	}
	if len(existing) > 0 {
		g.logger.Info("✅ file already downloaded today",
			slog.String("file", existing[0].Name()))
		return false
	}
	return true
}

// FetcherService composes the gate, the retriever and the store into
// one idempotent acquisition run.
type FetcherService struct {
	gate      *ScheduleGate
	store     domain.ArtifactStore
	retriever domain.Retriever
	notifier  domain.Notifier
	dir       string
	timeout   time.Duration
	logger    *slog.Logger
	now       func() time.Time
}

func NewFetcherService(
	gate *ScheduleGate,
	store domain.ArtifactStore,
	retriever domain.Retriever,
	notifier domain.Notifier,
	dir string,
	timeout time.Duration,
	logger *slog.Logger,
) *FetcherService {
	return &FetcherService{
		gate:      gate,
		store:     store,
		retriever: retriever,
		notifier:  notifier,
		dir:       dir,
		timeout:   timeout,
		logger:    logger,
		now:       time.Now,
	}
}

// Run performs at most one download for the current day. Expected
// misses (no trigger, timeout, stale file) come back as OutcomeFailed
// with a nil error; only session-level faults populate the error.
func (s *FetcherService) Run(ctx context.Context) (domain.Outcome, error) {
	today := s.now()

	if !s.gate.NeedsDownload(today) {
		return domain.OutcomeSkipped, nil
	}

	s.logger.Info("📥 no file found for today, starting download")
	artifact, err := s.retriever.Retrieve(ctx, s.dir, s.timeout)
	if err != nil {
		s.notify(ctx, fmt.Sprintf("nepsefetch: download error: %v", err))
		return domain.OutcomeFailed, fmt.Errorf("retrieve today's price sheet: %w", err)
	}
	if artifact == nil {
		s.notify(ctx, "nepsefetch: could not download today's price sheet")
		return domain.OutcomeFailed, nil
	}

	// Freshness cross-check: the filename alone is not trusted, the
	// file must actually have been written today.
	if !s.store.ModifiedOn(artifact, today) {
		s.logger.Error("downloaded file was not modified today",
			slog.String("file", artifact.Name()))
		s.notify(ctx, fmt.Sprintf("nepsefetch: stale download rejected: %s", artifact.Name()))
		return domain.OutcomeFailed, nil
	}

	s.logger.Info("🎉 today's price sheet acquired", slog.String("file", artifact.Name()))
	s.notify(ctx, fmt.Sprintf("nepsefetch: downloaded %s", artifact.Name()))
	return domain.OutcomeSuccess, nil
}

func (s *FetcherService) notify(ctx context.Context, message string) {
	if err := s.notifier.Notify(ctx, message); err != nil {
		s.logger.Warn("notification failed", slog.String("error", err.Error()))
	}
}
