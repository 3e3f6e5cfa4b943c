// Package browser drives the headless Chrome session that fetches the
// daily price sheet from the exchange website.
package browser

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/chromedp/cdproto/browser"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"

	"nepsefetch/internal/config"
	"nepsefetch/internal/domain"
)

// The exchange blocks obvious automation, so the session hides the
// usual webdriver tells before navigating.
const webdriverOverride = `Object.defineProperty(navigator, 'webdriver', {get: () => undefined})`

// ChromeRetriever implements domain.Retriever over a Chrome DevTools
// session. One session per call, released on every exit path.
type ChromeRetriever struct {
	url         string
	headless    bool
	dateLayout  string
	pageSettle  time.Duration
	clickSettle time.Duration
	pollEvery   time.Duration
	sweepGrace  time.Duration
	locators    []Locator
	logger      *slog.Logger

	// sweep is the post-session process cleanup, replaceable in tests.
	sweep func(log *slog.Logger, grace time.Duration)
}

func NewChromeRetriever(cfg *config.Config, logger *slog.Logger) *ChromeRetriever {
	return &ChromeRetriever{
		url:         cfg.PageURL,
		headless:    cfg.Headless,
		dateLayout:  cfg.DateLayout,
		pageSettle:  cfg.PageSettle,
		clickSettle: cfg.ClickSettle,
		pollEvery:   cfg.PollInterval,
		sweepGrace:  cfg.SweepGrace,
		locators:    DownloadTriggerLocators(cfg.SelectorWait),
		logger:      logger,
		sweep:       SweepOrphans,
	}
}

// Retrieve loads the price page, locates and clicks the download
// trigger and waits for the transfer to land in dir. A nil artifact
// with a nil error means no trigger matched or the download timed out.
func (r *ChromeRetriever) Retrieve(ctx context.Context, dir string, timeout time.Duration) (*domain.Artifact, error) {
	log := r.logger.With(slog.String("url", r.url))

	before, err := snapshotDir(dir)
	if err != nil {
		return nil, fmt.Errorf("snapshot download dir: %w", err)
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, r.allocatorOptions(dir)...)
	// Chrome's teardown chatter is noise; keep it out of our output.
	taskCtx, cancelTask := chromedp.NewContext(allocCtx,
		chromedp.WithErrorf(func(string, ...interface{}) {}))

	// Release runs on every path out of this function, success or not,
	// followed by the best-effort orphan sweep.
	defer r.sweep(r.logger, r.sweepGrace)
	defer cancelAlloc()
	defer cancelTask()

	log.Info("opening today's price page")
	if err := chromedp.Run(taskCtx,
		browser.SetDownloadBehavior(browser.SetDownloadBehaviorBehaviorAllow).
			WithDownloadPath(dir),
		chromedp.ActionFunc(func(ctx context.Context) error {
			_, err := page.AddScriptToEvaluateOnNewDocument(webdriverOverride).Do(ctx)
			return err
		}),
		chromedp.Navigate(r.url),
		chromedp.Sleep(r.pageSettle),
	); err != nil {
		return nil, fmt.Errorf("open price page: %w", err)
	}

	sel, found := locate(taskCtx, log, r.locators)
	if !found {
		log.Error("❌ no selector matched the download trigger",
			slog.Int("candidates", len(r.locators)))
		return nil, nil
	}

	log.Info("clicking download trigger")
	if err := chromedp.Run(taskCtx,
		chromedp.ScrollIntoView(sel, chromedp.BySearch),
		chromedp.Sleep(r.clickSettle),
		chromedp.Click(sel, chromedp.BySearch),
	); err != nil {
		// The click may still have landed even when the CDP answer was
		// noisy; the download poll decides the truth.
		log.Warn("⚠️ click reported an error, watching downloads anyway",
			slog.String("error", err.Error()))
	}

	log.Info("waiting for download to finish")
	path, err := awaitDownload(taskCtx, log, dir, before, timeout, r.pollEvery)
	if err != nil {
		return nil, fmt.Errorf("await download: %w", err)
	}
	if path == "" {
		log.Error("❌ download failed or timed out")
		return nil, nil
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat downloaded file: %w", err)
	}
	art := &domain.Artifact{Path: path, ModTime: info.ModTime()}
	if date, perr := domain.ParseArtifactName(filepath.Base(path), r.dateLayout); perr == nil {
		art.Date = date
	}
	log.Info("✅ CSV downloaded", slog.String("file", art.Name()))
	return art, nil
}

func (r *ChromeRetriever) allocatorOptions(dir string) []chromedp.ExecAllocatorOption {
	return append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", r.headless),
		chromedp.NoSandbox,
		chromedp.DisableGPU,
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-extensions", true),
		chromedp.Flag("disable-plugins", true),
		chromedp.Flag("disable-web-security", true),
		chromedp.Flag("allow-running-insecure-content", true),
		chromedp.Flag("enable-automation", false),
		chromedp.Flag("use-automation-extension", false),
	)
}

var _ domain.Retriever = (*ChromeRetriever)(nil)
