package browser

import (
	"context"
	"log/slog"
	"time"

	"github.com/chromedp/chromedp"
)

// Locator is one strategy for finding the download trigger on the page.
// The site's markup drifts, so candidates are tried in priority order
// and the first match wins.
type Locator interface {
	Describe() string

	// TryFind reports whether the strategy matched, returning the
	// selector to act on. A miss is not an error.
	TryFind(ctx context.Context) (string, bool)
}

// xpathLocator waits until its expression matches a visible element,
// giving up after the configured wait.
type xpathLocator struct {
	desc string
	expr string
	wait time.Duration
}

func (l xpathLocator) Describe() string {
	return l.desc
}

func (l xpathLocator) TryFind(ctx context.Context) (string, bool) {
	tctx, cancel := context.WithTimeout(ctx, l.wait)
	defer cancel()
	if err := chromedp.Run(tctx, chromedp.WaitVisible(l.expr, chromedp.BySearch)); err != nil {
		return "", false
	}
	return l.expr, true
}

// DownloadTriggerLocators is the priority-ordered candidate list for the
// "Download as CSV" control, from most specific to most generic.
func DownloadTriggerLocators(wait time.Duration) []Locator {
	mk := func(desc, expr string) Locator {
		return xpathLocator{desc: desc, expr: expr, wait: wait}
	}
	return []Locator{
		mk("table__file anchor with CSV text",
			`//a[contains(@class,'table__file') and contains(text(),'Download as CSV')]`),
		mk("anchor with full text",
			`//a[contains(text(),'Download as CSV')]`),
		mk("anchor mentioning CSV",
			`//a[contains(text(),'CSV')]`),
		mk("bare table__file anchor",
			`//a[@class='table__file']`),
		mk("button with full text",
			`//button[contains(text(),'Download as CSV')]`),
		mk("any element mentioning download and CSV",
			`//*[contains(text(),'Download') and contains(text(),'CSV')]`),
	}
}

// locate runs the candidates in order and returns the first selector
// that matched. Exhausting the list is an expected miss, not an error.
func locate(ctx context.Context, log *slog.Logger, candidates []Locator) (string, bool) {
	for i, c := range candidates {
		log.Info("trying selector",
			slog.Int("rank", i+1),
			slog.String("strategy", c.Describe()))
		if sel, ok := c.TryFind(ctx); ok {
			log.Info("✅ download trigger found",
				slog.Int("rank", i+1),
				slog.String("strategy", c.Describe()))
			return sel, true
		}
		log.Warn("selector missed", slog.String("strategy", c.Describe()))
	}
	return "", false
}
