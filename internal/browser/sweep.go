package browser

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/shirou/gopsutil/v4/process"
)

// SweepOrphans terminates automation browser processes left behind by a
// crashed session. Entirely best-effort: bounded by grace, every error
// swallowed, nothing escalated to the caller.
func SweepOrphans(log *slog.Logger, grace time.Duration) {
	ctx, cancel := context.WithTimeout(context.Background(), grace)
	defer cancel()

	procs, err := process.ProcessesWithContext(ctx)
	if err != nil {
		log.Warn("process sweep unavailable", slog.String("error", err.Error()))
		return
	}

	killed := 0
	for _, p := range procs {
		if ctx.Err() != nil {
			return
		}
		name, err := p.NameWithContext(ctx)
		if err != nil {
			continue
		}
		cmdline, _ := p.CmdlineWithContext(ctx)
		if !isAutomationBrowser(name, cmdline) {
			continue
		}
		if err := p.TerminateWithContext(ctx); err != nil {
			_ = p.KillWithContext(ctx)
		}
		killed++
	}
	if killed > 0 {
		log.Info("🧹 cleaned up orphaned browser processes", slog.Int("count", killed))
	}
}

// isAutomationBrowser matches driver binaries and Chrome instances that
// carry automation switches. A user's own browser never qualifies.
func isAutomationBrowser(name, cmdline string) bool {
	name = strings.ToLower(name)
	if strings.Contains(name, "chromedriver") {
		return true
	}
	if !strings.Contains(name, "chrom") {
		return false
	}
	return strings.Contains(cmdline, "--remote-debugging-port") ||
		strings.Contains(cmdline, "--headless")
}
