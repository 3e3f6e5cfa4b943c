package browser

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// partialSuffix marks an in-progress Chrome transfer. A download must
// not be accepted while any such marker remains in the directory.
const partialSuffix = ".crdownload"

func snapshotDir(dir string) (map[string]struct{}, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	set := make(map[string]struct{}, len(entries))
	for _, e := range entries {
		set[e.Name()] = struct{}{}
	}
	return set, nil
}

// awaitDownload polls dir until a CSV absent from the before snapshot
// exists with no partial-download marker alongside it, or the timeout
// elapses. The timeout path returns an empty path and a nil error: a
// missed download is an expected outcome here. Of several qualifying
// files the newest wins.
func awaitDownload(ctx context.Context, log *slog.Logger, dir string, before map[string]struct{}, timeout, interval time.Duration) (string, error) {
	deadline := time.Now().Add(timeout)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		path, busy, err := scanForComplete(dir, before)
		if err != nil {
			return "", err
		}
		if path != "" {
			return path, nil
		}
		if busy {
			log.Info("⏳ download in progress...")
		}

		if time.Now().After(deadline) {
			logDirContents(log, dir)
			return "", nil
		}
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-ticker.C:
		}
	}
}

// scanForComplete returns the newest new CSV if the directory holds no
// partial-download markers, and whether a transfer is still running.
// Any marker counts, even one that predates this attempt: a stale
// .crdownload left in the directory blocks acceptance until the
// timeout, matching the original glob-the-whole-directory behavior.
func scanForComplete(dir string, before map[string]struct{}) (string, bool, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", false, err
	}

	var newest string
	var newestMod time.Time
	busy := false
	for _, e := range entries {
		name := strings.ToLower(e.Name())
		if strings.HasSuffix(name, partialSuffix) {
			busy = true
			continue
		}
		if _, existed := before[e.Name()]; existed || e.IsDir() {
			continue
		}
		if !strings.HasSuffix(name, ".csv") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		if newest == "" || info.ModTime().After(newestMod) {
			newest = e.Name()
			newestMod = info.ModTime()
		}
	}

	if busy || newest == "" {
		return "", busy, nil
	}
	return filepath.Join(dir, newest), false, nil
}

func logDirContents(log *slog.Logger, dir string) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	log.Info("files in download directory", slog.Any("names", names))
}
