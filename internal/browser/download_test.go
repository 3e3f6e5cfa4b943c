package browser

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func write(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte("data"), 0o644))
	return path
}

func TestAwaitDownloadTimesOutCleanly(t *testing.T) {
	dir := t.TempDir()
	before, err := snapshotDir(dir)
	require.NoError(t, err)

	path, err := awaitDownload(context.Background(), discardLogger(), dir, before,
		150*time.Millisecond, 20*time.Millisecond)
	require.NoError(t, err) // timeout is an expected miss, not a fault
	assert.Empty(t, path)
}

func TestAwaitDownloadWaitsForMarkerRemoval(t *testing.T) {
	dir := t.TempDir()
	before, err := snapshotDir(dir)
	require.NoError(t, err)

	csv := write(t, dir, "Today's Price - 2024-05-20.csv")
	marker := write(t, dir, "Today's Price - 2024-05-20.csv.crdownload")

	removeAt := time.Now().Add(120 * time.Millisecond)
	go func() {
		time.Sleep(time.Until(removeAt))
		os.Remove(marker)
	}()

	path, err := awaitDownload(context.Background(), discardLogger(), dir, before,
		5*time.Second, 10*time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, csv, path)

	// The result must not have been accepted while the marker existed.
	assert.False(t, time.Now().Before(removeAt))
	_, statErr := os.Stat(marker)
	assert.True(t, os.IsNotExist(statErr))
}

func TestAwaitDownloadIgnoresPreexistingFiles(t *testing.T) {
	dir := t.TempDir()
	write(t, dir, "Today's Price - 2024-05-17.csv")
	before, err := snapshotDir(dir)
	require.NoError(t, err)

	fresh := write(t, dir, "Today's Price - 2024-05-20.csv")

	path, err := awaitDownload(context.Background(), discardLogger(), dir, before,
		time.Second, 10*time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, fresh, path)
}

func TestAwaitDownloadHonorsCancellation(t *testing.T) {
	dir := t.TempDir()
	before, err := snapshotDir(dir)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = awaitDownload(ctx, discardLogger(), dir, before,
		time.Minute, 10*time.Millisecond)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestScanForCompleteStaleMarkerBlocksAcceptance(t *testing.T) {
	dir := t.TempDir()
	stale := write(t, dir, "old.csv.crdownload")
	before, err := snapshotDir(dir)
	require.NoError(t, err)

	fresh := write(t, dir, "Today's Price - 2024-05-20.csv")

	// The marker predates the attempt but still defers acceptance.
	path, busy, err := scanForComplete(dir, before)
	require.NoError(t, err)
	assert.True(t, busy)
	assert.Empty(t, path)

	require.NoError(t, os.Remove(stale))
	path, busy, err = scanForComplete(dir, before)
	require.NoError(t, err)
	assert.False(t, busy)
	assert.Equal(t, fresh, path)
}

func TestScanForCompletePicksNewest(t *testing.T) {
	dir := t.TempDir()
	before := map[string]struct{}{}

	older := write(t, dir, "Today's Price - 2024-05-20.csv")
	newer := write(t, dir, "Today's Price - 2024-05-20 (1).csv")

	past := time.Now().Add(-time.Hour)
	require.NoError(t, os.Chtimes(older, past, past))

	path, busy, err := scanForComplete(dir, before)
	require.NoError(t, err)
	assert.False(t, busy)
	assert.Equal(t, newer, path)
}

func TestScanForCompleteSkipsNonCSV(t *testing.T) {
	dir := t.TempDir()
	write(t, dir, "report.pdf")

	path, busy, err := scanForComplete(dir, map[string]struct{}{})
	require.NoError(t, err)
	assert.False(t, busy)
	assert.Empty(t, path)
}
