package domain

import (
	"context"
	"time"
)

// ArtifactStore answers presence and freshness questions about the
// daily price sheets kept in the download directory.
type ArtifactStore interface {
	// FindByDate checks for the exact expected filename for a date.
	// Absence is a normal outcome, not an error.
	FindByDate(date time.Time) (*Artifact, bool)

	// ListForDate returns every sheet whose filename-embedded date
	// equals the given day. Malformed or foreign files are skipped.
	ListForDate(day time.Time) ([]Artifact, error)

	// ModifiedOn reports whether the file's OS modification timestamp
	// falls on the given day, independent of the filename date.
	ModifiedOn(a *Artifact, day time.Time) bool
}

// Retriever drives a browser session that fetches one artifact into dir.
// A nil artifact with a nil error is an expected miss (no download
// trigger on the page, or the transfer timed out); errors are reserved
// for session-level faults such as the browser failing to start.
type Retriever interface {
	Retrieve(ctx context.Context, dir string, timeout time.Duration) (*Artifact, error)
}

// Notifier reports run outcomes to an external channel.
type Notifier interface {
	Notify(ctx context.Context, message string) error
}
