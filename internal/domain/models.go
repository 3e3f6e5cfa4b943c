package domain

import (
	"path/filepath"
	"time"
)

// Outcome is the overall result of one fetcher invocation.
type Outcome string

const (
	OutcomeSuccess Outcome = "SUCCESS" // today's sheet was downloaded and verified
	OutcomeSkipped Outcome = "SKIPPED" // market closed or sheet already on disk
	OutcomeFailed  Outcome = "FAILED"  // trigger not found, timeout, or session fault
)

// Artifact is one day's end-of-day price sheet on disk.
type Artifact struct {
	Path    string
	Date    time.Time // date embedded in the filename, zero if unparsable
	ModTime time.Time
}

func (a Artifact) Name() string {
	return filepath.Base(a.Path)
}
