// Package store is the repository over the download directory, the only
// durable resource this system owns.
package store

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"nepsefetch/internal/domain"
)

// FileStore maps calendar dates to expected files in one directory and
// answers presence and freshness queries about them.
type FileStore struct {
	dir    string
	label  string
	layout string
}

func NewFileStore(dir, label, layout string) *FileStore {
	return &FileStore{dir: dir, label: label, layout: layout}
}

func (s *FileStore) Dir() string {
	return s.dir
}

// EnsureDir creates the store directory if it does not exist yet. The
// same directory doubles as the browser's download target.
func (s *FileStore) EnsureDir() error {
	return os.MkdirAll(s.dir, 0o755)
}

// ExpectedPath is the deterministic location of one day's sheet.
func (s *FileStore) ExpectedPath(date time.Time) string {
	return filepath.Join(s.dir, domain.ArtifactName(s.label, date, s.layout))
}

// FindByDate checks for the exact expected filename. A missing file is
// an ordinary (nil, false), never an error.
func (s *FileStore) FindByDate(date time.Time) (*domain.Artifact, bool) {
	path := s.ExpectedPath(date)
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return nil, false
	}
	return &domain.Artifact{Path: path, Date: date, ModTime: info.ModTime()}, true
}

// ListForDate returns every CSV in the store whose filename-embedded
// date equals the given day. Files that are not CSVs, still mid-transfer
// or named by some other convention are silently skipped.
func (s *FileStore) ListForDate(day time.Time) ([]domain.Artifact, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, err
	}

	var out []domain.Artifact
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(strings.ToLower(e.Name()), domain.CSVExt) {
			continue
		}
		date, err := domain.ParseArtifactName(e.Name(), s.layout)
		if err != nil || !domain.SameDate(date, day) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		out = append(out, domain.Artifact{
			Path:    filepath.Join(s.dir, e.Name()),
			Date:    date,
			ModTime: info.ModTime(),
		})
	}
	return out, nil
}

// ModifiedOn checks the OS modification timestamp against the given
// day. This is deliberately independent of the filename date: a stale
// file that matches today's name by accident still fails this check.
func (s *FileStore) ModifiedOn(a *domain.Artifact, day time.Time) bool {
	if a == nil {
		return false
	}
	mod := a.ModTime
	if mod.IsZero() {
		info, err := os.Stat(a.Path)
		if err != nil {
			return false
		}
		mod = info.ModTime()
	}
	return domain.SameDate(mod, day)
}
