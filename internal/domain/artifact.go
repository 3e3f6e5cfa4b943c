package domain

import (
	"fmt"
	"strings"
	"time"
)

// CSVExt is the extension the exchange hands out for the daily sheet.
const CSVExt = ".csv"

// nameSep separates the human label from the embedded date, as in
// "Today's Price - 2024-05-20.csv".
const nameSep = " - "

// ArtifactName builds the deterministic filename for one trading day.
func ArtifactName(label string, date time.Time, layout string) string {
	return label + nameSep + date.Format(layout) + CSVExt
}

// ParseArtifactName extracts the embedded date from a filename following
// the "<label> - <date>.csv" convention. Callers treat an error as
// "not one of ours", never as a fault.
func ParseArtifactName(name, layout string) (time.Time, error) {
	if !strings.HasSuffix(strings.ToLower(name), CSVExt) {
		return time.Time{}, fmt.Errorf("not a csv file: %s", name)
	}
	stem := name[:len(name)-len(CSVExt)]

	idx := strings.LastIndex(stem, nameSep)
	if idx < 0 {
		return time.Time{}, fmt.Errorf("no date segment in filename: %s", name)
	}

	date, err := time.Parse(layout, stem[idx+len(nameSep):])
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date in filename %s: %w", name, err)
	}
	return date, nil
}

// SameDate reports whether two instants fall on the same calendar day.
func SameDate(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
