// Package recording parses recorder file names and orders recordings.
package recording

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"daily-memo-go/internal/apperr"
	"daily-memo-go/internal/datefmt"
	"daily-memo-go/internal/types"
)

// NoSequence is the sequence number the recorder writes for a single take.
const NoSequence = "000"

// Parse builds a Recording from a file named YYYY-MM-DD_HHMMSS_NNN.ext.
// Names that do not carry a parseable timestamp are rejected.
func Parse(name string, data []byte) (types.Recording, error) {
	base := filepath.Base(name)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	parts := strings.SplitN(stem, "_", 3)
	if len(parts) != 3 || parts[2] == "" {
		return types.Recording{}, apperr.Validationf("%s: file name must look like YYYY-MM-DD_HHMMSS_NNN", base)
	}
	date, clock, seq := parts[0], parts[1], parts[2]
	if len(clock) != 6 {
		return types.Recording{}, apperr.Validationf("%s: time part %q must be HHMMSS", base, clock)
	}
	at, err := time.ParseInLocation(datefmt.ISODate+" 150405", date+" "+clock, time.UTC)
	if err != nil {
		return types.Recording{}, apperr.Validationf("%s: no timestamp in file name: %v", base, err)
	}
	return types.Recording{
		Name:       base,
		Data:       data,
		Size:       int64(len(data)),
		Date:       date,
		Time:       clock,
		Sequence:   seq,
		CapturedAt: at,
	}, nil
}

// Sort orders recordings by capture time, then sequence. The input is not modified.
func Sort(recs []types.Recording) []types.Recording {
	out := append([]types.Recording(nil), recs...)
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].CapturedAt.Equal(out[j].CapturedAt) {
			return out[i].CapturedAt.Before(out[j].CapturedAt)
		}
		return out[i].Sequence < out[j].Sequence
	})
	return out
}

// Dedupe drops recordings whose name and size match an earlier one.
func Dedupe(recs []types.Recording) []types.Recording {
	type key struct {
		name string
		size int64
	}
	seen := make(map[key]bool, len(recs))
	out := make([]types.Recording, 0, len(recs))
	for _, r := range recs {
		k := key{r.Name, r.Size}
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, r)
	}
	return out
}

// Label renders "05.01.2025 at 14:30:00", with " (001)" appended for any
// sequence other than 000.
func Label(r types.Recording, datePattern string) string {
	label := fmt.Sprintf("%s at %s", datefmt.Format(r.CapturedAt, datePattern), r.CapturedAt.Format("15:04:05"))
	if r.Sequence != NoSequence {
		label += fmt.Sprintf(" (%s)", r.Sequence)
	}
	return label
}

// LoadFiles reads, parses, de-duplicates and orders recordings from disk.
func LoadFiles(paths []string) ([]types.Recording, error) {
	recs := make([]types.Recording, 0, len(paths))
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", p, err)
		}
		rec, err := Parse(p, data)
		if err != nil {
			return nil, err
		}
		recs = append(recs, rec)
	}
	return Sort(Dedupe(recs)), nil
}
