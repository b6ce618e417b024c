package contextref

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"daily-memo-go/internal/types"
	"github.com/xuri/excelize/v2"
)

// linkEntry is one tracked link as the note plugin saves it.
type linkEntry struct {
	Link      string `json:"link"`
	Timestamp int64  `json:"timestamp"` // unix milliseconds
	Source    string `json:"source"`
}

type pluginData struct {
	Links []linkEntry `json:"links"`
}

// LoadFile reads context references from the plugin's saved data
// ({"links": [...]}), a bare JSON array of the same entries, or an .xlsx
// export. At most MaxReferences of the newest entries are returned.
func LoadFile(path string) ([]types.ContextReference, error) {
	var (
		refs []types.ContextReference
		err  error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		refs, err = loadXLSX(path)
	case ".json", "":
		refs, err = loadJSON(path)
	default:
		return nil, fmt.Errorf("unsupported reference file %s: expected .json or .xlsx", path)
	}
	if err != nil {
		return nil, err
	}
	return Recent(refs, MaxReferences), nil
}

func loadJSON(path string) ([]types.ContextReference, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read references: %w", err)
	}
	var entries []linkEntry
	trimmed := strings.TrimSpace(string(data))
	if strings.HasPrefix(trimmed, "[") {
		if err := json.Unmarshal(data, &entries); err != nil {
			return nil, fmt.Errorf("parse references %s: %w", path, err)
		}
	} else {
		var pd pluginData
		if err := json.Unmarshal(data, &pd); err != nil {
			return nil, fmt.Errorf("parse references %s: %w", path, err)
		}
		entries = pd.Links
	}

	out := make([]types.ContextReference, 0, len(entries))
	for _, e := range entries {
		text := strings.TrimSpace(e.Link)
		if text == "" {
			continue
		}
		ref := types.ContextReference{Text: text, Source: e.Source}
		if e.Timestamp > 0 {
			ref.Timestamp = time.UnixMilli(e.Timestamp).UTC()
		}
		out = append(out, ref)
	}
	return out, nil
}

// loadXLSX reads the first sheet, finding columns by header name.
func loadXLSX(path string) ([]types.ContextReference, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read rows: %w", err)
	}
	if len(rows) <= 1 {
		return nil, nil
	}

	textIdx, timeIdx, sourceIdx := -1, -1, -1
	for i, h := range rows[0] {
		l := strings.ToLower(strings.TrimSpace(h))
		switch {
		case strings.Contains(l, "link") || strings.Contains(l, "text") || strings.Contains(l, "term"):
			if textIdx == -1 {
				textIdx = i
			}
		case strings.Contains(l, "time") || strings.Contains(l, "date"):
			if timeIdx == -1 {
				timeIdx = i
			}
		case strings.Contains(l, "source") || strings.Contains(l, "note") || strings.Contains(l, "file"):
			if sourceIdx == -1 {
				sourceIdx = i
			}
		}
	}
	// fallback to the plugin's column order
	if textIdx == -1 {
		textIdx = 0
	}

	var out []types.ContextReference
	for _, r := range rows[1:] {
		ref := types.ContextReference{Text: cell(r, textIdx), Source: cell(r, sourceIdx)}
		if ref.Text == "" {
			continue
		}
		ref.Timestamp = parseTimestamp(cell(r, timeIdx))
		out = append(out, ref)
	}
	return out, nil
}

func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

// parseTimestamp accepts unix milliseconds or a few common date layouts.
// Anything else yields the zero time.
func parseTimestamp(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.UnixMilli(ms).UTC()
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02T15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
