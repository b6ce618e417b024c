package types

import (
	"strings"
	"time"
)

// Recording is one source capture. Name follows the recorder convention
// YYYY-MM-DD_HHMMSS_NNN.ext.
type Recording struct {
	Name       string    `json:"name"`
	Data       []byte    `json:"-"`
	Size       int64     `json:"size"`
	Date       string    `json:"date"`     // YYYY-MM-DD
	Time       string    `json:"time"`     // HHMMSS
	Sequence   string    `json:"sequence"` // "000" means no suffix
	CapturedAt time.Time `json:"captured_at"`
}

// Stem is the file name without directory and extension.
func (r Recording) Stem() string {
	name := r.Name
	if i := strings.LastIndexAny(name, `/\`); i >= 0 {
		name = name[i+1:]
	}
	if i := strings.LastIndex(name, "."); i > 0 {
		name = name[:i]
	}
	return name
}

type TranscodedRecording struct {
	Source      Recording     `json:"source"`
	Filename    string        `json:"filename"`
	Path        string        `json:"path"` // vault-relative, slash separated
	Data        []byte        `json:"-"`
	BitrateKbps int           `json:"bitrate_kbps"`
	Duration    time.Duration `json:"duration"`
}

type ContextReference struct {
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
	Source    string    `json:"source,omitempty"`
}

// Transcript is the text for exactly one Recording. Err is set when the
// recording could not be transcoded; the slot is kept so positions line up.
type Transcript struct {
	Recording Recording `json:"recording"`
	AudioPath string    `json:"audio_path,omitempty"`
	Text      string    `json:"text"`
	Fixture   bool      `json:"fixture,omitempty"`
	Err       error     `json:"-"`
}

func (t Transcript) Failed() bool { return t.Err != nil }

type NoteDocument struct {
	Path    string `json:"path"`
	Content string `json:"content"`
}
