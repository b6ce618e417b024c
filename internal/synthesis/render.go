package synthesis

import (
	"strings"

	"daily-memo-go/internal/recording"
	"daily-memo-go/internal/types"
)

const fixtureLabel = "Test transcript"

// RenderTranscripts renders a collapsed callout with one entry per
// recording, in the given order.
func RenderTranscripts(transcripts []types.Transcript, datePattern string) string {
	var sb strings.Builder
	sb.WriteString("> [!note]- Transcripts\n")
	for i, t := range transcripts {
		if i > 0 {
			sb.WriteString(">\n")
		}
		label := fixtureLabel
		if !t.Fixture {
			label = recording.Label(t.Recording, datePattern)
		}
		sb.WriteString("> ### " + label + "\n")
		if t.AudioPath != "" {
			sb.WriteString("> ![[" + t.AudioPath + "]]\n")
		}
		if t.Failed() {
			sb.WriteString("> _Transcription failed: " + oneLine(t.Err.Error()) + "_\n")
			continue
		}
		for _, line := range strings.Split(strings.TrimRight(t.Text, "\n"), "\n") {
			sb.WriteString(strings.TrimRight("> "+line, " ") + "\n")
		}
	}
	return sb.String()
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
