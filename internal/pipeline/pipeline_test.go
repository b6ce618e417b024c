package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"daily-memo-go/internal/apperr"
	"daily-memo-go/internal/audio"
	"daily-memo-go/internal/logger"
	"daily-memo-go/internal/recording"
	"daily-memo-go/internal/storage"
	"daily-memo-go/internal/synthesis"
	"daily-memo-go/internal/transcription"
	"daily-memo-go/internal/types"
)

const templatePath = "Templates/Daily.md"

type stubTranscoder struct{ calls atomic.Int32 }

func (s *stubTranscoder) Transcode(_ context.Context, rec types.Recording) (types.TranscodedRecording, error) {
	s.calls.Add(1)
	return types.TranscodedRecording{
		Source:   rec,
		Filename: rec.Stem() + audio.OutputExt,
		Path:     "recordings/" + rec.Stem() + audio.OutputExt,
		Data:     []byte("mp3"),
	}, nil
}

type stubBackend struct{ calls atomic.Int32 }

func (s *stubBackend) Transcribe(context.Context, []byte, string, string, string) (string, error) {
	s.calls.Add(1)
	return "Heute habe ich an Projekt Atlas gearbeitet.", nil
}

type stubGenerator struct {
	reply string
	calls atomic.Int32
}

func (s *stubGenerator) Complete(context.Context, string, string, string) (string, error) {
	s.calls.Add(1)
	return s.reply, nil
}

type fixture struct {
	vault     *storage.Vault
	transcode *stubTranscoder
	backend   *stubBackend
	generator *stubGenerator
	pipeline  *Pipeline
}

func newFixture(t *testing.T, testMode bool, reply string) *fixture {
	t.Helper()
	vault, err := storage.NewVault(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if err := vault.Create(templatePath, []byte("# {{date}}\n\n## Notes\n")); err != nil {
		t.Fatal(err)
	}
	f := &fixture{
		vault:     vault,
		transcode: &stubTranscoder{},
		backend:   &stubBackend{},
		generator: &stubGenerator{reply: reply},
	}
	f.pipeline = &Pipeline{
		Store: vault,
		Transcriber: &transcription.Orchestrator{
			Transcoder: f.transcode,
			Backend:    f.backend,
			Credential: "sk-test",
			TestMode:   testMode,
			Log:        logger.Discard(),
		},
		Synthesizer: &synthesis.Synthesizer{
			Templates:    vault,
			TemplatePath: templatePath,
			Generator:    f.generator,
			Credential:   "sk-test",
			Offline:      testMode,
			DateFormat:   "DD.MM.YYYY",
			Log:          logger.Discard(),
		},
		Options: Options{JournalFolder: "Daily Journal", DateFormat: "DD.MM.YYYY", TestMode: testMode},
		Log:     logger.Discard(),
	}
	return f
}

func oneRecording(t *testing.T) []types.Recording {
	t.Helper()
	rec, err := recording.Parse("2025-01-05_143000_000.wav", []byte("RIFF"))
	if err != nil {
		t.Fatal(err)
	}
	return []types.Recording{rec}
}

func TestRunCreatesNote(t *testing.T) {
	f := newFixture(t, false, "# 05.01.2025\n\n## Notes\n- Projekt Atlas\n")
	res, err := f.pipeline.Run(context.Background(), Request{Date: "2025-01-05", Recordings: oneRecording(t)})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Note.Path != "Daily Journal/05.01.2025.md" {
		t.Fatalf("path = %q", res.Note.Path)
	}
	data, err := os.ReadFile(filepath.Join(f.vault.Root, "Daily Journal", "05.01.2025.md"))
	if err != nil {
		t.Fatalf("note not written: %v", err)
	}
	note := string(data)
	if strings.Count(note, "> ### ") != 1 || !strings.Contains(note, "> ### 05.01.2025 at 14:30:00\n") {
		t.Errorf("transcripts section wrong:\n%s", note)
	}
	if strings.Contains(note, "14:30:00 (") {
		t.Error("sequence 000 must not be shown")
	}
	if !strings.Contains(note, "![[recordings/2025-01-05_143000_000.mp3]]") {
		t.Errorf("audio embed missing:\n%s", note)
	}
	if res.RunID == "" || res.Declined {
		t.Errorf("result = %+v", res)
	}
}

func TestRunTestModeMakesNoCalls(t *testing.T) {
	f := newFixture(t, true, "")
	res, err := f.pipeline.Run(context.Background(), Request{Date: "2025-01-05"})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if f.transcode.calls.Load()+f.backend.calls.Load()+f.generator.calls.Load() != 0 {
		t.Error("test mode made backend calls")
	}
	if strings.Count(res.Note.Content, "> ### ") != 1 || !strings.Contains(res.Note.Content, transcription.TestTranscript) {
		t.Errorf("note = %s", res.Note.Content)
	}
}

func TestRunEmptyGenerationWritesNothing(t *testing.T) {
	f := newFixture(t, false, "")
	_, err := f.pipeline.Run(context.Background(), Request{Date: "2025-01-05", Recordings: oneRecording(t)})
	var ee *apperr.EmptyGenerationError
	if !errors.As(err, &ee) {
		t.Fatalf("err = %v, want EmptyGenerationError", err)
	}
	var se *apperr.StageError
	if !errors.As(err, &se) || se.Stage != StageSynthesizing {
		t.Errorf("stage = %v", err)
	}
	names, _ := f.vault.List("Daily Journal")
	if len(names) != 0 {
		t.Errorf("files created: %v", names)
	}
}

func TestRunValidation(t *testing.T) {
	f := newFixture(t, false, "x")
	for _, req := range []Request{
		{Recordings: oneRecording(t)},
		{Date: "2025-01-05"},
		{Date: "05.01.2025", Recordings: oneRecording(t)},
	} {
		_, err := f.pipeline.Run(context.Background(), req)
		var ve *apperr.ValidationError
		if !errors.As(err, &ve) {
			t.Errorf("Run(%+v) err = %v, want ValidationError", req, err)
		}
	}
	if f.transcode.calls.Load() != 0 {
		t.Error("invalid request reached transcoding")
	}
}

func TestRunCollision(t *testing.T) {
	f := newFixture(t, false, "# body")
	if err := f.vault.Create("Daily Journal/05.01.2025.md", []byte("original")); err != nil {
		t.Fatal(err)
	}
	req := Request{Date: "2025-01-05", Recordings: oneRecording(t)}

	// no confirmer declines
	res, err := f.pipeline.Run(context.Background(), req)
	if err != nil || !res.Declined {
		t.Fatalf("res = %+v, err = %v, want declined", res, err)
	}

	f.pipeline.Confirm = AlwaysConfirm
	res, err = f.pipeline.Run(context.Background(), req)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Note.Path != "Daily Journal/05.01.2025 - 1.md" {
		t.Errorf("path = %q", res.Note.Path)
	}
	data, _ := f.vault.Read("Daily Journal/05.01.2025.md")
	if string(data) != "original" {
		t.Error("existing note was modified")
	}
}

func TestRunMissingCredentialMakesNoCalls(t *testing.T) {
	for _, tc := range []struct {
		name  string
		clear func(*fixture)
	}{
		{"transcription", func(f *fixture) { f.pipeline.Transcriber.(*transcription.Orchestrator).Credential = "" }},
		{"generator", func(f *fixture) { f.pipeline.Synthesizer.(*synthesis.Synthesizer).Credential = "" }},
	} {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t, false, "# body")
			tc.clear(f)
			_, err := f.pipeline.Run(context.Background(), Request{Date: "2025-01-05", Recordings: oneRecording(t)})
			var ae *apperr.AuthError
			if !errors.As(err, &ae) {
				t.Fatalf("err = %v, want AuthError", err)
			}
			var se *apperr.StageError
			if errors.As(err, &se) {
				t.Errorf("auth error was wrapped in stage %q", se.Stage)
			}
			if n := f.transcode.calls.Load() + f.backend.calls.Load() + f.generator.calls.Load(); n != 0 {
				t.Errorf("%d calls made before the credential check", n)
			}
		})
	}
}

func TestRunAsksAboutExistingNoteFirst(t *testing.T) {
	f := newFixture(t, false, "# body")
	if err := f.vault.Create("Daily Journal/05.01.2025.md", []byte("original")); err != nil {
		t.Fatal(err)
	}
	req := Request{Date: "2025-01-05", Recordings: oneRecording(t)}

	var asked int
	answer := false
	f.pipeline.Confirm = ConfirmFunc(func(context.Context, string) (bool, error) {
		asked++
		return answer, nil
	})

	res, err := f.pipeline.Run(context.Background(), req)
	if err != nil || !res.Declined {
		t.Fatalf("res = %+v, err = %v, want declined", res, err)
	}
	if n := f.transcode.calls.Load() + f.backend.calls.Load() + f.generator.calls.Load(); n != 0 {
		t.Errorf("declined run made %d calls", n)
	}

	asked = 0
	answer = true
	res, err = f.pipeline.Run(context.Background(), req)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if asked != 1 {
		t.Errorf("asked %d times, want once", asked)
	}
	if res.Note.Path != "Daily Journal/05.01.2025 - 1.md" {
		t.Errorf("path = %q", res.Note.Path)
	}
}
