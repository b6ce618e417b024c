package app

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"daily-memo-go/internal/config"
	"daily-memo-go/internal/logger"
	"daily-memo-go/internal/pipeline"
)

func TestNewRunsInTestMode(t *testing.T) {
	cfg := config.Default()
	cfg.VaultDir = t.TempDir()
	cfg.UseTestTranscript = true
	cfg.Journal.TemplatePath = "Templates/Daily.md"
	if err := os.MkdirAll(filepath.Join(cfg.VaultDir, "Templates"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(cfg.VaultDir, "Templates", "Daily.md"), []byte("# Daily"), 0o644); err != nil {
		t.Fatal(err)
	}

	a, err := New(cfg, logger.Discard())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	res, err := a.Pipeline.Run(context.Background(), pipeline.Request{Date: "2025-01-05"})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Note.Path != "Daily Journal/05.01.2025.md" || !strings.HasPrefix(res.Note.Content, "# Daily") {
		t.Errorf("note = %+v", res.Note)
	}
	if _, err := os.Stat(filepath.Join(cfg.VaultDir, "Daily Journal", "05.01.2025.md")); err != nil {
		t.Errorf("note missing on disk: %v", err)
	}
}

func TestNewRejectsUnknownGenerator(t *testing.T) {
	cfg := config.Default()
	cfg.VaultDir = t.TempDir()
	cfg.Generation.Backend = "bard"
	if _, err := New(cfg, logger.Discard()); err == nil {
		t.Error("expected error")
	}
}

func TestReferencesOptional(t *testing.T) {
	cfg := config.Default()
	cfg.VaultDir = t.TempDir()
	a, err := New(cfg, logger.Discard())
	if err != nil {
		t.Fatal(err)
	}
	refs, err := a.References("")
	if err != nil || refs != nil {
		t.Errorf("refs = %v, err = %v", refs, err)
	}
	path := filepath.Join(t.TempDir(), "data.json")
	if err := os.WriteFile(path, []byte(`{"links":[{"link":"Anna","timestamp":1}]}`), 0o644); err != nil {
		t.Fatal(err)
	}
	refs, err = a.References(path)
	if err != nil || len(refs) != 1 {
		t.Errorf("refs = %v, err = %v", refs, err)
	}
}
