package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"daily-memo-go/internal/app"
	"daily-memo-go/internal/config"
	"daily-memo-go/internal/logger"
)

func newDeps(t *testing.T) *Dependencies {
	t.Helper()
	cfg := config.Default()
	cfg.VaultDir = t.TempDir()
	cfg.UseTestTranscript = true
	cfg.Journal.TemplatePath = "Daily.md"
	if err := os.WriteFile(filepath.Join(cfg.VaultDir, "Daily.md"), []byte("# Daily\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	a, err := app.New(cfg, logger.Discard())
	if err != nil {
		t.Fatal(err)
	}
	return &Dependencies{App: a, Config: cfg, Log: logger.Discard()}
}

func execute(t *testing.T, deps *Dependencies, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCmd(deps)
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestCreateAndList(t *testing.T) {
	deps := newDeps(t)
	metricsFile := filepath.Join(t.TempDir(), "dailymemo.prom")

	out, err := execute(t, deps, "", "create", "--date", "2025-01-05", "--metrics-file", metricsFile)
	if err != nil {
		t.Fatalf("create: %v\n%s", err, out)
	}
	if !strings.Contains(out, "Created daily note: Daily Journal/05.01.2025.md") {
		t.Errorf("output = %q", out)
	}
	prom, err := os.ReadFile(metricsFile)
	if err != nil || !strings.Contains(string(prom), `dailymemo_runs_total{outcome="success"} 1`) {
		t.Errorf("metrics file = %q, %v", prom, err)
	}

	// second run finds the note and the user declines
	out, err = execute(t, deps, "n\n", "create", "--date", "2025-01-05")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if !strings.Contains(out, "already exists. Create a new version? [y/N]") || !strings.Contains(out, "Nothing written") {
		t.Errorf("output = %q", out)
	}

	out, err = execute(t, deps, "", "create", "--date", "2025-01-05", "--yes")
	if err != nil || !strings.Contains(out, "05.01.2025 - 1.md") {
		t.Fatalf("create --yes: %v\n%s", err, out)
	}

	out, err = execute(t, deps, "", "list")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if strings.Index(out, "05.01.2025 - 1") > strings.Index(out, "  05.01.2025\n") {
		t.Errorf("list order = %q", out)
	}
}

func TestCreateRejectsBadRecordingName(t *testing.T) {
	deps := newDeps(t)
	path := filepath.Join(t.TempDir(), "memo.wav")
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := execute(t, deps, "", "create", path); err == nil {
		t.Error("expected error for unparseable file name")
	}
}

func TestStdinConfirmer(t *testing.T) {
	cases := map[string]bool{"y\n": true, "YES\n": true, "n\n": false, "\n": false, "": false, "yes": true}
	for in, want := range cases {
		var out bytes.Buffer
		c := &StdinConfirmer{In: strings.NewReader(in), Out: &out}
		got, err := c.AskYesNo(context.Background(), "Create?")
		if err != nil {
			t.Fatalf("%q: %v", in, err)
		}
		if got != want {
			t.Errorf("%q = %v, want %v", in, got, want)
		}
		if out.String() != "Create? [y/N]: " {
			t.Errorf("prompt = %q", out.String())
		}
	}
}
