package app

import (
	"fmt"

	"daily-memo-go/internal/audio"
	"daily-memo-go/internal/config"
	"daily-memo-go/internal/contextref"
	"daily-memo-go/internal/llm"
	"daily-memo-go/internal/logger"
	"daily-memo-go/internal/metrics"
	"daily-memo-go/internal/pipeline"
	"daily-memo-go/internal/storage"
	"daily-memo-go/internal/synthesis"
	"daily-memo-go/internal/transcription"
	"daily-memo-go/internal/types"
)

type App struct {
	Settings *config.Settings
	Vault    *storage.Vault
	Pipeline *pipeline.Pipeline
	Metrics  *metrics.Metrics
	Log      *logger.Logger
}

// New wires the concrete backends into the pipeline. The pipeline starts
// without a Confirmer, so existing notes are never versioned unless the
// caller sets one.
func New(cfg *config.Settings, log *logger.Logger) (*App, error) {
	vault, err := storage.NewVault(cfg.VaultDir)
	if err != nil {
		return nil, err
	}
	m := metrics.NewMetrics()

	transcoder := audio.NewTranscoder(vault, cfg.Journal.RecordingsFolder, audio.NewFFmpegFactory(cfg.Audio.FFmpegPath), log, m)
	transcoder.TargetBytes = cfg.Audio.MaxUploadBytes

	generator, err := llm.New(cfg.Generation.Backend, cfg.Generation.BaseURL, cfg.Generation.Model, log, m)
	if err != nil {
		return nil, fmt.Errorf("generator: %w", err)
	}

	p := &pipeline.Pipeline{
		Store: vault,
		Transcriber: &transcription.Orchestrator{
			Transcoder:  transcoder,
			Backend:     transcription.NewOpenAIClient(cfg.Transcription.BaseURL, cfg.Transcription.Model, log, m),
			Credential:  cfg.TranscriptionKey(),
			TestMode:    cfg.UseTestTranscript,
			TokenBudget: cfg.Transcription.TokenBudget,
			Concurrency: cfg.Transcription.Concurrency,
			Log:         log,
		},
		Synthesizer: &synthesis.Synthesizer{
			Templates:    vault,
			TemplatePath: cfg.Journal.TemplatePath,
			Generator:    generator,
			Credential:   cfg.GenerationKey(),
			Offline:      cfg.UseTestTranscript,
			DateFormat:   cfg.Journal.DateFormat,
			Log:          log,
		},
		Options: pipeline.Options{
			JournalFolder: cfg.Journal.Folder,
			DateFormat:    cfg.Journal.DateFormat,
			TestMode:      cfg.UseTestTranscript,
		},
		Log:     log,
		Metrics: m,
	}

	return &App{
		Settings: cfg,
		Vault:    vault,
		Pipeline: p,
		Metrics:  m,
		Log:      log,
	}, nil
}

// References loads context references from path, or from the configured
// references file when path is empty. No file means no references.
func (a *App) References(path string) ([]types.ContextReference, error) {
	if path == "" {
		path = a.Settings.Transcription.ReferencesFile
	}
	if path == "" {
		return nil, nil
	}
	refs, err := contextref.LoadFile(path)
	if err != nil {
		return nil, err
	}
	a.Log.WithField("references", len(refs)).WithField("path", path).Debug("context references loaded")
	return refs, nil
}
