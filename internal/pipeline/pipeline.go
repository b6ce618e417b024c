// Package pipeline runs one daily note creation from recordings to the
// persisted note.
package pipeline

import (
	"context"
	"errors"
	"path"
	"time"

	"daily-memo-go/internal/apperr"
	"daily-memo-go/internal/datefmt"
	"daily-memo-go/internal/logger"
	"daily-memo-go/internal/metrics"
	"daily-memo-go/internal/types"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Stage names used in StageError.
const (
	StageValidating    = "validating"
	StageTranscribing  = "transcribing"
	StageSynthesizing  = "synthesizing"
	StageResolvingPath = "resolving path"
	StagePersisting    = "persisting"
)

const NoteExt = ".md"

type Storage interface {
	Create(path string, content []byte) error
	Exists(path string) (bool, error)
}

// Preflight on both stages fails fast on missing credentials, before any
// recording is transcoded or sent anywhere.
type Transcriber interface {
	Preflight() error
	Run(ctx context.Context, recs []types.Recording, refs []types.ContextReference) ([]types.Transcript, error)
}

type Synthesizer interface {
	Preflight() error
	Synthesize(ctx context.Context, transcripts []types.Transcript) (string, error)
}

type Options struct {
	JournalFolder string
	DateFormat    string
	TestMode      bool
}

type Request struct {
	Date       string // YYYY-MM-DD
	Recordings []types.Recording
	References []types.ContextReference
}

type Result struct {
	RunID string
	Note  types.NoteDocument
	// Declined is set when the user chose not to create a new version.
	// Nothing was written in that case.
	Declined    bool
	Transcripts []types.Transcript
}

// Failed lists recordings that were skipped because they could not be transcoded.
func (r Result) Failed() []types.Transcript {
	var out []types.Transcript
	for _, t := range r.Transcripts {
		if t.Failed() {
			out = append(out, t)
		}
	}
	return out
}

type Pipeline struct {
	Store       Storage
	Transcriber Transcriber
	Synthesizer Synthesizer
	Confirm     Confirmer
	Options     Options
	Log         *logger.Logger
	Metrics     *metrics.Metrics
}

// Run validates the request, transcribes, synthesizes, picks a free path
// and creates the note. A missing credential comes back as the bare
// *apperr.AuthError before any work starts. Later failures come back as
// *apperr.StageError. A declined version prompt is not an error.
func (p *Pipeline) Run(ctx context.Context, req Request) (Result, error) {
	start := time.Now()
	res := Result{RunID: uuid.NewString()}
	log := p.Log.WithRun(res.RunID).WithComponent("pipeline")

	target, err := p.validate(req)
	if err != nil {
		p.Metrics.ObserveRun(metrics.OutcomeInvalid, time.Since(start))
		log.WithField("stage", StageValidating).WithError(err).Warn("request rejected")
		return res, err
	}
	for _, check := range []func() error{p.Transcriber.Preflight, p.Synthesizer.Preflight} {
		if err := check(); err != nil {
			p.Metrics.ObserveRun(metrics.OutcomeFailed, time.Since(start))
			log.WithField("stage", StageValidating).WithError(err).Error("missing credential")
			return res, err
		}
	}

	fail := func(stage string, err error) (Result, error) {
		p.Metrics.ObserveRun(metrics.OutcomeFailed, time.Since(start))
		log.WithField("stage", stage).WithError(err).Error("daily note run failed")
		return res, &apperr.StageError{Stage: stage, Err: err}
	}

	declined := func() (Result, error) {
		p.Metrics.ObserveRun(metrics.OutcomeDeclined, time.Since(start))
		log.WithField("target", target).Info("new version declined, nothing written")
		res.Declined = true
		return res, nil
	}

	// Ask about an existing note before any paid work. The answer carries
	// over to path resolution.
	confirm := p.Confirm
	exists, err := p.Store.Exists(target)
	if err != nil {
		return fail(StageValidating, err)
	}
	if exists {
		ok, err := askNewVersion(ctx, p.Confirm, target)
		if err != nil {
			return fail(StageValidating, err)
		}
		if !ok {
			return declined()
		}
		confirm = AlwaysConfirm
	}

	log.WithFields(logrus.Fields{
		"date":       req.Date,
		"recordings": len(req.Recordings),
		"references": len(req.References),
		"test_mode":  p.Options.TestMode,
		"target":     target,
		"exists":     exists,
	}).Info("starting daily note run")

	res.Transcripts, err = p.Transcriber.Run(ctx, req.Recordings, req.References)
	if err != nil {
		return fail(StageTranscribing, err)
	}

	content, err := p.Synthesizer.Synthesize(ctx, res.Transcripts)
	if err != nil {
		return fail(StageSynthesizing, err)
	}

	notePath, err := ResolvePath(ctx, p.Store, confirm, target)
	if errors.Is(err, apperr.ErrPathCollisionDeclined) {
		return declined()
	}
	if err != nil {
		return fail(StageResolvingPath, err)
	}

	if err := p.Store.Create(notePath, []byte(content)); err != nil {
		return fail(StagePersisting, err)
	}
	res.Note = types.NoteDocument{Path: notePath, Content: content}

	p.Metrics.ObserveRun(metrics.OutcomeSuccess, time.Since(start))
	log.WithFields(logrus.Fields{
		"path":     notePath,
		"failed":   len(res.Failed()),
		"duration": time.Since(start).String(),
	}).Info("daily note created")
	return res, nil
}

// validate checks the request and returns the canonical note path.
func (p *Pipeline) validate(req Request) (string, error) {
	if req.Date == "" {
		return "", apperr.Validationf("please select a date")
	}
	name, err := datefmt.FormatISO(req.Date, p.Options.DateFormat)
	if err != nil {
		return "", apperr.Validationf("%v", err)
	}
	if len(req.Recordings) == 0 && !p.Options.TestMode {
		return "", apperr.Validationf("please provide audio files or enable test mode")
	}
	return NotePath(p.Options.JournalFolder, name), nil
}

// NotePath is {folder}/{formattedDate}.md.
func NotePath(folder, formattedDate string) string {
	return path.Join(folder, formattedDate+NoteExt)
}
