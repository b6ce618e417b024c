package transcription

import (
	"context"

	"daily-memo-go/internal/apperr"
	"daily-memo-go/internal/contextref"
	"daily-memo-go/internal/logger"
	"daily-memo-go/internal/types"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// TestTranscript is returned instead of real transcripts in test mode.
const TestTranscript = "Ich hatte gerade irgendwie die Idee, man könnte ja ein Video machen mit dem Lied von Alex, " +
	"also vielleicht könnte ich da einfach kurz quasi sowas zusammenschneiden aus den Sachen, " +
	"die ich schon in Berlin aufgenommen habe. Das wäre eigentlich ganz cool"

const DefaultConcurrency = 3

type Transcoder interface {
	Transcode(ctx context.Context, rec types.Recording) (types.TranscodedRecording, error)
}

// Orchestrator produces one Transcript per Recording, in input order.
//
// A transcoding failure only marks that recording as failed. Any backend
// error cancels the remaining work and fails the run. If no recording
// could be transcoded the first TranscodeError is returned.
type Orchestrator struct {
	Transcoder  Transcoder
	Backend     Backend
	Credential  string
	TestMode    bool
	TokenBudget int
	Concurrency int
	Log         *logger.Logger
}

// Preflight reports a missing credential without doing any work.
func (o *Orchestrator) Preflight() error {
	if o.TestMode || o.Credential != "" {
		return nil
	}
	return apperr.MissingCredential(BackendName)
}

func (o *Orchestrator) Run(ctx context.Context, recs []types.Recording, refs []types.ContextReference) ([]types.Transcript, error) {
	log := o.Log.WithComponent("transcription")
	if o.TestMode {
		log.Info("test mode enabled, using fixed transcript")
		return []types.Transcript{{Text: TestTranscript, Fixture: true}}, nil
	}
	if len(recs) == 0 {
		return nil, apperr.Validationf("no recordings to transcribe")
	}
	if err := o.Preflight(); err != nil {
		return nil, err
	}

	budget := o.TokenBudget
	if budget <= 0 {
		budget = contextref.DefaultTokenBudget
	}
	prompt := contextref.BuildPrompt(refs, budget)
	if prompt != "" {
		log.WithField("prompt_tokens", contextref.EstimateTokens(prompt)).Debug("using context prompt")
	}

	limit := o.Concurrency
	if limit <= 0 {
		limit = DefaultConcurrency
	}

	// each goroutine writes only its own index
	results := make([]types.Transcript, len(recs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i, rec := range recs {
		i, rec := i, rec
		g.Go(func() error {
			results[i] = types.Transcript{Recording: rec}
			out, err := o.Transcoder.Transcode(gctx, rec)
			if err != nil {
				if apperr.IsFatal(err) || gctx.Err() != nil {
					return err
				}
				log.WithField("recording", rec.Name).WithError(err).Warn("transcoding failed, skipping recording")
				results[i].Err = err
				return nil
			}
			results[i].AudioPath = out.Path

			text, err := o.Backend.Transcribe(gctx, out.Data, out.Filename, o.Credential, prompt)
			if err != nil {
				return err
			}
			results[i].Text = text
			log.WithFields(logrus.Fields{
				"recording": rec.Name,
				"chars":     len(text),
			}).Info("recording transcribed")
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var firstErr error
	failed := 0
	for _, t := range results {
		if t.Failed() {
			failed++
			if firstErr == nil {
				firstErr = t.Err
			}
		}
	}
	if failed == len(results) {
		return nil, firstErr
	}
	if failed > 0 {
		log.WithFields(logrus.Fields{"failed": failed, "total": len(results)}).Warn("some recordings were skipped")
	}
	return results, nil
}
