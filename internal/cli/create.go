package cli

import (
	"os"
	"time"

	"github.com/spf13/cobra"

	"daily-memo-go/internal/datefmt"
	"daily-memo-go/internal/pipeline"
	"daily-memo-go/internal/recording"
)

func NewCreateCmd(deps *Dependencies) *cobra.Command {
	var (
		date        string
		refsPath    string
		yes         bool
		metricsFile string
	)

	cmd := &cobra.Command{
		Use:   "create [recordings...]",
		Short: "Create the daily note from voice memos",
		Long:  "Transcodes and transcribes the given recordings (named YYYY-MM-DD_HHMMSS_NNN.wav) and writes the daily note for --date into the journal folder.",
		RunE: func(cmd *cobra.Command, args []string) error {
			f := NewFormatter(cmd.OutOrStdout())

			recs, err := recording.LoadFiles(args)
			if err != nil {
				return err
			}
			refs, err := deps.App.References(refsPath)
			if err != nil {
				return err
			}

			p := deps.App.Pipeline
			if yes {
				p.Confirm = pipeline.AlwaysConfirm
			} else {
				p.Confirm = &StdinConfirmer{In: cmd.InOrStdin(), Out: cmd.OutOrStdout()}
			}

			if deps.Config.UseTestTranscript {
				f.Info("Test mode: using the fixed test transcript")
			} else {
				f.Transcribing(len(recs))
			}
			res, err := p.Run(cmd.Context(), pipeline.Request{
				Date:       date,
				Recordings: recs,
				References: refs,
			})
			if metricsFile != "" {
				if werr := deps.App.Metrics.WriteTextfile(metricsFile); werr != nil {
					deps.Log.WithError(werr).Warn("failed to write metrics file")
				}
			}
			if err != nil {
				return err
			}

			for _, t := range res.Failed() {
				f.Warning("Skipped " + t.Recording.Name + ": " + t.Err.Error())
			}
			if res.Declined {
				f.Info("Nothing written")
				return nil
			}
			f.NoteCreated(res.Note.Path)
			return nil
		},
	}

	cmd.Flags().StringVarP(&date, "date", "d", time.Now().Format(datefmt.ISODate), "note date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&refsPath, "refs", "", "context references file (.json or .xlsx)")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "create a new version without asking if the note exists")
	cmd.Flags().StringVar(&metricsFile, "metrics-file", os.Getenv("DAILYMEMO_METRICS_FILE"), "write Prometheus metrics to this file after the run")

	return cmd
}
