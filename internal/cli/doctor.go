package cli

import (
	"os/exec"

	"github.com/spf13/cobra"

	"daily-memo-go/internal/synthesis"
)

func NewDoctorCmd(deps *Dependencies) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check prerequisites",
		RunE: func(cmd *cobra.Command, args []string) error {
			f := NewFormatter(cmd.OutOrStdout())
			cfg := deps.Config
			ok := true

			if _, err := exec.LookPath(cfg.Audio.FFmpegPath); err != nil {
				f.SetupCheck("ffmpeg", false, "not found. Install ffmpeg or set DAILYMEMO_FFMPEG_PATH")
				ok = false
			} else {
				f.SetupCheck("ffmpeg", true, "installed")
			}

			if cfg.TranscriptionKey() != "" {
				f.SetupCheck("Transcription API key", true, "configured")
			} else {
				f.SetupCheck("Transcription API key", false, "not set. Set DAILYMEMO_OPENAI_API_KEY or add openai_api_key to config")
				ok = false
			}

			if cfg.GenerationKey() != "" {
				f.SetupCheck("Generator API key", true, cfg.Generation.Backend+" configured")
			} else {
				f.SetupCheck("Generator API key", false, "not set for "+cfg.Generation.Backend)
				ok = false
			}

			if _, err := synthesis.LoadTemplate(deps.App.Vault, cfg.Journal.TemplatePath); err != nil {
				f.SetupCheck("Template", false, err.Error())
				ok = false
			} else {
				f.SetupCheck("Template", true, cfg.Journal.TemplatePath)
			}

			f.SetupCheck("Vault", true, deps.App.Vault.Root)
			f.SetupCheck("Journal folder", true, cfg.Journal.Folder)
			if cfg.UseTestTranscript {
				f.SetupCheck("Test transcript", true, "enabled, no backend calls will be made")
			}

			if ok {
				f.Success("\nAll prerequisites met.")
			} else {
				f.Warning("\nSome prerequisites are missing.")
			}
			return nil
		},
	}
}
