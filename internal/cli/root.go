package cli

import (
	"github.com/spf13/cobra"

	"daily-memo-go/internal/app"
	"daily-memo-go/internal/config"
	"daily-memo-go/internal/logger"
)

type Dependencies struct {
	App    *app.App
	Config *config.Settings
	Log    *logger.Logger
}

func NewRootCmd(deps *Dependencies) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "dailymemo",
		Short:         "Turn voice memos into a daily note",
		Long:          "A CLI tool that transcodes voice memos, transcribes them with context from recently used links, and writes a daily journal note from your template.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(NewCreateCmd(deps))
	rootCmd.AddCommand(NewListCmd(deps))
	rootCmd.AddCommand(NewDoctorCmd(deps))

	return rootCmd
}
