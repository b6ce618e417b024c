package cli

import (
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"daily-memo-go/internal/pipeline"
)

func NewListCmd(deps *Dependencies) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List notes in the journal folder",
		RunE: func(cmd *cobra.Command, args []string) error {
			f := NewFormatter(cmd.OutOrStdout())

			names, err := deps.App.Vault.List(deps.Config.Journal.Folder)
			if err != nil {
				return err
			}
			var notes []string
			for _, n := range names {
				if strings.HasSuffix(n, pipeline.NoteExt) {
					notes = append(notes, strings.TrimSuffix(n, pipeline.NoteExt))
				}
			}
			if len(notes) == 0 {
				f.Info("No notes found in " + deps.Config.Journal.Folder)
				return nil
			}

			sort.Sort(sort.Reverse(sort.StringSlice(notes)))
			f.NoteListHeader(deps.Config.Journal.Folder)
			for _, n := range notes {
				f.NoteListItem(n)
			}
			return nil
		},
	}
}
