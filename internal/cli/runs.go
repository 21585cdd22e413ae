package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/relaymesh/relay/internal/config"
	"github.com/relaymesh/relay/internal/store"
)

func newRunsCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "runs <initiator-id>",
		Short: "List recorded generation runs for one initiator",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.FromEnv()
			metaStore, err := store.New(cfg.DBPath)
			if err != nil {
				return err
			}
			defer metaStore.Close()
			if err := metaStore.AutoMigrate(cmd.Context()); err != nil {
				return err
			}

			runs, err := metaStore.ListGenerationRuns(cmd.Context(), args[0], limit)
			if err != nil {
				return err
			}
			if len(runs) == 0 {
				cmd.Println("no runs recorded")
				return nil
			}
			for _, run := range runs {
				line := fmt.Sprintf("%s  %s  %-9s  p=%d d=%d e=%d r=%d",
					run.CreatedAt.Format("2006-01-02 15:04:05"), run.ID, run.Status,
					run.Counts.Personas, run.Counts.Domains, run.Counts.Entities, run.Counts.References)
				if run.Detail != "" {
					line += "  " + run.Detail
				}
				cmd.Println(line)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "maximum runs to list")
	return cmd
}
