package cli

import (
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/relaymesh/relay/internal/config"
	"github.com/relaymesh/relay/internal/hydrate"
	"github.com/relaymesh/relay/internal/records"
)

func newHydrateCmd() *cobra.Command {
	var baseID string
	var assembled bool

	cmd := &cobra.Command{
		Use:   "hydrate <record-id>",
		Short: "Assemble the context document for one record and print it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.FromEnv()
			logger := slog.New(slog.NewTextHandler(io.Discard, nil))
			client := records.New(cfg.RecordsAPIBase, cfg.RecordsToken,
				time.Duration(cfg.RecordsTimeoutSec)*time.Second, logger)
			hydrator := hydrate.New(client, hydrate.ConfigFrom(cfg), logger)

			var result hydrate.Result
			var err error
			if assembled {
				result, err = hydrator.HydrateAssembled(cmd.Context(), args[0], baseID)
			} else {
				result, err = hydrator.Hydrate(cmd.Context(), args[0], baseID)
			}
			if err != nil {
				return err
			}

			cmd.Println(result.XML)
			cmd.PrintErrln(fmt.Sprintf("mode=%s personas=%d domains=%d entities=%d references=%d",
				result.Mode, result.Counts.Personas, result.Counts.Domains,
				result.Counts.Entities, result.Counts.References))
			return nil
		},
	}

	cmd.Flags().StringVar(&baseID, "base", "", "record store base id (defaults to RELAY_RECORDS_BASE_ID)")
	cmd.Flags().BoolVar(&assembled, "assembled", false, "use the prebuilt or id-attribute document instead of full hydration")
	return cmd
}
