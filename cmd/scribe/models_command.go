package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"scribe/internal/config"
	"scribe/internal/services/whisper"
)

func newModelsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "models",
		Short: "List Whisper model tiers and their cache state",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			rows := make([][]string, 0, len(config.ModelTiers))
			for _, tier := range config.ModelTiers {
				downloaded := whisper.ModelDownloaded(cfg.Whisper.CacheDir, tier)
				selected := ""
				if tier == cfg.Whisper.Model {
					selected = "selected"
				}
				rows = append(rows, []string{tier, yesNo(downloaded), selected})
			}

			stdout := cmd.OutOrStdout()
			table := renderTable(
				[]string{"Model", "Downloaded", ""},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft},
			)
			fmt.Fprintln(stdout, table)
			fmt.Fprintf(stdout, "Cache directory: %s\n", cfg.Whisper.CacheDir)
			if cfg.Whisper.Engine == config.EngineOpenAI {
				fmt.Fprintln(stdout, "Hosted engine configured; local models are not used")
			}
			return nil
		},
	}
}
