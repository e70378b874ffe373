package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

func catalogCmd() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Print the product catalog as the advisor sees it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := setup()
			if err != nil {
				return err
			}
			logger.SetOutput(cmd.ErrOrStderr())
			catalog := loadCatalog(cfg, logger)

			if !asJSON {
				fmt.Fprintln(cmd.OutOrStdout(), catalog.RenderPromptBlock())
				return nil
			}
			data, err := json.MarshalIndent(catalog.Records(), "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the raw records instead of the prompt block")
	return cmd
}
