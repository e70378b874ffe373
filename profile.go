package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Kamiltczarnik/Lira/models"
)

// profileRefresher is implemented by record services that cache profiles.
type profileRefresher interface {
	Refresh(ctx context.Context, customerID string) (*models.CustomerProfile, error)
}

func profileCmd() *cobra.Command {
	var refresh bool
	cmd := &cobra.Command{
		Use:   "profile <customer-id>",
		Short: "Print a customer profile from the configured record service",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := setup()
			if err != nil {
				return err
			}
			logger.SetOutput(cmd.ErrOrStderr())
			records, closeRecords, err := buildRecords(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			defer closeRecords()

			load := records.Profile
			if refresher, ok := records.(profileRefresher); ok && refresh {
				load = refresher.Refresh
			}
			profile, err := load(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("profile %s: %w", args[0], err)
			}
			data, err := json.MarshalIndent(profile, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return nil
		},
	}
	cmd.Flags().BoolVar(&refresh, "refresh", false, "drop the cached profile before loading it")
	return cmd
}
