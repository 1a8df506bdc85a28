package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/hupe1980/prodmatch/catalog"
)

func newReconcileCommand(app *appContext) *cobra.Command {
	return &cobra.Command{
		Use:   "reconcile",
		Short: "Repair the product listing from the catalog",
		Long: `Compare the product listing with the descriptor store and rewrite the
listing where they disagree. The descriptor store is authoritative.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := app.config()
			if err != nil {
				return err
			}

			store, err := app.openStore()
			if err != nil {
				return err
			}

			listing := catalog.NewListing(cfg.Storage.ListingPath)

			report, err := listing.Reconcile(store)
			if err != nil {
				return err
			}

			if !report.Dirty() {
				green := color.New(color.FgGreen)
				green.Fprintln(cmd.OutOrStdout(), "✓ listing is consistent")
				return nil
			}

			yellow := color.New(color.FgYellow)
			for _, id := range report.Missing {
				yellow.Fprintf(cmd.OutOrStdout(), "restored missing entry %s\n", id)
			}
			for _, id := range report.Orphaned {
				yellow.Fprintf(cmd.OutOrStdout(), "removed orphaned entry %s\n", id)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "listing rewritten: %d restored, %d removed\n",
				len(report.Missing), len(report.Orphaned))

			return nil
		},
	}
}

func newConfigCommand() *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	configCmd.AddCommand(&cobra.Command{
		Use:   "init [PATH]",
		Short: "Write a default configuration file",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := DefaultConfigPath()
			if len(args) == 1 {
				path = args[0]
			}

			if err := WriteDefault(path); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "config written to %s\n", path)
			return nil
		},
	})

	return configCmd
}
