package main

import (
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/hupe1980/prodmatch/catalog"
)

func newSnapshotCommand(app *appContext) *cobra.Command {
	snapshotCmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Push, pull and list versioned catalog snapshots",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	snapshotCmd.AddCommand(newSnapshotPushCommand(app))
	snapshotCmd.AddCommand(newSnapshotPullCommand(app))
	snapshotCmd.AddCommand(newSnapshotListCommand(app))

	return snapshotCmd
}

func newSnapshotPushCommand(app *appContext) *cobra.Command {
	return &cobra.Command{
		Use:   "push",
		Short: "Push the local catalog as a new snapshot version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			reg, err := app.snapshotRegistry(ctx)
			if err != nil {
				return err
			}

			store, err := app.openStore()
			if err != nil {
				return err
			}

			snap, err := reg.Push(ctx, store)
			if err != nil {
				return err
			}

			green := color.New(color.FgGreen)
			green.Fprintf(cmd.OutOrStdout(), "✓ pushed snapshot v%d\n", snap.Version)
			fmt.Fprintf(cmd.OutOrStdout(), "  key:      %s\n", snap.Key)
			fmt.Fprintf(cmd.OutOrStdout(), "  products: %d\n", snap.ProductCount)

			return nil
		},
	}
}

func newSnapshotPullCommand(app *appContext) *cobra.Command {
	var version uint64

	cmd := &cobra.Command{
		Use:   "pull",
		Short: "Pull a snapshot version into the local catalog",
		Long: `Replace the local catalog with the contents of a pushed snapshot.
Version 0 (the default) selects the latest snapshot.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			cfg, err := app.config()
			if err != nil {
				return err
			}

			reg, err := app.snapshotRegistry(ctx)
			if err != nil {
				return err
			}

			store, snap, err := reg.Pull(ctx, version)
			if err != nil {
				return err
			}

			if err := store.Save(cfg.Storage.CatalogPath); err != nil {
				return fmt.Errorf("save catalog: %w", err)
			}

			if cfg.Storage.ListingPath != "" {
				if err := catalog.NewListing(cfg.Storage.ListingPath).Sync(store); err != nil {
					return fmt.Errorf("sync listing: %w", err)
				}
			}

			green := color.New(color.FgGreen)
			green.Fprintf(cmd.OutOrStdout(), "✓ pulled snapshot v%d (%d products)\n", snap.Version, snap.ProductCount)

			return nil
		},
	}

	cmd.Flags().Uint64Var(&version, "version", 0, "Snapshot version to pull (0 = latest)")

	return cmd
}

func newSnapshotListCommand(app *appContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List pushed snapshot versions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			reg, err := app.snapshotRegistry(ctx)
			if err != nil {
				return err
			}

			snaps, err := reg.List(ctx)
			if err != nil {
				return err
			}

			if len(snaps) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no snapshots")
				return nil
			}

			for _, s := range snaps {
				fmt.Fprintf(cmd.OutOrStdout(), "v%-4d %-40s %4d products  %s\n",
					s.Version, s.Key, s.ProductCount, s.CreatedAt.Format(time.RFC3339))
			}

			return nil
		},
	}
}
