package main

import (
	"github.com/spf13/cobra"
)

func newRootCommand() *cobra.Command {
	var configFlag string

	app := newAppContext(&configFlag)

	rootCmd := &cobra.Command{
		Use:           "prodmatch",
		Short:         "Visual product identification and video annotation",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", "", "Configuration file path")

	rootCmd.AddCommand(newRegisterCommand(app))
	rootCmd.AddCommand(newPreviewCommand(app))
	rootCmd.AddCommand(newIdentifyCommand(app))
	rootCmd.AddCommand(newVideoCommand(app))
	rootCmd.AddCommand(newAnnotateCommand(app))
	rootCmd.AddCommand(newSnapshotCommand(app))
	rootCmd.AddCommand(newReconcileCommand(app))
	rootCmd.AddCommand(newConfigCommand())

	return rootCmd
}
