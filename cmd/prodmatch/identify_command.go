package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/hupe1980/prodmatch"
)

func newIdentifyCommand(app *appContext) *cobra.Command {
	return &cobra.Command{
		Use:   "identify IMAGE",
		Short: "Identify the product shown in an image",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, err := app.engine()
			if err != nil {
				return err
			}

			img, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read image: %w", err)
			}

			res, err := engine.Identify(cmd.Context(), img)
			if err != nil {
				return err
			}

			if res.Label == prodmatch.UnknownLabel {
				yellow := color.New(color.FgYellow)
				yellow.Fprintf(cmd.OutOrStdout(), "%s (score %d)\n", res.Label, res.MatchScore)
				return nil
			}

			green := color.New(color.FgGreen)
			green.Fprintf(cmd.OutOrStdout(), "%s\n", res.Label)
			fmt.Fprintf(cmd.OutOrStdout(), "  id:         %s\n", res.ProductID)
			fmt.Fprintf(cmd.OutOrStdout(), "  score:      %d\n", res.MatchScore)
			fmt.Fprintf(cmd.OutOrStdout(), "  confidence: %.1f\n", res.Confidence)

			return nil
		},
	}
}

func newPreviewCommand(app *appContext) *cobra.Command {
	var outPath string

	cmd := &cobra.Command{
		Use:   "preview IMAGE",
		Short: "Calibrate and visualize keypoints without registering",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, err := app.engine()
			if err != nil {
				return err
			}

			img, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read image: %w", err)
			}

			res, err := engine.Preview(cmd.Context(), img)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "keypoints: %d\n", res.Count)
			fmt.Fprintf(cmd.OutOrStdout(), "threshold: %.5f\n", res.Threshold)
			if !res.Converged {
				yellow := color.New(color.FgYellow)
				yellow.Fprintln(cmd.OutOrStdout(), "calibration did not converge; nearest threshold shown")
			}

			if outPath != "" && len(res.Visualization) > 0 {
				if err := os.WriteFile(outPath, res.Visualization, 0o644); err != nil {
					return fmt.Errorf("write visualization: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "visualization written to %s\n", outPath)
			}

			return nil
		},
	}

	cmd.Flags().StringVarP(&outPath, "out", "o", "", "Write the keypoint visualization to this file")

	return cmd
}
