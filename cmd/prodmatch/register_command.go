package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/hupe1980/prodmatch/extractor"
)

func newRegisterCommand(app *appContext) *cobra.Command {
	var name string
	var maskPath string

	cmd := &cobra.Command{
		Use:   "register IMAGE",
		Short: "Register a product from a reference image",
		Long: `Calibrate a detection threshold for the reference image, extract its
feature descriptors and store them in the catalog under a new product id.

Examples:
  prodmatch register -n "Coca-Cola" cola.jpg
  prodmatch register -n "Coca-Cola" -m label_mask.png cola.jpg`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, err := app.engine()
			if err != nil {
				return err
			}

			img, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read image: %w", err)
			}

			var mask extractor.Image
			if maskPath != "" {
				mask, err = os.ReadFile(maskPath)
				if err != nil {
					return fmt.Errorf("read mask: %w", err)
				}
			}

			res, err := engine.Register(cmd.Context(), name, img, mask)
			if err != nil {
				return err
			}

			green := color.New(color.FgGreen)
			green.Fprintf(cmd.OutOrStdout(), "✓ %s\n", res.Message)
			fmt.Fprintf(cmd.OutOrStdout(), "  id:        %s\n", res.ProductID)
			fmt.Fprintf(cmd.OutOrStdout(), "  threshold: %.5f\n", res.Threshold)
			if !res.Converged {
				yellow := color.New(color.FgYellow)
				yellow.Fprintln(cmd.OutOrStdout(), "  calibration did not converge; nearest threshold used")
			}

			return nil
		},
	}

	cmd.Flags().StringVarP(&name, "name", "n", "", "Product name (required)")
	_ = cmd.MarkFlagRequired("name")
	cmd.Flags().StringVarP(&maskPath, "mask", "m", "", "Optional mask image restricting detection")

	return cmd
}
