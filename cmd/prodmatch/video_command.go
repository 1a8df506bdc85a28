package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

func newVideoCommand(app *appContext) *cobra.Command {
	var outPath string

	cmd := &cobra.Command{
		Use:   "video MEDIA",
		Short: "Scan a video for products and annotate its transcript",
		Long: `Scan a video for registered products, transcribe its audio and print the
transcript with product markers appended to segments where a product is
confidently visible.

Requires a configured transcriber_cmd and ffmpeg on the path.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, err := app.engine()
			if err != nil {
				return err
			}

			script, err := engine.ProcessVideo(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			if outPath != "" {
				if err := os.WriteFile(outPath, []byte(script+"\n"), 0o644); err != nil {
					return fmt.Errorf("write script: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "script written to %s\n", outPath)
				return nil
			}

			fmt.Fprintln(cmd.OutOrStdout(), script)
			return nil
		},
	}

	cmd.Flags().StringVarP(&outPath, "out", "o", "", "Write the annotated script to this file")

	return cmd
}

func newAnnotateCommand(app *appContext) *cobra.Command {
	return &cobra.Command{
		Use:   "annotate [TEXT]",
		Short: "Append product markers to free text by catalog name",
		Long: `Append product markers to text wherever a registered product name occurs.
Reads from stdin when no TEXT argument is given.

Examples:
  prodmatch annotate "Me gusta la Coca-Cola"
  cat script.txt | prodmatch annotate`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, err := app.engine()
			if err != nil {
				return err
			}

			var text string
			if len(args) == 1 {
				text = args[0]
			} else {
				data, err := io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return fmt.Errorf("read stdin: %w", err)
				}
				text = strings.TrimRight(string(data), "\n")
			}

			out, err := engine.AnnotateText(text)
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), out)
			return nil
		},
	}
}
