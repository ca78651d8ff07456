package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func newRenderCmd(root *rootOptions) *cobra.Command {
	var (
		output string
		width  int
	)

	cmd := &cobra.Command{
		Use:   "render <jobs.yaml|jobs.csv>",
		Short: "Draw the schedule as an SVG timeline",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			jobs, err := loadJobs(args[0])
			if err != nil {
				return err
			}
			b, err := root.buildBoard(cmd, jobs)
			if err != nil {
				return err
			}

			if output == "" || output == "-" {
				return b.RenderSVG(cmd.OutOrStdout(), width)
			}

			f, err := os.Create(output)
			if err != nil {
				return fmt.Errorf("error creating output file: %w", err)
			}
			if err := b.RenderSVG(f, width); err != nil {
				f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return fmt.Errorf("error writing output file: %w", err)
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "Timeline with %d jobs written to %s\n", len(jobs), output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (stdout when empty)")
	cmd.Flags().IntVar(&width, "width", 1200, "image width in pixels")
	return cmd
}
