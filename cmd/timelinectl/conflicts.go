package main

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/0xPuncker/production-timeline/pkg/types"
	"github.com/0xPuncker/production-timeline/pkg/utils"
	"github.com/spf13/cobra"
)

func newConflictsCmd(root *rootOptions) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "conflicts <jobs.yaml|jobs.csv>",
		Short: "List overlapping jobs",
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

			pairs, stats := b.ConflictStats()
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(map[string]interface{}{
					"scope":       root.scope,
					"conflicts":   pairs,
					"comparisons": stats.Comparisons,
				})
			}

			out := cmd.OutOrStdout()
			if len(pairs) == 0 {
				fmt.Fprintf(out, "No conflicts among %d jobs\n", stats.Jobs)
				return nil
			}

			byID := make(map[string]types.ScheduledJob, len(jobs))
			for _, job := range jobs {
				byID[job.ID] = job
			}

			tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "JOB\tLANE\tJOB\tLANE\tOVERLAP")
			for _, p := range pairs {
				ja, jb := byID[p.A], byID[p.B]
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", p.A, ja.Lane, p.B, jb.Lane, overlap(ja, jb))
			}
			if err := tw.Flush(); err != nil {
				return err
			}
			fmt.Fprintf(out, "%d conflicting pair(s) among %d jobs\n", len(pairs), stats.Jobs)
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}

func overlap(a, b types.ScheduledJob) string {
	start, end := a.Start, a.End
	if b.Start.After(start) {
		start = b.Start
	}
	if b.End.Before(end) {
		end = b.End
	}
	if !end.After(start) {
		return "touching"
	}
	return utils.FormatDuration(end.Sub(start))
}
