package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/banshee-data/truthana/internal/store"
)

func newCutflowCmd() *cobra.Command {
	var dbPath, runID string
	cmd := &cobra.Command{
		Use:   "cutflow",
		Short: "Print a recorded cutflow",
		Long:  `Print the cutflow of a recorded run. Defaults to the most recent run.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := store.Open(dbPath)
			if err != nil {
				return err
			}
			defer st.Close()

			if runID == "" {
				if runID, err = st.LatestRunID(); err != nil {
					return err
				}
			}
			info, err := st.Run(runID)
			if err != nil {
				return err
			}
			cf, err := st.LoadCutflow(runID)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "run %s (%s, started %s)\n\n", info.ID, info.Variant, info.StartedAt.Format(time.RFC3339))
			return cf.Print(out)
		},
	}
	cmd.Flags().StringVar(&dbPath, "db", "", "SQLite database holding recorded runs")
	cmd.Flags().StringVar(&runID, "run", "", "Run ID (default: latest)")
	_ = cmd.MarkFlagRequired("db")
	return cmd
}

func newRunsCmd() *cobra.Command {
	var dbPath string
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List recorded runs, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := store.Open(dbPath)
			if err != nil {
				return err
			}
			defer st.Close()

			runs, err := st.ListRuns()
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "RUN\tVARIANT\tSTARTED\tREAD\tSELECTED\tSKIPPED\tUNRESOLVED")
			for _, r := range runs {
				started := r.StartedAt.Format(time.RFC3339)
				if !r.Finished() {
					started += " (unfinished)"
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%d\t%d\n",
					r.ID, r.Variant, started, r.EventsRead, r.EventsSelected, r.EventsSkipped, r.EventsUnresolved)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().StringVar(&dbPath, "db", "", "SQLite database holding recorded runs")
	_ = cmd.MarkFlagRequired("db")
	return cmd
}
