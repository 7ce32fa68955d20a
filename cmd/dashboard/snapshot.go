package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/jwalitptl/admin-dashboard/internal/service/dashboard"
)

func (c *cli) snapshotCmd() *cobra.Command {
	var (
		query  string
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Load the dashboard once and print counters and pending appointments",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := c.newApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			// A doctors failure is reported in the overview; only appointments are fatal.
			if err := a.dash.RefreshAll(ctx); err != nil && a.dash.Overview().RefreshedAt == nil {
				return fmt.Errorf("failed to load dashboard: %w", err)
			}

			overview := a.dash.Overview()
			rows := a.dash.Pending(query)
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(struct {
					Overview     dashboard.Overview `json:"overview"`
					Appointments []dashboard.Row    `json:"appointments"`
				}{overview, rows})
			}
			return printSnapshot(cmd.OutOrStdout(), overview, rows)
		},
	}
	cmd.Flags().StringVarP(&query, "query", "q", "", "filter pending appointments by doctor, patient, status or date")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}

func printSnapshot(out io.Writer, overview dashboard.Overview, rows []dashboard.Row) error {
	cnt := overview.Counters
	fmt.Fprintf(out, "Pending: %d  Accepted: %d  Canceled: %d  Doctors: %d\n",
		cnt.Pending, cnt.Accepted, cnt.Canceled, cnt.Doctors)
	if overview.Error != "" {
		fmt.Fprintf(out, "Error: %s\n", overview.Error)
	}
	fmt.Fprintln(out)

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tDOCTOR\tPATIENT\tDATE/TIME\tSTATUS")
	for _, r := range rows {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			r.AppointmentID, r.DoctorName, r.PatientName, r.DisplayDateTime, r.Status)
	}
	return tw.Flush()
}
