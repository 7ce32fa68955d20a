package main

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jwalitptl/admin-dashboard/internal/model"
	"github.com/jwalitptl/admin-dashboard/internal/service/dashboard"
	"github.com/jwalitptl/admin-dashboard/internal/service/notification"
)

func (c *cli) actionCmd(outcome model.Outcome) *cobra.Command {
	var yes bool

	verb := strings.ToUpper(string(outcome[:1])) + string(outcome[1:])
	cmd := &cobra.Command{
		Use:   string(outcome) + " <appointment-id>",
		Short: verb + " a pending appointment and notify the patient",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := c.newApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.dash.Refresh(ctx); err != nil {
				return fmt.Errorf("failed to load appointments: %w", err)
			}

			id := model.ID(strings.TrimSpace(args[0]))
			row, ok := findRow(a.dash.Pending(""), id)
			if !ok {
				return fmt.Errorf("appointment %s: %w", id, dashboard.ErrNotPending)
			}

			if !yes {
				prompt := fmt.Sprintf("%s appointment %s (%s with %s at %s)? [y/N] ",
					verb, id, row.DoctorName, row.PatientName, row.DisplayDateTime)
				if !confirm(cmd.InOrStdin(), cmd.OutOrStdout(), prompt) {
					fmt.Fprintln(cmd.OutOrStdout(), "Aborted.")
					return nil
				}
			}

			res, err := a.actions.PerformAction(ctx, id, outcome)
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), res.Popup.Message)
			if res.SMS != nil && res.SMS.Status != notification.SMSSent {
				fmt.Fprintf(cmd.OutOrStdout(), "SMS %s: %s\n", res.SMS.Status, res.SMS.Error)
			}
			if !res.Succeeded {
				return fmt.Errorf("%s failed at %s: %w", outcome, res.FailedStage, res.Err)
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip the confirmation prompt")
	return cmd
}

func findRow(rows []dashboard.Row, id model.ID) (dashboard.Row, bool) {
	for _, r := range rows {
		if r.AppointmentID == id {
			return r, true
		}
	}
	return dashboard.Row{}, false
}

func confirm(in io.Reader, out io.Writer, prompt string) bool {
	fmt.Fprint(out, prompt)
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && line == "" {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	}
	return false
}
