package commands

import (
	"consult_flow_app_go/services"
	"consult_flow_app_go/services/jobs"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

// RoutingCommands returns the scoring and routing commands
func RoutingCommands(openDB OpenDB) []*cobra.Command {
	return []*cobra.Command{scoreCmd(openDB), assignCmd(openDB), overrideCmd(openDB), sweepCmd(openDB)}
}

func scoreCmd(openDB OpenDB) *cobra.Command {
	return &cobra.Command{
		Use:   "score <submission-id>",
		Short: "Recompute a form submission's risk score",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			database, err := openDB()
			if err != nil {
				return err
			}
			submission, err := services.ScoreFormSubmission(database, args[0], now())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: score %d, level %s\n", submission.ID, submission.TotalRiskScore, submission.RiskLevel)
			return nil
		},
	}
}

func assignCmd(openDB OpenDB) *cobra.Command {
	var submissionID string

	cmd := &cobra.Command{
		Use:   "assign <ticket-id>",
		Short: "Route a ticket to the best consultant",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			database, err := openDB()
			if err != nil {
				return err
			}
			var submission *string
			if submissionID != "" {
				submission = &submissionID
			}

			consultantID, err := services.AssignConsultant(database, args[0], submission, now())
			if errors.Is(err, services.ErrNoConsultantFound) {
				fmt.Fprintln(cmd.OutOrStdout(), "no consultant matched; ticket left unassigned")
				return nil
			}
			if err != nil {
				return err
			}

			ticket, err := services.GetTicket(database, args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), map[string]interface{}{
				"consultant_id":    consultantID,
				"routing_score":    ticket.RoutingScore,
				"routing_metadata": ticket.RoutingMetadata,
			})
		},
	}
	cmd.Flags().StringVar(&submissionID, "submission", "", "Form submission to take the critical level from")
	return cmd
}

func overrideCmd(openDB OpenDB) *cobra.Command {
	var adminID, reason string

	cmd := &cobra.Command{
		Use:   "override <ticket-id> <consultant-id>",
		Short: "Assign a ticket to a chosen consultant",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			database, err := openDB()
			if err != nil {
				return err
			}
			consultantID, err := services.OverrideAssignment(database, args[0], args[1], adminID, reason, now())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "ticket %s assigned to %s\n", args[0], consultantID)
			return nil
		},
	}
	cmd.Flags().StringVar(&adminID, "admin", "", "Admin user id recorded on the override")
	cmd.Flags().StringVar(&reason, "reason", "", "Why the routing decision is overridden")
	_ = cmd.MarkFlagRequired("admin")
	_ = cmd.MarkFlagRequired("reason")
	return cmd
}

func sweepCmd(openDB OpenDB) *cobra.Command {
	var batch int

	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Retry routing for waiting tickets without a consultant",
		RunE: func(cmd *cobra.Command, _ []string) error {
			database, err := openDB()
			if err != nil {
				return err
			}
			result, err := jobs.RouteUnassignedTickets(database, now(), batch)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "checked %d, routed %d, unassigned %d, failed %d\n",
				result.Checked, result.Routed, result.Unassigned, result.Failed)
			return nil
		},
	}
	cmd.Flags().IntVar(&batch, "batch", 0, "Maximum tickets to process (0 = all)")
	return cmd
}
