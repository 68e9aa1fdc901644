package main

import (
	"context"
	"errors"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/kemeter/ring/pkg/client"
	"github.com/kemeter/ring/pkg/types"
)

var deploymentCmd = &cobra.Command{
	Use:   "deployment",
	Short: "Manage deployments",
}

var deploymentListCmd = &cobra.Command{
	Use:   "list",
	Short: "List deployments",
	RunE: func(cmd *cobra.Command, args []string) error {
		cli, _, err := newClient(cmd)
		if err != nil {
			return err
		}
		namespaces, _ := cmd.Flags().GetStringArray("namespace")
		statuses, _ := cmd.Flags().GetStringArray("status")

		deployments, err := cli.ListDeployments(context.Background(), client.DeploymentFilter{
			Namespace: namespaces,
			Status:    statuses,
		})
		if err != nil {
			return reportAPIError(err, "Unable to fetch deployments")
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tNAMESPACE\tNAME\tIMAGE\tRUNTIME\tKIND\tREPLICAS\tSTATUS")
		for _, d := range deployments {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%d/%d\t%s\n",
				d.ID, d.Namespace, d.Name, d.Image, d.Runtime, d.Kind,
				len(d.Instances), d.Replicas, d.Status)
		}
		return w.Flush()
	},
}

var deploymentInspectCmd = &cobra.Command{
	Use:   "inspect [id]",
	Short: "Show deployment details",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cli, _, err := newClient(cmd)
		if err != nil {
			return err
		}

		d, err := cli.GetDeployment(context.Background(), args[0])
		if err != nil {
			return reportAPIError(err, "Unable to fetch deployment")
		}

		fmt.Println("DEPLOYMENT DETAILS")
		fmt.Printf("Name: %s\n", d.Name)
		fmt.Printf("Namespace: %s\n", d.Namespace)
		fmt.Printf("Kind: %s\n", d.Kind)
		fmt.Printf("Image: %s\n", d.Image)
		fmt.Printf("Replicas: %d\n", d.Replicas)
		fmt.Printf("Restart count: %d\n", d.RestartCount)
		fmt.Printf("Created at: %s\n", d.CreatedAt)
		if d.UpdatedAt != nil {
			fmt.Printf("Updated at: %s\n", *d.UpdatedAt)
		}

		if len(d.Labels) > 0 {
			fmt.Println("\nLABELS")
			for k, v := range d.Labels {
				fmt.Printf("%s = %s\n", k, v)
			}
		}

		if len(d.Instances) > 0 {
			fmt.Println("\nINSTANCES")
			for _, id := range d.Instances {
				fmt.Println(id)
			}
		}

		return nil
	},
}

var deploymentDeleteCmd = &cobra.Command{
	Use:   "delete [id]",
	Short: "Delete a deployment",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cli, _, err := newClient(cmd)
		if err != nil {
			return err
		}

		if err := cli.DeleteDeployment(context.Background(), args[0]); err != nil {
			fmt.Println("Cannot delete deployment")
			return reportAPIError(err, "Cannot delete deployment")
		}
		fmt.Printf("Deployment %s deleted\n", args[0])
		return nil
	},
}

var deploymentRollbackCmd = &cobra.Command{
	Use:   "rollback [id]",
	Short: "Reactivate the most recently superseded deployment sharing this id's namespace and name",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cli, _, err := newClient(cmd)
		if err != nil {
			return err
		}
		d, err := cli.RollbackDeployment(context.Background(), args[0])
		if err != nil {
			return reportAPIError(err, "Unable to rollback deployment")
		}
		fmt.Printf("Deployment %s rolled back to %s\n", args[0], d.ID)
		return nil
	},
}

var deploymentLogsCmd = &cobra.Command{
	Use:   "logs [id]",
	Short: "Show deployment logs",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cli, _, err := newClient(cmd)
		if err != nil {
			return err
		}
		tail, _ := cmd.Flags().GetString("tail")
		since, _ := cmd.Flags().GetString("since")

		logs, err := cli.DeploymentLogs(context.Background(), args[0], tail, since)
		if err != nil {
			return reportAPIError(err, "Unable to fetch logs")
		}
		for _, l := range logs {
			fmt.Println(l.Line)
		}
		return nil
	},
}

var deploymentEventsCmd = &cobra.Command{
	Use:   "events [id]",
	Short: "Show deployment events",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cli, _, err := newClient(cmd)
		if err != nil {
			return err
		}
		level, _ := cmd.Flags().GetString("level")
		limit, _ := cmd.Flags().GetInt("limit")
		follow, _ := cmd.Flags().GetBool("follow")

		deploymentID := args[0]

		if !follow {
			events, err := cli.DeploymentEvents(context.Background(), deploymentID, level, limit)
			if err != nil {
				return reportAPIError(err, "Unable to fetch events")
			}
			if len(events) == 0 {
				fmt.Printf("No events found for deployment %s\n", deploymentID)
				return nil
			}
			printEventsTable(cmd, events)
			return nil
		}

		fmt.Printf("Following events for deployment %s (Press Ctrl+C to stop)...\n", deploymentID)
		var lastSeenID string
		for {
			events, err := cli.DeploymentEvents(context.Background(), deploymentID, level, limit)
			if err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "Error fetching events: %v\n", err)
				time.Sleep(2 * time.Second)
				continue
			}

			var fresh []types.DeploymentEvent
			for _, e := range events {
				if e.ID == lastSeenID {
					break
				}
				fresh = append(fresh, e)
			}

			if len(fresh) > 0 {
				fmt.Print("\x1B[2J\x1B[H")
				fmt.Printf("Following events for deployment %s (Press Ctrl+C to stop)...\n", deploymentID)
				printEventsTable(cmd, events)
				lastSeenID = events[0].ID
			}

			time.Sleep(2 * time.Second)
		}
	},
}

func printEventsTable(cmd *cobra.Command, events []types.DeploymentEvent) {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "TIME\tLEVEL\tCOMPONENT\tREASON\tMESSAGE")
	for _, e := range events {
		reason := ""
		if e.Reason != nil {
			reason = *e.Reason
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", e.Timestamp, e.Level, e.Component, reason, e.Message)
	}
	w.Flush()
}

// reportAPIError turns a typed client.APIError into the CLI's conventional
// messages, falling back to the raw error for anything else.
func reportAPIError(err error, fallback string) error {
	var apiErr *client.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.StatusCode {
		case 401:
			return fmt.Errorf("authentication failed, run `ring login` again")
		case 404:
			return fmt.Errorf("not found")
		}
	}
	return fmt.Errorf("%s: %w", fallback, err)
}

func init() {
	deploymentListCmd.Flags().StringArrayP("namespace", "n", nil, "filter by namespace (repeatable)")
	deploymentListCmd.Flags().StringArrayP("status", "s", nil, "filter by status (repeatable)")

	deploymentLogsCmd.Flags().String("tail", "", "number of lines to show from the end of the logs")
	deploymentLogsCmd.Flags().String("since", "", "show logs since timestamp")

	deploymentEventsCmd.Flags().StringP("level", "l", "", "filter by level (info, warning, error)")
	deploymentEventsCmd.Flags().Int("limit", 50, "limit number of events returned")
	deploymentEventsCmd.Flags().BoolP("follow", "f", false, "follow events in real-time")

	deploymentCmd.AddCommand(deploymentListCmd)
	deploymentCmd.AddCommand(deploymentInspectCmd)
	deploymentCmd.AddCommand(deploymentDeleteCmd)
	deploymentCmd.AddCommand(deploymentRollbackCmd)
	deploymentCmd.AddCommand(deploymentLogsCmd)
	deploymentCmd.AddCommand(deploymentEventsCmd)
}
