package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kemeter/ring/pkg/client"
)

var namespaceCmd = &cobra.Command{
	Use:   "namespace",
	Short: "Manage namespaces",
}

var namespacePruneCmd = &cobra.Command{
	Use:   "prune [name]",
	Short: "Delete every deployment in a namespace, or every deployment if no name is given",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cli, _, err := newClient(cmd)
		if err != nil {
			return err
		}

		var filterName string
		if len(args) == 1 {
			filterName = args[0]
		}

		deployments, err := cli.ListDeployments(context.Background(), client.DeploymentFilter{})
		if err != nil {
			return reportAPIError(err, "Unable to fetch deployments")
		}

		deleted, failed := 0, 0
		for _, d := range deployments {
			if filterName != "" && d.Namespace != filterName {
				continue
			}
			if err := cli.DeleteDeployment(context.Background(), d.ID); err != nil {
				fmt.Printf("Failed to delete %s: %v\n", d.ID, err)
				failed++
				continue
			}
			fmt.Printf("Deleted %s\n", d.ID)
			deleted++
		}

		fmt.Printf("\nSummary: Deleted: %d", deleted)
		if failed > 0 {
			fmt.Printf(" Failed: %d", failed)
		}
		fmt.Println()

		return nil
	},
}

func init() {
	namespaceCmd.AddCommand(namespacePruneCmd)
}
