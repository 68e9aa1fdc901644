package main

import (
	"context"
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/kemeter/ring/pkg/client"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configs",
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "List configs",
	RunE: func(cmd *cobra.Command, args []string) error {
		cli, _, err := newClient(cmd)
		if err != nil {
			return err
		}
		namespaces, _ := cmd.Flags().GetStringArray("namespace")

		configs, err := cli.ListConfigs(context.Background(), namespaces)
		if err != nil {
			return reportAPIError(err, "Unable to fetch configs")
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tNAMESPACE\tNAME\tKEYS")
		for _, c := range configs {
			var data map[string]string
			keys := 0
			if json.Unmarshal([]byte(c.Data), &data) == nil {
				keys = len(data)
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%d\n", c.ID, c.Namespace, c.Name, keys)
		}
		return w.Flush()
	},
}

var configInspectCmd = &cobra.Command{
	Use:   "inspect [id]",
	Short: "Show config details",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cli, _, err := newClient(cmd)
		if err != nil {
			return err
		}

		c, err := cli.GetConfig(context.Background(), args[0])
		if err != nil {
			return reportAPIError(err, "Failed to retrieve configuration details")
		}

		fmt.Printf("Name: %s\n", c.Name)
		fmt.Printf("Namespace: %s\n", c.Namespace)

		var labels map[string]string
		json.Unmarshal([]byte(c.Labels), &labels)
		if len(labels) > 0 {
			fmt.Print("Labels: ")
			for k, v := range labels {
				fmt.Printf("%s=%s ", k, v)
			}
			fmt.Println()
		}

		fmt.Println("\nData")
		fmt.Println("====")
		var data map[string]string
		if json.Unmarshal([]byte(c.Data), &data) == nil {
			for k, v := range data {
				fmt.Printf("%s:\n----\n%s\n\n", k, v)
			}
		}

		return nil
	},
}

var configDeleteCmd = &cobra.Command{
	Use:   "delete [id]",
	Short: "Delete a config",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cli, _, err := newClient(cmd)
		if err != nil {
			return err
		}
		if err := cli.DeleteConfig(context.Background(), args[0]); err != nil {
			return reportAPIError(err, fmt.Sprintf("Cannot delete config %s", args[0]))
		}
		fmt.Printf("Config %s deleted\n", args[0])
		return nil
	},
}

var configCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a config",
	RunE: func(cmd *cobra.Command, args []string) error {
		cli, _, err := newClient(cmd)
		if err != nil {
			return err
		}
		namespace, _ := cmd.Flags().GetString("namespace")
		name, _ := cmd.Flags().GetString("name")
		data, _ := cmd.Flags().GetString("data")

		c, err := cli.CreateConfig(context.Background(), client.ConfigInput{
			Namespace: namespace,
			Name:      name,
			Data:      data,
			Labels:    map[string]string{},
		})
		if err != nil {
			return reportAPIError(err, "Unable to create config")
		}
		fmt.Printf("Config %s created\n", c.ID)
		return nil
	},
}

func init() {
	configListCmd.Flags().StringArrayP("namespace", "n", nil, "filter by namespace")

	configCreateCmd.Flags().StringP("namespace", "n", "default", "namespace")
	configCreateCmd.Flags().String("name", "", "config name")
	configCreateCmd.Flags().String("data", "{}", "config data as a JSON object")
	_ = configCreateCmd.MarkFlagRequired("name")

	configCmd.AddCommand(configListCmd)
	configCmd.AddCommand(configInspectCmd)
	configCmd.AddCommand(configDeleteCmd)
	configCmd.AddCommand(configCreateCmd)
}
