package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var nodeCmd = &cobra.Command{
	Use:   "node",
	Short: "Inspect the server's host",
}

var nodeGetCmd = &cobra.Command{
	Use:   "get",
	Short: "Show a resource snapshot of the host running the server",
	RunE: func(cmd *cobra.Command, args []string) error {
		cli, _, err := newClient(cmd)
		if err != nil {
			return err
		}

		info, err := cli.NodeGet(context.Background())
		if err != nil {
			return reportAPIError(err, "Failed to fetch node info")
		}

		fmt.Println("Node Info")
		fmt.Printf("Hostname: %s\n", info.Hostname)
		fmt.Printf("OS: %s\n", info.OS)
		fmt.Printf("Architecture: %s\n", info.Arch)
		fmt.Printf("Uptime: %ds\n", info.UptimeSeconds)
		fmt.Printf("CPU Cores: %d\n", info.CPUCount)
		fmt.Printf("Memory Total: %.2f GiB\n", info.MemoryTotalGiB)
		fmt.Printf("Memory Available: %.2f GiB\n", info.MemoryAvailGiB)
		fmt.Printf("Load Average: %.2f, %.2f, %.2f\n", info.LoadAverageOne, info.LoadAverageFive, info.LoadAverageFifteen)

		return nil
	},
}

func init() {
	nodeCmd.AddCommand(nodeGetCmd)
}
