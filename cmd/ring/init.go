package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kemeter/ring/pkg/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the local config.toml and auth.json",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := config.Init(); err != nil {
			return err
		}
		dir, err := config.Dir()
		if err != nil {
			return err
		}
		fmt.Printf("ring initialized in %s\n", dir)
		return nil
	},
}
