package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/kemeter/ring/pkg/config"
)

var contextCmd = &cobra.Command{
	Use:   "context [parameter]",
	Short: "Inspect the local configuration (configs, current-context, user-token)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		parameter := "configs"
		if len(args) == 1 {
			parameter = args[0]
		}

		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}

		switch parameter {
		case "current-context":
			fmt.Printf("%+v\n", cfg)
		case "user-token":
			name, err := contextName(cmd)
			if err != nil {
				return err
			}
			token, err := config.TokenFor(name)
			if err != nil {
				return err
			}
			fmt.Println(token)
		default:
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tHOST")
			for name, ctx := range cfg.Contexts {
				fmt.Fprintf(w, "%s\t%s\n", name, ctx.URL())
			}
			w.Flush()
		}

		return nil
	},
}
