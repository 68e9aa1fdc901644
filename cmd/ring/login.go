package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kemeter/ring/pkg/client"
	"github.com/kemeter/ring/pkg/config"
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Authenticate against the current context and cache a bearer token",
	RunE: func(cmd *cobra.Command, args []string) error {
		username, _ := cmd.Flags().GetString("username")
		password, _ := cmd.Flags().GetString("password")

		name, err := contextName(cmd)
		if err != nil {
			return err
		}

		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		ctx, ok := cfg.Contexts[name]
		if !ok {
			return fmt.Errorf("unknown context %q", name)
		}

		fmt.Printf("Logging in as %s\n", username)

		cli := client.NewClient(ctx, "")
		token, err := cli.Login(context.Background(), username, password)
		if err != nil {
			fmt.Println("Wrong credentials")
			return err
		}

		return config.SetToken(name, token)
	},
}

func init() {
	loginCmd.Flags().StringP("username", "u", "", "username")
	loginCmd.Flags().StringP("password", "p", "", "password")
	_ = loginCmd.MarkFlagRequired("username")
	_ = loginCmd.MarkFlagRequired("password")
}
