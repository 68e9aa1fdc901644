package main

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/kemeter/ring/pkg/client"
)

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage users",
}

var userListCmd = &cobra.Command{
	Use:   "list",
	Short: "List users",
	RunE: func(cmd *cobra.Command, args []string) error {
		cli, _, err := newClient(cmd)
		if err != nil {
			return err
		}
		users, err := cli.ListUsers(context.Background())
		if err != nil {
			return reportAPIError(err, "Unable to fetch users")
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tUSERNAME\tSTATUS\tCREATED AT")
		for _, u := range users {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", u.ID, u.Username, u.Status, u.CreatedAt)
		}
		return w.Flush()
	},
}

var userCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a user",
	RunE: func(cmd *cobra.Command, args []string) error {
		cli, _, err := newClient(cmd)
		if err != nil {
			return err
		}
		username, _ := cmd.Flags().GetString("username")
		password, _ := cmd.Flags().GetString("password")

		if _, err := cli.CreateUser(context.Background(), client.UserInput{Username: username, Password: password}); err != nil {
			return reportAPIError(err, "Unable to create user")
		}
		fmt.Println("user created")
		return nil
	},
}

var userUpdateCmd = &cobra.Command{
	Use:   "update",
	Short: "Update the current user",
	RunE: func(cmd *cobra.Command, args []string) error {
		cli, _, err := newClient(cmd)
		if err != nil {
			return err
		}

		me, err := cli.Me(context.Background())
		if err != nil {
			return reportAPIError(err, "Unable to fetch current user")
		}

		username, _ := cmd.Flags().GetString("username")
		password, _ := cmd.Flags().GetString("password")
		if username == "" {
			username = me.Username
		}

		update := client.UserUpdate{Username: &username}
		if password != "" {
			update.Password = &password
		}

		if _, err := cli.UpdateUser(context.Background(), me.ID, update); err != nil {
			return reportAPIError(err, "Unable to update user")
		}
		fmt.Println("user updated")
		return nil
	},
}

var userDeleteCmd = &cobra.Command{
	Use:   "delete [id]",
	Short: "Delete a user",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cli, _, err := newClient(cmd)
		if err != nil {
			return err
		}
		if err := cli.DeleteUser(context.Background(), args[0]); err != nil {
			return reportAPIError(err, "Cannot delete user")
		}
		fmt.Printf("User %s deleted\n", args[0])
		return nil
	},
}

func init() {
	userCreateCmd.Flags().StringP("username", "u", "", "username")
	userCreateCmd.Flags().StringP("password", "p", "", "password")
	_ = userCreateCmd.MarkFlagRequired("username")
	_ = userCreateCmd.MarkFlagRequired("password")

	userUpdateCmd.Flags().StringP("username", "u", "", "new username")
	userUpdateCmd.Flags().StringP("password", "p", "", "new password")

	userCmd.AddCommand(userListCmd)
	userCmd.AddCommand(userCreateCmd)
	userCmd.AddCommand(userUpdateCmd)
	userCmd.AddCommand(userDeleteCmd)
}
