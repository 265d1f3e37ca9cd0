package main

import (
	"fmt"

	"snappy/client/internal/models"

	"github.com/spf13/cobra"
)

var adminCmd = &cobra.Command{
	Use:   "admin",
	Short: "Manage users (admin accounts only)",
}

var adminUsersCmd = &cobra.Command{
	Use:   "users",
	Short: "List every user",
	Args:  cobra.NoArgs,
	RunE:  runAdminUsers,
}

var adminRoleCmd = &cobra.Command{
	Use:   "role <user id> <user|admin>",
	Short: "Change the role of a user",
	Args:  cobra.ExactArgs(2),
	RunE:  runAdminRole,
}

var adminDeleteCmd = &cobra.Command{
	Use:   "delete <user id>",
	Short: "Delete a user",
	Args:  cobra.ExactArgs(1),
	RunE:  runAdminDelete,
}

func init() {
	adminCmd.AddCommand(adminUsersCmd, adminRoleCmd, adminDeleteCmd)
	rootCmd.AddCommand(adminCmd)
}

func runAdminUsers(cmd *cobra.Command, args []string) error {
	e, err := cliEnv()
	if err != nil {
		return err
	}
	defer e.Close()

	ctx, stop := signalContext()
	defer stop()
	users, err := e.admin.Users(ctx)
	if err != nil {
		return err
	}
	printUsers(users)
	return nil
}

func runAdminRole(cmd *cobra.Command, args []string) error {
	e, err := cliEnv()
	if err != nil {
		return err
	}
	defer e.Close()

	ctx, stop := signalContext()
	defer stop()
	if err := e.admin.UpdateRole(ctx, args[0], models.Role(args[1])); err != nil {
		return err
	}
	fmt.Printf("%s is now %s\n", args[0], args[1])
	return nil
}

func runAdminDelete(cmd *cobra.Command, args []string) error {
	e, err := cliEnv()
	if err != nil {
		return err
	}
	defer e.Close()

	ctx, stop := signalContext()
	defer stop()
	if err := e.admin.DeleteUser(ctx, args[0]); err != nil {
		return err
	}
	fmt.Printf("Deleted %s\n", args[0])
	return nil
}
