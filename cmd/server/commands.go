package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"self-screening-bot/internal/config"
	"self-screening-bot/internal/user"
)

var downSteps int

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Manage the database schema",
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply all pending migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		return migrateUp(cmd.Context(), cfg)
	},
}

var migrateDownCmd = &cobra.Command{
	Use:   "down",
	Short: "Roll back applied migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		if downSteps < 1 {
			return fmt.Errorf("--steps must be at least 1")
		}
		return migrateDown(cmd.Context(), cfg, downSteps)
	},
}

var phone string

var usersCmd = &cobra.Command{
	Use:   "users",
	Short: "Maintain chatbot user records",
}

var usersDeleteCmd = &cobra.Command{
	Use:   "delete",
	Short: "Delete a user by phone number",
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg.StorageBackend != config.StoragePostgres {
			return fmt.Errorf("users delete needs the postgres storage backend")
		}
		ctx := cmd.Context()

		users, closeUsers, err := openUsers(ctx, cfg)
		if err != nil {
			return err
		}
		defer closeUsers()

		rec, err := users.DeleteByPhone(ctx, phone)
		if errors.Is(err, user.ErrNotFound) {
			return fmt.Errorf("no user with phone number %s", phone)
		}
		if err != nil {
			return err
		}
		cmd.Printf("deleted user %s (%s, %s)\n", rec.ID, rec.Name, rec.PhoneNumber)
		return nil
	},
}

func init() {
	migrateDownCmd.Flags().IntVar(&downSteps, "steps", 1, "number of migrations to roll back")
	migrateCmd.AddCommand(migrateUpCmd, migrateDownCmd)
	rootCmd.AddCommand(migrateCmd)

	usersDeleteCmd.Flags().StringVar(&phone, "phone", "", "phone number of the user")
	_ = usersDeleteCmd.MarkFlagRequired("phone")
	usersCmd.AddCommand(usersDeleteCmd)
	rootCmd.AddCommand(usersCmd)
}
