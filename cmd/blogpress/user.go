package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"blogpress/internal/database"
	"blogpress/internal/models"
	"blogpress/internal/store"
)

func userCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage admin accounts",
	}
	cmd.AddCommand(userCreateCmd())
	cmd.AddCommand(userReset2FACmd())
	return cmd
}

func userCreateCmd() *cobra.Command {
	var (
		name     string
		password string
		role     string
	)

	cmd := &cobra.Command{
		Use:   "create EMAIL",
		Short: "Create a user who enrolls in 2FA on first sign-in",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			email := strings.TrimSpace(args[0])
			r := models.Role(role)
			if !models.ValidRole(r) {
				return fmt.Errorf("unknown role %q", role)
			}
			if len(password) < 8 {
				return fmt.Errorf("password must be at least 8 characters")
			}
			if name == "" {
				name, _, _ = strings.Cut(email, "@")
			}

			db, err := database.Connect(cfg.DSN())
			if err != nil {
				return fmt.Errorf("connect database: %w", err)
			}
			defer db.Close()

			u, err := store.NewUserStore(db).Create(cmd.Context(), email, password, name, r)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created %s (%s) with id %s\n", u.Email, u.Role, u.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "display name shown as category author (default: email local part)")
	cmd.Flags().StringVar(&password, "password", "", "initial password")
	cmd.Flags().StringVar(&role, "role", string(models.RoleAdmin), "admin, editor or author")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func userReset2FACmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reset-2fa EMAIL",
		Short: "Clear a user's TOTP secret so they enroll again",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := database.Connect(cfg.DSN())
			if err != nil {
				return fmt.Errorf("connect database: %w", err)
			}
			defer db.Close()

			users := store.NewUserStore(db)
			u, err := users.FindByEmail(cmd.Context(), strings.TrimSpace(args[0]))
			if err != nil {
				return err
			}
			if u == nil {
				return fmt.Errorf("no user with email %q", args[0])
			}
			if err := users.ResetTOTP(cmd.Context(), u.ID); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "2FA reset for %s\n", u.Email)
			return nil
		},
	}
}
