package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"inventory-management/internal/repository/sqlite"
	"inventory-management/internal/service"
)

func newUserCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage users",
		Args:  cobra.NoArgs,
	}

	var name, email, password string
	create := &cobra.Command{
		Use:   "create",
		Short: "Create a user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			db, err := a.openDatabase(cmd.Context())
			if err != nil {
				return err
			}
			defer a.closeDatabase(db)

			users := service.NewUserService(sqlite.NewUserRepository(db))
			user, err := users.Register(cmd.Context(), name, email, password)
			if err != nil {
				return err
			}
			a.logger.WithField("user_id", user.ID).Info("user created")
			fmt.Fprintln(cmd.OutOrStdout(), user.ID)
			return nil
		},
	}
	create.Flags().StringVar(&name, "name", "", "display name")
	create.Flags().StringVar(&email, "email", "", "login email")
	create.Flags().StringVar(&password, "password", "", "initial password")
	for _, flag := range []string{"name", "email", "password"} {
		_ = create.MarkFlagRequired(flag)
	}

	cmd.AddCommand(create)
	return cmd
}
