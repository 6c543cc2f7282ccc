package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"inventory-management/internal/repository/sqlite"
)

func newMigrateCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage database migrations",
		Args:  cobra.NoArgs,
	}

	up := &cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			db, err := a.openDatabase(cmd.Context())
			if err != nil {
				return err
			}
			defer a.closeDatabase(db)
			a.logger.Info("migrations complete")
			return nil
		},
	}

	status := &cobra.Command{
		Use:   "status",
		Short: "List migrations and whether they are applied",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			db, err := sqlite.Open(a.cfg.Database.Path)
			if err != nil {
				return fmt.Errorf("open database: %w", err)
			}
			defer a.closeDatabase(db)

			states, err := sqlite.MigrationStatus(cmd.Context(), db)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "VERSION\tSTATE\tAPPLIED AT\tSOURCE")
			for _, st := range states {
				state, appliedAt := "pending", "-"
				if st.Applied {
					state = "applied"
					appliedAt = st.AppliedAt.UTC().Format("2006-01-02 15:04:05")
				}
				fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", st.Version, state, appliedAt, st.Path)
			}
			return w.Flush()
		},
	}

	cmd.AddCommand(up, status)
	// bare "migrate" behaves like "migrate up"
	cmd.RunE = up.RunE
	return cmd
}
