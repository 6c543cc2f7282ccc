package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

func newBackupCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Snapshot the database and upload it to object storage",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			db, err := a.openDatabase(ctx)
			if err != nil {
				return err
			}
			defer a.closeDatabase(db)

			mgr, err := a.backupManager(ctx, db)
			if err != nil {
				return err
			}
			res, err := mgr.RunOnce(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), res.Location)
			for _, key := range res.Pruned {
				fmt.Fprintf(cmd.OutOrStdout(), "pruned %s\n", key)
			}
			return nil
		},
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List stored backups, oldest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			// listing never touches the database
			mgr, err := a.backupManager(cmd.Context(), nil)
			if err != nil {
				return err
			}
			objects, err := mgr.List(cmd.Context())
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "KEY\tSIZE\tLAST MODIFIED")
			for _, obj := range objects {
				modified := "-"
				if obj.LastModified != nil {
					modified = obj.LastModified.UTC().Format(time.RFC3339)
				}
				fmt.Fprintf(w, "%s\t%d\t%s\n", obj.Key, obj.Size, modified)
			}
			return w.Flush()
		},
	}

	cmd.AddCommand(list)
	return cmd
}
