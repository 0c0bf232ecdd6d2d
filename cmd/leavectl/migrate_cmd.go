package main

import (
	"github.com/cmlabs-hris/hris-leave-go/internal/pkg/database"
	"github.com/spf13/cobra"
)

func newMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply or inspect schema migrations",
	}
	for _, direction := range []string{"up", "down", "status"} {
		cmd.AddCommand(&cobra.Command{
			Use:   direction,
			Short: "Run goose " + direction,
			RunE: func(cmd *cobra.Command, args []string) error {
				_, db, err := connectDB(cmd.Context())
				if err != nil {
					return err
				}
				defer db.Close()
				return database.Migrate(cmd.Context(), db, direction)
			},
		})
	}
	return cmd
}
