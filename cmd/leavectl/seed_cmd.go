package main

import (
	"time"

	"github.com/cmlabs-hris/hris-leave-go/internal/fixtures"
	"github.com/cmlabs-hris/hris-leave-go/internal/repository/postgresql"
	serviceAuth "github.com/cmlabs-hris/hris-leave-go/internal/service/auth"
	"github.com/spf13/cobra"
)

func newSeedCmd() *cobra.Command {
	var password string

	cmd := &cobra.Command{
		Use:   "seed-demo",
		Short: "Create a demo organization with one login per role",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, db, err := connectDB(cmd.Context())
			if err != nil {
				return err
			}
			defer db.Close()

			hash, err := serviceAuth.HashPassword(password)
			if err != nil {
				return err
			}
			ids, err := fixtures.Seed(cmd.Context(), postgresql.NewTransactor(db), fixtures.Repositories{
				Employees: postgresql.NewEmployeeRepository(db),
				Projects:  postgresql.NewProjectRepository(db),
				Users:     postgresql.NewUserRepository(db),
			}, hash, time.Now().UTC())
			if err != nil {
				return err
			}
			return writeJSON(ids)
		},
	}

	cmd.Flags().StringVar(&password, "password", "", "Password shared by every demo login (required)")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}
