package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/cmlabs-hris/hris-leave-go/internal/domain/access"
	"github.com/cmlabs-hris/hris-leave-go/internal/domain/auth"
	"github.com/cmlabs-hris/hris-leave-go/internal/domain/employee"
	"github.com/cmlabs-hris/hris-leave-go/internal/domain/user"
	"github.com/cmlabs-hris/hris-leave-go/internal/pkg/apperror"
	"github.com/cmlabs-hris/hris-leave-go/internal/repository/postgresql"
	serviceAuth "github.com/cmlabs-hris/hris-leave-go/internal/service/auth"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

func newUsersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "users",
		Short: "Manage logins",
	}
	cmd.AddCommand(newBootstrapAdminCmd(), newRehashCmd())
	return cmd
}

type bootstrapOutput struct {
	EmployeeID int64  `json:"employee_id"`
	UserID     int64  `json:"user_id"`
	Username   string `json:"username"`
}

// newBootstrapAdminCmd creates the first Administrator, who can then
// register everyone else through the API.
func newBootstrapAdminCmd() *cobra.Command {
	var fullName, username, password string

	cmd := &cobra.Command{
		Use:   "bootstrap-admin",
		Short: "Create an Administrator employee with a login",
		RunE: func(cmd *cobra.Command, args []string) error {
			req := auth.RegisterRequest{EmployeeID: 1, Username: username, Password: password, ConfirmPassword: password}
			if err := req.Validate(); err != nil {
				return err
			}

			_, db, err := connectDB(cmd.Context())
			if err != nil {
				return err
			}
			defer db.Close()

			hash, err := serviceAuth.HashPassword(password)
			if err != nil {
				return err
			}

			employeeRepo := postgresql.NewEmployeeRepository(db)
			userRepo := postgresql.NewUserRepository(db)
			var out bootstrapOutput
			err = postgresql.NewTransactor(db).WithinTx(cmd.Context(), func(ctx context.Context) error {
				taken, _, err := userRepo.ExistsByUsernameOrEmployee(ctx, username, 0)
				if err != nil {
					return err
				}
				if taken {
					return user.ErrUsernameExists
				}
				e, err := employeeRepo.Create(ctx, employee.Employee{
					FullName:           fullName,
					Subdivision:        "Operations",
					Position:           "System Administrator",
					Status:             employee.EmploymentStatusActive,
					OutOfOfficeBalance: decimal.Zero,
					Role:               access.RoleAdministrator,
				})
				if err != nil {
					return err
				}
				u, err := userRepo.Create(ctx, user.User{EmployeeID: e.ID, Username: username, PasswordHash: hash})
				if err != nil {
					return err
				}
				out = bootstrapOutput{EmployeeID: e.ID, UserID: u.ID, Username: u.Username}
				return nil
			})
			if err != nil {
				return fmt.Errorf("bootstrap admin: %s", apperror.MessageOf(err))
			}
			return writeJSON(out)
		},
	}

	cmd.Flags().StringVar(&fullName, "full-name", "Administrator", "Employee full name")
	cmd.Flags().StringVar(&username, "username", "", "Login username (required)")
	cmd.Flags().StringVar(&password, "password", "", "Login password (required)")
	_ = cmd.MarkFlagRequired("username")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

// newRehashCmd hashes passwords that were imported in plain text. Such
// logins are refused by the API until this has run.
func newRehashCmd() *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "rehash",
		Short: "Hash legacy plain-text passwords with bcrypt",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, db, err := connectDB(cmd.Context())
			if err != nil {
				return err
			}
			defer db.Close()

			userRepo := postgresql.NewUserRepository(db)
			legacy, err := userRepo.ListLegacyPasswords(cmd.Context())
			if err != nil {
				return err
			}

			rehashed := 0
			for _, u := range legacy {
				if dryRun {
					slog.Info("Would rehash password", "user_id", u.ID, "username", u.Username)
					continue
				}
				hash, err := serviceAuth.HashPassword(u.PasswordHash)
				if err != nil {
					return err
				}
				if err := userRepo.UpdatePassword(cmd.Context(), u.ID, hash); err != nil {
					return fmt.Errorf("rehash user %d: %w", u.ID, err)
				}
				rehashed++
			}
			return writeJSON(map[string]int{"legacy": len(legacy), "rehashed": rehashed})
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Only list affected users")
	return cmd
}
