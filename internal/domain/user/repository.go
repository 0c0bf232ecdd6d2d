package user

import "context"

type UserRepository interface {
	Create(ctx context.Context, newUser User) (User, error)
	GetByID(ctx context.Context, id int64) (User, error)
	GetByUsername(ctx context.Context, username string) (User, error)
	ExistsByUsernameOrEmployee(ctx context.Context, username string, employeeID int64) (usernameTaken bool, employeeTaken bool, err error)
	UpdatePassword(ctx context.Context, userID int64, passwordHash string) error
	// ListLegacyPasswords returns users whose password is not yet hashed.
	ListLegacyPasswords(ctx context.Context) ([]User, error)
}
