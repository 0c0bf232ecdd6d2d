package memory

import (
	"cmp"
	"context"
	"slices"

	"github.com/cmlabs-hris/hris-leave-go/internal/domain/employee"
	"github.com/cmlabs-hris/hris-leave-go/internal/domain/user"
)

type userRepo struct{ s *Store }

func (r userRepo) Create(ctx context.Context, u user.User) (user.User, error) {
	defer r.s.lock(ctx)()

	if _, ok := r.s.data.employees[u.EmployeeID]; !ok {
		return user.User{}, employee.ErrEmployeeNotFound
	}
	for _, existing := range r.s.data.users {
		if existing.Username == u.Username {
			return user.User{}, user.ErrUsernameExists
		}
		if existing.EmployeeID == u.EmployeeID {
			return user.User{}, user.ErrEmployeeHasUser
		}
	}
	u.ID = r.s.nextID()
	u.CreatedAt = r.s.now()
	u.UpdatedAt = u.CreatedAt
	r.s.data.users[u.ID] = u
	return u, nil
}

func (r userRepo) GetByID(ctx context.Context, id int64) (user.User, error) {
	defer r.s.lock(ctx)()

	u, ok := r.s.data.users[id]
	if !ok {
		return user.User{}, user.ErrUserNotFound
	}
	return u, nil
}

func (r userRepo) GetByUsername(ctx context.Context, username string) (user.User, error) {
	defer r.s.lock(ctx)()

	for _, u := range r.s.data.users {
		if u.Username == username {
			return u, nil
		}
	}
	return user.User{}, user.ErrUserNotFound
}

func (r userRepo) ExistsByUsernameOrEmployee(ctx context.Context, username string, employeeID int64) (bool, bool, error) {
	defer r.s.lock(ctx)()

	var usernameTaken, employeeTaken bool
	for _, u := range r.s.data.users {
		usernameTaken = usernameTaken || u.Username == username
		employeeTaken = employeeTaken || u.EmployeeID == employeeID
	}
	return usernameTaken, employeeTaken, nil
}

func (r userRepo) UpdatePassword(ctx context.Context, userID int64, passwordHash string) error {
	defer r.s.lock(ctx)()

	u, ok := r.s.data.users[userID]
	if !ok {
		return user.ErrUserNotFound
	}
	u.PasswordHash = passwordHash
	u.UpdatedAt = r.s.now()
	r.s.data.users[userID] = u
	return nil
}

func (r userRepo) ListLegacyPasswords(ctx context.Context) ([]user.User, error) {
	defer r.s.lock(ctx)()

	var out []user.User
	for _, u := range r.s.data.users {
		if u.HasLegacyPassword() {
			out = append(out, u)
		}
	}
	slices.SortFunc(out, func(a, b user.User) int { return cmp.Compare(a.ID, b.ID) })
	return out, nil
}
