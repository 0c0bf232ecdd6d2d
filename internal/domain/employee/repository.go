package employee

import (
	"context"

	"github.com/cmlabs-hris/hris-leave-go/internal/domain/access"
	"github.com/shopspring/decimal"
)

// EmployeeRepository - interface for employees table
type EmployeeRepository interface {
	Create(ctx context.Context, employee Employee) (Employee, error)
	GetByID(ctx context.Context, id int64) (Employee, error)
	// GetByIDForUpdate locks the row until the surrounding transaction ends.
	GetByIDForUpdate(ctx context.Context, id int64) (Employee, error)
	List(ctx context.Context, filter EmployeeFilter) ([]Employee, int64, error)
	Update(ctx context.Context, employee Employee) (Employee, error)
	UpdateBalance(ctx context.Context, id int64, balance decimal.Decimal) error
	// ListActiveByRole returns active employees of a role ordered by id.
	ListActiveByRole(ctx context.Context, role access.Role) ([]Employee, error)
}
