package employee

import (
	"context"
	"io"

	"github.com/cmlabs-hris/hris-leave-go/internal/domain/access"
)

// Directory is the read-only view over employees and roles that the
// workflow consults.
type Directory interface {
	ResolveRole(ctx context.Context, employeeID int64) (access.Role, error)
	PermissionsFor(role access.Role) []access.Capability
	GetEmployee(ctx context.Context, employeeID int64) (Employee, error)
	// IsTeamMember reports whether employeeID is staffed on an active
	// project managed by managerID.
	IsTeamMember(ctx context.Context, managerID, employeeID int64) (bool, error)
}

// EmployeeService is the policy-checked management surface.
type EmployeeService interface {
	Get(ctx context.Context, id int64) (EmployeeResponse, error)
	List(ctx context.Context, filter EmployeeFilter) (ListEmployeeResponse, error)
	Create(ctx context.Context, req CreateEmployeeRequest) (EmployeeResponse, error)
	Update(ctx context.Context, req UpdateEmployeeRequest) (EmployeeResponse, error)
	Deactivate(ctx context.Context, id int64) (EmployeeResponse, error)
	AdjustBalance(ctx context.Context, req AdjustBalanceRequest) (EmployeeResponse, error)
}

// PhotoService stores employee photos and keeps PhotoURL pointing at them.
type PhotoService interface {
	UploadPhoto(ctx context.Context, employeeID int64, file io.Reader, filename string) (EmployeeResponse, error)
	RemovePhoto(ctx context.Context, employeeID int64) (EmployeeResponse, error)
}
