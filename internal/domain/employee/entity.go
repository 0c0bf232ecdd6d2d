package employee

import (
	"time"

	"github.com/cmlabs-hris/hris-leave-go/internal/domain/access"
	"github.com/shopspring/decimal"
)

type EmploymentStatus string

const (
	EmploymentStatusActive   EmploymentStatus = "active"
	EmploymentStatusInactive EmploymentStatus = "inactive"
)

func (s EmploymentStatus) Valid() bool {
	return s == EmploymentStatusActive || s == EmploymentStatusInactive
}

// Employee entity
type Employee struct {
	ID                 int64
	FullName           string
	Subdivision        string
	Position           string
	Status             EmploymentStatus
	PeoplePartnerID    *int64
	OutOfOfficeBalance decimal.Decimal
	PhotoURL           *string
	Role               access.Role
	CreatedAt          time.Time
	UpdatedAt          time.Time

	// Read model
	PeoplePartnerName *string
}

func (e Employee) IsActive() bool {
	return e.Status == EmploymentStatusActive
}
