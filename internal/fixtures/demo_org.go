// Package fixtures seeds a small organization covering every role, used by
// `leavectl seed demo` and by the service and handler tests.
package fixtures

import (
	"context"
	"fmt"
	"time"

	"github.com/cmlabs-hris/hris-leave-go/internal/domain/access"
	"github.com/cmlabs-hris/hris-leave-go/internal/domain/employee"
	"github.com/cmlabs-hris/hris-leave-go/internal/domain/project"
	"github.com/cmlabs-hris/hris-leave-go/internal/domain/user"
	"github.com/cmlabs-hris/hris-leave-go/internal/pkg/database"
	"github.com/shopspring/decimal"
)

// Usernames of the seeded logins. Every login shares the password passed
// to Seed.
const (
	Admin     = "admin"
	HR        = "hr"
	HRBackup  = "hr.backup"
	Manager   = "pm"
	Eka       = "eka"
	Budi      = "budi"
	Outsider  = "nia"
	Platform  = "Internal Platform"
)

type Repositories struct {
	Employees employee.EmployeeRepository
	Projects  project.ProjectRepository
	Users     user.UserRepository
}

type seedEmployee struct {
	username    string
	fullName    string
	subdivision string
	position    string
	role        access.Role
	balance     int64
	partner     string
}

// seeded in order; partners must come first
var demoEmployees = []seedEmployee{
	{Admin, "Hana Pratiwi", "Operations", "System Administrator", access.RoleAdministrator, 20, ""},
	{HR, "Rina Wulandari", "People", "HR Manager", access.RoleHRManager, 20, ""},
	{HRBackup, "Hadi Santoso", "People", "HR Generalist", access.RoleHRManager, 20, ""},
	{Manager, "Bayu Saputra", "Engineering", "Engineering Manager", access.RoleProjectManager, 15, HR},
	{Eka, "Eka Putri", "Engineering", "Backend Engineer", access.RoleEmployee, 10, HR},
	{Budi, "Budi Hartono", "Engineering", "QA Engineer", access.RoleEmployee, 3, HR},
	{Outsider, "Nia Ramadhani", "Finance", "Accountant", access.RoleEmployee, 12, ""},
}

// SeededDataIDs holds the ids created by Seed, keyed by username or
// project type.
type SeededDataIDs struct {
	EmployeeIDs map[string]int64
	UserIDs     map[string]int64
	ProjectIDs  map[string]int64
}

func NewSeededDataIDs() *SeededDataIDs {
	return &SeededDataIDs{
		EmployeeIDs: make(map[string]int64),
		UserIDs:     make(map[string]int64),
		ProjectIDs:  make(map[string]int64),
	}
}

// Seed creates the demo organization in one transaction. Eka and Budi are
// staffed on a project managed by pm, Rina is their people partner and Nia
// belongs to no project.
func Seed(ctx context.Context, tx database.Transactor, repos Repositories, passwordHash string, today time.Time) (*SeededDataIDs, error) {
	ids := NewSeededDataIDs()

	err := tx.WithinTx(ctx, func(ctx context.Context) error {
		for _, se := range demoEmployees {
			e := employee.Employee{
				FullName:           se.fullName,
				Subdivision:        se.subdivision,
				Position:           se.position,
				Status:             employee.EmploymentStatusActive,
				OutOfOfficeBalance: decimal.NewFromInt(se.balance),
				Role:               se.role,
			}
			if se.partner != "" {
				partnerID := ids.EmployeeIDs[se.partner]
				e.PeoplePartnerID = &partnerID
			}
			created, err := repos.Employees.Create(ctx, e)
			if err != nil {
				return fmt.Errorf("failed to seed employee %s: %w", se.username, err)
			}
			ids.EmployeeIDs[se.username] = created.ID

			u, err := repos.Users.Create(ctx, user.User{
				EmployeeID:   created.ID,
				Username:     se.username,
				PasswordHash: passwordHash,
			})
			if err != nil {
				return fmt.Errorf("failed to seed user %s: %w", se.username, err)
			}
			ids.UserIDs[se.username] = u.ID
		}

		p, err := repos.Projects.Create(ctx, project.Project{
			ProjectType:      Platform,
			StartDate:        today.AddDate(0, -1, 0),
			ProjectManagerID: ids.EmployeeIDs[Manager],
			Status:           project.ProjectStatusActive,
		})
		if err != nil {
			return fmt.Errorf("failed to seed project: %w", err)
		}
		ids.ProjectIDs[Platform] = p.ID

		for _, member := range []string{Eka, Budi} {
			if _, err := repos.Projects.AddMember(ctx, p.ID, ids.EmployeeIDs[member]); err != nil {
				return fmt.Errorf("failed to seed member %s: %w", member, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// Principal builds the acting principal for a seeded login.
func (s *SeededDataIDs) Principal(username string) access.Principal {
	p := access.Principal{
		UserID:     s.UserIDs[username],
		EmployeeID: s.EmployeeIDs[username],
	}
	for _, se := range demoEmployees {
		if se.username == username {
			p.Role = se.role
		}
	}
	return p
}

// As returns ctx acting as the seeded login.
func (s *SeededDataIDs) As(ctx context.Context, username string) context.Context {
	return access.WithPrincipal(ctx, s.Principal(username))
}
