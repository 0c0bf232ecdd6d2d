package postgresql

import (
	"context"
	"errors"
	"fmt"

	"github.com/cmlabs-hris/hris-leave-go/internal/domain/access"
	"github.com/cmlabs-hris/hris-leave-go/internal/domain/employee"
	"github.com/cmlabs-hris/hris-leave-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

type employeeRepositoryImpl struct {
	db *database.DB
}

func NewEmployeeRepository(db *database.DB) employee.EmployeeRepository {
	return &employeeRepositoryImpl{db: db}
}

const employeeColumns = `
	e.id, e.full_name, e.subdivision, e.position, e.status, e.people_partner_id,
	e.out_of_office_balance, e.photo_url, e.role, e.created_at, e.updated_at`

func scanEmployee(row pgx.Row, withPartner bool) (employee.Employee, error) {
	var emp employee.Employee
	dest := []any{
		&emp.ID, &emp.FullName, &emp.Subdivision, &emp.Position, &emp.Status, &emp.PeoplePartnerID,
		&emp.OutOfOfficeBalance, &emp.PhotoURL, &emp.Role, &emp.CreatedAt, &emp.UpdatedAt,
	}
	if withPartner {
		dest = append(dest, &emp.PeoplePartnerName)
	}
	err := row.Scan(dest...)
	return emp, err
}

// Create implements employee.EmployeeRepository.
func (r *employeeRepositoryImpl) Create(ctx context.Context, newEmployee employee.Employee) (employee.Employee, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO employees (
			full_name, subdivision, position, status, people_partner_id,
			out_of_office_balance, photo_url, role
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at
	`
	err := q.QueryRow(ctx, query,
		newEmployee.FullName, newEmployee.Subdivision, newEmployee.Position, newEmployee.Status,
		newEmployee.PeoplePartnerID, newEmployee.OutOfOfficeBalance, newEmployee.PhotoURL, newEmployee.Role,
	).Scan(&newEmployee.ID, &newEmployee.CreatedAt, &newEmployee.UpdatedAt)
	if err != nil {
		if code, _ := pgErrorCode(err); code == foreignKeyViolation {
			return employee.Employee{}, employee.ErrPeoplePartnerNotFound
		}
		return employee.Employee{}, fmt.Errorf("failed to create employee: %w", err)
	}
	return newEmployee, nil
}

// GetByID implements employee.EmployeeRepository.
func (r *employeeRepositoryImpl) GetByID(ctx context.Context, id int64) (employee.Employee, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + employeeColumns + `, pp.full_name
		FROM employees e
		LEFT JOIN employees pp ON pp.id = e.people_partner_id
		WHERE e.id = $1`

	emp, err := scanEmployee(q.QueryRow(ctx, query, id), true)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return employee.Employee{}, employee.ErrEmployeeNotFound
		}
		return employee.Employee{}, fmt.Errorf("failed to get employee: %w", err)
	}
	return emp, nil
}

// GetByIDForUpdate implements employee.EmployeeRepository.
func (r *employeeRepositoryImpl) GetByIDForUpdate(ctx context.Context, id int64) (employee.Employee, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + employeeColumns + `
		FROM employees e
		WHERE e.id = $1
		FOR UPDATE`

	emp, err := scanEmployee(q.QueryRow(ctx, query, id), false)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return employee.Employee{}, employee.ErrEmployeeNotFound
		}
		return employee.Employee{}, fmt.Errorf("failed to lock employee: %w", err)
	}
	return emp, nil
}

// List implements employee.EmployeeRepository.
func (r *employeeRepositoryImpl) List(ctx context.Context, filter employee.EmployeeFilter) ([]employee.Employee, int64, error) {
	q := GetQuerier(ctx, r.db)

	var b filterBuilder
	if filter.Status != nil {
		b.add("e.status = $%d", *filter.Status)
	}
	if filter.Role != nil {
		b.add("e.role = $%d", *filter.Role)
	}
	if filter.Subdivision != nil && *filter.Subdivision != "" {
		b.add("e.subdivision = $%d", *filter.Subdivision)
	}
	if filter.Search != nil && *filter.Search != "" {
		b.add("(e.full_name ILIKE $%d OR e.position ILIKE $%d)", "%"+*filter.Search+"%")
	}
	employeeVisibility(&b, filter.Visibility)

	var total int64
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM employees e WHERE %s", b.where())
	if err := q.QueryRow(ctx, countQuery, b.args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count employees: %w", err)
	}

	limitClause, args := b.page(filter.Page, filter.Limit)
	query := fmt.Sprintf(`SELECT %s, pp.full_name
		FROM employees e
		LEFT JOIN employees pp ON pp.id = e.people_partner_id
		WHERE %s
		ORDER BY e.id ASC
		%s`, employeeColumns, b.where(), limitClause)

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list employees: %w", err)
	}
	defer rows.Close()

	employees := make([]employee.Employee, 0, filter.Limit)
	for rows.Next() {
		emp, err := scanEmployee(rows, true)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan employee: %w", err)
		}
		employees = append(employees, emp)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return employees, total, nil
}

// employeeVisibility narrows a query to employees the actor may see.
func employeeVisibility(b *filterBuilder, v access.Visibility) {
	if v.All {
		return
	}
	idx := b.next()
	var parts []string
	if v.Own {
		parts = append(parts, fmt.Sprintf("e.id = $%d", idx))
	}
	if v.Team {
		parts = append(parts, fmt.Sprintf(`EXISTS (
			SELECT 1 FROM project_members pm
			JOIN projects p ON p.id = pm.project_id
			WHERE pm.employee_id = e.id AND p.status = 'active' AND p.project_manager_id = $%d)`, idx))
	}
	if len(parts) == 0 {
		b.raw("FALSE")
		return
	}
	b.args = append(b.args, v.ActorID)
	b.raw("(" + joinOr(parts) + ")")
}

// Update implements employee.EmployeeRepository.
func (r *employeeRepositoryImpl) Update(ctx context.Context, emp employee.Employee) (employee.Employee, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE employees
		SET full_name = $2, subdivision = $3, position = $4, status = $5,
			people_partner_id = $6, photo_url = $7, role = $8, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`
	err := q.QueryRow(ctx, query,
		emp.ID, emp.FullName, emp.Subdivision, emp.Position, emp.Status,
		emp.PeoplePartnerID, emp.PhotoURL, emp.Role,
	).Scan(&emp.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return employee.Employee{}, employee.ErrEmployeeNotFound
		}
		if code, _ := pgErrorCode(err); code == foreignKeyViolation {
			return employee.Employee{}, employee.ErrPeoplePartnerNotFound
		}
		return employee.Employee{}, fmt.Errorf("failed to update employee: %w", err)
	}
	return emp, nil
}

// UpdateBalance implements employee.EmployeeRepository.
func (r *employeeRepositoryImpl) UpdateBalance(ctx context.Context, id int64, balance decimal.Decimal) error {
	q := GetQuerier(ctx, r.db)

	commandTag, err := q.Exec(ctx, `
		UPDATE employees SET out_of_office_balance = $2, updated_at = NOW()
		WHERE id = $1
	`, id, balance)
	if err != nil {
		if code, _ := pgErrorCode(err); code == checkViolation {
			return employee.ErrNegativeBalance
		}
		return fmt.Errorf("failed to update balance: %w", err)
	}
	if commandTag.RowsAffected() != 1 {
		return employee.ErrEmployeeNotFound
	}
	return nil
}

// ListActiveByRole implements employee.EmployeeRepository.
func (r *employeeRepositoryImpl) ListActiveByRole(ctx context.Context, role access.Role) ([]employee.Employee, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + employeeColumns + `
		FROM employees e
		WHERE e.role = $1 AND e.status = 'active'
		ORDER BY e.id ASC`

	rows, err := q.Query(ctx, query, role)
	if err != nil {
		return nil, fmt.Errorf("failed to list employees by role: %w", err)
	}
	defer rows.Close()

	var employees []employee.Employee
	for rows.Next() {
		emp, err := scanEmployee(rows, false)
		if err != nil {
			return nil, fmt.Errorf("failed to scan employee: %w", err)
		}
		employees = append(employees, emp)
	}
	return employees, rows.Err()
}
