package postgresql

import (
	"context"
	"errors"
	"fmt"

	"github.com/cmlabs-hris/hris-leave-go/internal/domain/project"
	"github.com/cmlabs-hris/hris-leave-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type projectRepositoryImpl struct {
	db *database.DB
}

func NewProjectRepository(db *database.DB) project.ProjectRepository {
	return &projectRepositoryImpl{db: db}
}

const projectSelect = `
	SELECT p.id, p.project_type, p.start_date, p.end_date, p.project_manager_id, p.comment,
		p.status, p.created_at, p.updated_at, pm.full_name,
		(SELECT COUNT(*) FROM project_members m WHERE m.project_id = p.id)
	FROM projects p
	LEFT JOIN employees pm ON pm.id = p.project_manager_id`

func scanProject(row pgx.Row) (project.Project, error) {
	var p project.Project
	err := row.Scan(
		&p.ID, &p.ProjectType, &p.StartDate, &p.EndDate, &p.ProjectManagerID, &p.Comment,
		&p.Status, &p.CreatedAt, &p.UpdatedAt, &p.ProjectManagerName, &p.MemberCount,
	)
	return p, err
}

// Create implements project.ProjectRepository.
func (r *projectRepositoryImpl) Create(ctx context.Context, newProject project.Project) (project.Project, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO projects (project_type, start_date, end_date, project_manager_id, comment, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at
	`
	err := q.QueryRow(ctx, query,
		newProject.ProjectType, newProject.StartDate, newProject.EndDate,
		newProject.ProjectManagerID, newProject.Comment, newProject.Status,
	).Scan(&newProject.ID, &newProject.CreatedAt, &newProject.UpdatedAt)
	if err != nil {
		switch code, _ := pgErrorCode(err); code {
		case foreignKeyViolation:
			return project.Project{}, project.ErrInvalidProjectManager
		case checkViolation:
			return project.Project{}, project.ErrInvalidProjectDates
		}
		return project.Project{}, fmt.Errorf("failed to create project: %w", err)
	}
	return newProject, nil
}

// GetByID implements project.ProjectRepository.
func (r *projectRepositoryImpl) GetByID(ctx context.Context, id int64) (project.Project, error) {
	q := GetQuerier(ctx, r.db)

	p, err := scanProject(q.QueryRow(ctx, projectSelect+` WHERE p.id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return project.Project{}, project.ErrProjectNotFound
		}
		return project.Project{}, fmt.Errorf("failed to get project: %w", err)
	}
	return p, nil
}

// List implements project.ProjectRepository.
func (r *projectRepositoryImpl) List(ctx context.Context, filter project.ProjectFilter) ([]project.Project, int64, error) {
	q := GetQuerier(ctx, r.db)

	var b filterBuilder
	if filter.Status != nil {
		b.add("p.status = $%d", *filter.Status)
	}
	if filter.ProjectManagerID != nil {
		b.add("p.project_manager_id = $%d", *filter.ProjectManagerID)
	}
	if !filter.Visibility.All {
		if filter.Visibility.Own {
			b.add("p.project_manager_id = $%d", filter.Visibility.ActorID)
		} else {
			b.raw("FALSE")
		}
	}

	var total int64
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM projects p WHERE %s", b.where())
	if err := q.QueryRow(ctx, countQuery, b.args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count projects: %w", err)
	}

	limitClause, args := b.page(filter.Page, filter.Limit)
	query := fmt.Sprintf("%s WHERE %s ORDER BY p.id ASC %s", projectSelect, b.where(), limitClause)

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list projects: %w", err)
	}
	defer rows.Close()

	projects := make([]project.Project, 0, filter.Limit)
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan project: %w", err)
		}
		projects = append(projects, p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return projects, total, nil
}

// Update implements project.ProjectRepository.
func (r *projectRepositoryImpl) Update(ctx context.Context, p project.Project) (project.Project, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE projects
		SET project_type = $2, start_date = $3, end_date = $4, project_manager_id = $5,
			comment = $6, status = $7, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`
	err := q.QueryRow(ctx, query,
		p.ID, p.ProjectType, p.StartDate, p.EndDate, p.ProjectManagerID, p.Comment, p.Status,
	).Scan(&p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return project.Project{}, project.ErrProjectNotFound
		}
		switch code, _ := pgErrorCode(err); code {
		case foreignKeyViolation:
			return project.Project{}, project.ErrInvalidProjectManager
		case checkViolation:
			return project.Project{}, project.ErrInvalidProjectDates
		}
		return project.Project{}, fmt.Errorf("failed to update project: %w", err)
	}
	return p, nil
}

// AddMember implements project.ProjectRepository.
func (r *projectRepositoryImpl) AddMember(ctx context.Context, projectID, employeeID int64) (project.Member, error) {
	q := GetQuerier(ctx, r.db)

	m := project.Member{ProjectID: projectID, EmployeeID: employeeID}
	err := q.QueryRow(ctx, `
		WITH inserted AS (
			INSERT INTO project_members (project_id, employee_id) VALUES ($1, $2)
			RETURNING assigned_at
		)
		SELECT inserted.assigned_at, e.full_name FROM inserted, employees e WHERE e.id = $2
	`, projectID, employeeID).Scan(&m.AssignedAt, &m.EmployeeName)
	if err != nil {
		if code, _ := pgErrorCode(err); code == uniqueViolation {
			return project.Member{}, project.ErrMemberAlreadyAssigned
		}
		return project.Member{}, fmt.Errorf("failed to add project member: %w", err)
	}
	return m, nil
}

// RemoveMember implements project.ProjectRepository.
func (r *projectRepositoryImpl) RemoveMember(ctx context.Context, projectID, employeeID int64) error {
	q := GetQuerier(ctx, r.db)

	commandTag, err := q.Exec(ctx, `DELETE FROM project_members WHERE project_id = $1 AND employee_id = $2`, projectID, employeeID)
	if err != nil {
		return fmt.Errorf("failed to remove project member: %w", err)
	}
	if commandTag.RowsAffected() != 1 {
		return project.ErrMemberNotAssigned
	}
	return nil
}

// ListMembers implements project.ProjectRepository.
func (r *projectRepositoryImpl) ListMembers(ctx context.Context, projectID int64) ([]project.Member, error) {
	q := GetQuerier(ctx, r.db)

	rows, err := q.Query(ctx, `
		SELECT m.project_id, m.employee_id, e.full_name, m.assigned_at
		FROM project_members m
		JOIN employees e ON e.id = m.employee_id
		WHERE m.project_id = $1
		ORDER BY m.employee_id ASC
	`, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list project members: %w", err)
	}
	defer rows.Close()

	members := make([]project.Member, 0)
	for rows.Next() {
		var m project.Member
		if err := rows.Scan(&m.ProjectID, &m.EmployeeID, &m.EmployeeName, &m.AssignedAt); err != nil {
			return nil, fmt.Errorf("failed to scan project member: %w", err)
		}
		members = append(members, m)
	}
	return members, rows.Err()
}

// ManagersFor implements project.ProjectRepository.
func (r *projectRepositoryImpl) ManagersFor(ctx context.Context, employeeID int64) ([]int64, error) {
	q := GetQuerier(ctx, r.db)

	rows, err := q.Query(ctx, `
		SELECT p.project_manager_id
		FROM project_members m
		JOIN projects p ON p.id = m.project_id
		WHERE m.employee_id = $1 AND p.status = 'active'
		ORDER BY p.id ASC
	`, employeeID)
	if err != nil {
		return nil, fmt.Errorf("failed to list managers: %w", err)
	}
	defer rows.Close()

	var managers []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan manager id: %w", err)
		}
		managers = append(managers, id)
	}
	return managers, rows.Err()
}

// IsTeamMember implements project.ProjectRepository.
func (r *projectRepositoryImpl) IsTeamMember(ctx context.Context, managerID, employeeID int64) (bool, error) {
	q := GetQuerier(ctx, r.db)

	var exists bool
	err := q.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM project_members m
			JOIN projects p ON p.id = m.project_id
			WHERE m.employee_id = $2 AND p.project_manager_id = $1 AND p.status = 'active'
		)
	`, managerID, employeeID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check team membership: %w", err)
	}
	return exists, nil
}
