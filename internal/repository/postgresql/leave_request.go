package postgresql

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/cmlabs-hris/hris-leave-go/internal/domain/access"
	"github.com/cmlabs-hris/hris-leave-go/internal/domain/leave"
	"github.com/cmlabs-hris/hris-leave-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type leaveRequestRepositoryImpl struct {
	db *database.DB
}

func NewLeaveRequestRepository(db *database.DB) leave.LeaveRequestRepository {
	return &leaveRequestRepositoryImpl{db: db}
}

const leaveRequestSelect = `
	SELECT lr.id, lr.employee_id, lr.absence_reason, lr.start_date, lr.end_date, lr.comment,
		lr.status, lr.created_at, lr.updated_at, e.full_name,
		(SELECT ar.approver_id FROM approval_requests ar
			WHERE ar.leave_request_id = lr.id AND ar.status = 'Pending' AND ar.closed_at IS NULL)
	FROM leave_requests lr
	JOIN employees e ON e.id = lr.employee_id`

func scanLeaveRequest(row pgx.Row) (leave.LeaveRequest, error) {
	var lr leave.LeaveRequest
	err := row.Scan(
		&lr.ID, &lr.EmployeeID, &lr.AbsenceReason, &lr.StartDate, &lr.EndDate, &lr.Comment,
		&lr.Status, &lr.CreatedAt, &lr.UpdatedAt, &lr.EmployeeName, &lr.ApproverID,
	)
	return lr, err
}

// Create implements leave.LeaveRequestRepository.
func (r *leaveRequestRepositoryImpl) Create(ctx context.Context, request leave.LeaveRequest) (leave.LeaveRequest, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO leave_requests (employee_id, absence_reason, start_date, end_date, comment, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at
	`
	err := q.QueryRow(ctx, query,
		request.EmployeeID, request.AbsenceReason, request.StartDate, request.EndDate,
		request.Comment, request.Status,
	).Scan(&request.ID, &request.CreatedAt, &request.UpdatedAt)
	if err != nil {
		if code, _ := pgErrorCode(err); code == checkViolation {
			return leave.LeaveRequest{}, leave.ErrInvalidDateRange
		}
		return leave.LeaveRequest{}, fmt.Errorf("failed to create leave request: %w", err)
	}
	return request, nil
}

// GetByID implements leave.LeaveRequestRepository.
func (r *leaveRequestRepositoryImpl) GetByID(ctx context.Context, id int64) (leave.LeaveRequest, error) {
	q := GetQuerier(ctx, r.db)

	lr, err := scanLeaveRequest(q.QueryRow(ctx, leaveRequestSelect+` WHERE lr.id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return leave.LeaveRequest{}, leave.ErrLeaveRequestNotFound
		}
		return leave.LeaveRequest{}, fmt.Errorf("failed to get leave request: %w", err)
	}
	return lr, nil
}

// GetByIDForUpdate implements leave.LeaveRequestRepository.
func (r *leaveRequestRepositoryImpl) GetByIDForUpdate(ctx context.Context, id int64) (leave.LeaveRequest, error) {
	q := GetQuerier(ctx, r.db)

	query := leaveRequestSelect + ` WHERE lr.id = $1 FOR UPDATE OF lr`
	lr, err := scanLeaveRequest(q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return leave.LeaveRequest{}, leave.ErrLeaveRequestNotFound
		}
		return leave.LeaveRequest{}, fmt.Errorf("failed to lock leave request: %w", err)
	}
	return lr, nil
}

// Update implements leave.LeaveRequestRepository.
func (r *leaveRequestRepositoryImpl) Update(ctx context.Context, request leave.LeaveRequest) (leave.LeaveRequest, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE leave_requests
		SET absence_reason = $2, start_date = $3, end_date = $4, comment = $5, status = $6, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`
	err := q.QueryRow(ctx, query,
		request.ID, request.AbsenceReason, request.StartDate, request.EndDate, request.Comment, request.Status,
	).Scan(&request.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return leave.LeaveRequest{}, leave.ErrLeaveRequestNotFound
		}
		if code, _ := pgErrorCode(err); code == checkViolation {
			return leave.LeaveRequest{}, leave.ErrInvalidDateRange
		}
		return leave.LeaveRequest{}, fmt.Errorf("failed to update leave request: %w", err)
	}
	return request, nil
}

// List implements leave.LeaveRequestRepository.
func (r *leaveRequestRepositoryImpl) List(ctx context.Context, filter leave.LeaveRequestFilter) ([]leave.LeaveRequest, int64, error) {
	var b filterBuilder
	leaveRequestFilter(&b, filter)
	leaveRequestVisibility(&b, filter.Visibility)
	return r.list(ctx, &b, filter)
}

// ListUnassigned implements leave.LeaveRequestRepository.
func (r *leaveRequestRepositoryImpl) ListUnassigned(ctx context.Context, filter leave.LeaveRequestFilter) ([]leave.LeaveRequest, int64, error) {
	var b filterBuilder
	leaveRequestFilter(&b, filter)
	b.raw(`lr.status = 'Pending' AND NOT EXISTS (
		SELECT 1 FROM approval_requests ar
		WHERE ar.leave_request_id = lr.id AND ar.status = 'Pending' AND ar.closed_at IS NULL)`)
	return r.list(ctx, &b, filter)
}

func (r *leaveRequestRepositoryImpl) list(ctx context.Context, b *filterBuilder, filter leave.LeaveRequestFilter) ([]leave.LeaveRequest, int64, error) {
	q := GetQuerier(ctx, r.db)

	var total int64
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM leave_requests lr WHERE %s", b.where())
	if err := q.QueryRow(ctx, countQuery, b.args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count leave requests: %w", err)
	}

	validSortColumns := map[string]string{
		"start_date": "lr.start_date",
		"end_date":   "lr.end_date",
		"created_at": "lr.created_at",
		"status":     "lr.status",
	}
	sortColumn, ok := validSortColumns[filter.SortBy]
	if !ok {
		sortColumn = "lr.created_at"
	}
	sortOrder := "DESC"
	if strings.ToUpper(filter.SortOrder) == "ASC" {
		sortOrder = "ASC"
	}

	limitClause, args := b.page(filter.Page, filter.Limit)
	query := fmt.Sprintf("%s WHERE %s ORDER BY %s %s, lr.id %s %s",
		leaveRequestSelect, b.where(), sortColumn, sortOrder, sortOrder, limitClause)

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list leave requests: %w", err)
	}
	defer rows.Close()

	requests := make([]leave.LeaveRequest, 0, filter.Limit)
	for rows.Next() {
		lr, err := scanLeaveRequest(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan leave request: %w", err)
		}
		requests = append(requests, lr)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return requests, total, nil
}

func leaveRequestFilter(b *filterBuilder, filter leave.LeaveRequestFilter) {
	if filter.EmployeeID != nil {
		b.add("lr.employee_id = $%d", *filter.EmployeeID)
	}
	if filter.Status != nil {
		b.add("lr.status = $%d", *filter.Status)
	}
	if filter.From != nil {
		b.add("lr.end_date >= $%d::date", *filter.From)
	}
	if filter.To != nil {
		b.add("lr.start_date <= $%d::date", *filter.To)
	}
}

// leaveRequestVisibility narrows a query to requests the actor may see.
func leaveRequestVisibility(b *filterBuilder, v access.Visibility) {
	if v.All {
		return
	}
	idx := b.next()
	var parts []string
	if v.Own {
		parts = append(parts, fmt.Sprintf("lr.employee_id = $%d", idx))
	}
	if v.Team {
		parts = append(parts, fmt.Sprintf(`EXISTS (
			SELECT 1 FROM project_members pm
			JOIN projects p ON p.id = pm.project_id
			WHERE pm.employee_id = lr.employee_id AND p.status = 'active' AND p.project_manager_id = $%d)`, idx))
	}
	if v.Assigned {
		parts = append(parts, fmt.Sprintf(`EXISTS (
			SELECT 1 FROM approval_requests ar
			WHERE ar.leave_request_id = lr.id AND ar.approver_id = $%d)`, idx))
	}
	if len(parts) == 0 {
		b.raw("FALSE")
		return
	}
	b.args = append(b.args, v.ActorID)
	b.raw("(" + joinOr(parts) + ")")
}
