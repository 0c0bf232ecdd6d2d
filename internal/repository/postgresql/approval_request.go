package postgresql

import (
	"context"
	"errors"
	"fmt"

	"github.com/cmlabs-hris/hris-leave-go/internal/domain/approval"
	"github.com/cmlabs-hris/hris-leave-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type approvalRequestRepositoryImpl struct {
	db *database.DB
}

func NewApprovalRequestRepository(db *database.DB) approval.ApprovalRequestRepository {
	return &approvalRequestRepositoryImpl{db: db}
}

const approvalRequestSelect = `
	SELECT ar.id, ar.leave_request_id, ar.approver_id, ar.status, ar.comment, ar.decided_at,
		ar.closed_at, ar.created_at, ar.updated_at,
		lr.employee_id, req.full_name, appr.full_name, lr.absence_reason, lr.start_date,
		lr.end_date, lr.status
	FROM approval_requests ar
	JOIN leave_requests lr ON lr.id = ar.leave_request_id
	JOIN employees req ON req.id = lr.employee_id
	JOIN employees appr ON appr.id = ar.approver_id`

func scanApprovalRequest(row pgx.Row) (approval.ApprovalRequest, error) {
	var a approval.ApprovalRequest
	err := row.Scan(
		&a.ID, &a.LeaveRequestID, &a.ApproverID, &a.Status, &a.Comment, &a.DecidedAt,
		&a.ClosedAt, &a.CreatedAt, &a.UpdatedAt,
		&a.RequesterID, &a.RequesterName, &a.ApproverName, &a.AbsenceReason, &a.StartDate,
		&a.EndDate, &a.LeaveStatus,
	)
	return a, err
}

// Create implements approval.ApprovalRequestRepository.
func (r *approvalRequestRepositoryImpl) Create(ctx context.Context, request approval.ApprovalRequest) (approval.ApprovalRequest, error) {
	q := GetQuerier(ctx, r.db)

	var id int64
	err := q.QueryRow(ctx, `
		INSERT INTO approval_requests (leave_request_id, approver_id, status)
		VALUES ($1, $2, $3)
		RETURNING id
	`, request.LeaveRequestID, request.ApproverID, request.Status).Scan(&id)
	if err != nil {
		if code, constraint := pgErrorCode(err); code == uniqueViolation && constraint == "uq_approval_requests_open" {
			return approval.ApprovalRequest{}, approval.ErrApprovalAlreadyOpen
		}
		return approval.ApprovalRequest{}, fmt.Errorf("failed to create approval request: %w", err)
	}
	return r.GetByID(ctx, id)
}

// GetByID implements approval.ApprovalRequestRepository.
func (r *approvalRequestRepositoryImpl) GetByID(ctx context.Context, id int64) (approval.ApprovalRequest, error) {
	return r.getOne(ctx, approvalRequestSelect+` WHERE ar.id = $1`, id)
}

// GetByIDForUpdate implements approval.ApprovalRequestRepository.
func (r *approvalRequestRepositoryImpl) GetByIDForUpdate(ctx context.Context, id int64) (approval.ApprovalRequest, error) {
	return r.getOne(ctx, approvalRequestSelect+` WHERE ar.id = $1 FOR UPDATE OF ar`, id)
}

// GetOpenByLeaveRequestID implements approval.ApprovalRequestRepository.
func (r *approvalRequestRepositoryImpl) GetOpenByLeaveRequestID(ctx context.Context, leaveRequestID int64) (approval.ApprovalRequest, error) {
	return r.getOne(ctx, approvalRequestSelect+`
		WHERE ar.leave_request_id = $1 AND ar.status = 'Pending' AND ar.closed_at IS NULL`, leaveRequestID)
}

func (r *approvalRequestRepositoryImpl) getOne(ctx context.Context, query string, arg int64) (approval.ApprovalRequest, error) {
	q := GetQuerier(ctx, r.db)

	a, err := scanApprovalRequest(q.QueryRow(ctx, query, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return approval.ApprovalRequest{}, approval.ErrApprovalRequestNotFound
		}
		return approval.ApprovalRequest{}, fmt.Errorf("failed to get approval request: %w", err)
	}
	return a, nil
}

// Decide implements approval.ApprovalRequestRepository.
func (r *approvalRequestRepositoryImpl) Decide(ctx context.Context, id int64, status approval.ApprovalStatus, comment *string) (approval.ApprovalRequest, error) {
	q := GetQuerier(ctx, r.db)

	commandTag, err := q.Exec(ctx, `
		UPDATE approval_requests
		SET status = $2, comment = $3, decided_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND status = 'Pending' AND closed_at IS NULL
	`, id, status, comment)
	if err != nil {
		return approval.ApprovalRequest{}, fmt.Errorf("failed to record decision: %w", err)
	}
	if commandTag.RowsAffected() != 1 {
		return approval.ApprovalRequest{}, approval.ErrApprovalNotPending
	}
	return r.GetByID(ctx, id)
}

// CloseOpenForLeaveRequest implements approval.ApprovalRequestRepository.
func (r *approvalRequestRepositoryImpl) CloseOpenForLeaveRequest(ctx context.Context, leaveRequestID int64) error {
	q := GetQuerier(ctx, r.db)

	_, err := q.Exec(ctx, `
		UPDATE approval_requests
		SET closed_at = NOW(), updated_at = NOW()
		WHERE leave_request_id = $1 AND status = 'Pending' AND closed_at IS NULL
	`, leaveRequestID)
	if err != nil {
		return fmt.Errorf("failed to close approval request: %w", err)
	}
	return nil
}

// List implements approval.ApprovalRequestRepository.
func (r *approvalRequestRepositoryImpl) List(ctx context.Context, filter approval.ApprovalRequestFilter) ([]approval.ApprovalRequest, int64, error) {
	q := GetQuerier(ctx, r.db)

	var b filterBuilder
	if filter.Status != nil {
		b.add("ar.status = $%d", *filter.Status)
	}
	if filter.LeaveRequestID != nil {
		b.add("ar.leave_request_id = $%d", *filter.LeaveRequestID)
	}
	if v := filter.Visibility; !v.All {
		idx := b.next()
		var parts []string
		if v.Assigned {
			parts = append(parts, fmt.Sprintf("ar.approver_id = $%d", idx))
		}
		if v.Own {
			parts = append(parts, fmt.Sprintf("lr.employee_id = $%d", idx))
		}
		if len(parts) == 0 {
			b.raw("FALSE")
		} else {
			b.args = append(b.args, v.ActorID)
			b.raw("(" + joinOr(parts) + ")")
		}
	}

	var total int64
	countQuery := fmt.Sprintf(`SELECT COUNT(*) FROM approval_requests ar
		JOIN leave_requests lr ON lr.id = ar.leave_request_id
		WHERE %s`, b.where())
	if err := q.QueryRow(ctx, countQuery, b.args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count approval requests: %w", err)
	}

	limitClause, args := b.page(filter.Page, filter.Limit)
	query := fmt.Sprintf("%s WHERE %s ORDER BY ar.id DESC %s", approvalRequestSelect, b.where(), limitClause)

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list approval requests: %w", err)
	}
	defer rows.Close()

	requests := make([]approval.ApprovalRequest, 0, filter.Limit)
	for rows.Next() {
		a, err := scanApprovalRequest(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan approval request: %w", err)
		}
		requests = append(requests, a)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return requests, total, nil
}
