// Package memory is a transactional in-process store implementing every
// repository interface. Transactions are serialized by a single lock and
// roll back to a snapshot on error, which matches the isolation the
// workflow relies on from PostgreSQL row locks.
package memory

import (
	"context"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/cmlabs-hris/hris-leave-go/internal/domain/approval"
	"github.com/cmlabs-hris/hris-leave-go/internal/domain/employee"
	"github.com/cmlabs-hris/hris-leave-go/internal/domain/leave"
	"github.com/cmlabs-hris/hris-leave-go/internal/domain/outbox"
	"github.com/cmlabs-hris/hris-leave-go/internal/domain/project"
	"github.com/cmlabs-hris/hris-leave-go/internal/domain/user"
)

type memberKey struct {
	projectID  int64
	employeeID int64
}

type state struct {
	seq       int64
	employees map[int64]employee.Employee
	users     map[int64]user.User
	projects  map[int64]project.Project
	members   map[memberKey]project.Member
	leaves    map[int64]leave.LeaveRequest
	approvals map[int64]approval.ApprovalRequest
	events    []outbox.Event
}

func (s state) clone() state {
	return state{
		seq:       s.seq,
		employees: maps.Clone(s.employees),
		users:     maps.Clone(s.users),
		projects:  maps.Clone(s.projects),
		members:   maps.Clone(s.members),
		leaves:    maps.Clone(s.leaves),
		approvals: maps.Clone(s.approvals),
		events:    slices.Clone(s.events),
	}
}

type Store struct {
	mu   sync.Mutex
	data state
	now  func() time.Time
}

func NewStore() *Store {
	return &Store{
		data: state{
			employees: make(map[int64]employee.Employee),
			users:     make(map[int64]user.User),
			projects:  make(map[int64]project.Project),
			members:   make(map[memberKey]project.Member),
			leaves:    make(map[int64]leave.LeaveRequest),
			approvals: make(map[int64]approval.ApprovalRequest),
		},
		now: time.Now,
	}
}

type txMarker struct{}

// WithinTx implements database.Transactor.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if ctx.Value(txMarker{}) != nil {
		return fn(ctx)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.data.clone()
	if err := fn(context.WithValue(ctx, txMarker{}, true)); err != nil {
		s.data = snapshot
		return err
	}
	return nil
}

// lock guards a single repository call made outside a transaction.
func (s *Store) lock(ctx context.Context) func() {
	if ctx.Value(txMarker{}) != nil {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

func (s *Store) nextID() int64 {
	s.data.seq++
	return s.data.seq
}

func (s *Store) Employees() employee.EmployeeRepository { return employeeRepo{s} }
func (s *Store) Users() user.UserRepository { return userRepo{s} }
func (s *Store) Projects() project.ProjectRepository { return projectRepo{s} }
func (s *Store) LeaveRequests() leave.LeaveRequestRepository { return leaveRepo{s} }
func (s *Store) Approvals() approval.ApprovalRequestRepository { return approvalRepo{s} }
func (s *Store) Outbox() outbox.Repository { return outboxRepo{s} }

// Events returns a copy of every recorded outbox event.
func (s *Store) Events() []outbox.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.data.events)
}

func paginate[T any](items []T, page, limit int) []T {
	if limit <= 0 {
		return items
	}
	if page < 1 {
		page = 1
	}
	start := (page - 1) * limit
	if start >= len(items) {
		return []T{}
	}
	end := min(start+limit, len(items))
	return items[start:end]
}

func strPtr(s string) *string {
	return &s
}
