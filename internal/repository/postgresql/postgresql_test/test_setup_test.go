package postgresql_test

import (
	"context"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/cmlabs-hris/hris-leave-go/internal/fixtures"
	"github.com/cmlabs-hris/hris-leave-go/internal/pkg/database"
	"github.com/cmlabs-hris/hris-leave-go/internal/repository/postgresql"
	"github.com/stretchr/testify/require"
)

// Tables in dependency order; roles is reference data owned by the
// migrations and is never truncated.
var dataTables = []string{
	"outbox_events",
	"approval_requests",
	"leave_requests",
	"project_members",
	"projects",
	"users",
	"employees",
}

var (
	migrateOnce sync.Once
	migrateErr  error
)

// newTestDB connects to TEST_DATABASE_URL, migrates it once per run and
// empties every data table. Tests are skipped when the variable is unset.
func newTestDB(t *testing.T) *database.DB {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	ctx := context.Background()
	db, err := database.NewPostgreSQLDB(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(db.Close)

	migrateOnce.Do(func() { migrateErr = database.Migrate(ctx, db, "up") })
	require.NoError(t, migrateErr)

	_, err = db.Exec(ctx, "TRUNCATE TABLE "+strings.Join(dataTables, ", ")+" RESTART IDENTITY CASCADE")
	require.NoError(t, err)
	return db
}

func seed(t *testing.T, db *database.DB, passwordHash string) (*fixtures.SeededDataIDs, fixtures.Repositories) {
	t.Helper()
	r := fixtures.Repositories{
		Employees: postgresql.NewEmployeeRepository(db),
		Projects:  postgresql.NewProjectRepository(db),
		Users:     postgresql.NewUserRepository(db),
	}
	ids, err := fixtures.Seed(context.Background(), postgresql.NewTransactor(db), r, passwordHash, time.Now().UTC())
	require.NoError(t, err)
	return ids, r
}
