package service

import (
	"context"
	"database/sql"
	"os"
	"testing"
	"time"

	"classtrack/internal/common/security"
	"classtrack/internal/domain/model"
	"classtrack/internal/domain/repository"
	"classtrack/internal/domain/repository/inmem"
	"classtrack/internal/platform/config"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	config.AppConfig = &config.Config{
		JWTKey:             []byte("test-secret"),
		JWTExp:             30 * time.Minute,
		AssignmentCacheTTL: time.Minute,
	}
	security.InitJWT()
	os.Exit(m.Run())
}

// newTxDB returns a sql.DB whose transactions always succeed, for services
// that open one around repository calls.
func newTxDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	mock.MatchExpectationsInOrder(false)
	t.Cleanup(func() { db.Close() })
	return db, mock
}

func expectTx(mock sqlmock.Sqlmock, n int) {
	for i := 0; i < n; i++ {
		mock.ExpectBegin()
		mock.ExpectCommit()
	}
}

func seedUser(t *testing.T, repo repository.UserRepository, name, email, role string) *model.User {
	t.Helper()
	hash, err := security.HashPassword("password123")
	require.NoError(t, err)
	user := &model.User{
		ID:              uuid.NewString(),
		Name:            name,
		Email:           email,
		Role:            role,
		ThemePreference: model.ThemeLight,
		HashedPassword:  hash,
		CreatedAt:       time.Now().UTC(),
	}
	require.NoError(t, repo.Create(context.Background(), user))
	return user
}

type testEnv struct {
	db             *inmem.DB
	userRepo       repository.UserRepository
	assignmentRepo repository.AssignmentRepository
	submissionRepo repository.SubmissionRepository
}

func newTestEnv() *testEnv {
	db := inmem.Open()
	return &testEnv{
		db:             db,
		userRepo:       inmem.NewUserRepository(db),
		assignmentRepo: inmem.NewAssignmentRepository(db),
		submissionRepo: inmem.NewSubmissionRepository(db),
	}
}
