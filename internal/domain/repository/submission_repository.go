package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"classtrack/internal/common"
	"classtrack/internal/domain/model"

	"github.com/jackc/pgx/v5/pgconn"
)

type SubmissionRepository interface {
	Create(ctx context.Context, submission *model.Submission) error
	FindByAssignmentAndStudent(ctx context.Context, assignmentID, studentID string) (*model.Submission, error)
	ListByAssignment(ctx context.Context, assignmentID string) ([]model.Submission, error)
	ListByStudent(ctx context.Context, studentID string) ([]model.Submission, error)
}

type pgSubmissionRepository struct {
	db *sql.DB
}

func NewPgSubmissionRepository(db *sql.DB) SubmissionRepository {
	return &pgSubmissionRepository{db: db}
}

const submissionColumns = `id, assignment_id, student_id, student_name, status, completed_at`

func (r *pgSubmissionRepository) Create(ctx context.Context, s *model.Submission) error {
	query := `INSERT INTO submissions (id, assignment_id, student_id, student_name, status, completed_at)
	          VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := r.db.ExecContext(ctx, query, s.ID, s.AssignmentID, s.StudentID, s.StudentName, s.Status, s.CompletedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			// Two completes raced past the existence check; the unique index
			// on (assignment_id, student_id) rejected the second insert.
			return fmt.Errorf("submission already exists: %w", common.ErrAlreadyCompleted)
		}
		return fmt.Errorf("pgSubmissionRepository.Create: %w", err)
	}
	return nil
}

func (r *pgSubmissionRepository) FindByAssignmentAndStudent(ctx context.Context, assignmentID, studentID string) (*model.Submission, error) {
	query := `SELECT ` + submissionColumns + ` FROM submissions WHERE assignment_id = $1 AND student_id = $2`

	s := &model.Submission{}
	err := r.db.QueryRowContext(ctx, query, assignmentID, studentID).Scan(
		&s.ID, &s.AssignmentID, &s.StudentID, &s.StudentName, &s.Status, &s.CompletedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("pgSubmissionRepository.FindByAssignmentAndStudent: %w", err)
	}
	return s, nil
}

func (r *pgSubmissionRepository) ListByAssignment(ctx context.Context, assignmentID string) ([]model.Submission, error) {
	query := `SELECT ` + submissionColumns + ` FROM submissions WHERE assignment_id = $1 ORDER BY completed_at`
	return r.list(ctx, query, assignmentID)
}

func (r *pgSubmissionRepository) ListByStudent(ctx context.Context, studentID string) ([]model.Submission, error) {
	query := `SELECT ` + submissionColumns + ` FROM submissions WHERE student_id = $1 ORDER BY completed_at`
	return r.list(ctx, query, studentID)
}

func (r *pgSubmissionRepository) list(ctx context.Context, query string, args ...interface{}) ([]model.Submission, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("pgSubmissionRepository.list: %w", err)
	}
	defer rows.Close()

	submissions := []model.Submission{}
	for rows.Next() {
		var s model.Submission
		if err := rows.Scan(&s.ID, &s.AssignmentID, &s.StudentID, &s.StudentName, &s.Status, &s.CompletedAt); err != nil {
			return nil, fmt.Errorf("pgSubmissionRepository.list: %w", err)
		}
		submissions = append(submissions, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("pgSubmissionRepository.list: %w", err)
	}
	return submissions, nil
}
