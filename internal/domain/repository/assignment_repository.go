package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"classtrack/internal/common"
	"classtrack/internal/domain/model"
)

type AssignmentRepository interface {
	Create(ctx context.Context, tx *sql.Tx, assignment *model.Assignment) error
	AddAssignedStudents(ctx context.Context, tx *sql.Tx, assignmentID string, studentIDs []string) error
	FindByID(ctx context.Context, id string) (*model.Assignment, error)
	ListAll(ctx context.Context) ([]model.Assignment, error)
	ListByTeacher(ctx context.Context, teacherID string) ([]model.Assignment, error)
	ListByAssignedStudent(ctx context.Context, studentID string) ([]model.Assignment, error)
	GetAssignedStudentIDs(ctx context.Context, assignmentID string) ([]string, error)
	IsStudentAssigned(ctx context.Context, assignmentID, studentID string) (bool, error)
}

type pgAssignmentRepository struct {
	db *sql.DB
}

func NewPgAssignmentRepository(db *sql.DB) AssignmentRepository {
	return &pgAssignmentRepository{db: db}
}

const assignmentColumns = `id, title, slug, description, subject, deadline, teacher_id, teacher_name, created_at`

func (r *pgAssignmentRepository) Create(ctx context.Context, tx *sql.Tx, a *model.Assignment) error {
	query := `INSERT INTO assignments (id, title, slug, description, subject, deadline, teacher_id, teacher_name, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	var err error
	if tx != nil {
		_, err = tx.ExecContext(ctx, query, a.ID, a.Title, a.Slug, a.Description, a.Subject, a.Deadline, a.TeacherID, a.TeacherName, a.CreatedAt)
	} else {
		_, err = r.db.ExecContext(ctx, query, a.ID, a.Title, a.Slug, a.Description, a.Subject, a.Deadline, a.TeacherID, a.TeacherName, a.CreatedAt)
	}
	if err != nil {
		return fmt.Errorf("pgAssignmentRepository.Create: %w", err)
	}
	return nil
}

// AddAssignedStudents writes the membership rows. Callers run it inside the
// creation transaction; membership is immutable afterwards.
func (r *pgAssignmentRepository) AddAssignedStudents(ctx context.Context, tx *sql.Tx, assignmentID string, studentIDs []string) error {
	query := `INSERT INTO assignment_students (assignment_id, student_id) VALUES ($1, $2)
	          ON CONFLICT (assignment_id, student_id) DO NOTHING`
	for _, studentID := range studentIDs {
		var err error
		if tx != nil {
			_, err = tx.ExecContext(ctx, query, assignmentID, studentID)
		} else {
			_, err = r.db.ExecContext(ctx, query, assignmentID, studentID)
		}
		if err != nil {
			return fmt.Errorf("pgAssignmentRepository.AddAssignedStudents: %w", err)
		}
	}
	return nil
}

func (r *pgAssignmentRepository) FindByID(ctx context.Context, id string) (*model.Assignment, error) {
	query := `SELECT ` + assignmentColumns + ` FROM assignments WHERE id = $1`

	a := &model.Assignment{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&a.ID, &a.Title, &a.Slug, &a.Description, &a.Subject, &a.Deadline,
		&a.TeacherID, &a.TeacherName, &a.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("pgAssignmentRepository.FindByID: %w", err)
	}
	return a, nil
}

func (r *pgAssignmentRepository) ListAll(ctx context.Context) ([]model.Assignment, error) {
	query := `SELECT ` + assignmentColumns + ` FROM assignments ORDER BY created_at DESC`
	return r.list(ctx, query)
}

func (r *pgAssignmentRepository) ListByTeacher(ctx context.Context, teacherID string) ([]model.Assignment, error) {
	query := `SELECT ` + assignmentColumns + ` FROM assignments WHERE teacher_id = $1 ORDER BY created_at DESC`
	return r.list(ctx, query, teacherID)
}

func (r *pgAssignmentRepository) ListByAssignedStudent(ctx context.Context, studentID string) ([]model.Assignment, error) {
	query := `SELECT a.id, a.title, a.slug, a.description, a.subject, a.deadline, a.teacher_id, a.teacher_name, a.created_at
	          FROM assignments a
	          JOIN assignment_students s ON s.assignment_id = a.id
	          WHERE s.student_id = $1
	          ORDER BY a.created_at DESC`
	return r.list(ctx, query, studentID)
}

func (r *pgAssignmentRepository) list(ctx context.Context, query string, args ...interface{}) ([]model.Assignment, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("pgAssignmentRepository.list: %w", err)
	}
	defer rows.Close()

	assignments := []model.Assignment{}
	for rows.Next() {
		var a model.Assignment
		if err := rows.Scan(
			&a.ID, &a.Title, &a.Slug, &a.Description, &a.Subject, &a.Deadline,
			&a.TeacherID, &a.TeacherName, &a.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("pgAssignmentRepository.list: %w", err)
		}
		assignments = append(assignments, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("pgAssignmentRepository.list: %w", err)
	}
	return assignments, nil
}

func (r *pgAssignmentRepository) GetAssignedStudentIDs(ctx context.Context, assignmentID string) ([]string, error) {
	query := `SELECT student_id FROM assignment_students WHERE assignment_id = $1 ORDER BY student_id`
	rows, err := r.db.QueryContext(ctx, query, assignmentID)
	if err != nil {
		return nil, fmt.Errorf("pgAssignmentRepository.GetAssignedStudentIDs: %w", err)
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("pgAssignmentRepository.GetAssignedStudentIDs: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("pgAssignmentRepository.GetAssignedStudentIDs: %w", err)
	}
	return ids, nil
}

func (r *pgAssignmentRepository) IsStudentAssigned(ctx context.Context, assignmentID, studentID string) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM assignment_students WHERE assignment_id = $1 AND student_id = $2)`
	var assigned bool
	if err := r.db.QueryRowContext(ctx, query, assignmentID, studentID).Scan(&assigned); err != nil {
		return false, fmt.Errorf("pgAssignmentRepository.IsStudentAssigned: %w", err)
	}
	return assigned, nil
}
