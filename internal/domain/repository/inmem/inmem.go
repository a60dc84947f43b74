// Package inmem provides in-memory repository implementations used by
// service and API tests in place of PostgreSQL. Uniqueness invariants are
// enforced the same way the schema enforces them.
package inmem

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"sync"

	"classtrack/internal/common"
	"classtrack/internal/domain/model"
	"classtrack/internal/domain/repository"
)

type DB struct {
	mu          sync.RWMutex
	users       map[string]model.User
	assignments map[string]model.Assignment
	members     map[string]map[string]bool // assignmentID -> studentID set
	submissions map[string]model.Submission
}

func Open() *DB {
	return &DB{
		users:       map[string]model.User{},
		assignments: map[string]model.Assignment{},
		members:     map[string]map[string]bool{},
		submissions: map[string]model.Submission{},
	}
}

// --- users ---

type userRepository struct{ db *DB }

func NewUserRepository(db *DB) repository.UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(ctx context.Context, user *model.User) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, u := range r.db.users {
		if u.Email == user.Email {
			return fmt.Errorf("user with given email already exists: %w", common.ErrEmailTaken)
		}
	}
	r.db.users[user.ID] = *user
	return nil
}

func (r *userRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	for _, u := range r.db.users {
		if u.Email == email {
			copied := u
			return &copied, nil
		}
	}
	return nil, common.ErrNotFound
}

func (r *userRepository) FindByID(ctx context.Context, id string) (*model.User, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	u, ok := r.db.users[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	copied := u
	return &copied, nil
}

func (r *userRepository) ListByRole(ctx context.Context, role string) ([]model.User, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	users := []model.User{}
	for _, u := range r.db.users {
		if u.Role == role {
			users = append(users, u)
		}
	}
	sort.Slice(users, func(i, j int) bool { return users[i].CreatedAt.Before(users[j].CreatedAt) })
	return users, nil
}

func (r *userRepository) UpdateProfile(ctx context.Context, id string, patch model.ProfilePatch) (*model.User, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	u, ok := r.db.users[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	if patch.Name != nil {
		u.Name = *patch.Name
	}
	if patch.ProfilePhoto != nil {
		photo := *patch.ProfilePhoto
		u.ProfilePhoto = &photo
	}
	if patch.ThemePreference != nil {
		u.ThemePreference = *patch.ThemePreference
	}
	r.db.users[id] = u
	copied := u
	return &copied, nil
}

// --- assignments ---

type assignmentRepository struct{ db *DB }

func NewAssignmentRepository(db *DB) repository.AssignmentRepository {
	return &assignmentRepository{db: db}
}

func (r *assignmentRepository) Create(ctx context.Context, tx *sql.Tx, a *model.Assignment) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	stored := *a
	stored.AssignedStudents = nil
	r.db.assignments[a.ID] = stored
	return nil
}

func (r *assignmentRepository) AddAssignedStudents(ctx context.Context, tx *sql.Tx, assignmentID string, studentIDs []string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	set, ok := r.db.members[assignmentID]
	if !ok {
		set = map[string]bool{}
		r.db.members[assignmentID] = set
	}
	for _, id := range studentIDs {
		set[id] = true
	}
	return nil
}

func (r *assignmentRepository) FindByID(ctx context.Context, id string) (*model.Assignment, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	a, ok := r.db.assignments[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	copied := a
	return &copied, nil
}

func (r *assignmentRepository) ListAll(ctx context.Context) ([]model.Assignment, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	return r.collect(func(model.Assignment) bool { return true }), nil
}

func (r *assignmentRepository) ListByTeacher(ctx context.Context, teacherID string) ([]model.Assignment, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	return r.collect(func(a model.Assignment) bool { return a.TeacherID == teacherID }), nil
}

func (r *assignmentRepository) ListByAssignedStudent(ctx context.Context, studentID string) ([]model.Assignment, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	return r.collect(func(a model.Assignment) bool { return r.db.members[a.ID][studentID] }), nil
}

// collect expects the caller to hold the lock.
func (r *assignmentRepository) collect(match func(model.Assignment) bool) []model.Assignment {
	assignments := []model.Assignment{}
	for _, a := range r.db.assignments {
		if match(a) {
			assignments = append(assignments, a)
		}
	}
	sort.Slice(assignments, func(i, j int) bool {
		return assignments[i].CreatedAt.After(assignments[j].CreatedAt)
	})
	return assignments
}

func (r *assignmentRepository) GetAssignedStudentIDs(ctx context.Context, assignmentID string) ([]string, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	ids := []string{}
	for id := range r.db.members[assignmentID] {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

func (r *assignmentRepository) IsStudentAssigned(ctx context.Context, assignmentID, studentID string) (bool, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	return r.db.members[assignmentID][studentID], nil
}

// --- submissions ---

type submissionRepository struct{ db *DB }

func NewSubmissionRepository(db *DB) repository.SubmissionRepository {
	return &submissionRepository{db: db}
}

func (r *submissionRepository) Create(ctx context.Context, s *model.Submission) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, existing := range r.db.submissions {
		if existing.AssignmentID == s.AssignmentID && existing.StudentID == s.StudentID {
			return fmt.Errorf("submission already exists: %w", common.ErrAlreadyCompleted)
		}
	}
	r.db.submissions[s.ID] = *s
	return nil
}

func (r *submissionRepository) FindByAssignmentAndStudent(ctx context.Context, assignmentID, studentID string) (*model.Submission, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	for _, s := range r.db.submissions {
		if s.AssignmentID == assignmentID && s.StudentID == studentID {
			copied := s
			return &copied, nil
		}
	}
	return nil, common.ErrNotFound
}

func (r *submissionRepository) ListByAssignment(ctx context.Context, assignmentID string) ([]model.Submission, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	return r.collect(func(s model.Submission) bool { return s.AssignmentID == assignmentID }), nil
}

func (r *submissionRepository) ListByStudent(ctx context.Context, studentID string) ([]model.Submission, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	return r.collect(func(s model.Submission) bool { return s.StudentID == studentID }), nil
}

// collect expects the caller to hold the lock.
func (r *submissionRepository) collect(match func(model.Submission) bool) []model.Submission {
	submissions := []model.Submission{}
	for _, s := range r.db.submissions {
		if match(s) {
			submissions = append(submissions, s)
		}
	}
	sort.Slice(submissions, func(i, j int) bool {
		return submissions[i].CompletedAt.Before(submissions[j].CompletedAt)
	})
	return submissions
}
