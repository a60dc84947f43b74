package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"classtrack/internal/common"
	"classtrack/internal/domain/model"
	"classtrack/internal/domain/repository"
	"classtrack/internal/platform/config"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"github.com/redis/go-redis/v9"
)

const assignmentListCacheKey = "assignments:all"

type AssignmentService struct {
	assignmentRepo repository.AssignmentRepository
	userRepo       repository.UserRepository
	db             *sql.DB // For transactions
	cache          *redis.Client
}

func NewAssignmentService(
	assignmentRepo repository.AssignmentRepository,
	userRepo repository.UserRepository,
	db *sql.DB,
	cache *redis.Client,
) *AssignmentService {
	return &AssignmentService{
		assignmentRepo: assignmentRepo,
		userRepo:       userRepo,
		db:             db,
		cache:          cache,
	}
}

type CreateAssignmentRequest struct {
	Title       string    `json:"title" validate:"required"`
	Description string    `json:"description" validate:"required"`
	Subject     string    `json:"subject" validate:"required"`
	Deadline    time.Time `json:"deadline" validate:"required"`
	// Optional set of student IDs entitled to complete this assignment.
	AssignedStudents []string `json:"assigned_students"`
}

// Create stores a new assignment owned by the calling teacher, with its
// membership rows written in the same transaction. Assignments are immutable
// once created.
func (s *AssignmentService) Create(ctx context.Context, teacherID string, req CreateAssignmentRequest) (*model.Assignment, error) {
	if err := common.ValidateStruct(req); err != nil {
		return nil, err
	}

	teacher, err := s.userRepo.FindByID(ctx, teacherID)
	if err != nil {
		return nil, fmt.Errorf("failed to load caller: %w", err)
	}
	if teacher.Role != model.RoleTeacher {
		return nil, fmt.Errorf("only teachers can create assignments: %w", common.ErrForbidden)
	}

	assignedStudents := req.AssignedStudents
	if assignedStudents == nil {
		assignedStudents = []string{}
	}

	assignment := &model.Assignment{
		ID:               uuid.NewString(),
		Title:            req.Title,
		Slug:             slug.Make(req.Title),
		Description:      req.Description,
		Subject:          req.Subject,
		Deadline:         req.Deadline,
		TeacherID:        teacher.ID,
		TeacherName:      teacher.Name,
		AssignedStudents: assignedStudents,
		CreatedAt:        time.Now().UTC(),
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, common.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := s.assignmentRepo.Create(ctx, tx, assignment); err != nil {
		return nil, err
	}
	if err := s.assignmentRepo.AddAssignedStudents(ctx, tx, assignment.ID, assignment.AssignedStudents); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, common.Errorf("failed to commit transaction: %w", err)
	}

	s.invalidateListCache(ctx)
	return assignment, nil
}

// ListAll returns every assignment, readable by any authenticated user. The
// result is served from the redis cache when present.
func (s *AssignmentService) ListAll(ctx context.Context) ([]model.Assignment, error) {
	if cached, ok := s.getCachedList(ctx); ok {
		return cached, nil
	}

	assignments, err := s.assignmentRepo.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.fillAssignedStudents(ctx, assignments); err != nil {
		return nil, err
	}

	s.setCachedList(ctx, assignments)
	return assignments, nil
}

// ListMine returns the caller's view: teachers see assignments they created,
// students see assignments they are a member of.
func (s *AssignmentService) ListMine(ctx context.Context, callerID string) ([]model.Assignment, error) {
	caller, err := s.userRepo.FindByID(ctx, callerID)
	if err != nil {
		return nil, fmt.Errorf("failed to load caller: %w", err)
	}

	var assignments []model.Assignment
	if caller.Role == model.RoleTeacher {
		assignments, err = s.assignmentRepo.ListByTeacher(ctx, caller.ID)
	} else {
		assignments, err = s.assignmentRepo.ListByAssignedStudent(ctx, caller.ID)
	}
	if err != nil {
		return nil, err
	}
	if err := s.fillAssignedStudents(ctx, assignments); err != nil {
		return nil, err
	}
	return assignments, nil
}

func (s *AssignmentService) fillAssignedStudents(ctx context.Context, assignments []model.Assignment) error {
	for i := range assignments {
		ids, err := s.assignmentRepo.GetAssignedStudentIDs(ctx, assignments[i].ID)
		if err != nil {
			return err
		}
		assignments[i].AssignedStudents = ids
	}
	return nil
}

func (s *AssignmentService) getCachedList(ctx context.Context) ([]model.Assignment, bool) {
	if s.cache == nil {
		return nil, false
	}
	raw, err := s.cache.Get(ctx, assignmentListCacheKey).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			log.Printf("assignment cache read failed: %v", err)
		}
		return nil, false
	}
	var assignments []model.Assignment
	if err := json.Unmarshal(raw, &assignments); err != nil {
		log.Printf("assignment cache decode failed: %v", err)
		return nil, false
	}
	return assignments, true
}

func (s *AssignmentService) setCachedList(ctx context.Context, assignments []model.Assignment) {
	if s.cache == nil {
		return
	}
	raw, err := json.Marshal(assignments)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, assignmentListCacheKey, raw, config.AppConfig.AssignmentCacheTTL).Err(); err != nil {
		log.Printf("assignment cache write failed: %v", err)
	}
}

func (s *AssignmentService) invalidateListCache(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, assignmentListCacheKey).Err(); err != nil {
		log.Printf("assignment cache invalidation failed: %v", err)
	}
}
