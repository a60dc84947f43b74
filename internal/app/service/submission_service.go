package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"classtrack/internal/common"
	"classtrack/internal/domain/model"
	"classtrack/internal/domain/repository"

	"github.com/google/uuid"
)

type SubmissionService struct {
	submissionRepo repository.SubmissionRepository
	assignmentRepo repository.AssignmentRepository
	userRepo       repository.UserRepository
}

func NewSubmissionService(
	submissionRepo repository.SubmissionRepository,
	assignmentRepo repository.AssignmentRepository,
	userRepo repository.UserRepository,
) *SubmissionService {
	return &SubmissionService{
		submissionRepo: submissionRepo,
		assignmentRepo: assignmentRepo,
		userRepo:       userRepo,
	}
}

// Complete marks an assignment as done by the calling student. Checks run in
// a fixed order: role, then assignment existence, then membership, then prior
// submission. The role gate comes first so a non-student never learns whether
// the assignment exists.
func (s *SubmissionService) Complete(ctx context.Context, studentID, assignmentID string) (*model.Submission, error) {
	student, err := s.userRepo.FindByID(ctx, studentID)
	if err != nil {
		return nil, fmt.Errorf("failed to load caller: %w", err)
	}
	if student.Role != model.RoleStudent {
		return nil, fmt.Errorf("only students can complete assignments: %w", common.ErrForbidden)
	}

	if _, err := s.assignmentRepo.FindByID(ctx, assignmentID); err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, fmt.Errorf("assignment not found: %w", common.ErrNotFound)
		}
		return nil, err
	}

	assigned, err := s.assignmentRepo.IsStudentAssigned(ctx, assignmentID, student.ID)
	if err != nil {
		return nil, err
	}
	if !assigned {
		return nil, fmt.Errorf("you are not assigned to this assignment: %w", common.ErrForbidden)
	}

	_, err = s.submissionRepo.FindByAssignmentAndStudent(ctx, assignmentID, student.ID)
	if err == nil {
		return nil, fmt.Errorf("assignment already completed: %w", common.ErrAlreadyCompleted)
	}
	if !errors.Is(err, common.ErrNotFound) {
		return nil, err
	}

	submission := &model.Submission{
		ID:           uuid.NewString(),
		AssignmentID: assignmentID,
		StudentID:    student.ID,
		StudentName:  student.Name,
		Status:       model.StatusCompleted,
		CompletedAt:  time.Now().UTC(),
	}

	// The repository maps a unique-index violation to ErrAlreadyCompleted,
	// covering the window between the check above and this insert.
	if err := s.submissionRepo.Create(ctx, submission); err != nil {
		return nil, err
	}
	return submission, nil
}

// ListForAssignment returns every submission on an assignment. Any teacher
// may call it; ownership of the assignment is deliberately not required.
func (s *SubmissionService) ListForAssignment(ctx context.Context, callerID, assignmentID string) ([]model.Submission, error) {
	caller, err := s.userRepo.FindByID(ctx, callerID)
	if err != nil {
		return nil, fmt.Errorf("failed to load caller: %w", err)
	}
	if caller.Role != model.RoleTeacher {
		return nil, fmt.Errorf("only teachers can view submissions: %w", common.ErrForbidden)
	}
	return s.submissionRepo.ListByAssignment(ctx, assignmentID)
}

// ListCompletedAssignmentIDs returns the IDs of assignments the calling
// student has completed.
func (s *SubmissionService) ListCompletedAssignmentIDs(ctx context.Context, callerID string) ([]string, error) {
	caller, err := s.userRepo.FindByID(ctx, callerID)
	if err != nil {
		return nil, fmt.Errorf("failed to load caller: %w", err)
	}
	if caller.Role != model.RoleStudent {
		return nil, fmt.Errorf("only students can view their submissions: %w", common.ErrForbidden)
	}

	submissions, err := s.submissionRepo.ListByStudent(ctx, caller.ID)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(submissions))
	for _, sub := range submissions {
		ids = append(ids, sub.AssignmentID)
	}
	return ids, nil
}
