package service

import (
	"context"
	"fmt"

	"classtrack/internal/common"
	"classtrack/internal/domain/model"
	"classtrack/internal/domain/repository"
)

type UserService struct {
	userRepo repository.UserRepository
}

func NewUserService(userRepo repository.UserRepository) *UserService {
	return &UserService{userRepo: userRepo}
}

type UpdateProfileRequest struct {
	Name            *string `json:"name,omitempty" validate:"omitempty,min=1"`
	ProfilePhoto    *string `json:"profile_photo,omitempty"`
	ThemePreference *string `json:"theme_preference,omitempty" validate:"omitempty,oneof=light dark"`
}

func (s *UserService) GetProfile(ctx context.Context, userID string) (*model.User, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	user.HashedPassword = ""
	return user, nil
}

// UpdateProfile applies a partial update to the caller's own profile. Only
// name, profile photo and theme preference are reachable; absent fields stay
// untouched.
func (s *UserService) UpdateProfile(ctx context.Context, userID string, req UpdateProfileRequest) (*model.User, error) {
	if err := common.ValidateStruct(req); err != nil {
		return nil, err
	}

	patch := model.ProfilePatch{
		Name:            req.Name,
		ProfilePhoto:    req.ProfilePhoto,
		ThemePreference: req.ThemePreference,
	}

	user, err := s.userRepo.UpdateProfile(ctx, userID, patch)
	if err != nil {
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}
	user.HashedPassword = ""
	return user, nil
}

// ListStudents returns every student account, for teachers picking who an
// assignment goes to.
func (s *UserService) ListStudents(ctx context.Context, callerID string) ([]model.User, error) {
	caller, err := s.userRepo.FindByID(ctx, callerID)
	if err != nil {
		return nil, fmt.Errorf("failed to load caller: %w", err)
	}
	if caller.Role != model.RoleTeacher {
		return nil, fmt.Errorf("only teachers can view the student list: %w", common.ErrForbidden)
	}

	students, err := s.userRepo.ListByRole(ctx, model.RoleStudent)
	if err != nil {
		return nil, err
	}
	for i := range students {
		students[i].HashedPassword = ""
	}
	return students, nil
}
