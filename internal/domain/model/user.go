package model

import (
	"time"
)

const (
	RoleTeacher = "teacher"
	RoleStudent = "student"
)

const (
	ThemeLight = "light"
	ThemeDark  = "dark"
)

type User struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	Email           string    `json:"email"`
	Role            string    `json:"role"` // Immutable after registration
	ProfilePhoto    *string   `json:"profile_photo,omitempty"`
	ThemePreference string    `json:"theme_preference"`
	HashedPassword  string    `json:"-"` // Not exposed
	CreatedAt       time.Time `json:"created_at"`
}

// ProfilePatch carries a partial profile update. A nil field means "leave
// untouched"; a set field is applied verbatim, so an explicit empty string
// is a real value rather than an accidental no-op.
type ProfilePatch struct {
	Name            *string
	ProfilePhoto    *string
	ThemePreference *string
}

// Empty reports whether the patch would change nothing.
func (p ProfilePatch) Empty() bool {
	return p.Name == nil && p.ProfilePhoto == nil && p.ThemePreference == nil
}
