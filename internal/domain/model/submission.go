package model

import "time"

// The only submission state in scope. A submission records a completion and
// is never updated or deleted afterwards.
const StatusCompleted = "completed"

type Submission struct {
	ID           string    `json:"id"`
	AssignmentID string    `json:"assignment_id"`
	StudentID    string    `json:"student_id"`
	StudentName  string    `json:"student_name"` // Denormalized for display
	Status       string    `json:"status"`
	CompletedAt  time.Time `json:"completed_at"`
}
