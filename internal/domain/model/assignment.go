package model

import "time"

type Assignment struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Slug        string    `json:"slug"`
	Description string    `json:"description"`
	Subject     string    `json:"subject"`
	Deadline    time.Time `json:"deadline"`
	TeacherID   string    `json:"teacher_id"`
	TeacherName string    `json:"teacher_name"` // Denormalized for display
	// Students entitled to complete this assignment. Empty means assigned to
	// nobody yet; the assignment is still visible to everyone.
	AssignedStudents []string  `json:"assigned_students"`
	CreatedAt        time.Time `json:"created_at"`
}
