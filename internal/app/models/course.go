package models

import "time"

// Course represents a course students can be enrolled in.
type Course struct {
	ID          int64     `json:"id" db:"id"`
	Code        string    `json:"code" db:"code"`
	Name        string    `json:"name" db:"name"`
	Description *string   `json:"description,omitempty" db:"description"` // Nullable
	CreatedAt   time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt   time.Time `json:"updatedAt" db:"updated_at"`
}

// CourseSummary is the compact course shape embedded in a student.
type CourseSummary struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}
