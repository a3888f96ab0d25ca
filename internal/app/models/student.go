package models

import (
	"sort"
	"time"
)

// StudentStatus classifies a student's enrollment state.
type StudentStatus string

const (
	StudentStatusActive   StudentStatus = "active"
	StudentStatusInactive StudentStatus = "inactive"
)

// Valid reports whether s is one of the known statuses.
func (s StudentStatus) Valid() bool {
	switch s {
	case StudentStatusActive, StudentStatusInactive:
		return true
	}
	return false
}

// Student defines the student model based on the 'students' table
type Student struct {
	ID        int64         `json:"id" db:"id" example:"1"`
	Name      string        `json:"name" db:"name" example:"Jane Doe"`
	Email     string        `json:"email" db:"email" example:"jane@example.com"`
	Cohort    string        `json:"cohort" db:"cohort" example:"AY 2024-25"`
	Status    StudentStatus `json:"status" db:"status" example:"active"`
	ImgURL    *string       `json:"imgUrl" db:"img_url"` // Nullable, public URL of the uploaded image
	CreatedAt time.Time     `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time     `json:"updatedAt" db:"updated_at"`

	// Courses is never nil once loaded from the repository
	Courses []CourseSummary `json:"courses"`
}

// SetCourses replaces the course list, dropping duplicate ids and ordering by id.
func (s *Student) SetCourses(courses []CourseSummary) {
	seen := make(map[int64]struct{}, len(courses))
	out := make([]CourseSummary, 0, len(courses))
	for _, c := range courses {
		if _, dup := seen[c.ID]; dup {
			continue
		}
		seen[c.ID] = struct{}{}
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	s.Courses = out
}

// CourseIDs returns the ids of the loaded courses.
func (s *Student) CourseIDs() []int64 {
	ids := make([]int64, 0, len(s.Courses))
	for _, c := range s.Courses {
		ids = append(ids, c.ID)
	}
	return ids
}
