package repositories

import (
	"github.com/yigit/roster/internal/db"
)

// Repositories holds all the repository instances
type Repositories struct {
	StudentRepository *StudentRepository
	CourseRepository  *CourseRepository
}

// NewRepositories initializes all repositories on one pool.
func NewRepositories(conn db.TxBeginner) *Repositories {
	return &Repositories{
		StudentRepository: NewStudentRepository(conn),
		CourseRepository:  NewCourseRepository(conn),
	}
}
