package services

import (
	"github.com/yigit/roster/internal/app/repositories"
	"github.com/yigit/roster/internal/pkg/filestorage"
)

// Services defined in this package:
// - StudentService: students, their enrollments and profile images
// - CourseService: the course catalogue
type Services struct {
	StudentService StudentService
	CourseService  CourseService
}

// NewServices wires every service on top of the repositories.
func NewServices(repos *repositories.Repositories, store filestorage.ObjectStore, maxImageSize int64) *Services {
	return &Services{
		StudentService: NewStudentService(repos.StudentRepository, store, maxImageSize),
		CourseService:  NewCourseService(repos.CourseRepository),
	}
}
