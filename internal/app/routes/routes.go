package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/yigit/roster/internal/app/controllers"
)

// SetupRouter configures all application routes
func SetupRouter(
	router *gin.Engine,
	studentController *controllers.StudentController,
	courseController *controllers.CourseController,
) {
	router.GET("/health", controllers.Health)

	api := router.Group("/api")

	students := api.Group("/students")
	{
		students.GET("", studentController.ListStudents)
		students.POST("", studentController.CreateStudent)
		students.GET("/:id", studentController.GetStudent)
		students.PUT("/:id", studentController.UpdateStudent)
		students.DELETE("/:id", studentController.DeleteStudent)
	}

	// Courses are read-only over HTTP; they come from the seed.
	courses := api.Group("/courses")
	{
		courses.GET("", courseController.ListCourses)
		courses.GET("/:id", courseController.GetCourse)
	}
}

// SetupStaticFiles serves locally stored uploads under urlPath.
func SetupStaticFiles(router *gin.Engine, urlPath, dir string) {
	router.Static(urlPath, dir)
}
