package controllers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/yigit/roster/internal/app/models/dto"
	"github.com/yigit/roster/internal/app/services"
	"github.com/yigit/roster/internal/middleware"
	"github.com/yigit/roster/internal/pkg/apperrors"
)

// formOverhead is the room left for the text fields of a multipart request on
// top of the image limit.
const formOverhead = 1 << 20

// courseIDFields are the form field names accepted for the course id list.
var courseIDFields = []string{"courseIds", "courseIds[]", "courses", "courses[]"}

// StudentController handles student-related operations
type StudentController struct {
	studentService services.StudentService
	maxImageSize   int64
}

// NewStudentController creates a new StudentController
func NewStudentController(studentService services.StudentService, maxImageSize int64) *StudentController {
	if maxImageSize <= 0 {
		maxImageSize = services.DefaultMaxImageSize
	}
	return &StudentController{
		studentService: studentService,
		maxImageSize:   maxImageSize,
	}
}

// ListStudents returns every student with its courses
// @Summary List students
// @Description Returns all students, newest first, each with its enrolled courses
// @Tags students
// @Produce json
// @Success 200 {array} models.Student "Students"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /students [get]
func (c *StudentController) ListStudents(ctx *gin.Context) {
	students, err := c.studentService.ListStudents(ctx.Request.Context())
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, students)
}

// GetStudent returns one student
// @Summary Get student
// @Tags students
// @Produce json
// @Param id path int true "Student ID" Format(int64) minimum(1)
// @Success 200 {object} models.Student "Student"
// @Failure 400 {object} dto.ErrorResponse "Non-numeric student ID"
// @Failure 404 {object} dto.ErrorResponse "Student not found"
// @Router /students/{id} [get]
func (c *StudentController) GetStudent(ctx *gin.Context) {
	id, err := parseIDParam(ctx, "id", apperrors.ErrStudentNotFound)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	student, err := c.studentService.GetStudent(ctx.Request.Context(), id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, student)
}

// CreateStudent creates a student, optionally with a profile image
// @Summary Create student
// @Description Accepts multipart/form-data (with an optional "image" file) or JSON.
// @Description Course ids may be sent as courseIds, courseIds[], courses or courses[].
// @Tags students
// @Accept mpfd,json
// @Produce json
// @Param request body dto.StudentRequest true "Student information"
// @Success 201 {object} models.Student "Student created"
// @Failure 400 {object} dto.ErrorResponse "Invalid data, duplicate email or unknown course"
// @Failure 500 {object} dto.ErrorResponse "Image upload or database failure"
// @Router /students [post]
func (c *StudentController) CreateStudent(ctx *gin.Context) {
	req, image, err := c.bindStudentRequest(ctx)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	student, err := c.studentService.CreateStudent(ctx.Request.Context(), req, image)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, student)
}

// UpdateStudent replaces a student's fields and course list
// @Summary Update student
// @Description Full replace of name, email, cohort, status and courses. The image is kept.
// @Tags students
// @Accept json
// @Produce json
// @Param id path int true "Student ID" Format(int64) minimum(1)
// @Param request body dto.StudentRequest true "Student information"
// @Success 200 {object} models.Student "Student updated"
// @Failure 400 {object} dto.ErrorResponse "Invalid data, duplicate email or unknown course"
// @Failure 404 {object} dto.ErrorResponse "Student not found"
// @Router /students/{id} [put]
func (c *StudentController) UpdateStudent(ctx *gin.Context) {
	id, err := parseIDParam(ctx, "id", apperrors.ErrStudentNotFound)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	req, image, err := c.bindStudentRequest(ctx)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	if image != nil {
		middleware.HandleAPIError(ctx, apperrors.NewValidationFieldError("image", "image cannot be changed on update"))
		return
	}

	student, err := c.studentService.UpdateStudent(ctx.Request.Context(), id, req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, student)
}

// DeleteStudent deletes a student
// @Summary Delete student
// @Tags students
// @Produce json
// @Param id path int true "Student ID" Format(int64) minimum(1)
// @Success 200 {object} dto.DeleteStudentResponse "Student deleted"
// @Failure 404 {object} dto.ErrorResponse "Student not found"
// @Router /students/{id} [delete]
func (c *StudentController) DeleteStudent(ctx *gin.Context) {
	id, err := parseIDParam(ctx, "id", apperrors.ErrStudentNotFound)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	if err := c.studentService.DeleteStudent(ctx.Request.Context(), id); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.DeleteStudentResponse{
		Message: "Student deleted successfully",
		ID:      id,
	})
}

// bindStudentRequest reads a student from a form or JSON body.
func (c *StudentController) bindStudentRequest(ctx *gin.Context) (*dto.StudentRequest, *dto.ImageUpload, error) {
	switch ctx.ContentType() {
	case gin.MIMEMultipartPOSTForm, gin.MIMEPOSTForm:
		return c.bindStudentForm(ctx)
	default:
		var req dto.StudentRequest
		if err := ctx.ShouldBindJSON(&req); err != nil {
			return nil, nil, apperrors.NewValidationError(fmt.Sprintf("invalid request body: %v", err))
		}
		return &req, nil, nil
	}
}

func (c *StudentController) bindStudentForm(ctx *gin.Context) (*dto.StudentRequest, *dto.ImageUpload, error) {
	ctx.Request.Body = http.MaxBytesReader(ctx.Writer, ctx.Request.Body, c.maxImageSize+formOverhead)

	if ctx.ContentType() == gin.MIMEMultipartPOSTForm {
		if _, err := ctx.MultipartForm(); err != nil {
			return nil, nil, formError(err)
		}
	} else if err := ctx.Request.ParseForm(); err != nil {
		return nil, nil, formError(err)
	}

	req := &dto.StudentRequest{
		Name:   ctx.PostForm("name"),
		Email:  ctx.PostForm("email"),
		Cohort: ctx.PostForm("cohort"),
		Status: ctx.PostForm("status"),
	}

	for _, field := range courseIDFields {
		for _, value := range ctx.PostFormArray(field) {
			ids, err := parseFormIDs(value)
			if err != nil {
				return nil, nil, apperrors.NewValidationFieldError("courseIds", err.Error())
			}
			req.CourseIDs = append(req.CourseIDs, ids...)
		}
	}

	image, err := c.readImage(ctx)
	if err != nil {
		return nil, nil, err
	}
	return req, image, nil
}

// readImage loads the optional "image" file of a multipart request.
func (c *StudentController) readImage(ctx *gin.Context) (*dto.ImageUpload, error) {
	if ctx.ContentType() != gin.MIMEMultipartPOSTForm {
		return nil, nil
	}

	header, err := ctx.FormFile("image")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return nil, nil
		}
		return nil, formError(err)
	}

	if header.Size > c.maxImageSize {
		return nil, apperrors.NewValidationFieldError("image",
			fmt.Sprintf("image exceeds the maximum size of %d bytes", c.maxImageSize))
	}

	file, err := header.Open()
	if err != nil {
		return nil, fmt.Errorf("error opening uploaded image: %w", err)
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, c.maxImageSize+1))
	if err != nil {
		return nil, fmt.Errorf("error reading uploaded image: %w", err)
	}
	if len(data) == 0 {
		return nil, nil
	}

	return &dto.ImageUpload{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Data:        data,
	}, nil
}

// parseFormIDs accepts "3", "1,2" and "[1,2]".
func parseFormIDs(value string) ([]int64, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}

	if strings.HasPrefix(value, "[") {
		var ids dto.IDList
		if err := json.Unmarshal([]byte(value), &ids); err != nil {
			return nil, err
		}
		return ids, nil
	}

	return dto.ParseIDCSV(value)
}

func formError(err error) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return apperrors.NewValidationError(fmt.Sprintf("request body exceeds %d bytes", tooLarge.Limit))
	}
	return apperrors.NewValidationError(fmt.Sprintf("invalid form data: %v", err))
}

// parseIDParam reads an integer path parameter. Ids that are not integers are a
// validation error; ids below 1 cannot name a row and yield notFound.
func parseIDParam(ctx *gin.Context, name string, notFound error) (int64, error) {
	id, err := strconv.ParseInt(ctx.Param(name), 10, 64)
	if err != nil {
		return 0, apperrors.NewValidationFieldError(name, fmt.Sprintf("%s must be an integer", name))
	}
	if id <= 0 {
		return 0, notFound
	}
	return id, nil
}
