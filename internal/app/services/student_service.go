package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/yigit/roster/internal/app/models"
	"github.com/yigit/roster/internal/app/models/dto"
	"github.com/yigit/roster/internal/pkg/apperrors"
	"github.com/yigit/roster/internal/pkg/filestorage"
	"github.com/yigit/roster/internal/pkg/logger"
)

// DefaultMaxImageSize is the upload limit used when none is configured.
const DefaultMaxImageSize int64 = 5 << 20

// StudentRepository is the persistence surface the student service depends on.
type StudentRepository interface {
	GetAll(ctx context.Context) ([]*models.Student, error)
	GetByID(ctx context.Context, id int64) (*models.Student, error)
	Create(ctx context.Context, student *models.Student, courseIDs []int64) (*models.Student, error)
	Update(ctx context.Context, student *models.Student, courseIDs []int64) (*models.Student, error)
	Delete(ctx context.Context, id int64) error
}

// StudentService defines the interface for student-related operations
type StudentService interface {
	ListStudents(ctx context.Context) ([]*models.Student, error)
	GetStudent(ctx context.Context, id int64) (*models.Student, error)
	CreateStudent(ctx context.Context, req *dto.StudentRequest, image *dto.ImageUpload) (*models.Student, error)
	UpdateStudent(ctx context.Context, id int64, req *dto.StudentRequest) (*models.Student, error)
	DeleteStudent(ctx context.Context, id int64) error
}

// studentServiceImpl implements the StudentService interface
type studentServiceImpl struct {
	studentRepo  StudentRepository
	store        filestorage.ObjectStore
	maxImageSize int64
	now          func() time.Time
}

// NewStudentService creates a new student service instance. store may be nil, in
// which case requests carrying an image are rejected.
func NewStudentService(studentRepo StudentRepository, store filestorage.ObjectStore, maxImageSize int64) StudentService {
	if maxImageSize <= 0 {
		maxImageSize = DefaultMaxImageSize
	}
	return &studentServiceImpl{
		studentRepo:  studentRepo,
		store:        store,
		maxImageSize: maxImageSize,
		now:          time.Now,
	}
}

// validateStudent normalizes req into a student and its de-duplicated course ids.
func validateStudent(req *dto.StudentRequest) (*models.Student, []int64, error) {
	if req == nil {
		return nil, nil, apperrors.NewValidationError("request body is required")
	}

	student := &models.Student{
		Name:   strings.TrimSpace(req.Name),
		Email:  strings.TrimSpace(req.Email),
		Cohort: strings.TrimSpace(req.Cohort),
		Status: models.StudentStatus(strings.ToLower(strings.TrimSpace(req.Status))),
	}

	if student.Name == "" {
		return nil, nil, apperrors.NewValidationFieldError("name", "name is required")
	}
	if student.Email == "" {
		return nil, nil, apperrors.NewValidationFieldError("email", "email is required")
	}

	if student.Status == "" {
		student.Status = models.StudentStatusActive
	}
	if !student.Status.Valid() {
		return nil, nil, apperrors.NewValidationFieldError("status",
			fmt.Sprintf("status must be one of %q or %q", models.StudentStatusActive, models.StudentStatusInactive))
	}

	courseIDs, err := normalizeCourseIDs(req.ResolvedCourseIDs())
	if err != nil {
		return nil, nil, err
	}

	return student, courseIDs, nil
}

// normalizeCourseIDs drops repeated ids, keeping the first occurrence.
func normalizeCourseIDs(ids []int64) ([]int64, error) {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if id <= 0 {
			return nil, apperrors.NewValidationFieldError("courseIds", fmt.Sprintf("invalid course id %d", id))
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out, nil
}

// ListStudents retrieves all students, newest first
func (s *studentServiceImpl) ListStudents(ctx context.Context) ([]*models.Student, error) {
	students, err := s.studentRepo.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("error retrieving students: %w", err)
	}
	return students, nil
}

// GetStudent retrieves a student by ID
func (s *studentServiceImpl) GetStudent(ctx context.Context, id int64) (*models.Student, error) {
	if id <= 0 {
		return nil, apperrors.ErrStudentNotFound
	}

	student, err := s.studentRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, apperrors.ErrStudentNotFound) {
			return nil, apperrors.ErrStudentNotFound
		}
		return nil, fmt.Errorf("error retrieving student: %w", err)
	}
	return student, nil
}

// CreateStudent validates the request, uploads the optional image, then stores the
// student and its enrollments in one transaction. The image upload happens before
// the transaction; a failed transaction leaves the uploaded object behind.
func (s *studentServiceImpl) CreateStudent(ctx context.Context, req *dto.StudentRequest, image *dto.ImageUpload) (*models.Student, error) {
	student, courseIDs, err := validateStudent(req)
	if err != nil {
		return nil, err
	}

	var objectKey string
	if image != nil && image.Size() > 0 {
		objectKey, err = s.uploadImage(ctx, image)
		if err != nil {
			return nil, err
		}
		imgURL := s.store.PublicURL(objectKey)
		student.ImgURL = &imgURL
	}

	created, err := s.studentRepo.Create(ctx, student, courseIDs)
	if err != nil {
		if objectKey != "" {
			logger.Warn().Err(err).Str("objectKey", objectKey).Str("email", student.Email).
				Msg("Student creation failed after image upload, object left in storage")
		}
		if apperrors.Is(err, apperrors.ErrValidationFailed, apperrors.ErrResourceAlreadyExists) {
			return nil, err
		}
		return nil, fmt.Errorf("error creating student: %w", err)
	}

	logger.Info().Int64("studentID", created.ID).Ints64("courseIDs", created.CourseIDs()).Msg("Student created")
	return created, nil
}

// uploadImage checks the image and puts it into the object store, returning its key.
func (s *studentServiceImpl) uploadImage(ctx context.Context, image *dto.ImageUpload) (string, error) {
	if image.Size() > s.maxImageSize {
		return "", apperrors.NewValidationFieldError("image",
			fmt.Sprintf("image exceeds the maximum size of %d bytes", s.maxImageSize))
	}

	contentType, err := filestorage.ImageContentType(image.Data)
	if err != nil {
		return "", apperrors.NewValidationFieldError("image", "only PNG, JPEG, GIF, WebP, BMP or AVIF images are allowed")
	}

	if s.store == nil {
		return "", apperrors.NewCustomError(apperrors.ErrUpstreamFailure, "image storage is not configured").
			WithCode(apperrors.ErrStorageUnavailable.Code)
	}

	key := filestorage.ObjectKey(image.Filename, s.now())
	if err := s.store.Upload(ctx, key, bytes.NewReader(image.Data), image.Size(), contentType); err != nil {
		logger.Error().Err(err).Str("objectKey", key).Msg("Image upload failed")
		return "", fmt.Errorf("%w: %v", apperrors.ErrStorageUnavailable, err)
	}

	logger.Debug().Str("objectKey", key).Str("contentType", contentType).Str("declaredType", image.ContentType).
		Int64("size", image.Size()).Msg("Image uploaded")
	return key, nil
}

// UpdateStudent replaces a student's fields and course set. The image is kept.
func (s *studentServiceImpl) UpdateStudent(ctx context.Context, id int64, req *dto.StudentRequest) (*models.Student, error) {
	if id <= 0 {
		return nil, apperrors.ErrStudentNotFound
	}

	student, courseIDs, err := validateStudent(req)
	if err != nil {
		return nil, err
	}
	student.ID = id

	updated, err := s.studentRepo.Update(ctx, student, courseIDs)
	if err != nil {
		if apperrors.Is(err, apperrors.ErrValidationFailed, apperrors.ErrResourceAlreadyExists, apperrors.ErrResourceNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("error updating student: %w", err)
	}
	return updated, nil
}

// DeleteStudent deletes a student and, through the schema, its enrollments
func (s *studentServiceImpl) DeleteStudent(ctx context.Context, id int64) error {
	if id <= 0 {
		return apperrors.ErrStudentNotFound
	}

	if err := s.studentRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, apperrors.ErrStudentNotFound) {
			return apperrors.ErrStudentNotFound
		}
		return fmt.Errorf("error deleting student: %w", err)
	}

	logger.Info().Int64("studentID", id).Msg("Student deleted")
	return nil
}
