package services

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yigit/roster/internal/app/models"
	"github.com/yigit/roster/internal/app/models/dto"
	"github.com/yigit/roster/internal/pkg/apperrors"
)

var pngHeader = []byte{
	0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n',
	0x00, 0x00, 0x00, 0x0d, 'I', 'H', 'D', 'R',
	0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0x01, 0x08, 0x06, 0x00, 0x00, 0x00,
}

type fakeStudentRepo struct {
	students  map[int64]*models.Student
	nextID    int64
	createErr error

	lastCreated   *models.Student
	lastCourseIDs []int64
}

func newFakeStudentRepo() *fakeStudentRepo {
	return &fakeStudentRepo{students: map[int64]*models.Student{}, nextID: 1}
}

func (r *fakeStudentRepo) GetAll(ctx context.Context) ([]*models.Student, error) {
	out := []*models.Student{}
	for id := r.nextID - 1; id > 0; id-- {
		if s, ok := r.students[id]; ok {
			out = append(out, s)
		}
	}
	return out, nil
}

func (r *fakeStudentRepo) GetByID(ctx context.Context, id int64) (*models.Student, error) {
	s, ok := r.students[id]
	if !ok {
		return nil, apperrors.ErrStudentNotFound
	}
	return s, nil
}

func (r *fakeStudentRepo) withCourses(student *models.Student, courseIDs []int64) {
	courses := make([]models.CourseSummary, 0, len(courseIDs))
	for _, id := range courseIDs {
		courses = append(courses, models.CourseSummary{ID: id, Name: "Course"})
	}
	student.SetCourses(courses)
}

func (r *fakeStudentRepo) Create(ctx context.Context, student *models.Student, courseIDs []int64) (*models.Student, error) {
	r.lastCreated = student
	r.lastCourseIDs = courseIDs
	if r.createErr != nil {
		return nil, r.createErr
	}
	for _, existing := range r.students {
		if existing.Email == student.Email {
			return nil, apperrors.ErrStudentEmailExists
		}
	}
	created := *student
	created.ID = r.nextID
	r.nextID++
	r.withCourses(&created, courseIDs)
	r.students[created.ID] = &created
	return &created, nil
}

func (r *fakeStudentRepo) Update(ctx context.Context, student *models.Student, courseIDs []int64) (*models.Student, error) {
	existing, ok := r.students[student.ID]
	if !ok {
		return nil, apperrors.ErrStudentNotFound
	}
	updated := *student
	updated.ImgURL = existing.ImgURL
	r.withCourses(&updated, courseIDs)
	r.students[student.ID] = &updated
	return &updated, nil
}

func (r *fakeStudentRepo) Delete(ctx context.Context, id int64) error {
	if _, ok := r.students[id]; !ok {
		return apperrors.ErrStudentNotFound
	}
	delete(r.students, id)
	return nil
}

type fakeStore struct {
	objects   map[string][]byte
	types     map[string]string
	uploadErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{objects: map[string][]byte{}, types: map[string]string{}}
}

func (s *fakeStore) Upload(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	if s.uploadErr != nil {
		return s.uploadErr
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	s.objects[key] = data
	s.types[key] = contentType
	return nil
}

func (s *fakeStore) PublicURL(key string) string {
	return "https://student-images.example.com/" + key
}

func newTestStudentService(repo *fakeStudentRepo, store *fakeStore) *studentServiceImpl {
	svc := NewStudentService(repo, store, 1024).(*studentServiceImpl)
	svc.now = func() time.Time { return time.UnixMilli(1700000000000) }
	return svc
}

func TestCreateStudentNormalizesInput(t *testing.T) {
	repo := newFakeStudentRepo()
	svc := newTestStudentService(repo, newFakeStore())

	created, err := svc.CreateStudent(context.Background(), &dto.StudentRequest{
		Name:      "  Jane Doe ",
		Email:     " jane@example.com ",
		Cohort:    "AY 2024-25",
		CourseIDs: dto.IDList{2, 1, 2},
	}, nil)

	require.NoError(t, err)
	assert.Equal(t, "Jane Doe", repo.lastCreated.Name)
	assert.Equal(t, "jane@example.com", repo.lastCreated.Email)
	assert.Equal(t, models.StudentStatusActive, repo.lastCreated.Status)
	assert.Equal(t, []int64{2, 1}, repo.lastCourseIDs)
	assert.Equal(t, []int64{1, 2}, created.CourseIDs())
	assert.Nil(t, created.ImgURL)
}

func TestCreateStudentUsesCoursesAlias(t *testing.T) {
	repo := newFakeStudentRepo()
	svc := newTestStudentService(repo, newFakeStore())

	_, err := svc.CreateStudent(context.Background(), &dto.StudentRequest{
		Name: "A", Email: "a@example.com", Courses: dto.IDList{3},
	}, nil)

	require.NoError(t, err)
	assert.Equal(t, []int64{3}, repo.lastCourseIDs)
}

func TestCreateStudentValidation(t *testing.T) {
	tests := []struct {
		name  string
		req   *dto.StudentRequest
		field string
	}{
		{"nil request", nil, ""},
		{"blank name", &dto.StudentRequest{Name: "  ", Email: "a@example.com"}, "name"},
		{"blank email", &dto.StudentRequest{Name: "A", Email: ""}, "email"},
		{"unknown status", &dto.StudentRequest{Name: "A", Email: "a@example.com", Status: "graduated"}, "status"},
		{"non-positive course", &dto.StudentRequest{Name: "A", Email: "a@example.com", CourseIDs: dto.IDList{1, 0}}, "courseIds"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newFakeStudentRepo()
			svc := newTestStudentService(repo, newFakeStore())

			_, err := svc.CreateStudent(context.Background(), tt.req, nil)
			require.Error(t, err)
			assert.ErrorIs(t, err, apperrors.ErrValidationFailed)
			assert.Nil(t, repo.lastCreated)

			if tt.field != "" {
				ce, ok := apperrors.AsCustom(err)
				require.True(t, ok)
				assert.Equal(t, tt.field, ce.Details["field"])
			}
		})
	}
}

func TestCreateStudentDuplicateEmail(t *testing.T) {
	repo := newFakeStudentRepo()
	svc := newTestStudentService(repo, newFakeStore())
	req := &dto.StudentRequest{Name: "Jane Doe", Email: "jane@example.com", CourseIDs: dto.IDList{1}}

	_, err := svc.CreateStudent(context.Background(), req, nil)
	require.NoError(t, err)

	_, err = svc.CreateStudent(context.Background(), req, nil)
	assert.ErrorIs(t, err, apperrors.ErrStudentEmailExists)
	assert.Len(t, repo.students, 1)
}

func TestCreateStudentUploadsImage(t *testing.T) {
	repo := newFakeStudentRepo()
	store := newFakeStore()
	svc := newTestStudentService(repo, store)

	created, err := svc.CreateStudent(context.Background(),
		&dto.StudentRequest{Name: "A", Email: "a@example.com"},
		&dto.ImageUpload{Filename: "Photo.PNG", ContentType: "image/png", Data: pngHeader})

	require.NoError(t, err)
	require.Len(t, store.objects, 1)
	for key, data := range store.objects {
		assert.Regexp(t, `^1700000000000-[0-9a-f]{8}\.png$`, key)
		assert.Equal(t, pngHeader, data)
		assert.Equal(t, "image/png", store.types[key])
		require.NotNil(t, created.ImgURL)
		assert.Equal(t, store.PublicURL(key), *created.ImgURL)
	}
}

func TestCreateStudentRejectsBadImages(t *testing.T) {
	repo := newFakeStudentRepo()
	store := newFakeStore()
	svc := newTestStudentService(repo, store)
	req := &dto.StudentRequest{Name: "A", Email: "a@example.com"}

	_, err := svc.CreateStudent(context.Background(), req,
		&dto.ImageUpload{Filename: "notes.txt", ContentType: "image/png", Data: []byte("plain text, not an image")})
	assert.ErrorIs(t, err, apperrors.ErrValidationFailed)

	big := append(append([]byte{}, pngHeader...), make([]byte, 2048)...)
	_, err = svc.CreateStudent(context.Background(), req,
		&dto.ImageUpload{Filename: "big.png", ContentType: "image/png", Data: big})
	assert.ErrorIs(t, err, apperrors.ErrValidationFailed)

	assert.Empty(t, store.objects)
	assert.Nil(t, repo.lastCreated)
}

func TestCreateStudentRejectsSVGAndIgnoresDeclaredType(t *testing.T) {
	repo := newFakeStudentRepo()
	store := newFakeStore()
	svc := newTestStudentService(repo, store)
	svg := []byte(`<svg xmlns="http://www.w3.org/2000/svg"><script>alert(1)</script></svg>`)

	_, err := svc.CreateStudent(context.Background(),
		&dto.StudentRequest{Name: "A", Email: "a@example.com"},
		&dto.ImageUpload{Filename: "avatar.svg", ContentType: "image/svg+xml", Data: svg})
	assert.ErrorIs(t, err, apperrors.ErrValidationFailed)
	assert.Empty(t, store.objects)

	_, err = svc.CreateStudent(context.Background(),
		&dto.StudentRequest{Name: "B", Email: "b@example.com"},
		&dto.ImageUpload{Filename: "photo.png", ContentType: "text/html", Data: pngHeader})
	require.NoError(t, err)
	require.Len(t, store.types, 1)
	for _, ct := range store.types {
		assert.Equal(t, "image/png", ct)
	}
}

func TestCreateStudentUploadFailureSkipsDatabase(t *testing.T) {
	repo := newFakeStudentRepo()
	store := newFakeStore()
	store.uploadErr = errors.New("bucket unreachable")
	svc := newTestStudentService(repo, store)

	_, err := svc.CreateStudent(context.Background(),
		&dto.StudentRequest{Name: "A", Email: "a@example.com"},
		&dto.ImageUpload{Filename: "a.png", Data: pngHeader})

	assert.ErrorIs(t, err, apperrors.ErrStorageUnavailable)
	assert.ErrorIs(t, err, apperrors.ErrUpstreamFailure)
	assert.Nil(t, repo.lastCreated)
}

func TestCreateStudentLeavesImageWhenTransactionFails(t *testing.T) {
	repo := newFakeStudentRepo()
	repo.createErr = apperrors.ErrInvalidCourseReference
	store := newFakeStore()
	svc := newTestStudentService(repo, store)

	_, err := svc.CreateStudent(context.Background(),
		&dto.StudentRequest{Name: "A", Email: "a@example.com", CourseIDs: dto.IDList{99}},
		&dto.ImageUpload{Filename: "a.png", Data: pngHeader})

	assert.ErrorIs(t, err, apperrors.ErrInvalidCourseReference)
	assert.Len(t, store.objects, 1)
}

func TestCreateStudentWithoutStore(t *testing.T) {
	svc := NewStudentService(newFakeStudentRepo(), nil, 0)

	_, err := svc.CreateStudent(context.Background(),
		&dto.StudentRequest{Name: "A", Email: "a@example.com"},
		&dto.ImageUpload{Filename: "a.png", Data: pngHeader})

	assert.ErrorIs(t, err, apperrors.ErrUpstreamFailure)
}

func TestUpdateStudentReplacesCoursesAndKeepsImage(t *testing.T) {
	repo := newFakeStudentRepo()
	svc := newTestStudentService(repo, newFakeStore())

	created, err := svc.CreateStudent(context.Background(),
		&dto.StudentRequest{Name: "A", Email: "a@example.com", CourseIDs: dto.IDList{1, 2}},
		&dto.ImageUpload{Filename: "a.png", Data: pngHeader})
	require.NoError(t, err)

	updated, err := svc.UpdateStudent(context.Background(), created.ID,
		&dto.StudentRequest{Name: "A", Email: "a@example.com", Status: "inactive", CourseIDs: dto.IDList{2, 3}})

	require.NoError(t, err)
	assert.Equal(t, []int64{2, 3}, updated.CourseIDs())
	assert.Equal(t, models.StudentStatusInactive, updated.Status)
	assert.Equal(t, created.ImgURL, updated.ImgURL)
}

func TestUpdateStudentErrors(t *testing.T) {
	svc := newTestStudentService(newFakeStudentRepo(), newFakeStore())

	_, err := svc.UpdateStudent(context.Background(), 99, &dto.StudentRequest{Name: "A", Email: "a@example.com"})
	assert.ErrorIs(t, err, apperrors.ErrStudentNotFound)

	_, err = svc.UpdateStudent(context.Background(), 0, &dto.StudentRequest{Name: "A", Email: "a@example.com"})
	assert.ErrorIs(t, err, apperrors.ErrStudentNotFound)

	_, err = svc.UpdateStudent(context.Background(), 1, &dto.StudentRequest{Name: "", Email: "a@example.com"})
	assert.ErrorIs(t, err, apperrors.ErrValidationFailed)
}

func TestDeleteStudent(t *testing.T) {
	repo := newFakeStudentRepo()
	svc := newTestStudentService(repo, newFakeStore())

	created, err := svc.CreateStudent(context.Background(), &dto.StudentRequest{Name: "A", Email: "a@example.com"}, nil)
	require.NoError(t, err)

	require.NoError(t, svc.DeleteStudent(context.Background(), created.ID))
	assert.ErrorIs(t, svc.DeleteStudent(context.Background(), created.ID), apperrors.ErrStudentNotFound)
	assert.ErrorIs(t, svc.DeleteStudent(context.Background(), -3), apperrors.ErrStudentNotFound)
	assert.Empty(t, repo.students)
}

func TestListAndGetStudents(t *testing.T) {
	repo := newFakeStudentRepo()
	svc := newTestStudentService(repo, newFakeStore())

	for _, email := range []string{"a@example.com", "b@example.com"} {
		_, err := svc.CreateStudent(context.Background(), &dto.StudentRequest{Name: "S", Email: email}, nil)
		require.NoError(t, err)
	}

	students, err := svc.ListStudents(context.Background())
	require.NoError(t, err)
	require.Len(t, students, 2)
	assert.Equal(t, int64(2), students[0].ID)

	got, err := svc.GetStudent(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "a@example.com", got.Email)

	_, err = svc.GetStudent(context.Background(), 5)
	assert.ErrorIs(t, err, apperrors.ErrStudentNotFound)
}
