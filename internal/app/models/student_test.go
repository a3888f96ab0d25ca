package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetCoursesDedupesAndOrders(t *testing.T) {
	var s Student
	s.SetCourses([]CourseSummary{{ID: 3, Name: "Math"}, {ID: 1, Name: "Science"}, {ID: 3, Name: "Math"}})

	assert.Equal(t, []CourseSummary{{ID: 1, Name: "Science"}, {ID: 3, Name: "Math"}}, s.Courses)
	assert.Equal(t, []int64{1, 3}, s.CourseIDs())
}

func TestEmptyCoursesRenderAsArray(t *testing.T) {
	var s Student
	s.SetCourses(nil)

	raw, err := json.Marshal(s)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"courses":[]`)
}

func TestStudentStatusValid(t *testing.T) {
	assert.True(t, StudentStatusActive.Valid())
	assert.True(t, StudentStatusInactive.Valid())
	assert.False(t, StudentStatus("graduated").Valid())
	assert.False(t, StudentStatus("").Valid())
}
