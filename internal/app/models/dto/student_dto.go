package dto

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// StudentRequest carries the writable fields of a student for create and update.
// Update is a full replace, so omitted fields are treated as empty.
type StudentRequest struct {
	Name      string `json:"name" example:"Jane Doe"`
	Email     string `json:"email" example:"jane@example.com"`
	Cohort    string `json:"cohort" example:"AY 2024-25"`
	Status    string `json:"status" example:"active"`
	CourseIDs IDList `json:"courseIds"`
	// Courses is the field name used by the original web form.
	Courses IDList `json:"courses,omitempty"`
}

// ResolvedCourseIDs returns CourseIDs, falling back to the Courses alias.
func (r *StudentRequest) ResolvedCourseIDs() []int64 {
	if len(r.CourseIDs) > 0 {
		return r.CourseIDs
	}
	return r.Courses
}

// ImageUpload is an image received with a create request, already read into memory.
type ImageUpload struct {
	Filename    string
	ContentType string // as declared by the client; informational only
	Data        []byte
}

// Size returns the payload length in bytes.
func (u *ImageUpload) Size() int64 {
	return int64(len(u.Data))
}

// DeleteStudentResponse confirms a deletion.
type DeleteStudentResponse struct {
	Message string `json:"message" example:"Student deleted successfully"`
	ID      int64  `json:"id" example:"7"`
}

// IDList is a list of numeric ids that also accepts numeric strings, comma
// separated strings ("1,2") and a bare scalar, the same forms the multipart
// course fields accept.
type IDList []int64

// UnmarshalJSON implements json.Unmarshaler.
func (l *IDList) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*l = nil
		return nil
	}

	var raw []json.RawMessage
	if len(data) > 0 && data[0] == '[' {
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
	} else {
		raw = []json.RawMessage{data}
	}

	ids := make([]int64, 0, len(raw))
	for _, item := range raw {
		parsed, err := parseIDs(item)
		if err != nil {
			return err
		}
		ids = append(ids, parsed...)
	}
	*l = ids
	return nil
}

func parseIDs(item json.RawMessage) ([]int64, error) {
	var n int64
	if err := json.Unmarshal(item, &n); err == nil {
		return []int64{n}, nil
	}
	var s string
	if err := json.Unmarshal(item, &s); err != nil {
		return nil, fmt.Errorf("course id must be a number, got %s", string(item))
	}
	return ParseIDCSV(s)
}

// ParseIDCSV parses comma separated ids; blank entries are skipped.
func ParseIDCSV(s string) ([]int64, error) {
	var ids []int64
	for _, part := range strings.Split(s, ",") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		id, err := ParseIDString(part)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// ParseIDString parses a single id from its string form.
func ParseIDString(s string) (int64, error) {
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("course id must be a number, got %q", s)
	}
	return n, nil
}
