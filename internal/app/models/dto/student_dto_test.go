package dto

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIDListAcceptsMixedForms(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want IDList
	}{
		{name: "numbers", in: `[1, 2]`, want: IDList{1, 2}},
		{name: "strings", in: `["1", " 3 "]`, want: IDList{1, 3}},
		{name: "scalar", in: `4`, want: IDList{4}},
		{name: "scalar string", in: `"5"`, want: IDList{5}},
		{name: "comma string", in: `"1,2"`, want: IDList{1, 2}},
		{name: "comma strings in array", in: `["1, 2", 3, ""]`, want: IDList{1, 2, 3}},
		{name: "empty", in: `[]`, want: IDList{}},
		{name: "null", in: `null`, want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got IDList
			require.NoError(t, json.Unmarshal([]byte(tt.in), &got))
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestIDListRejectsGarbage(t *testing.T) {
	var got IDList
	assert.Error(t, json.Unmarshal([]byte(`["math"]`), &got))
	assert.Error(t, json.Unmarshal([]byte(`[true]`), &got))
}

func TestResolvedCourseIDsFallsBackToAlias(t *testing.T) {
	var req StudentRequest
	require.NoError(t, json.Unmarshal([]byte(`{"name":"Jane","courses":[2]}`), &req))
	assert.Equal(t, []int64{2}, req.ResolvedCourseIDs())

	require.NoError(t, json.Unmarshal([]byte(`{"courseIds":[1],"courses":[2]}`), &req))
	assert.Equal(t, []int64{1}, req.ResolvedCourseIDs())
}
