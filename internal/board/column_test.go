package board

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifyColumn(t *testing.T) {
	cases := []struct {
		status string
		want   Column
	}{
		{"In Progress", ColumnInProgress},
		{"Closed", ColumnDone},
		{"New", ColumnToDo},
		{"Under Review", ColumnReview},
		{"Active", ColumnInProgress},
		{"Resolved", ColumnReview},
		{"DONE", ColumnDone},
		{"Unknown", ColumnToDo},
		{"", ColumnToDo},
		{"progress closed", ColumnInProgress},
		{"review done", ColumnReview},
	}
	for _, tc := range cases {
		t.Run(tc.status, func(t *testing.T) {
			assert.Equal(t, tc.want, ClassifyColumn(tc.status))
		})
	}
}
