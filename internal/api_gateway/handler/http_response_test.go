package handler

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewPaginatedResponse(t *testing.T) {
	testCases := []struct {
		name       string
		perPage    int
		totalItems int
		wantPages  int
	}{
		{"ExactPages", 10, 30, 3},
		{"PartialLastPage", 10, 31, 4},
		{"Empty", 10, 0, 0},
		{"NoPageSize", 0, 7, 1},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			response := NewPaginatedResponse([]string{}, 1, tc.perPage, tc.totalItems)
			assert.Equal(t, tc.wantPages, response.Meta.TotalPages)
			assert.Equal(t, tc.totalItems, response.Meta.TotalItems)
			assert.Nil(t, response.Error)
		})
	}
}
