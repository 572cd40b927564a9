package storage_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/slok/packrun/internal/model"
	"github.com/slok/packrun/internal/storage"
)

func TestValidateQuery(t *testing.T) {
	tests := map[string]struct {
		query  model.Query
		expErr bool
	}{
		"An empty query should be valid.": {},

		"Known filters and order fields should be valid.": {
			query: model.Query{
				Filters: map[string]string{"pack": "core", "status": "failed"},
				OrderBy: []string{"-started_at", "pack"},
				Offset:  10,
				Limit:   5,
			},
		},

		"An unknown filter should be invalid.": {
			query:  model.Query{Filters: map[string]string{"stderr": "x"}},
			expErr: true,
		},

		"An unknown descending order field should be invalid.": {
			query:  model.Query{OrderBy: []string{"-entry_point"}},
			expErr: true,
		},

		"A negative offset should be invalid.": {
			query:  model.Query{Offset: -1},
			expErr: true,
		},

		"A negative limit should be invalid.": {
			query:  model.Query{Limit: -1},
			expErr: true,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			err := storage.ValidateQuery(test.query, storage.ExecutionFilterFields, storage.ExecutionOrderFields)
			if test.expErr {
				assert.ErrorIs(t, err, model.ErrNotValid)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
