package log_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/slok/packrun/internal/log"
)

func TestCtxWithValues(t *testing.T) {
	tests := map[string]struct {
		initial   log.Kv
		added     log.Kv
		expValues log.Kv
	}{
		"Empty context should return empty values.": {
			expValues: log.Kv{},
		},

		"Values set on a context should be returned.": {
			added:     log.Kv{"pack": "core"},
			expValues: log.Kv{"pack": "core"},
		},

		"New values should be merged with the existing ones, overriding on conflict.": {
			initial:   log.Kv{"pack": "core", "action": "echo"},
			added:     log.Kv{"pack": "linux"},
			expValues: log.Kv{"pack": "linux", "action": "echo"},
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			if test.initial != nil {
				ctx = log.CtxWithValues(ctx, test.initial)
			}
			if test.added != nil {
				ctx = log.CtxWithValues(ctx, test.added)
			}

			assert.Equal(t, test.expValues, log.ValuesFromCtx(ctx))
		})
	}
}

func TestNoopKeepsContext(t *testing.T) {
	ctx := context.Background()
	got := log.Noop.SetValuesOnCtx(ctx, log.Kv{"a": 1})
	assert.Equal(t, ctx, got)
}
