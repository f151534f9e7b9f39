package main

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fakePruner(days int, counted, deleted *time.Time) pruner {
	return pruner{
		name: "rows",
		days: days,
		count: func(_ context.Context, before time.Time) (int64, error) {
			*counted = before
			return 3, nil
		},
		delete: func(_ context.Context, before time.Time) (int64, error) {
			*deleted = before
			return 2, nil
		},
	}
}

func TestRun_DryRunOnlyCounts(t *testing.T) {
	var counted, deleted time.Time
	now := time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)

	n, err := run(context.Background(), fakePruner(7, &counted, &deleted), now, true)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
	assert.Equal(t, now.AddDate(0, 0, -7), counted)
	assert.True(t, deleted.IsZero())
}

func TestRun_Deletes(t *testing.T) {
	var counted, deleted time.Time
	now := time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)

	n, err := run(context.Background(), fakePruner(30, &counted, &deleted), now, false)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	assert.Equal(t, now.AddDate(0, 0, -30), deleted)
	assert.True(t, counted.IsZero())
}

func TestRun_SkipsNonPositiveRetention(t *testing.T) {
	var counted, deleted time.Time

	n, err := run(context.Background(), fakePruner(0, &counted, &deleted), time.Now(), false)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.True(t, deleted.IsZero())
}

func TestRun_PropagatesError(t *testing.T) {
	boom := errors.New("boom")
	p := pruner{
		name:   "rows",
		days:   1,
		delete: func(context.Context, time.Time) (int64, error) { return 0, boom },
	}

	_, err := run(context.Background(), p, time.Now(), false)
	assert.ErrorIs(t, err, boom)
}
