package postgres

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/enrolld/enrolld/internal/enrollment"
)

// TestPurpose: Validates the stats fold. Completed rows carry progress 100,
// so the tenant average must be computed over active enrollments only or a
// single completion skews it.
// Scope: Unit Test
// Expected: one active row at 20 plus one completed row yields average 20,
// not 60.
func TestFoldStats_AverageProgressActiveOnly(t *testing.T) {
	stats := foldStats([]statusAggregate{
		{status: enrollment.StatusActive, count: 1, avgProgress: 20},
		{status: enrollment.StatusCompleted, count: 1, avgProgress: 100},
	})

	assert.Equal(t, 2, stats.Total)
	assert.Equal(t, 20.0, stats.AverageProgress)
	assert.Equal(t, 0.5, stats.CompletionRate)
}

func TestFoldStats(t *testing.T) {
	t.Run("empty tenant", func(t *testing.T) {
		stats := foldStats(nil)

		assert.Zero(t, stats.Total)
		assert.Zero(t, stats.AverageProgress)
		assert.Zero(t, stats.CompletionRate)
		assert.Empty(t, stats.ByStatus)
	})

	t.Run("no active rows", func(t *testing.T) {
		stats := foldStats([]statusAggregate{
			{status: enrollment.StatusCompleted, count: 3, avgProgress: 100},
			{status: enrollment.StatusCancelled, count: 1, avgProgress: 40},
		})

		assert.Equal(t, 4, stats.Total)
		assert.Zero(t, stats.AverageProgress)
		assert.Equal(t, 0.75, stats.CompletionRate)
	})

	t.Run("all statuses", func(t *testing.T) {
		stats := foldStats([]statusAggregate{
			{status: enrollment.StatusActive, count: 4, avgProgress: 35},
			{status: enrollment.StatusCompleted, count: 2, avgProgress: 100},
			{status: enrollment.StatusExpired, count: 3, avgProgress: 50},
			{status: enrollment.StatusCancelled, count: 1, avgProgress: 10},
		})

		assert.Equal(t, 10, stats.Total)
		assert.Equal(t, map[enrollment.Status]int{
			enrollment.StatusActive:    4,
			enrollment.StatusCompleted: 2,
			enrollment.StatusExpired:   3,
			enrollment.StatusCancelled: 1,
		}, stats.ByStatus)
		assert.Equal(t, 35.0, stats.AverageProgress)
		assert.Equal(t, 0.2, stats.CompletionRate)
	})
}
