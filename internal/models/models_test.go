package models

import (
	"testing"

	"github.com/c.mueller/gantt-order-sync/internal/ordering"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateDateRange(t *testing.T) {
	require.NoError(t, ValidateDateRange("2026-01-01", "2026-01-02"))
	require.ErrorIs(t, ValidateDateRange("2026-01-02", "2026-01-02"), ErrInvalidDateRange)
	require.ErrorIs(t, ValidateDateRange("2026-02-01", "2026-01-02"), ErrInvalidDateRange)
	require.Error(t, ValidateDateRange("yesterday", "2026-01-02"))
	require.Error(t, ValidateDateRange("2026-01-01", "2026-13-40"))
}

func TestItemMapping(t *testing.T) {
	projects := []Project{{ID: 4, DisplayOrder: 500}, {ID: 2, DisplayOrder: 1000}}
	assert.Equal(t, []ordering.Item{{ID: 4, Key: 500}, {ID: 2, Key: 1000}}, ProjectItems(projects))

	tasks := []Task{{ID: 7, DisplayOrder: 1500}}
	assert.Equal(t, []ordering.Item{{ID: 7, Key: 1500}}, TaskItems(tasks))
}

func TestUpdateInputsEmpty(t *testing.T) {
	assert.True(t, UpdateProjectInput{}.Empty())
	order := 1.5
	assert.False(t, UpdateProjectInput{DisplayOrder: &order}.Empty())
	assert.True(t, UpdateTaskInput{}.Empty())
	assert.False(t, UpdateTaskInput{DisplayOrder: &order}.Empty())
}
