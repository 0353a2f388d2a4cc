package database

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// A fresh deployment must come up with a usable plan catalog, and every
// seeded row must satisfy the column constraints AutoMigrate creates.
func TestDefaultPlans(t *testing.T) {
	require.NotEmpty(t, defaultPlans)

	seen := make(map[string]bool)
	for _, plan := range defaultPlans {
		_, err := uuid.Parse(plan.ID)
		assert.NoError(t, err, "plan %q id must fit the uuid column", plan.Name)
		assert.False(t, seen[plan.ID], "duplicate plan id %q", plan.ID)
		seen[plan.ID] = true

		assert.NotEmpty(t, plan.Name)
		assert.Greater(t, plan.Price, 0.0)
		assert.NotEmpty(t, plan.Duration)
		assert.True(t, plan.IsActive, "seeded plan %q must be purchasable", plan.Name)
		assert.True(t, json.Valid(plan.Features), "plan %q features must be valid jsonb", plan.Name)
		assert.True(t, json.Valid(plan.Limits), "plan %q limits must be valid jsonb", plan.Name)
	}
}
