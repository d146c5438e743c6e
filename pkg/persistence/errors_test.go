package persistence_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/chantierpro/automation/pkg/persistence"
	"github.com/stretchr/testify/assert"
)

func TestStandardizedErrors(t *testing.T) {
	t.Parallel()

	t.Run("error checking functions work correctly", func(t *testing.T) {
		ruleErr := persistence.NewRuleError("GetByID", "rule-123", persistence.ErrRuleNotFound)
		execErr := persistence.NewExecutionError("Complete", "exec-456", persistence.ErrExecutionNotFound)

		assert.True(t, persistence.IsRuleNotFound(ruleErr))
		assert.True(t, persistence.IsExecutionNotFound(execErr))
		assert.False(t, persistence.IsRuleNotFound(execErr))

		assert.True(t, errors.Is(ruleErr, persistence.ErrRuleNotFound))
		assert.True(t, errors.Is(fmt.Errorf("wrapped: %w", execErr), persistence.ErrExecutionNotFound))
	})

	t.Run("record error contains context", func(t *testing.T) {
		err := persistence.NewRecordError("UpdatePriority", "opportunity", "opp-9", persistence.ErrOpportunityNotFound)

		assert.Contains(t, err.Error(), "UpdatePriority")
		assert.Contains(t, err.Error(), "opportunity opp-9")
		assert.Contains(t, err.Error(), "opportunity not found")
		assert.True(t, persistence.IsNotFound(err))
	})

	t.Run("already completed is not a not-found error", func(t *testing.T) {
		err := persistence.NewExecutionError("Complete", "exec-1", persistence.ErrExecutionAlreadyCompleted)

		assert.False(t, persistence.IsNotFound(err))
		assert.ErrorIs(t, err, persistence.ErrExecutionAlreadyCompleted)
	})
}
