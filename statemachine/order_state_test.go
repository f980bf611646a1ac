package statemachine

import (
	"testing"

	"pizza-service/models"

	"github.com/stretchr/testify/assert"
)

func TestCanTransition(t *testing.T) {
	assert.NoError(t, CanTransition(models.StatusPending, models.StatusFulfilled))
	assert.NoError(t, CanTransition(models.StatusPending, models.StatusFailed))

	err := CanTransition(models.StatusFailed, models.StatusFulfilled)
	if assert.Error(t, err) {
		assert.Contains(t, err.Error(), "terminal")
	}
	assert.Error(t, CanTransition(models.StatusFulfilled, models.StatusPending))
}

func TestTerminalStates(t *testing.T) {
	assert.False(t, IsTerminal(models.StatusPending))
	assert.True(t, IsTerminal(models.StatusFulfilled))
	assert.True(t, IsTerminal(models.StatusFailed))
	assert.ElementsMatch(t,
		[]models.OrderStatus{models.StatusFulfilled, models.StatusFailed},
		ValidTransitionsFrom(models.StatusPending))
}
