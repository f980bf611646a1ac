package statemachine

import (
	"fmt"
	"strings"

	"pizza-service/models"
)

// Transition defines a valid fulfillment status change
type Transition struct {
	From models.OrderStatus
	To   models.OrderStatus
}

// validTransitions is the authoritative fulfillment lifecycle. An order is
// persisted as pending and settles exactly once.
var validTransitions = []Transition{
	{From: models.StatusPending, To: models.StatusFulfilled},
	{From: models.StatusPending, To: models.StatusFailed},
}

var transitionMap = func() map[Transition]bool {
	m := make(map[Transition]bool, len(validTransitions))
	for _, t := range validTransitions {
		m[t] = true
	}
	return m
}()

// ValidTransitionsFrom returns all valid next states from a given state
func ValidTransitionsFrom(status models.OrderStatus) []models.OrderStatus {
	var nexts []models.OrderStatus
	for _, t := range validTransitions {
		if t.From == status {
			nexts = append(nexts, t.To)
		}
	}
	return nexts
}

// CanTransition checks whether an order may move from one status to another
func CanTransition(from, to models.OrderStatus) error {
	if transitionMap[Transition{From: from, To: to}] {
		return nil
	}
	return fmt.Errorf("invalid transition %s -> %s, valid from %s: %s",
		from, to, from, describeValidFrom(from))
}

// IsTerminal reports whether no further transition is possible
func IsTerminal(status models.OrderStatus) bool {
	return len(ValidTransitionsFrom(status)) == 0
}

func describeValidFrom(status models.OrderStatus) string {
	nexts := ValidTransitionsFrom(status)
	if len(nexts) == 0 {
		return "none (terminal state)"
	}
	names := make([]string, len(nexts))
	for i, s := range nexts {
		names[i] = string(s)
	}
	return strings.Join(names, ", ")
}

// GetAllTransitions returns the full lifecycle for documentation
func GetAllTransitions() []Transition {
	return validTransitions
}
