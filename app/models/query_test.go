package models

import "testing"

func TestIsFullyResolved(t *testing.T) {
	q := ResolvedQuery{Intent: IntentNetCalculation}
	if !q.IsFullyResolved() {
		t.Error("query with no open slots should be fully resolved")
	}

	q.UnresolvedSlots = []string{SlotProgram}
	if q.IsFullyResolved() {
		t.Error("query with an open slot must not be fully resolved")
	}
}
