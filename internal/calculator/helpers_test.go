package calculator

import (
	"strings"
	"testing"

	"github.com/mmynk/tipsplit/internal/models"
)

func ptr(v float64) *float64 { return &v }

func person(id, name, role string) models.Participant {
	return models.Participant{ID: id, Name: name, Role: role}
}

// centsOf returns each participant's calculated amount in cents.
func centsOf(t *testing.T, r models.SplitResult) []int64 {
	t.Helper()
	out := make([]int64, len(r.Participants))
	for i, p := range r.Participants {
		if p.CalculatedAmount == nil {
			t.Fatalf("participant %s has no calculated amount", p.Name)
		}
		out[i] = ToMinorUnits(*p.CalculatedAmount)
	}
	return out
}

func sum(values []int64) int64 {
	var total int64
	for _, v := range values {
		total += v
	}
	return total
}

func hasWarning(r models.SplitResult, fragment string) bool {
	for _, w := range r.Warnings {
		if strings.Contains(w, fragment) {
			return true
		}
	}
	return false
}

