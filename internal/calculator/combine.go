package calculator

import "github.com/mmynk/tipsplit/internal/models"

// combine sums the per-phase allocations and forces the total onto pool.
//
// Missing cents are added in ascending alphabetical order, surplus cents
// removed in descending order from slots still holding money. drift is
// pool minus the uncorrected sum; it stays zero unless a phase rounded
// badly.
func combine(ps []models.Participant, pool int64, phases ...[]int64) (totals []int64, drift int64) {
	totals = make([]int64, len(ps))
	var sum int64
	for _, phase := range phases {
		for slot, cents := range phase {
			totals[slot] += cents
			sum += cents
		}
	}

	drift = pool - sum
	switch {
	case drift > 0:
		spreadCents(totals, orderedSlots(ps, byName), drift)
	case drift < 0:
		trimDescending(ps, totals, -drift)
	}
	return totals, drift
}
