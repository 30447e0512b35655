package calculator

import (
	"cmp"
	"math"
	"slices"
	"strings"

	"github.com/mmynk/tipsplit/internal/models"
)

// RemainderEpsilon is the tolerance under which two fractional remainders
// are treated as tied when handing out leftover cents.
const RemainderEpsilon = 0.001

// share is a raw fractional amount in minor units for one participant slot.
type share struct {
	slot int
	raw  float64
}

// tieBreak orders two participant slots when their remainders tie.
// It must be total: every comparator ends on ID, then slot.
type tieBreak func(ps []models.Participant, a, b int) int

// byID orders by participant ID, then by position in the template.
func byID(ps []models.Participant, a, b int) int {
	if c := cmp.Compare(ps[a].ID, ps[b].ID); c != 0 {
		return c
	}
	return cmp.Compare(a, b)
}

// byName orders alphabetically by name, then by ID.
func byName(ps []models.Participant, a, b int) int {
	if c := cmp.Compare(ps[a].Name, ps[b].Name); c != 0 {
		return c
	}
	return byID(ps, a, b)
}

// byValueDesc orders by a per-slot value descending, then by name.
func byValueDesc(values []float64) tieBreak {
	return func(ps []models.Participant, a, b int) int {
		if c := cmp.Compare(values[b], values[a]); c != 0 {
			return c
		}
		return byName(ps, a, b)
	}
}

// distribute turns raw shares into whole minor units summing to target.
//
// Each share is floored; the cents lost to flooring go one at a time to
// the slots with the largest fractional remainder. Remainders within
// RemainderEpsilon of each other are ordered by tie.
func distribute(ps []models.Participant, shares []share, target int64, tie tieBreak) []int64 {
	alloc := make([]int64, len(ps))
	if len(shares) == 0 || target <= 0 {
		return alloc
	}

	raw := make([]float64, len(ps))
	included := make([]bool, len(ps))
	for _, s := range shares {
		if s.raw > 0 && !math.IsInf(s.raw, 1) {
			raw[s.slot] += s.raw
		}
		included[s.slot] = true
	}

	frac := make([]float64, len(ps))
	slots := make([]int, 0, len(shares))
	var floorSum int64
	for slot, ok := range included {
		if !ok {
			continue
		}
		base := math.Floor(raw[slot])
		alloc[slot] = int64(base)
		frac[slot] = raw[slot] - base
		floorSum += int64(base)
		slots = append(slots, slot)
	}

	remaining := target - floorSum
	if remaining <= 0 {
		return alloc
	}

	slices.SortStableFunc(slots, func(a, b int) int {
		if d := frac[a] - frac[b]; math.Abs(d) > RemainderEpsilon {
			if d > 0 {
				return -1
			}
			return 1
		}
		return tie(ps, a, b)
	})

	spreadCents(alloc, slots, remaining)
	return alloc
}

// spreadCents adds n cents over slots round-robin, starting at the front.
func spreadCents(alloc []int64, slots []int, n int64) {
	count := int64(len(slots))
	each, extra := n/count, n%count
	for i, slot := range slots {
		alloc[slot] += each
		if int64(i) < extra {
			alloc[slot]++
		}
	}
}

// normRole folds a role label for case-insensitive matching.
func normRole(role string) string {
	return strings.ToLower(strings.TrimSpace(role))
}

// membersOf returns the slots whose role matches role, in template order.
func membersOf(ps []models.Participant, role string) []int {
	want := normRole(role)
	var slots []int
	for i, p := range ps {
		if normRole(p.Role) == want {
			slots = append(slots, i)
		}
	}
	return slots
}

// orderedSlots returns every slot sorted by cmpFn.
func orderedSlots(ps []models.Participant, cmpFn tieBreak) []int {
	slots := make([]int, len(ps))
	for i := range slots {
		slots[i] = i
	}
	slices.SortFunc(slots, func(a, b int) int { return cmpFn(ps, a, b) })
	return slots
}

// MaxPoolCents is the largest pool, in minor units, the engine accepts.
// Beyond 2^53 float64 no longer holds every whole cent exactly.
const MaxPoolCents = 1 << 53

// ToMinorUnits converts a currency amount to whole cents.
// This is the only place a pool is rounded. Amounts above MaxPoolCents
// must be rejected before conversion.
func ToMinorUnits(amount float64) int64 {
	return int64(math.Round(amount * 100))
}

// FromMinorUnits converts cents back to a currency amount.
func FromMinorUnits(cents int64) float64 {
	return float64(cents) / 100
}
