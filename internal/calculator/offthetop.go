package calculator

import (
	"fmt"
	"math"
	"strconv"

	"github.com/mmynk/tipsplit/internal/models"
)

// offTheTopResult holds the carve-outs taken before the main split.
type offTheTopResult struct {
	alloc     []int64
	remainder int64
	warnings  []string
}

// allocateOffTheTop takes each role's percentage of the whole pool and
// splits it evenly among that role's members.
//
// Percentages totaling more than 100 are scaled down proportionally.
// Rounding each role's target can overshoot the pool by a few cents; the
// overshoot is trimmed from participants in reverse alphabetical order.
func allocateOffTheTop(ps []models.Participant, pool int64, rules []models.OffTheTopRule) offTheTopResult {
	res := offTheTopResult{alloc: make([]int64, len(ps)), remainder: pool}

	var sum float64
	for _, r := range rules {
		sum += math.Max(r.Percentage, 0)
	}
	if sum <= 0 {
		return res
	}

	scale := 1.0
	if sum > 100 {
		scale = 100 / sum
		res.warnings = append(res.warnings, fmt.Sprintf(
			"Off-the-top percentages total %s%%; clamped proportionally to 100%%", formatNumber(sum)))
	}

	var total int64
	for _, r := range rules {
		pct := math.Max(r.Percentage, 0) * scale
		if pct <= 0 {
			continue
		}
		members := membersOf(ps, r.Role)
		if len(members) == 0 {
			res.warnings = append(res.warnings, fmt.Sprintf(
				"No participants found for off-the-top role %q; skipped", r.Role))
			continue
		}

		target := int64(math.Round(float64(pool) * pct / 100))
		per := float64(target) / float64(len(members))
		shares := make([]share, len(members))
		for i, slot := range members {
			shares[i] = share{slot: slot, raw: per}
		}
		for slot, cents := range distribute(ps, shares, target, byName) {
			res.alloc[slot] += cents
			total += cents
		}
	}

	if over := total - pool; over > 0 {
		trimmed := trimDescending(ps, res.alloc, over)
		total -= trimmed
		res.warnings = append(res.warnings, fmt.Sprintf(
			"Off-the-top allocations exceeded the pool by %d cents; overflow adjusted", trimmed))
	}

	res.remainder = max(pool-total, 0)
	return res
}

// trimDescending removes up to n cents, one at a time, from slots holding
// money in reverse alphabetical order. It returns the cents removed.
func trimDescending(ps []models.Participant, alloc []int64, n int64) int64 {
	order := orderedSlots(ps, func(ps []models.Participant, a, b int) int { return byName(ps, b, a) })
	var removed int64
	for removed < n {
		progressed := false
		for _, slot := range order {
			if removed == n {
				break
			}
			if alloc[slot] > 0 {
				alloc[slot]--
				removed++
				progressed = true
			}
		}
		if !progressed {
			break
		}
	}
	return removed
}

// formatNumber renders a percentage or weight with at most two decimals.
func formatNumber(v float64) string {
	return strconv.FormatFloat(math.Round(v*100)/100, 'f', -1, 64)
}
