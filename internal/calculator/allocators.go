package calculator

import (
	"fmt"
	"maps"
	"math"
	"slices"

	"github.com/mmynk/tipsplit/internal/models"
)

// normalizeTolerance is how far a percentage total may sit from 100
// before it is reported as normalized.
const normalizeTolerance = 0.01

// demoRoleWeights drives RuleCustom. It is a placeholder carried over from
// the product demo and ignores the template's own configuration.
var demoRoleWeights = map[string]float64{
	"server":    1.0,
	"bartender": 0.8,
	"busser":    0.5,
}

// demoDefaultWeight applies to roles missing from demoRoleWeights.
const demoDefaultWeight = 1.0

// allocateRemainder dispatches the pool left after off-the-top carve-outs
// to the configured rule.
func allocateRemainder(ps []models.Participant, rules models.TipRules, residual int64) ([]int64, []string) {
	if residual <= 0 {
		return make([]int64, len(ps)), nil
	}
	switch models.ParseRuleType(string(rules.Type)) {
	case models.RuleHours:
		return allocateHours(ps, residual)
	case models.RulePercentage:
		return allocatePercentage(ps, rules.RoleWeights, residual)
	case models.RuleRoleWeighted:
		return allocateRoleWeighted(ps, rules.RoleWeights, residual)
	case models.RuleHybrid:
		return allocateHybrid(ps, rules.Formula, residual)
	case models.RuleCustom:
		return allocateCustom(ps, residual)
	default:
		return allocateEqual(ps, residual), nil
	}
}

// allocateEqual gives everyone the same share. Leftover cents go to the
// alphabetically first names.
func allocateEqual(ps []models.Participant, residual int64) []int64 {
	per := float64(residual) / float64(len(ps))
	shares := make([]share, len(ps))
	for i := range ps {
		shares[i] = share{slot: i, raw: per}
	}
	return distribute(ps, shares, residual, byName)
}

// weightedShares splits residual proportionally to weights. Slots with
// zero weight still take part in rounding with a zero share.
func weightedShares(weights []float64, total float64, residual int64) []share {
	shares := make([]share, len(weights))
	for i, w := range weights {
		shares[i] = share{slot: i, raw: float64(residual) * w / total}
	}
	return shares
}

func allocateHours(ps []models.Participant, residual int64) ([]int64, []string) {
	hours := make([]float64, len(ps))
	var total float64
	for i, p := range ps {
		if p.Hours != nil && *p.Hours > 0 {
			hours[i] = *p.Hours
			total += *p.Hours
		}
	}
	if total <= 0 {
		return allocateEqual(ps, residual), []string{
			"No hours recorded for any participant; falling back to equal split"}
	}
	return distribute(ps, weightedShares(hours, total, residual), residual, byValueDesc(hours)), nil
}

// allocatePercentage uses explicit participant weights, then the role
// weight mapping, then an equal split.
func allocatePercentage(ps []models.Participant, roleWeights map[string]float64, residual int64) ([]int64, []string) {
	weights := make([]float64, len(ps))
	var total float64
	for i, p := range ps {
		if p.Weight != nil {
			weights[i] = *p.Weight
			total += *p.Weight
		}
	}
	if total > 0 {
		return distribute(ps, weightedShares(weights, total, residual), residual, byValueDesc(weights)), nil
	}

	var warnings []string
	lookup, mappingTotal := foldRoleWeights(roleWeights)
	clear(weights)
	total = 0
	for i, p := range ps {
		weights[i] = lookup[normRole(p.Role)]
		total += weights[i]
	}
	if total <= 0 {
		return allocateEqual(ps, residual), []string{
			"No participant or role percentages configured; falling back to equal split"}
	}
	if math.Abs(mappingTotal-100) > normalizeTolerance {
		warnings = append(warnings, fmt.Sprintf(
			"Role percentages total %s%%; normalized to 100%%", formatNumber(mappingTotal)))
	}
	return distribute(ps, weightedShares(weights, total, residual), residual, byValueDesc(weights)), warnings
}

// foldRoleWeights merges mapping keys that only differ by case or
// surrounding space and returns the positive total.
func foldRoleWeights(roleWeights map[string]float64) (map[string]float64, float64) {
	folded := make(map[string]float64, len(roleWeights))
	var total float64
	for _, role := range slices.Sorted(maps.Keys(roleWeights)) {
		if w := roleWeights[role]; w > 0 {
			folded[normRole(role)] += w
			total += w
		}
	}
	return folded, total
}

// allocateRoleWeighted gives each matched role its weight's share of the
// residual, split evenly among the role's members.
func allocateRoleWeighted(ps []models.Participant, roleWeights map[string]float64, residual int64) ([]int64, []string) {
	folded, _ := foldRoleWeights(roleWeights)

	type matchedRole struct {
		weight  float64
		members []int
	}
	var matched []matchedRole
	var matchedTotal float64
	for _, role := range slices.Sorted(maps.Keys(folded)) {
		members := membersOf(ps, role)
		if len(members) == 0 {
			continue
		}
		matched = append(matched, matchedRole{weight: folded[role], members: members})
		matchedTotal += folded[role]
	}
	if len(matched) == 0 {
		return allocateEqual(ps, residual), []string{
			"No participants matched the configured role weights; falling back to equal split"}
	}

	var warnings []string
	if math.Abs(matchedTotal-100) > normalizeTolerance {
		warnings = append(warnings, fmt.Sprintf(
			"Role weights for matched roles total %s; normalized to 100", formatNumber(matchedTotal)))
	}

	var shares []share
	for _, m := range matched {
		per := float64(residual) * m.weight / matchedTotal / float64(len(m.members))
		for _, slot := range m.members {
			shares = append(shares, share{slot: slot, raw: per})
		}
	}
	return distribute(ps, shares, residual, byName), warnings
}

// allocateCustom splits by the fixed demo weights.
func allocateCustom(ps []models.Participant, residual int64) ([]int64, []string) {
	warnings := []string{fmt.Sprintf(
		"Custom rule uses demo logic (server %s, bartender %s, busser %s, others %s); configure another rule type for real splits",
		formatNumber(demoRoleWeights["server"]), formatNumber(demoRoleWeights["bartender"]),
		formatNumber(demoRoleWeights["busser"]), formatNumber(demoDefaultWeight))}

	weights := make([]float64, len(ps))
	var total float64
	for i, p := range ps {
		w, ok := demoRoleWeights[normRole(p.Role)]
		if !ok {
			w = demoDefaultWeight
		}
		weights[i] = w
		total += w
	}
	return distribute(ps, weightedShares(weights, total, residual), residual, byValueDesc(weights)), warnings
}
