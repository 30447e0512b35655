package calculator

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/mmynk/tipsplit/internal/models"
)

// FormulaEntry is one "role:pct" term of a hybrid formula.
type FormulaEntry struct {
	Role       string
	Percentage float64
}

// ParseFormula parses "role:pct, role:pct". A trailing % on the
// percentage is accepted. Malformed or negative terms are returned in
// invalid and left out of entries.
func ParseFormula(formula string) (entries []FormulaEntry, invalid []string) {
	for _, term := range strings.Split(formula, ",") {
		term = strings.TrimSpace(term)
		if term == "" {
			continue
		}
		role, pctText, ok := strings.Cut(term, ":")
		role = strings.TrimSpace(role)
		pctText = strings.TrimSuffix(strings.TrimSpace(pctText), "%")
		if !ok || role == "" {
			invalid = append(invalid, term)
			continue
		}
		pct, err := strconv.ParseFloat(strings.TrimSpace(pctText), 64)
		if err != nil || invalidAmount(pct) {
			invalid = append(invalid, term)
			continue
		}
		entries = append(entries, FormulaEntry{Role: role, Percentage: pct})
	}
	return entries, invalid
}

// allocateHybrid splits the residual by formula role percentages.
//
// The share of a formula role with no participants is handed to the
// participants no matched formula role covers; when everyone is covered
// it is spread over the matched roles instead.
func allocateHybrid(ps []models.Participant, formula string, residual int64) ([]int64, []string) {
	var warnings []string
	entries, invalid := ParseFormula(formula)
	for _, term := range invalid {
		warnings = append(warnings, fmt.Sprintf("Ignored invalid formula entry %q", term))
	}

	var formulaTotal float64
	for _, e := range entries {
		formulaTotal += e.Percentage
	}
	if len(entries) == 0 || formulaTotal <= 0 {
		warnings = append(warnings, "Hybrid formula is empty or invalid; falling back to equal split")
		return allocateEqual(ps, residual), warnings
	}

	scale := 1.0
	if math.Abs(formulaTotal-100) > normalizeTolerance {
		scale = 100 / formulaTotal
		warnings = append(warnings, fmt.Sprintf(
			"Formula percentages total %s%%; normalized to 100%%", formatNumber(formulaTotal)))
	}

	type matchedEntry struct {
		pct     float64
		members []int
	}
	var matched []matchedEntry
	var matchedPct, unallocated float64
	raw := make([]float64, len(ps))
	covered := make([]bool, len(ps))

	for _, e := range entries {
		pct := e.Percentage * scale
		members := membersOf(ps, e.Role)
		if len(members) == 0 {
			warnings = append(warnings, fmt.Sprintf(
				"Formula role %q has no participants; skipped", e.Role))
			unallocated += float64(residual) * pct / 100
			continue
		}
		matched = append(matched, matchedEntry{pct: pct, members: members})
		matchedPct += pct
		per := float64(residual) * pct / 100 / float64(len(members))
		for _, slot := range members {
			raw[slot] += per
			covered[slot] = true
		}
	}

	// Unmatched shares are rounded to whole cents up front and distributed
	// on their own, so the warning reports exactly what moved.
	moved := min(max(int64(math.Round(unallocated)), 0), residual)
	alloc := distribute(ps, coveredShares(raw, covered), residual-moved, byName)
	if moved == 0 {
		return alloc, warnings
	}

	var uncovered []int
	for slot, ok := range covered {
		if !ok {
			uncovered = append(uncovered, slot)
		}
	}

	extra := make([]float64, len(ps))
	target := make([]bool, len(ps))
	switch {
	case len(uncovered) > 0:
		per := float64(moved) / float64(len(uncovered))
		for _, slot := range uncovered {
			extra[slot] = per
			target[slot] = true
		}
		warnings = append(warnings, fmt.Sprintf(
			"Redistributed %d cents equally among %d participants not covered by the formula", moved, len(uncovered)))
	default:
		// Every participant belongs to a matched role. Spread pro rata by
		// formula percentage, or evenly when the matched roles are all 0%.
		var members int
		for _, m := range matched {
			members += len(m.members)
		}
		for _, m := range matched {
			per := float64(moved) / float64(members)
			if matchedPct > 0 {
				per = float64(moved) * m.pct / matchedPct / float64(len(m.members))
			}
			for _, slot := range m.members {
				extra[slot] += per
				target[slot] = true
			}
		}
		warnings = append(warnings, fmt.Sprintf(
			"Redistributed %d cents across formula roles with participants", moved))
	}

	for slot, cents := range distribute(ps, coveredShares(extra, target), moved, byName) {
		alloc[slot] += cents
	}
	return alloc, warnings
}

// coveredShares turns per-slot raw amounts into shares for the flagged slots.
func coveredShares(raw []float64, covered []bool) []share {
	var shares []share
	for slot, ok := range covered {
		if ok {
			shares = append(shares, share{slot: slot, raw: raw[slot]})
		}
	}
	return shares
}
