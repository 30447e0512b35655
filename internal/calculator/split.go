// Package calculator divides a pool of money among participants.
//
// Amounts are handled in whole minor units (cents) once the pool has been
// converted, so a successful split always sums exactly to the pool.
// The package is pure: it performs no I/O and keeps no state between
// calls, so it is safe for concurrent use on independent inputs.
package calculator

import (
	"log/slog"
	"slices"
	"strings"

	"github.com/mmynk/tipsplit/internal/models"
)

// ComputeSplits divides pool according to tmpl's rules. It never fails:
// invalid input yields the original participants, untouched, and a single
// warning describing the problem.
func ComputeSplits(tmpl models.TipTemplate, pool float64) models.SplitResult {
	result, err := Calculate(tmpl, pool)
	if err != nil {
		return RejectedResult(tmpl, err)
	}
	return result
}

// RejectedResult echoes tmpl's participants with a single warning
// describing err.
func RejectedResult(tmpl models.TipTemplate, err error) models.SplitResult {
	return models.SplitResult{
		Participants: slices.Clone(tmpl.Participants),
		Warnings:     []string{ValidationWarning(err)},
	}
}

// Calculate is ComputeSplits with validation failures returned as errors.
// The error is a *ValidationError, or several joined with errors.Join.
func Calculate(tmpl models.TipTemplate, pool float64) (models.SplitResult, error) {
	if err := Validate(tmpl, pool); err != nil {
		return models.SplitResult{}, err
	}

	ps := tmpl.Participants
	cents := ToMinorUnits(pool)

	off := allocateOffTheTop(ps, cents, tmpl.Rules.OffTheTop)
	warnings := off.warnings

	rest, restWarnings := allocateRemainder(ps, tmpl.Rules, off.remainder)
	warnings = append(warnings, restWarnings...)

	totals, drift := combine(ps, cents, off.alloc, rest)
	if drift != 0 {
		slog.Warn("Split total drifted from pool; corrected",
			"rule", models.ParseRuleType(string(tmpl.Rules.Type)),
			"drift_cents", drift,
			"pool_cents", cents,
		)
	}

	return assemble(ps, totals, warnings), nil
}

// ValidationWarning renders a validation error as one warning line.
func ValidationWarning(err error) string {
	return "Validation failed: " + strings.ReplaceAll(err.Error(), "\n", "; ")
}

// assemble copies the participants and writes their final amounts.
func assemble(ps []models.Participant, totals []int64, warnings []string) models.SplitResult {
	out := make([]models.Participant, len(ps))
	for i, p := range ps {
		amount := FromMinorUnits(totals[i])
		p.CalculatedAmount = &amount
		out[i] = p
	}
	if warnings == nil {
		warnings = []string{}
	}
	return models.SplitResult{Participants: out, Warnings: warnings}
}
