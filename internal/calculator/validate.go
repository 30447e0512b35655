package calculator

import (
	"errors"
	"maps"
	"math"
	"slices"

	"github.com/mmynk/tipsplit/internal/models"
)

// Validate checks the pool and template before any allocation.
//
// Every category is checked: pool, participant list, hours, weights,
// off-the-top percentages, role weights. Within a category only the first
// offender is reported. Failures from several categories are joined.
func Validate(tmpl models.TipTemplate, pool float64) error {
	var errs []error
	if invalidAmount(pool) || pool*100 > MaxPoolCents {
		errs = append(errs, &ValidationError{Kind: KindNegativePool, Value: pool})
	}
	if len(tmpl.Participants) == 0 {
		errs = append(errs, ErrNoParticipants)
	}
	return joinErrors(append(errs, valueErrors(tmpl)...))
}

// ValidateTemplate checks participant and rule values only. A template
// without participants passes; it just cannot be split yet.
func ValidateTemplate(tmpl models.TipTemplate) error {
	return joinErrors(valueErrors(tmpl))
}

func valueErrors(tmpl models.TipTemplate) []error {
	var errs []error
	for _, p := range tmpl.Participants {
		if p.Hours != nil && invalidAmount(*p.Hours) {
			errs = append(errs, &ValidationError{Kind: KindNegativeHours, Participant: p.Name, Value: *p.Hours})
			break
		}
	}
	for _, p := range tmpl.Participants {
		if p.Weight != nil && invalidAmount(*p.Weight) {
			errs = append(errs, &ValidationError{Kind: KindNegativeWeight, Participant: p.Name, Value: *p.Weight})
			break
		}
	}
	for _, rule := range tmpl.Rules.OffTheTop {
		if invalidAmount(rule.Percentage) {
			errs = append(errs, &ValidationError{Kind: KindInvalidOffTheTopPercentage, Role: rule.Role, Value: rule.Percentage})
			break
		}
	}
	for _, role := range slices.Sorted(maps.Keys(tmpl.Rules.RoleWeights)) {
		if w := tmpl.Rules.RoleWeights[role]; invalidAmount(w) {
			errs = append(errs, &ValidationError{Kind: KindInvalidRoleWeight, Role: role, Value: w})
			break
		}
	}
	return errs
}

func joinErrors(errs []error) error {
	switch len(errs) {
	case 0:
		return nil
	case 1:
		return errs[0]
	default:
		return errors.Join(errs...)
	}
}

// invalidAmount reports negative, NaN and infinite values.
func invalidAmount(v float64) bool {
	return !(v >= 0) || math.IsInf(v, 1)
}
