package models

import "math"

// SplitResult is the output of a split calculation.
type SplitResult struct {
	// Participants mirrors the template order with CalculatedAmount set.
	// When validation fails the original participants are echoed untouched.
	Participants []Participant `json:"participants"`

	// Warnings lists every assumption or fallback the calculator applied.
	Warnings []string `json:"warnings"`
}

// TotalCents sums the calculated amounts in minor units.
// Participants without an amount count as zero.
func (r SplitResult) TotalCents() int64 {
	var total int64
	for _, p := range r.Participants {
		if p.CalculatedAmount != nil {
			total += int64(math.Round(*p.CalculatedAmount * 100))
		}
	}
	return total
}

// SplitRecord is a split computed from a stored template.
type SplitRecord struct {
	// ID is the unique identifier for the record (UUID format).
	ID string `json:"id"`

	TemplateID string      `json:"templateId"`
	RuleType   RuleType    `json:"ruleType"`
	Pool       float64     `json:"pool"`
	Result     SplitResult `json:"result"`

	// CreatedAt is the Unix timestamp when the split was recorded.
	CreatedAt int64 `json:"createdAt"`
}
