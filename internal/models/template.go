package models

import (
	"encoding/json"
	"strings"
)

// RuleType identifies how the pool left after off-the-top carve-outs is split.
type RuleType string

const (
	RuleEqual        RuleType = "equal"
	RuleHours        RuleType = "hours"
	RulePercentage   RuleType = "percentage"
	RuleRoleWeighted RuleType = "roleWeighted"
	RuleHybrid       RuleType = "hybrid"
	RuleCustom       RuleType = "custom"
)

// ruleAliases maps folded spellings (lowercase, no separators) to rule types.
// Older clients stored a handful of variants we still need to read.
var ruleAliases = map[string]RuleType{
	"equal":        RuleEqual,
	"even":         RuleEqual,
	"hours":        RuleHours,
	"hoursbased":   RuleHours,
	"hourly":       RuleHours,
	"percentage":   RulePercentage,
	"percent":      RulePercentage,
	"roleweighted": RuleRoleWeighted,
	"role":         RuleRoleWeighted,
	"weighted":     RuleRoleWeighted,
	"hybrid":       RuleHybrid,
	"formula":      RuleHybrid,
	"custom":       RuleCustom,
}

// ParseRuleType decodes a human-readable rule type.
// Matching ignores case, spaces, dashes and underscores. Anything
// unrecognized decodes to RuleEqual.
func ParseRuleType(s string) RuleType {
	folded := strings.Map(func(r rune) rune {
		switch r {
		case ' ', '-', '_':
			return -1
		}
		return r
	}, strings.ToLower(strings.TrimSpace(s)))
	if rt, ok := ruleAliases[folded]; ok {
		return rt
	}
	return RuleEqual
}

// String returns the canonical spelling.
func (r RuleType) String() string {
	return string(r)
}

// UnmarshalText implements encoding.TextUnmarshaler. It never fails.
func (r *RuleType) UnmarshalText(text []byte) error {
	*r = ParseRuleType(string(text))
	return nil
}

// UnmarshalJSON accepts any JSON value; non-strings decode to RuleEqual.
func (r *RuleType) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		*r = RuleEqual
		return nil
	}
	*r = ParseRuleType(s)
	return nil
}

// Participant is one person sharing the pool.
type Participant struct {
	// ID uniquely identifies the participant within a template.
	ID string `json:"id"`

	// Name is the display name, also used for deterministic ordering.
	Name string `json:"name"`

	// Role is matched case-insensitively against rule roles (e.g. "server").
	Role string `json:"role"`

	// Hours worked; nil when not tracked.
	Hours *float64 `json:"hours,omitempty"`

	// Weight is an explicit percentage weight; nil when not set.
	Weight *float64 `json:"weight,omitempty"`

	// CalculatedAmount is set only by the calculator.
	CalculatedAmount *float64 `json:"calculatedAmount,omitempty"`
}

// OffTheTopRule carves a percentage of the whole pool out for one role
// before the main rule runs.
type OffTheTopRule struct {
	Role       string  `json:"role"`
	Percentage float64 `json:"percentage"`
}

// TipRules configures the allocation.
type TipRules struct {
	Type RuleType `json:"type"`

	// Formula is used by RuleHybrid, formatted "role:pct, role:pct".
	Formula string `json:"formula,omitempty"`

	// RoleWeights is used by RuleRoleWeighted and as the RulePercentage fallback.
	RoleWeights map[string]float64 `json:"roleWeights,omitempty"`

	OffTheTop []OffTheTopRule `json:"offTheTop,omitempty"`
}

// TipTemplate aggregates rules and the ordered participant list.
type TipTemplate struct {
	// ID is the unique identifier for the template (UUID format).
	ID string `json:"id,omitempty"`

	Name         string        `json:"name"`
	Rules        TipRules      `json:"rules"`
	Participants []Participant `json:"participants"`

	// CreatedAt and UpdatedAt are Unix timestamps set by storage.
	CreatedAt int64 `json:"createdAt,omitempty"`
	UpdatedAt int64 `json:"updatedAt,omitempty"`
}
