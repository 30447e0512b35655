// Package models defines the core domain models for tipsplit.
//
// # Models
//
//   - TipTemplate: a reusable description of who shares a pool and how
//   - TipRules: the allocation rule plus its rule-specific configuration
//   - OffTheTopRule: a role carve-out taken from the pool before the main split
//   - Participant: one person sharing the pool
//   - SplitResult: participants with calculated amounts plus warnings
//   - SplitRecord: a stored split computed from a saved template
//
// # Design Principles
//
// 1. **Templates are input**: the calculator never mutates a TipTemplate
// 2. **Amounts are set once**: Participant.CalculatedAmount is nil until a split fills it
// 3. **Lenient decoding**: unknown rule type strings decode to RuleEqual instead of failing
// 4. **Avoid circular references**: use ID strings instead of pointers for relationships
package models
