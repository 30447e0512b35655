package calculator

import "fmt"

// ErrorKind tags a validation failure.
type ErrorKind int

const (
	KindNegativePool ErrorKind = iota + 1
	KindNoParticipants
	KindNegativeHours
	KindNegativeWeight
	KindInvalidOffTheTopPercentage
	KindInvalidRoleWeight
)

// String returns the kind name.
func (k ErrorKind) String() string {
	switch k {
	case KindNegativePool:
		return "NegativePool"
	case KindNoParticipants:
		return "NoParticipants"
	case KindNegativeHours:
		return "NegativeHours"
	case KindNegativeWeight:
		return "NegativeWeight"
	case KindInvalidOffTheTopPercentage:
		return "InvalidOffTheTopPercentage"
	case KindInvalidRoleWeight:
		return "InvalidRoleWeight"
	default:
		return fmt.Sprintf("ErrorKind(%d)", int(k))
	}
}

// ValidationError reports input the calculator refuses to split.
// KindNegativePool also covers pools too large to convert to cents.
// Participant is set for hour and weight failures, Role and Value for
// off-the-top and role weight failures.
type ValidationError struct {
	Kind        ErrorKind
	Participant string
	Role        string
	Value       float64
}

// Sentinels for errors.Is. They match any ValidationError of the same kind.
var (
	ErrNegativePool               = &ValidationError{Kind: KindNegativePool}
	ErrNoParticipants             = &ValidationError{Kind: KindNoParticipants}
	ErrNegativeHours              = &ValidationError{Kind: KindNegativeHours}
	ErrNegativeWeight             = &ValidationError{Kind: KindNegativeWeight}
	ErrInvalidOffTheTopPercentage = &ValidationError{Kind: KindInvalidOffTheTopPercentage}
	ErrInvalidRoleWeight          = &ValidationError{Kind: KindInvalidRoleWeight}
)

func (e *ValidationError) Error() string {
	switch e.Kind {
	case KindNegativePool:
		if e.Value*100 > MaxPoolCents {
			return fmt.Sprintf("pool amount %g exceeds the largest supported amount", e.Value)
		}
		return "pool amount must be a non-negative number"
	case KindNoParticipants:
		return "at least one participant is required"
	case KindNegativeHours:
		return fmt.Sprintf("participant %q has negative hours", e.Participant)
	case KindNegativeWeight:
		return fmt.Sprintf("participant %q has a negative weight", e.Participant)
	case KindInvalidOffTheTopPercentage:
		return fmt.Sprintf("off-the-top percentage for role %q must be non-negative, got %g", e.Role, e.Value)
	case KindInvalidRoleWeight:
		return fmt.Sprintf("weight for role %q must be non-negative, got %g", e.Role, e.Value)
	default:
		return "invalid split input"
	}
}

// Is reports whether target is a ValidationError of the same kind.
func (e *ValidationError) Is(target error) bool {
	t, ok := target.(*ValidationError)
	return ok && t.Kind == e.Kind
}
