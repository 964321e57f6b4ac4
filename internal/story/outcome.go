package story

import "fmt"

// Outcome is the externally supplied result of a skill check.
type Outcome int

const (
	OutcomeNone Outcome = iota
	OutcomeSuccess
	OutcomeFailure
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "success"
	case OutcomeFailure:
		return "failure"
	default:
		return "none"
	}
}

// ParseOutcome accepts "success", "failure" and the empty string.
func ParseOutcome(s string) (Outcome, error) {
	switch s {
	case "":
		return OutcomeNone, nil
	case "success":
		return OutcomeSuccess, nil
	case "failure":
		return OutcomeFailure, nil
	}
	return OutcomeNone, fmt.Errorf("unknown outcome %q", s)
}

func (o Outcome) MarshalText() ([]byte, error) {
	if o == OutcomeNone {
		return []byte{}, nil
	}
	return []byte(o.String()), nil
}

func (o *Outcome) UnmarshalText(b []byte) error {
	v, err := ParseOutcome(string(b))
	if err != nil {
		return err
	}
	*o = v
	return nil
}

// Destination returns the node a choice leads to. Direct choices ignore the
// outcome; check choices require success or failure. The second result is
// false when no destination applies.
func (c *Choice) Destination(o Outcome) (string, bool) {
	switch c.Kind() {
	case ChoiceDirect:
		return c.Next, true
	case ChoiceCheck:
		switch o {
		case OutcomeSuccess:
			return c.Check.SuccessNodeID, c.Check.SuccessNodeID != ""
		case OutcomeFailure:
			return c.Check.FailureNodeID, c.Check.FailureNodeID != ""
		}
	}
	return "", false
}

// EffectsFor returns the stat deltas applied when the choice resolves with o.
// Branch effects, when present, replace the choice effects.
func (c *Choice) EffectsFor(o Outcome) map[string]int {
	if c.Kind() == ChoiceCheck && c.Check.HasBranchEffects() {
		if o == OutcomeSuccess {
			return c.Check.SuccessEffects
		}
		return c.Check.FailureEffects
	}
	return c.Effects
}
