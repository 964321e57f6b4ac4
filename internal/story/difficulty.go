package story

import (
	"fmt"
	"strings"
)

// Difficulty classifies a skill check. Valid values are ordered from easy to hard.
type Difficulty int

const (
	DifficultyInvalid Difficulty = iota
	DifficultyEasy
	DifficultyMedium
	DifficultyHard
)

var difficultyNames = map[Difficulty]string{
	DifficultyEasy:   "easy",
	DifficultyMedium: "medium",
	DifficultyHard:   "hard",
}

// Difficulties lists the recognised classes in order.
func Difficulties() []Difficulty {
	return []Difficulty{DifficultyEasy, DifficultyMedium, DifficultyHard}
}

// ParseDifficulty maps a class name to its Difficulty. Unknown names yield
// DifficultyInvalid and false.
func ParseDifficulty(s string) (Difficulty, bool) {
	for d, name := range difficultyNames {
		if name == s {
			return d, true
		}
	}
	return DifficultyInvalid, false
}

// Valid reports whether d is one of the recognised classes.
func (d Difficulty) Valid() bool {
	_, ok := difficultyNames[d]
	return ok
}

func (d Difficulty) String() string {
	if name, ok := difficultyNames[d]; ok {
		return name
	}
	return "invalid"
}

func (d Difficulty) MarshalText() ([]byte, error) {
	if !d.Valid() {
		return nil, fmt.Errorf("invalid difficulty %d", int(d))
	}
	return []byte(d.String()), nil
}

func (d *Difficulty) UnmarshalText(b []byte) error {
	v, ok := ParseDifficulty(string(b))
	if !ok {
		return fmt.Errorf("unknown difficulty %q (must be one of: %s)", b, strings.Join(difficultyList(), "|"))
	}
	*d = v
	return nil
}

func difficultyList() []string {
	out := make([]string, 0, len(difficultyNames))
	for _, d := range Difficulties() {
		out = append(out, d.String())
	}
	return out
}

// Rules holds document-wide game rules.
type Rules struct {
	// DifficultyClasses maps each difficulty to the total a check must reach.
	DifficultyClasses map[Difficulty]int
}

// DefaultRules returns the classic classes: easy 10, medium 15, hard 20.
func DefaultRules() Rules {
	return Rules{DifficultyClasses: map[Difficulty]int{
		DifficultyEasy:   10,
		DifficultyMedium: 15,
		DifficultyHard:   20,
	}}
}

// DC returns the target total for a difficulty. Unknown classes fall back to
// the easy class.
func (r Rules) DC(d Difficulty) int {
	if dc, ok := r.DifficultyClasses[d]; ok {
		return dc
	}
	if dc, ok := DefaultRules().DifficultyClasses[d]; ok {
		return dc
	}
	return DefaultRules().DifficultyClasses[DifficultyEasy]
}

// isDefault reports whether r carries exactly the default classes.
func (r Rules) isDefault() bool {
	def := DefaultRules().DifficultyClasses
	if len(r.DifficultyClasses) != len(def) {
		return false
	}
	for d, dc := range def {
		if r.DifficultyClasses[d] != dc {
			return false
		}
	}
	return true
}
