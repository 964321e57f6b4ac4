package game

import (
	"crypto/rand"
	"encoding/binary"
	"errors"
	"fmt"

	"storygraph/internal/story"
)

// Skill names used by the stock chapters.
const (
	SkillTech    = "tech"
	SkillLogical = "logical"
	SkillEmpathy = "empathy"
)

// DefaultSkills returns the starting skill state of a new playthrough.
func DefaultSkills() map[string]int {
	return map[string]int{
		SkillTech:    5,
		SkillLogical: 5,
		SkillEmpathy: 5,
	}
}

// Bounds for a single skill in a starting allocation.
const (
	MinSkill = 1
	MaxSkill = 9
)

// ErrInvalidAllocation is returned when a starting skill spread breaks the
// point-buy rules.
var ErrInvalidAllocation = errors.New("invalid skill allocation")

// AllocateSkills turns a player's starting spread into a skill state. The
// spread may only move the default points between the stock skills: each
// skill stays within MinSkill..MaxSkill and the total is unchanged. Skills
// left out keep their default. An empty spread yields DefaultSkills.
func AllocateSkills(spread map[string]int) (map[string]int, error) {
	skills := DefaultSkills()
	budget := 0
	for _, v := range skills {
		budget += v
	}
	for name, v := range spread {
		if _, ok := skills[name]; !ok {
			return nil, fmt.Errorf("%w: unknown skill %q", ErrInvalidAllocation, name)
		}
		if v < MinSkill || v > MaxSkill {
			return nil, fmt.Errorf("%w: %s must be between %d and %d", ErrInvalidAllocation, name, MinSkill, MaxSkill)
		}
		skills[name] = v
	}
	total := 0
	for _, v := range skills {
		total += v
	}
	if total != budget {
		return nil, fmt.Errorf("%w: skills add up to %d, want %d", ErrInvalidAllocation, total, budget)
	}
	return skills, nil
}

// Roller produces die rolls.
type Roller interface {
	Roll(sides int) int
}

// CryptoRoller rolls with crypto/rand.
type CryptoRoller struct{}

func (CryptoRoller) Roll(sides int) int {
	if sides < 1 {
		return 0
	}
	var b [8]byte
	_, _ = rand.Read(b[:])
	n := binary.LittleEndian.Uint64(b[:])
	return int(n%uint64(sides)) + 1
}

// CheckResult is the detail of a resolved skill check.
type CheckResult struct {
	Roll    int  `json:"roll"`
	Stat    int  `json:"stat"`
	Total   int  `json:"total"`
	DC      int  `json:"dc"`
	Success bool `json:"success"`
}

// Outcome maps the result onto a traversal outcome.
func (r CheckResult) Outcome() story.Outcome {
	if r.Success {
		return story.OutcomeSuccess
	}
	return story.OutcomeFailure
}

// ResolveCheck rolls a d20 and adds the checked skill. The check succeeds when
// the total meets the difficulty class.
func ResolveCheck(roller Roller, rules story.Rules, check *story.SkillCheck, skills map[string]int) CheckResult {
	res := CheckResult{
		Roll: roller.Roll(20),
		Stat: skills[check.Skill],
		DC:   rules.DC(check.Difficulty),
	}
	res.Total = res.Roll + res.Stat
	res.Success = res.Total >= res.DC
	return res
}
