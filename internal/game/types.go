package game

import (
	"errors"

	"storygraph/internal/story"
)

var (
	// ErrUnknownChoice is returned when the current node has no choice with the given id.
	ErrUnknownChoice = errors.New("unknown choice")
	// ErrRequirementNotMet is returned when a skill is below a choice requirement.
	ErrRequirementNotMet = errors.New("requirement not met")
	// ErrOutcomeRequired is returned when a skill-check choice is applied without an outcome.
	ErrOutcomeRequired = errors.New("skill check needs an outcome")
	// ErrDanglingTarget is returned when a choice leads to a node the document lacks.
	ErrDanglingTarget = errors.New("choice leads to an unknown node")
	// ErrUnknownNode is returned when a saved state points outside the document.
	ErrUnknownNode = errors.New("unknown node")
)

// State is the serialisable part of a playthrough.
type State struct {
	NodeID  string         `json:"nodeId"`
	Skills  map[string]int `json:"skills"`
	History []string       `json:"history"`
}

// Transition describes one successful ApplyChoice.
type Transition struct {
	From     string         `json:"from"`
	To       string         `json:"to"`
	ChoiceID string         `json:"choiceId"`
	Outcome  story.Outcome  `json:"outcome,omitempty"`
	Effects  map[string]int `json:"effects,omitempty"`
	Ended    bool           `json:"ended"`
}

// ChoiceView is a selectable choice as shown to a player.
type ChoiceView struct {
	ID         string           `json:"id"`
	Text       string           `json:"text"`
	Skill      string           `json:"skill,omitempty"`
	Difficulty story.Difficulty `json:"difficulty,omitempty"`
}

// View is what a player sees at the current node.
type View struct {
	NodeID  string       `json:"nodeId"`
	Title   string       `json:"title"`
	Text    string       `json:"text"`
	Ended   bool         `json:"ended"`
	Choices []ChoiceView `json:"choices"`
}
