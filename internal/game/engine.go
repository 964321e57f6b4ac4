package game

import (
	"fmt"
	"maps"

	"storygraph/internal/story"
)

// Cursor walks one playthrough of a document. A Cursor is not safe for
// concurrent use.
type Cursor struct {
	doc     *story.Document
	nodeID  string
	skills  map[string]int
	history []string
}

// Begin places a new cursor on the start node with the given skills. A nil
// skills map starts from DefaultSkills.
func Begin(doc *story.Document, skills map[string]int) (*Cursor, error) {
	if doc == nil || !doc.Has(doc.StartNodeID) {
		return nil, story.ErrStartNodeMissing
	}
	if skills == nil {
		skills = DefaultSkills()
	}
	return &Cursor{
		doc:     doc,
		nodeID:  doc.StartNodeID,
		skills:  maps.Clone(skills),
		history: []string{doc.StartNodeID},
	}, nil
}

// Resume rebuilds a cursor from a snapshot.
func Resume(doc *story.Document, st State) (*Cursor, error) {
	if doc == nil {
		return nil, story.ErrStartNodeMissing
	}
	if !doc.Has(st.NodeID) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownNode, st.NodeID)
	}
	c := &Cursor{
		doc:     doc,
		nodeID:  st.NodeID,
		skills:  maps.Clone(st.Skills),
		history: append([]string(nil), st.History...),
	}
	if c.skills == nil {
		c.skills = map[string]int{}
	}
	if len(c.history) == 0 {
		c.history = []string{st.NodeID}
	}
	return c, nil
}

// Snapshot returns a copy of the cursor state.
func (c *Cursor) Snapshot() State {
	return State{NodeID: c.nodeID, Skills: c.Skills(), History: c.History()}
}

// Current returns the node the cursor is on.
func (c *Cursor) Current() *story.Node {
	n, _ := c.doc.Node(c.nodeID)
	return n
}

func (c *Cursor) NodeID() string { return c.nodeID }

// Skills returns a copy of the skill state.
func (c *Cursor) Skills() map[string]int { return maps.Clone(c.skills) }

// History returns the visited node ids, oldest first.
func (c *Cursor) History() []string { return append([]string(nil), c.history...) }

// IsEnded reports whether the current node is an ending.
func (c *Cursor) IsEnded() bool { return c.Current().IsEnding() }

// Selectable reports whether every requirement of ch is met.
func (c *Cursor) Selectable(ch *story.Choice) bool {
	for skill, min := range ch.Requirements {
		if c.skills[skill] < min {
			return false
		}
	}
	return true
}

// View lists the current node with only its selectable choices.
func (c *Cursor) View() View {
	n := c.Current()
	v := View{NodeID: n.ID, Title: n.Title, Text: n.Text, Ended: n.IsEnding(), Choices: []ChoiceView{}}
	for i := range n.Choices {
		ch := &n.Choices[i]
		if !c.Selectable(ch) {
			continue
		}
		cv := ChoiceView{ID: ch.ID, Text: ch.Text}
		if ch.Kind() == story.ChoiceCheck {
			cv.Skill = ch.Check.Skill
			cv.Difficulty = ch.Check.Difficulty
		}
		v.Choices = append(v.Choices, cv)
	}
	return v
}

// ApplyChoice takes the choice with id choiceID from the current node. Skill
// checks are resolved by the caller and passed as outcome; direct choices
// ignore it. On error the cursor is left unchanged.
func (c *Cursor) ApplyChoice(choiceID string, outcome story.Outcome) (Transition, error) {
	n := c.Current()
	ch, ok := n.Choice(choiceID)
	if !ok {
		return Transition{}, fmt.Errorf("%w: %q at %s", ErrUnknownChoice, choiceID, n.ID)
	}
	if !c.Selectable(ch) {
		return Transition{}, fmt.Errorf("%w: %q at %s", ErrRequirementNotMet, choiceID, n.ID)
	}
	if ch.Kind() == story.ChoiceCheck && outcome == story.OutcomeNone {
		return Transition{}, fmt.Errorf("%w: %q at %s", ErrOutcomeRequired, choiceID, n.ID)
	}
	if ch.Kind() != story.ChoiceCheck {
		outcome = story.OutcomeNone
	}

	next, ok := ch.Destination(outcome)
	if !ok || !c.doc.Has(next) {
		return Transition{}, fmt.Errorf("%w: %q from %s/%s", ErrDanglingTarget, next, n.ID, choiceID)
	}

	effects := maps.Clone(ch.EffectsFor(outcome))
	for skill, delta := range effects {
		c.skills[skill] += delta
	}
	c.nodeID = next
	c.history = append(c.history, next)

	return Transition{
		From:     n.ID,
		To:       next,
		ChoiceID: choiceID,
		Outcome:  outcome,
		Effects:  effects,
		Ended:    c.IsEnded(),
	}, nil
}
