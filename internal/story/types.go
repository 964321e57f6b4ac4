package story

import (
	"encoding/json"
)

// Document is a merged, addressable story. It is built by Merge and must be
// treated as read-only by everything downstream.
type Document struct {
	Title       string
	Description string
	StartNodeID string
	Rules       Rules

	nodes    map[string]*Node
	order    []string
	origin   map[string]int
	chapters []ChapterInfo
}

// ChapterInfo describes one of the chapter documents a Document was merged from.
type ChapterInfo struct {
	Index       int
	Title       string
	StartNodeID string
}

// Node is a single scene of the story. A node without choices is an ending.
type Node struct {
	ID      string
	Chapter string
	Title   string
	Text    string
	Choices []Choice
}

// ChoiceKind tells how a choice resolves its destination.
type ChoiceKind int

const (
	// ChoiceDead has neither a next node nor a skill check.
	ChoiceDead ChoiceKind = iota
	// ChoiceDirect moves straight to Next.
	ChoiceDirect
	// ChoiceCheck branches on the outcome of Check.
	ChoiceCheck
)

func (k ChoiceKind) String() string {
	switch k {
	case ChoiceDirect:
		return "direct"
	case ChoiceCheck:
		return "check"
	default:
		return "dead"
	}
}

// Choice is a player action available at a node.
type Choice struct {
	ID           string
	Text         string
	Requirements map[string]int
	Effects      map[string]int
	Next         string
	Check        *SkillCheck
}

// SkillCheck branches a choice on an externally resolved success or failure.
type SkillCheck struct {
	Skill         string
	Difficulty    Difficulty
	RawDifficulty json.RawMessage // literal as written in the chapter, kept for reports
	SuccessNodeID string
	FailureNodeID string

	// Per-branch effects. When either is set they replace the choice effects.
	SuccessEffects map[string]int
	FailureEffects map[string]int
}

// IsEnding reports whether the node is terminal.
func (n *Node) IsEnding() bool {
	return len(n.Choices) == 0
}

// Choice returns the choice with the given id.
func (n *Node) Choice(id string) (*Choice, bool) {
	for i := range n.Choices {
		if n.Choices[i].ID == id {
			return &n.Choices[i], true
		}
	}
	return nil, false
}

// Kind resolves the choice variant. A skill check wins over a next node.
func (c *Choice) Kind() ChoiceKind {
	switch {
	case c.Check != nil:
		return ChoiceCheck
	case c.Next != "":
		return ChoiceDirect
	default:
		return ChoiceDead
	}
}

// Targets returns every node id the choice can lead to: the next node, or the
// success and failure nodes of its skill check. Empty ids are skipped.
func (c *Choice) Targets() []string {
	switch c.Kind() {
	case ChoiceDirect:
		return []string{c.Next}
	case ChoiceCheck:
		out := make([]string, 0, 2)
		if c.Check.SuccessNodeID != "" {
			out = append(out, c.Check.SuccessNodeID)
		}
		if c.Check.FailureNodeID != "" {
			out = append(out, c.Check.FailureNodeID)
		}
		return out
	default:
		return nil
	}
}

// HasBranchEffects reports whether effects are attached to the branches rather
// than to the choice.
func (sc *SkillCheck) HasBranchEffects() bool {
	return sc.SuccessEffects != nil || sc.FailureEffects != nil
}

// Node looks up a node by id.
func (d *Document) Node(id string) (*Node, bool) {
	n, ok := d.nodes[id]
	return n, ok
}

// Has reports whether id keys into the document.
func (d *Document) Has(id string) bool {
	_, ok := d.nodes[id]
	return ok
}

// Len returns the number of nodes.
func (d *Document) Len() int {
	return len(d.order)
}

// IDs returns node ids in merge order.
func (d *Document) IDs() []string {
	out := make([]string, len(d.order))
	copy(out, d.order)
	return out
}

// Nodes returns the nodes in merge order.
func (d *Document) Nodes() []*Node {
	out := make([]*Node, 0, len(d.order))
	for _, id := range d.order {
		out = append(out, d.nodes[id])
	}
	return out
}

// Chapters returns the chapter documents in merge order.
func (d *Document) Chapters() []ChapterInfo {
	out := make([]ChapterInfo, len(d.chapters))
	copy(out, d.chapters)
	return out
}

// Origin returns the index of the chapter document that defined id, or -1.
func (d *Document) Origin(id string) int {
	if i, ok := d.origin[id]; ok {
		return i
	}
	return -1
}
