// Package validate checks the structural integrity of a merged story document.
package validate

import (
	"errors"
	"fmt"
	"strings"

	"storygraph/internal/analyze"
	"storygraph/internal/story"
)

// Kind identifies a class of finding.
type Kind string

const (
	DanglingReference   Kind = "DanglingReference"
	DeadChoice          Kind = "DeadChoice"
	MalformedSkillCheck Kind = "MalformedSkillCheck"
	StartNodeMissing    Kind = "StartNodeMissing"
	MissingField        Kind = "MissingField"
	DuplicateChoiceID   Kind = "DuplicateChoiceID"

	OrphanNode      Kind = "OrphanNode"
	UnusedNode      Kind = "UnusedNode"
	SelfReference   Kind = "SelfReference"
	IgnoredNextNode Kind = "IgnoredNextNode"
)

// Severity of a finding.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Severity returns the severity a kind is always reported with.
func (k Kind) Severity() Severity {
	switch k {
	case OrphanNode, UnusedNode, SelfReference, IgnoredNextNode:
		return SeverityWarning
	default:
		return SeverityError
	}
}

// Finding is one problem found in the graph. ChoiceIndex is -1 when the
// finding is about a node or chapter rather than a choice.
type Finding struct {
	Kind        Kind   `json:"kind"`
	NodeID      string `json:"nodeId,omitempty"`
	ChoiceIndex int    `json:"choiceIndex"`
	ChoiceID    string `json:"choiceId,omitempty"`
	Target      string `json:"target,omitempty"`
	Message     string `json:"message"`
}

func (f Finding) String() string {
	var b strings.Builder
	b.WriteString(string(f.Kind))
	if f.NodeID != "" {
		b.WriteString(" at " + f.NodeID)
	}
	if f.ChoiceIndex >= 0 {
		fmt.Fprintf(&b, " choice %d", f.ChoiceIndex)
		if f.ChoiceID != "" {
			fmt.Fprintf(&b, " (%s)", f.ChoiceID)
		}
	}
	b.WriteString(": " + f.Message)
	return b.String()
}

// Report collects every finding of a validation run.
type Report struct {
	Errors   []Finding `json:"errors"`
	Warnings []Finding `json:"warnings"`
}

// HasErrors reports whether any error-severity finding was recorded.
func (r Report) HasErrors() bool {
	return len(r.Errors) > 0
}

// Count returns how many findings of kind k were recorded.
func (r Report) Count(k Kind) int {
	n := 0
	for _, f := range r.Errors {
		if f.Kind == k {
			n++
		}
	}
	for _, f := range r.Warnings {
		if f.Kind == k {
			n++
		}
	}
	return n
}

// Err joins the error findings into a single error, or returns nil.
func (r Report) Err() error {
	if !r.HasErrors() {
		return nil
	}
	errs := make([]error, 0, len(r.Errors))
	for _, f := range r.Errors {
		errs = append(errs, errors.New(f.String()))
	}
	return errors.Join(errs...)
}

func (r *Report) add(f Finding) {
	if f.Kind.Severity() == SeverityWarning {
		r.Warnings = append(r.Warnings, f)
		return
	}
	r.Errors = append(r.Errors, f)
}

// Validate runs every check against doc and returns all findings. Findings
// follow node order, then choice order, then the order checks are listed in.
func Validate(doc *story.Document) Report {
	r := Report{Errors: []Finding{}, Warnings: []Finding{}}
	if doc == nil {
		r.add(Finding{Kind: StartNodeMissing, ChoiceIndex: -1, Message: "no document"})
		return r
	}

	for _, ch := range doc.Chapters() {
		if ch.Index == 0 || ch.StartNodeID == "" || doc.Has(ch.StartNodeID) {
			continue
		}
		r.add(Finding{
			Kind:        DanglingReference,
			ChoiceIndex: -1,
			Target:      ch.StartNodeID,
			Message:     fmt.Sprintf("chapter %d (%s) starts at unknown node %q", ch.Index+1, ch.Title, ch.StartNodeID),
		})
	}

	reach, err := analyze.Reach(doc)
	if err != nil {
		r.add(Finding{
			Kind:        StartNodeMissing,
			NodeID:      doc.StartNodeID,
			ChoiceIndex: -1,
			Message:     fmt.Sprintf("start node %q is not defined", doc.StartNodeID),
		})
	}

	targeted := map[string]bool{}
	for _, n := range doc.Nodes() {
		for i := range n.Choices {
			for _, to := range n.Choices[i].Targets() {
				if to != n.ID {
					targeted[to] = true
				}
			}
		}
	}

	for _, n := range doc.Nodes() {
		seen := map[string]int{}
		for i := range n.Choices {
			checkChoice(&r, doc, n, i, seen)
		}
		if reach == nil || n.ID == doc.StartNodeID {
			continue
		}
		if _, ok := reach[n.ID]; !ok {
			r.add(Finding{Kind: OrphanNode, NodeID: n.ID, ChoiceIndex: -1,
				Message: "not reachable from the start node"})
		}
		if !targeted[n.ID] {
			r.add(Finding{Kind: UnusedNode, NodeID: n.ID, ChoiceIndex: -1,
				Message: "no choice of another node leads here"})
		}
	}
	return r
}

func checkChoice(r *Report, doc *story.Document, n *story.Node, i int, seen map[string]int) {
	c := &n.Choices[i]
	at := func(k Kind, target, format string, args ...any) {
		r.add(Finding{Kind: k, NodeID: n.ID, ChoiceIndex: i, ChoiceID: c.ID, Target: target,
			Message: fmt.Sprintf(format, args...)})
	}

	if c.ID == "" {
		at(MissingField, "", "choice has no id")
	} else if prev, dup := seen[c.ID]; dup {
		at(DuplicateChoiceID, "", "id %q already used by choice %d", c.ID, prev)
	} else {
		seen[c.ID] = i
	}
	if strings.TrimSpace(c.Text) == "" {
		at(MissingField, "", "choice has no text")
	}

	switch c.Kind() {
	case story.ChoiceDead:
		at(DeadChoice, "", "choice has neither nextNode nor skillCheck")
	case story.ChoiceDirect:
		if !doc.Has(c.Next) {
			at(DanglingReference, c.Next, "nextNode %q does not exist", c.Next)
		}
	case story.ChoiceCheck:
		sc := c.Check
		if sc.Skill == "" {
			at(MalformedSkillCheck, "", "skill check has no skill")
		}
		if !sc.Difficulty.Valid() {
			raw := string(sc.RawDifficulty)
			if raw == "" {
				raw = "missing"
			}
			at(MalformedSkillCheck, "", "difficulty %s is not one of easy|medium|hard", raw)
		}
		for _, branch := range []struct{ name, to string }{
			{"successNode", sc.SuccessNodeID},
			{"failureNode", sc.FailureNodeID},
		} {
			if branch.to == "" {
				at(MalformedSkillCheck, "", "skill check has no %s", branch.name)
			} else if !doc.Has(branch.to) {
				at(DanglingReference, branch.to, "%s %q does not exist", branch.name, branch.to)
			}
		}
	}

	for _, to := range c.Targets() {
		if to == n.ID {
			at(SelfReference, to, "choice leads back to its own node")
			break
		}
	}
	if c.Kind() == story.ChoiceCheck && c.Next != "" {
		at(IgnoredNextNode, c.Next, "nextNode %q is ignored because the skill check decides", c.Next)
	}
}
