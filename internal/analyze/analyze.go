// Package analyze computes reachability, ending distances and shortest paths
// over a merged story document.
package analyze

import (
	"fmt"
	"unicode/utf8"

	"storygraph/internal/story"
)

// HighBranching is the number of choices from which a node counts as a hub.
const HighBranching = 4

// Distance is the number of hops from the start node to a node.
type Distance struct {
	Hops      int  `json:"hops"`
	Reachable bool `json:"reachable"`
}

func (d Distance) String() string {
	if !d.Reachable {
		return "unreachable"
	}
	return fmt.Sprintf("%d", d.Hops)
}

// Transition is an edge whose source and target were defined in different
// chapter documents.
type Transition struct {
	From        string `json:"from"`
	To          string `json:"to"`
	ChoiceID    string `json:"choiceId"`
	FromChapter int    `json:"fromChapter"`
	ToChapter   int    `json:"toChapter"`
}

// Stats are the summary figures of a document.
type Stats struct {
	Nodes         int      `json:"nodes"`
	Choices       int      `json:"choices"`
	Endings       int      `json:"endings"`
	AvgBranching  float64  `json:"avgBranching"`
	HighBranching []string `json:"highBranching"`
	AvgTextLength float64  `json:"avgTextLength"`
}

// Report is the result of Analyze. Every id list is in document order.
type Report struct {
	Reachable       []string            `json:"reachable"`
	Orphaned        []string            `json:"orphaned"`
	Unused          []string            `json:"unused"`
	SelfReferencing []string            `json:"selfReferencing"`
	Endings         []string            `json:"endings"`
	EndingDistances map[string]Distance `json:"endingDistances"`
	Transitions     []Transition        `json:"transitions"`
	Stats           Stats               `json:"stats"`
}

// IsReachable reports whether id was reached from the start node.
func (r Report) IsReachable(id string) bool {
	for _, v := range r.Reachable {
		if v == id {
			return true
		}
	}
	return false
}

// Step is one choice on a path through the story.
type Step struct {
	NodeID   string        `json:"nodeId"`
	ChoiceID string        `json:"choiceId"`
	Outcome  story.Outcome `json:"outcome,omitempty"`
	To       string        `json:"to"`
}

type edge struct {
	choiceID string
	outcome  story.Outcome
	to       string
}

// edges lists the outgoing edges of n that land on an existing node.
func edges(doc *story.Document, n *story.Node) []edge {
	var out []edge
	for i := range n.Choices {
		c := &n.Choices[i]
		switch c.Kind() {
		case story.ChoiceDirect:
			out = append(out, edge{choiceID: c.ID, to: c.Next})
		case story.ChoiceCheck:
			if to := c.Check.SuccessNodeID; to != "" {
				out = append(out, edge{choiceID: c.ID, outcome: story.OutcomeSuccess, to: to})
			}
			if to := c.Check.FailureNodeID; to != "" {
				out = append(out, edge{choiceID: c.ID, outcome: story.OutcomeFailure, to: to})
			}
		}
	}
	kept := out[:0]
	for _, e := range out {
		if doc.Has(e.to) {
			kept = append(kept, e)
		}
	}
	return kept
}

type visit struct {
	hops int
	from string
	via  edge
}

// walk runs a breadth-first search from the start node. Each node is visited
// once, so cycles terminate without a depth limit.
func walk(doc *story.Document) (map[string]visit, error) {
	if doc == nil || !doc.Has(doc.StartNodeID) {
		return nil, story.ErrStartNodeMissing
	}
	seen := map[string]visit{doc.StartNodeID: {}}
	queue := []string{doc.StartNodeID}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		n, _ := doc.Node(id)
		for _, e := range edges(doc, n) {
			if _, ok := seen[e.to]; ok {
				continue
			}
			seen[e.to] = visit{hops: seen[id].hops + 1, from: id, via: e}
			queue = append(queue, e.to)
		}
	}
	return seen, nil
}

// Reach returns the hop distance of every node reachable from the start node.
func Reach(doc *story.Document) (map[string]int, error) {
	seen, err := walk(doc)
	if err != nil {
		return nil, err
	}
	out := make(map[string]int, len(seen))
	for id, v := range seen {
		out[id] = v.hops
	}
	return out, nil
}

// Analyze builds the full report for doc. The document is not modified.
func Analyze(doc *story.Document) (Report, error) {
	seen, err := walk(doc)
	if err != nil {
		return Report{}, err
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

	r := Report{
		Reachable:       []string{},
		Orphaned:        []string{},
		Unused:          []string{},
		SelfReferencing: []string{},
		Endings:         []string{},
		EndingDistances: map[string]Distance{},
		Transitions:     []Transition{},
		Stats:           Stats{HighBranching: []string{}},
	}
	var textRunes int
	for _, n := range doc.Nodes() {
		v, reached := seen[n.ID]
		if reached {
			r.Reachable = append(r.Reachable, n.ID)
		}
		if n.ID != doc.StartNodeID {
			if !reached {
				r.Orphaned = append(r.Orphaned, n.ID)
			}
			if !targeted[n.ID] {
				r.Unused = append(r.Unused, n.ID)
			}
		}
		if n.IsEnding() {
			r.Endings = append(r.Endings, n.ID)
			r.EndingDistances[n.ID] = Distance{Hops: v.hops, Reachable: reached}
		}

		self := false
		for i := range n.Choices {
			c := &n.Choices[i]
			for _, to := range c.Targets() {
				if to == n.ID {
					self = true
					continue
				}
				if !doc.Has(to) {
					continue
				}
				from, dest := doc.Origin(n.ID), doc.Origin(to)
				if from != dest {
					r.Transitions = append(r.Transitions, Transition{
						From: n.ID, To: to, ChoiceID: c.ID, FromChapter: from, ToChapter: dest,
					})
				}
			}
		}
		if self {
			r.SelfReferencing = append(r.SelfReferencing, n.ID)
		}

		r.Stats.Choices += len(n.Choices)
		if len(n.Choices) >= HighBranching {
			r.Stats.HighBranching = append(r.Stats.HighBranching, n.ID)
		}
		textRunes += utf8.RuneCountInString(n.Text)
	}

	r.Stats.Nodes = doc.Len()
	r.Stats.Endings = len(r.Endings)
	if r.Stats.Nodes > 0 {
		r.Stats.AvgBranching = float64(r.Stats.Choices) / float64(r.Stats.Nodes)
		r.Stats.AvgTextLength = float64(textRunes) / float64(r.Stats.Nodes)
	}
	return r, nil
}

// ShortestPath returns the choices that lead from the start node to target in
// the fewest hops. It reports false when target is unknown or unreachable.
func ShortestPath(doc *story.Document, target string) ([]Step, bool) {
	seen, err := walk(doc)
	if err != nil {
		return nil, false
	}
	v, ok := seen[target]
	if !ok {
		return nil, false
	}
	steps := make([]Step, v.hops)
	for id := target; id != doc.StartNodeID; id = seen[id].from {
		cur := seen[id]
		steps[cur.hops-1] = Step{NodeID: cur.from, ChoiceID: cur.via.choiceID, Outcome: cur.via.outcome, To: id}
	}
	return steps, true
}
