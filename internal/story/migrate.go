package story

import (
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"strconv"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// Change records one rewrite performed by a migration.
type Change struct {
	NodeID   string `json:"nodeId"`
	ChoiceID string `json:"choiceId,omitempty"`
	Field    string `json:"field"`
	From     string `json:"from"`
	To       string `json:"to"`
}

func (c Change) String() string {
	loc := c.NodeID
	if c.ChoiceID != "" {
		loc += "/" + c.ChoiceID
	}
	return fmt.Sprintf("%s: %s %s -> %s", loc, c.Field, c.From, c.To)
}

// ClassifyDifficulty maps a legacy numeric difficulty onto the enum. Values up
// to 10 are easy, up to 14 medium, anything above is hard. Non-positive values
// have no class.
func ClassifyDifficulty(n int) (Difficulty, bool) {
	switch {
	case n <= 0:
		return DifficultyInvalid, false
	case n <= 10:
		return DifficultyEasy, true
	case n < 15:
		return DifficultyMedium, true
	default:
		return DifficultyHard, true
	}
}

// NormalizeDifficulties rewrites numeric skill-check difficulties into class
// names. The input chapter is not modified.
func NormalizeDifficulties(ch Chapter) (Chapter, []Change) {
	out := cloneChapter(ch)
	var changes []Change
	for ni := range out.Nodes {
		n := &out.Nodes[ni]
		for ci := range n.Choices {
			sc := n.Choices[ci].SkillCheck
			if sc == nil || len(sc.Difficulty) == 0 {
				continue
			}
			var num float64
			if err := json.Unmarshal(sc.Difficulty, &num); err != nil {
				continue
			}
			d, ok := ClassifyDifficulty(int(num))
			if !ok {
				continue
			}
			to, _ := json.Marshal(d.String())
			changes = append(changes, Change{
				NodeID:   n.Key,
				ChoiceID: n.Choices[ci].ID,
				Field:    "skillCheck.difficulty",
				From:     string(sc.Difficulty),
				To:       string(to),
			})
			sc.Difficulty = to
		}
	}
	return out, changes
}

// FillCheckBranches handles checks that carry no branches but sit on a choice
// with a nextNode: both branches are pointed at that node and nextNode is
// dropped. The input chapter is not modified.
func FillCheckBranches(ch Chapter) (Chapter, []Change) {
	out := cloneChapter(ch)
	var changes []Change
	for ni := range out.Nodes {
		n := &out.Nodes[ni]
		for ci := range n.Choices {
			c := &n.Choices[ci]
			sc := c.SkillCheck
			if sc == nil || c.NextNode == "" || sc.SuccessNode != "" || sc.FailureNode != "" {
				continue
			}
			sc.SuccessNode = c.NextNode
			sc.FailureNode = c.NextNode
			changes = append(changes,
				Change{NodeID: n.Key, ChoiceID: c.ID, Field: "skillCheck.successNode", From: "", To: c.NextNode},
				Change{NodeID: n.Key, ChoiceID: c.ID, Field: "skillCheck.failureNode", From: "", To: c.NextNode},
				Change{NodeID: n.Key, ChoiceID: c.ID, Field: "nextNode", From: c.NextNode, To: ""},
			)
			c.NextNode = ""
		}
	}
	return out, changes
}

func cloneChapter(ch Chapter) Chapter {
	out := ch
	out.DifficultyClasses = maps.Clone(ch.DifficultyClasses)
	out.Nodes = make([]ChapterNode, len(ch.Nodes))
	for i, n := range ch.Nodes {
		n.Choices = append([]ChapterChoice(nil), n.Choices...)
		for j := range n.Choices {
			c := &n.Choices[j]
			c.Requirements = maps.Clone(c.Requirements)
			c.Effects = maps.Clone(c.Effects)
			if c.SkillCheck != nil {
				sc := *c.SkillCheck
				sc.Difficulty = append(json.RawMessage(nil), sc.Difficulty...)
				sc.SuccessEffects = maps.Clone(sc.SuccessEffects)
				sc.FailureEffects = maps.Clone(sc.FailureEffects)
				c.SkillCheck = &sc
			}
		}
		out.Nodes[i] = n
	}
	return out
}

// LegacyFormat names a historical chapter layout.
type LegacyFormat string

const (
	// LegacyFlat is a bare {id: node} map without title or nodes wrapper.
	LegacyFlat LegacyFormat = "flat"
	// LegacyFieldNames uses "next" for nextNode and skillCheck "type" for the skill.
	LegacyFieldNames LegacyFormat = "fields"
)

// ErrAlreadyCanonical is returned when a flat upgrade is asked for a document
// that already has a nodes object.
var ErrAlreadyCanonical = errors.New("document already has the canonical shape")

// LegacyOptions configures UpgradeLegacy.
type LegacyOptions struct {
	Format    LegacyFormat
	Title     string // flat only, defaults to "Untitled"
	StartNode string // flat only, defaults to "start"
}

// UpgradeLegacy rewrites a historical layout into the canonical chapter shape.
// Only the named format is handled; run it once per format that applies.
func UpgradeLegacy(data []byte, opts LegacyOptions) ([]byte, []Change, error) {
	if !gjson.ValidBytes(data) {
		return nil, nil, malformedDocument("invalid JSON")
	}
	switch opts.Format {
	case LegacyFlat:
		return upgradeFlat(data, opts)
	case LegacyFieldNames:
		return upgradeFieldNames(data)
	default:
		return nil, nil, fmt.Errorf("unknown legacy format %q", opts.Format)
	}
}

func upgradeFlat(data []byte, opts LegacyOptions) ([]byte, []Change, error) {
	root := gjson.ParseBytes(data)
	if !root.IsObject() {
		return nil, nil, malformedDocument("flat document must be an object")
	}
	if root.Get("nodes").IsObject() {
		return nil, nil, ErrAlreadyCanonical
	}
	title := opts.Title
	if title == "" {
		title = "Untitled"
	}
	start := opts.StartNode
	if start == "" {
		start = "start"
	}

	out := []byte(`{}`)
	var err error
	if out, err = sjson.SetBytes(out, "title", title); err != nil {
		return nil, nil, err
	}
	if out, err = sjson.SetBytes(out, "startNode", start); err != nil {
		return nil, nil, err
	}
	if out, err = sjson.SetRawBytes(out, "nodes", data); err != nil {
		return nil, nil, err
	}

	changes := []Change{{Field: "document", From: "flat", To: "nodes"}}
	root.ForEach(func(key, value gjson.Result) bool {
		id := key.String()
		if value.IsObject() && !value.Get("title").Exists() {
			out, err = sjson.SetBytes(out, "nodes."+gjson.Escape(id)+".title", id)
			if err != nil {
				return false
			}
			changes = append(changes, Change{NodeID: id, Field: "title", From: "", To: id})
		}
		return true
	})
	if err != nil {
		return nil, nil, err
	}
	return out, changes, nil
}

func upgradeFieldNames(data []byte) ([]byte, []Change, error) {
	nodes := gjson.GetBytes(data, "nodes")
	if !nodes.IsObject() {
		return nil, nil, malformedDocument("nodes must be an object keyed by node id")
	}
	out := append([]byte(nil), data...)
	var (
		changes []Change
		err     error
	)
	rename := func(base, from, to string, v gjson.Result, nodeID, choiceID, field string) bool {
		old := v.Get(from)
		if !old.Exists() || v.Get(to).Exists() {
			return true
		}
		if out, err = sjson.SetRawBytes(out, base+"."+to, []byte(old.Raw)); err != nil {
			return false
		}
		if out, err = sjson.DeleteBytes(out, base+"."+from); err != nil {
			return false
		}
		changes = append(changes, Change{NodeID: nodeID, ChoiceID: choiceID, Field: field, From: from, To: to})
		return true
	}

	nodes.ForEach(func(key, node gjson.Result) bool {
		id := key.String()
		for i, c := range node.Get("choices").Array() {
			base := "nodes." + gjson.Escape(id) + ".choices." + strconv.Itoa(i)
			choiceID := c.Get("id").String()
			if !rename(base, "next", "nextNode", c, id, choiceID, "choice") {
				return false
			}
			if sc := c.Get("skillCheck"); sc.IsObject() {
				if !rename(base+".skillCheck", "type", "skill", sc, id, choiceID, "skillCheck") {
					return false
				}
			}
		}
		return true
	})
	if err != nil {
		return nil, nil, err
	}
	return out, changes, nil
}
