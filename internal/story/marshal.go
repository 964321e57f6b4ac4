package story

import (
	"bytes"
	"encoding/json"
)

type wireNode struct {
	ID      string       `json:"id"`
	Chapter string       `json:"chapter,omitempty"`
	Title   string       `json:"title"`
	Text    string       `json:"text"`
	Choices []wireChoice `json:"choices"`
}

type wireChoice struct {
	ID           string          `json:"id"`
	Text         string          `json:"text"`
	Requirements map[string]int  `json:"requirements,omitempty"`
	Effects      map[string]int  `json:"effects,omitempty"`
	NextNode     string          `json:"nextNode,omitempty"`
	SkillCheck   *wireSkillCheck `json:"skillCheck,omitempty"`
}

type wireSkillCheck struct {
	Skill          string          `json:"skill,omitempty"`
	Difficulty     json.RawMessage `json:"difficulty,omitempty"`
	SuccessNode    string          `json:"successNode,omitempty"`
	FailureNode    string          `json:"failureNode,omitempty"`
	SuccessEffects *map[string]int `json:"successEffects,omitempty"`
	FailureEffects *map[string]int `json:"failureEffects,omitempty"`
}

type wireRules struct {
	DifficultyClasses map[string]int `json:"difficultyClasses"`
}

// Marshal writes doc back as a single chapter document. Nodes are written in
// merge order so the output is stable for a given document.
func Marshal(doc *Document) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	if err := writeField(&buf, "title", doc.Title, true); err != nil {
		return nil, err
	}
	if err := writeField(&buf, "description", doc.Description, false); err != nil {
		return nil, err
	}
	if err := writeField(&buf, "startNode", doc.StartNodeID, false); err != nil {
		return nil, err
	}
	if !doc.Rules.isDefault() {
		rules := wireRules{DifficultyClasses: map[string]int{}}
		for d, dc := range doc.Rules.DifficultyClasses {
			rules.DifficultyClasses[d.String()] = dc
		}
		if err := writeField(&buf, "gameRules", rules, false); err != nil {
			return nil, err
		}
	}

	buf.WriteString(`,"nodes":{`)
	for i, id := range doc.order {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(id)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		val, err := json.Marshal(toWire(doc.nodes[id]))
		if err != nil {
			return nil, err
		}
		buf.Write(val)
	}
	buf.WriteString("}}")

	var out bytes.Buffer
	if err := json.Indent(&out, buf.Bytes(), "", "  "); err != nil {
		return nil, err
	}
	out.WriteByte('\n')
	return out.Bytes(), nil
}

func writeField(buf *bytes.Buffer, name string, v any, first bool) error {
	if !first {
		buf.WriteByte(',')
	}
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	buf.WriteString(`"` + name + `":`)
	buf.Write(b)
	return nil
}

func toWire(n *Node) wireNode {
	w := wireNode{ID: n.ID, Chapter: n.Chapter, Title: n.Title, Text: n.Text, Choices: []wireChoice{}}
	for _, c := range n.Choices {
		wc := wireChoice{
			ID:           c.ID,
			Text:         c.Text,
			Requirements: c.Requirements,
			Effects:      c.Effects,
			NextNode:     c.Next,
		}
		if sc := c.Check; sc != nil {
			wsc := &wireSkillCheck{
				Skill:       sc.Skill,
				Difficulty:  sc.RawDifficulty,
				SuccessNode: sc.SuccessNodeID,
				FailureNode: sc.FailureNodeID,
			}
			if len(wsc.Difficulty) == 0 && sc.Difficulty.Valid() {
				wsc.Difficulty, _ = json.Marshal(sc.Difficulty.String())
			}
			if sc.SuccessEffects != nil {
				m := sc.SuccessEffects
				wsc.SuccessEffects = &m
			}
			if sc.FailureEffects != nil {
				m := sc.FailureEffects
				wsc.FailureEffects = &m
			}
			wc.SkillCheck = wsc
		}
		w.Choices = append(w.Choices, wc)
	}
	return w
}
