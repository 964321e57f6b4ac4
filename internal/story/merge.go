package story

import (
	"encoding/json"
	"fmt"
	"maps"
)

// Merge combines chapter documents into one Document. The first chapter is the
// primary one: it provides the title, description, game rules and start node.
// Node ids must be unique across all chapters.
func Merge(chapters ...Chapter) (*Document, error) {
	if len(chapters) == 0 {
		return nil, malformedDocument("no chapters to merge")
	}
	primary := chapters[0]
	doc := &Document{
		Title:       primary.Title,
		Description: primary.Description,
		StartNodeID: primary.StartNode,
		Rules:       DefaultRules(),
		nodes:       map[string]*Node{},
		origin:      map[string]int{},
	}
	for name, dc := range primary.DifficultyClasses {
		d, ok := ParseDifficulty(name)
		if !ok {
			return nil, &LoadError{Kind: ErrMalformedDocument, Chapter: 0,
				Detail: fmt.Sprintf("gameRules.difficultyClasses: unknown difficulty %q", name)}
		}
		if dc <= 0 {
			return nil, &LoadError{Kind: ErrMalformedDocument, Chapter: 0,
				Detail: fmt.Sprintf("gameRules.difficultyClasses: %s must be positive", name)}
		}
		doc.Rules.DifficultyClasses[d] = dc
	}

	for ci, ch := range chapters {
		doc.chapters = append(doc.chapters, ChapterInfo{Index: ci, Title: ch.Title, StartNodeID: ch.StartNode})
		for _, cn := range ch.Nodes {
			if cn.Key == "" {
				return nil, &LoadError{Kind: ErrMalformedNode, Chapter: ci, Detail: "empty node id"}
			}
			if cn.ID != "" && cn.ID != cn.Key {
				return nil, &LoadError{Kind: ErrMalformedNode, Chapter: ci, NodeID: cn.Key,
					Detail: fmt.Sprintf("id %q does not match its key", cn.ID)}
			}
			if prev, dup := doc.origin[cn.Key]; dup {
				return nil, &LoadError{Kind: ErrDuplicateNodeID, Chapter: ci, NodeID: cn.Key,
					Detail: fmt.Sprintf("already defined in chapter %d", prev+1)}
			}
			doc.nodes[cn.Key] = buildNode(cn)
			doc.order = append(doc.order, cn.Key)
			doc.origin[cn.Key] = ci
		}
	}

	if doc.StartNodeID == "" {
		return nil, &LoadError{Kind: ErrStartNodeMissing, Chapter: 0, Detail: "startNode is not set"}
	}
	if !doc.Has(doc.StartNodeID) {
		return nil, &LoadError{Kind: ErrStartNodeMissing, Chapter: 0, NodeID: doc.StartNodeID}
	}
	return doc, nil
}

func buildNode(cn ChapterNode) *Node {
	n := &Node{
		ID:      cn.Key,
		Chapter: cn.Chapter,
		Title:   cn.Title,
		Text:    cn.Text,
	}
	if len(cn.Choices) > 0 {
		n.Choices = make([]Choice, 0, len(cn.Choices))
	}
	for _, cc := range cn.Choices {
		c := Choice{
			ID:           cc.ID,
			Text:         cc.Text,
			Requirements: cloneNonEmpty(cc.Requirements),
			Effects:      cloneNonEmpty(cc.Effects),
			Next:         cc.NextNode,
		}
		if sc := cc.SkillCheck; sc != nil {
			c.Check = &SkillCheck{
				Skill:          sc.Skill,
				Difficulty:     difficultyFromLiteral(sc.Difficulty),
				RawDifficulty:  append(json.RawMessage(nil), sc.Difficulty...),
				SuccessNodeID:  sc.SuccessNode,
				FailureNodeID:  sc.FailureNode,
				SuccessEffects: maps.Clone(sc.SuccessEffects),
				FailureEffects: maps.Clone(sc.FailureEffects),
			}
		}
		n.Choices = append(n.Choices, c)
	}
	return n
}

// cloneNonEmpty copies m, folding an empty map to nil. Branch effects are not
// folded: an empty branch map still replaces the choice effects.
func cloneNonEmpty(m map[string]int) map[string]int {
	if len(m) == 0 {
		return nil
	}
	return maps.Clone(m)
}

// difficultyFromLiteral only accepts class names. Numbers are legacy values and
// must go through NormalizeDifficulties first.
func difficultyFromLiteral(raw json.RawMessage) Difficulty {
	var name string
	if err := json.Unmarshal(raw, &name); err != nil {
		return DifficultyInvalid
	}
	d, _ := ParseDifficulty(name)
	return d
}
