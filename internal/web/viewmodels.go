package web

import (
	"sort"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"storygraph/internal/analyze"
	"storygraph/internal/game"
	"storygraph/internal/validate"
)

type ErrorResponse struct {
	Error string `json:"error"`
}

type ChapterView struct {
	Title       string `json:"title"`
	StartNodeID string `json:"startNode"`
}

type StoryResponse struct {
	Title       string        `json:"title"`
	Description string        `json:"description,omitempty"`
	StartNodeID string        `json:"startNode"`
	Nodes       int           `json:"nodes"`
	Chapters    []ChapterView `json:"chapters"`
}

type ReportResponse struct {
	Validation validate.Report `json:"validation"`
	Analysis   analyze.Report  `json:"analysis"`
}

// SkillView is one skill with a display label.
type SkillView struct {
	Name  string `json:"name"`
	Label string `json:"label"`
	Value int    `json:"value"`
}

// PlayResponse is returned by every play endpoint.
type PlayResponse struct {
	SessionID  string            `json:"sessionId"`
	View       game.View         `json:"view"`
	Skills     []SkillView       `json:"skills"`
	History    []string          `json:"history"`
	Transition *game.Transition  `json:"transition,omitempty"`
	Check      *game.CheckResult `json:"check,omitempty"`
}

// ChoiceRequest is the body of POST /api/play/choice.
type ChoiceRequest struct {
	Choice string `json:"choice"`
}

// NewPlayRequest is the optional body of POST /api/play.
type NewPlayRequest struct {
	Skills map[string]int `json:"skills"`
}

var skillCaser = cases.Title(language.English)

func skillViews(skills map[string]int) []SkillView {
	out := make([]SkillView, 0, len(skills))
	for name, v := range skills {
		out = append(out, SkillView{Name: name, Label: skillCaser.String(name), Value: v})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func playResponse(id string, c *game.Cursor) PlayResponse {
	return PlayResponse{
		SessionID: id,
		View:      c.View(),
		Skills:    skillViews(c.Skills()),
		History:   c.History(),
	}
}
