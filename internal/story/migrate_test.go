package story

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

func TestClassifyDifficulty(t *testing.T) {
	tests := []struct {
		in   int
		want Difficulty
		ok   bool
	}{
		{-3, DifficultyInvalid, false},
		{0, DifficultyInvalid, false},
		{1, DifficultyEasy, true},
		{10, DifficultyEasy, true},
		{11, DifficultyMedium, true},
		{14, DifficultyMedium, true},
		{15, DifficultyHard, true},
		{19, DifficultyHard, true},
		{25, DifficultyHard, true},
	}
	for _, tt := range tests {
		got, ok := ClassifyDifficulty(tt.in)
		assert.Equal(t, tt.want, got, "ClassifyDifficulty(%d)", tt.in)
		assert.Equal(t, tt.ok, ok, "ClassifyDifficulty(%d)", tt.in)
	}
}

func TestNormalizeDifficulties(t *testing.T) {
	src := `{"title": "A", "startNode": "x", "nodes": {"x": {"title": "X", "text": "x", "choices": [
		{"id": "a", "text": "A", "skillCheck": {"skill": "tech", "difficulty": 17, "successNode": "x", "failureNode": "x"}},
		{"id": "b", "text": "B", "skillCheck": {"skill": "tech", "difficulty": "easy", "successNode": "x", "failureNode": "x"}},
		{"id": "c", "text": "C", "skillCheck": {"skill": "tech", "difficulty": 0, "successNode": "x", "failureNode": "x"}}]}}}`
	ch := mustParse(t, src)

	out, changes := NormalizeDifficulties(ch)
	require.Len(t, changes, 1)
	assert.Equal(t, Change{NodeID: "x", ChoiceID: "a", Field: "skillCheck.difficulty", From: "17", To: `"hard"`}, changes[0])
	assert.Equal(t, `x/a: skillCheck.difficulty 17 -> "hard"`, changes[0].String())

	assert.Equal(t, `"hard"`, string(out.Nodes[0].Choices[0].SkillCheck.Difficulty))
	assert.Equal(t, "0", string(out.Nodes[0].Choices[2].SkillCheck.Difficulty), "non-positive stays invalid")
	assert.Equal(t, "17", string(ch.Nodes[0].Choices[0].SkillCheck.Difficulty), "input untouched")

	doc, err := Merge(out)
	require.NoError(t, err)
	n, _ := doc.Node("x")
	assert.Equal(t, DifficultyHard, n.Choices[0].Check.Difficulty)
}

func TestFillCheckBranches(t *testing.T) {
	src := `{"title": "A", "startNode": "x", "nodes": {
		"x": {"title": "X", "text": "x", "choices": [
			{"id": "a", "text": "A", "nextNode": "y", "skillCheck": {"skill": "logical", "difficulty": "hard"}},
			{"id": "b", "text": "B", "nextNode": "y", "skillCheck": {"skill": "logical", "difficulty": "hard", "successNode": "y"}}]},
		"y": {"title": "Y", "text": "y"}}}`
	ch := mustParse(t, src)

	out, changes := FillCheckBranches(ch)
	assert.Len(t, changes, 3)

	a := out.Nodes[0].Choices[0]
	assert.Empty(t, a.NextNode)
	assert.Equal(t, "y", a.SkillCheck.SuccessNode)
	assert.Equal(t, "y", a.SkillCheck.FailureNode)

	b := out.Nodes[0].Choices[1]
	assert.Equal(t, "y", b.NextNode, "partially branched checks are left alone")
	assert.Empty(t, b.SkillCheck.FailureNode)

	assert.Equal(t, "y", ch.Nodes[0].Choices[0].NextNode, "input untouched")
	assert.Empty(t, ch.Nodes[0].Choices[0].SkillCheck.SuccessNode)
}

func TestUpgradeLegacy_Flat(t *testing.T) {
	flat := `{
		"start": {"text": "Begin", "choices": [{"id": "go", "text": "Go", "nextNode": "end.1"}]},
		"end.1": {"title": "Fin", "text": "Done"}
	}`
	out, changes, err := UpgradeLegacy([]byte(flat), LegacyOptions{Format: LegacyFlat, Title: "Old"})
	require.NoError(t, err)
	require.Len(t, changes, 2)
	assert.Equal(t, "document", changes[0].Field)
	assert.Equal(t, Change{NodeID: "start", Field: "title", From: "", To: "start"}, changes[1])

	ch, err := ParseChapter(out)
	require.NoError(t, err)
	assert.Equal(t, "Old", ch.Title)
	assert.Equal(t, "start", ch.StartNode)
	require.Len(t, ch.Nodes, 2)
	assert.Equal(t, "start", ch.Nodes[0].Title)
	assert.Equal(t, "end.1", ch.Nodes[1].Key)

	_, err = Merge(ch)
	assert.NoError(t, err)
}

func TestUpgradeLegacy_FlatAlreadyCanonical(t *testing.T) {
	_, _, err := UpgradeLegacy([]byte(chapterOne), LegacyOptions{Format: LegacyFlat})
	assert.ErrorIs(t, err, ErrAlreadyCanonical)
}

func TestUpgradeLegacy_FieldNames(t *testing.T) {
	old := `{"title": "A", "startNode": "x", "nodes": {
		"x": {"title": "X", "text": "x", "choices": [
			{"id": "a", "text": "A", "next": "y"},
			{"id": "b", "text": "B", "skillCheck": {"type": "empathy", "difficulty": "easy", "successNode": "y", "failureNode": "x"}}]},
		"y": {"title": "Y", "text": "y"}}}`
	out, changes, err := UpgradeLegacy([]byte(old), LegacyOptions{Format: LegacyFieldNames})
	require.NoError(t, err)
	require.Len(t, changes, 2)
	assert.Equal(t, "a", changes[0].ChoiceID)
	assert.Equal(t, "skillCheck", changes[1].Field)

	root := gjson.ParseBytes(out)
	assert.Equal(t, "y", root.Get("nodes.x.choices.0.nextNode").String())
	assert.False(t, root.Get("nodes.x.choices.0.next").Exists())
	assert.Equal(t, "empathy", root.Get("nodes.x.choices.1.skillCheck.skill").String())
	assert.False(t, root.Get("nodes.x.choices.1.skillCheck.type").Exists())

	again, more, err := UpgradeLegacy(out, LegacyOptions{Format: LegacyFieldNames})
	require.NoError(t, err)
	assert.Empty(t, more)
	assert.JSONEq(t, string(out), string(again))
}

func TestUpgradeLegacy_Errors(t *testing.T) {
	_, _, err := UpgradeLegacy([]byte(`{`), LegacyOptions{Format: LegacyFlat})
	assert.ErrorIs(t, err, ErrMalformedDocument)

	_, _, err = UpgradeLegacy([]byte(`{}`), LegacyOptions{Format: "yaml"})
	assert.Error(t, err)

	_, _, err = UpgradeLegacy([]byte(`{"title": "t"}`), LegacyOptions{Format: LegacyFieldNames})
	assert.ErrorIs(t, err, ErrMalformedDocument)
}
