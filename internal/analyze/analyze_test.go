package analyze

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storygraph/internal/story"
)

func load(t *testing.T, docs ...string) *story.Document {
	t.Helper()
	var chapters []story.Chapter
	for _, src := range docs {
		ch, err := story.ParseChapter([]byte(src))
		require.NoError(t, err)
		chapters = append(chapters, ch)
	}
	doc, err := story.Merge(chapters...)
	require.NoError(t, err)
	return doc
}

const linear = `{"title": "Linear", "startNode": "start", "nodes": {
	"start": {"title": "S", "text": "Start", "choices": [{"id": "go", "text": "Go", "nextNode": "mid"}]},
	"mid": {"title": "M", "text": "Middle", "choices": [{"id": "end", "text": "End", "nextNode": "fin"}]},
	"fin": {"title": "F", "text": "Fin", "choices": []}
}}`

func TestAnalyze_Linear(t *testing.T) {
	r, err := Analyze(load(t, linear))
	require.NoError(t, err)

	assert.Equal(t, []string{"start", "mid", "fin"}, r.Reachable)
	assert.Equal(t, map[string]Distance{"fin": {Hops: 2, Reachable: true}}, r.EndingDistances)
	assert.Equal(t, []string{"fin"}, r.Endings)
	assert.Empty(t, r.Orphaned)
	assert.Empty(t, r.Unused)
	assert.Empty(t, r.Transitions)
}

func TestAnalyze_UnusedNode(t *testing.T) {
	doc := load(t, `{"title": "U", "startNode": "start", "nodes": {
		"start": {"title": "S", "text": "s", "choices": [{"id": "go", "text": "Go", "nextNode": "fin"}]},
		"fin": {"title": "F", "text": "f"},
		"lost": {"title": "L", "text": "l", "choices": [{"id": "back", "text": "Back", "nextNode": "fin"}]}
	}}`)
	r, err := Analyze(doc)
	require.NoError(t, err)

	assert.Equal(t, []string{"lost"}, r.Unused)
	assert.Equal(t, []string{"lost"}, r.Orphaned)
	assert.False(t, r.IsReachable("lost"))
}

func TestAnalyze_UnreachableEnding(t *testing.T) {
	doc := load(t, `{"title": "U", "startNode": "start", "nodes": {
		"start": {"title": "S", "text": "s", "choices": [{"id": "loop", "text": "Again", "nextNode": "start"}]},
		"island": {"title": "I", "text": "i"}
	}}`)
	r, err := Analyze(doc)
	require.NoError(t, err)

	d := r.EndingDistances["island"]
	assert.False(t, d.Reachable)
	assert.Equal(t, "unreachable", d.String())
	assert.Equal(t, []string{"start"}, r.SelfReferencing)
}

func TestAnalyze_CyclesTerminate(t *testing.T) {
	doc := load(t, `{"title": "C", "startNode": "a", "nodes": {
		"a": {"title": "A", "text": "a", "choices": [{"id": "1", "text": "1", "nextNode": "b"}]},
		"b": {"title": "B", "text": "b", "choices": [
			{"id": "back", "text": "Back", "nextNode": "a"},
			{"id": "try", "text": "Try", "skillCheck": {"skill": "tech", "difficulty": "hard", "successNode": "c", "failureNode": "b"}}]},
		"c": {"title": "C", "text": "c"}
	}}`)
	r, err := Analyze(doc)
	require.NoError(t, err)

	assert.Equal(t, []string{"a", "b", "c"}, r.Reachable)
	assert.Equal(t, Distance{Hops: 2, Reachable: true}, r.EndingDistances["c"])
	assert.Equal(t, []string{"b"}, r.SelfReferencing)
	assert.Empty(t, r.Unused, "b is targeted by a as well as itself")
}

func TestAnalyze_Soundness(t *testing.T) {
	doc := load(t, `{"title": "S", "startNode": "s", "nodes": {
		"s": {"title": "S", "text": "s", "choices": [
			{"id": "x", "text": "X", "nextNode": "missing"},
			{"id": "y", "text": "Y", "skillCheck": {"skill": "tech", "difficulty": "easy", "successNode": "t", "failureNode": "u"}}]},
		"t": {"title": "T", "text": "t"},
		"u": {"title": "U", "text": "u", "choices": [{"id": "dead", "text": "Dead"}]},
		"v": {"title": "V", "text": "v"}
	}}`)
	r, err := Analyze(doc)
	require.NoError(t, err)

	for _, id := range r.Reachable {
		steps, ok := ShortestPath(doc, id)
		require.True(t, ok, "reachable node %s has a path", id)
		cur := doc.StartNodeID
		for _, s := range steps {
			n, _ := doc.Node(cur)
			c, found := n.Choice(s.ChoiceID)
			require.True(t, found)
			next, ok := c.Destination(s.Outcome)
			require.True(t, ok)
			cur = next
		}
		assert.Equal(t, id, cur)
	}
	assert.NotContains(t, r.Reachable, "missing")
	assert.NotContains(t, r.Reachable, "v")
}

func TestAnalyze_TransitionsAndStats(t *testing.T) {
	one := `{"title": "One", "startNode": "chapter1_1", "nodes": {
		"chapter1_1": {"title": "A", "text": "héllo", "choices": [
			{"id": "a", "text": "a", "nextNode": "chapter2_1"},
			{"id": "b", "text": "b", "nextNode": "chapter2_1"},
			{"id": "c", "text": "c", "nextNode": "chapter2_1"},
			{"id": "d", "text": "d", "nextNode": "chapter1_1"}]}
	}}`
	two := `{"title": "Two", "startNode": "chapter2_1", "nodes": {
		"chapter2_1": {"title": "B", "text": "bye"}
	}}`
	r, err := Analyze(load(t, one, two))
	require.NoError(t, err)

	require.Len(t, r.Transitions, 3)
	assert.Equal(t, Transition{From: "chapter1_1", To: "chapter2_1", ChoiceID: "a", FromChapter: 0, ToChapter: 1}, r.Transitions[0])

	assert.Equal(t, 2, r.Stats.Nodes)
	assert.Equal(t, 4, r.Stats.Choices)
	assert.Equal(t, 1, r.Stats.Endings)
	assert.InDelta(t, 2.0, r.Stats.AvgBranching, 0.001)
	assert.Equal(t, []string{"chapter1_1"}, r.Stats.HighBranching)
	assert.InDelta(t, 4.0, r.Stats.AvgTextLength, 0.001)
}

func TestShortestPath(t *testing.T) {
	doc := load(t, linear)

	steps, ok := ShortestPath(doc, "fin")
	require.True(t, ok)
	assert.Equal(t, []Step{
		{NodeID: "start", ChoiceID: "go", To: "mid"},
		{NodeID: "mid", ChoiceID: "end", To: "fin"},
	}, steps)

	steps, ok = ShortestPath(doc, "start")
	assert.True(t, ok)
	assert.Empty(t, steps)

	_, ok = ShortestPath(doc, "nowhere")
	assert.False(t, ok)
}

func TestShortestPath_CheckOutcome(t *testing.T) {
	doc := load(t, `{"title": "C", "startNode": "a", "nodes": {
		"a": {"title": "A", "text": "a", "choices": [
			{"id": "roll", "text": "Roll", "skillCheck": {"skill": "empathy", "difficulty": "medium", "successNode": "win", "failureNode": "lose"}}]},
		"win": {"title": "W", "text": "w"},
		"lose": {"title": "L", "text": "l"}
	}}`)
	steps, ok := ShortestPath(doc, "lose")
	require.True(t, ok)
	require.Len(t, steps, 1)
	assert.Equal(t, story.OutcomeFailure, steps[0].Outcome)
}

func TestAnalyze_NilDocument(t *testing.T) {
	_, err := Analyze(nil)
	assert.ErrorIs(t, err, story.ErrStartNodeMissing)
}
