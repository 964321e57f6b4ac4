package cli

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"

	"storygraph/internal/story"
)

const goodChapter = `{"title": "Good", "startNode": "start", "nodes": {
	"start": {"title": "Start", "text": "Begin.", "choices": [
		{"id": "go", "text": "Go", "nextNode": "mid"},
		{"id": "roll", "text": "Roll", "skillCheck": {"skill": "tech", "difficulty": "hard", "successNode": "fin", "failureNode": "mid"}}]},
	"mid": {"title": "Mid", "text": "Middle.", "choices": [{"id": "end", "text": "End", "nextNode": "fin"}]},
	"fin": {"title": "Fin", "text": "Done."}
}}`

const badChapter = `{"title": "Bad", "startNode": "start", "nodes": {
	"start": {"title": "Start", "text": "Begin.", "choices": [{"id": "go", "text": "Go", "nextNode": "missing_node"}]}
}}`

type fixedRoller int

func (f fixedRoller) Roll(int) int { return int(f) }

func run(t *testing.T, fs afero.Fs, stdin string, args ...string) (string, string, error) {
	t.Helper()
	root := NewRootWith(&App{FS: fs, Roller: fixedRoller(20), Logger: zap.NewNop()})
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), errOut.String(), err
}

func memFS(t *testing.T, files map[string]string) afero.Fs {
	t.Helper()
	fs := afero.NewMemMapFs()
	for name, content := range files {
		require.NoError(t, afero.WriteFile(fs, name, []byte(content), 0o644))
	}
	return fs
}

func TestValidateCmd(t *testing.T) {
	defer goleak.VerifyNone(t)
	fs := memFS(t, map[string]string{"good.json": goodChapter, "bad.json": badChapter})

	out, _, err := run(t, fs, "", "validate", "good.json")
	require.NoError(t, err)
	assert.Contains(t, out, "0 errors, 0 warnings")

	out, _, err = run(t, fs, "", "validate", "bad.json")
	require.ErrorIs(t, err, ErrFindings)
	assert.Contains(t, out, "ERROR: DanglingReference at start choice 0 (go)")
	assert.Contains(t, out, "missing_node")
	assert.Contains(t, out, "1 error, 0 warnings")
}

func TestValidateCmd_JSON(t *testing.T) {
	fs := memFS(t, map[string]string{"bad.json": badChapter})
	out, _, err := run(t, fs, "", "validate", "--format", "json", "bad.json")
	require.Error(t, err)

	var report struct {
		Errors []struct {
			Kind   string `json:"kind"`
			Target string `json:"target"`
		} `json:"errors"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	require.Len(t, report.Errors, 1)
	assert.Equal(t, "DanglingReference", report.Errors[0].Kind)
	assert.Equal(t, "missing_node", report.Errors[0].Target)
}

func TestValidateCmd_LoadError(t *testing.T) {
	fs := memFS(t, map[string]string{
		"a.json": `{"title": "A", "startNode": "intro", "nodes": {"intro": {"title": "I", "text": "a"}}}`,
		"b.json": `{"title": "B", "startNode": "intro", "nodes": {"intro": {"title": "I", "text": "b"}}}`,
	})
	_, _, err := run(t, fs, "", "validate", "a.json", "b.json")
	assert.ErrorIs(t, err, story.ErrDuplicateNodeID)
}

func TestAnalyzeCmd(t *testing.T) {
	fs := memFS(t, map[string]string{"good.json": goodChapter})
	out, _, err := run(t, fs, "", "analyze", "good.json")
	require.NoError(t, err)
	assert.Contains(t, out, "Reachable: 3 of 3")
	assert.Contains(t, out, "fin: 1 step")

	out, _, err = run(t, fs, "", "analyze", "--format", "json", "good.json")
	require.NoError(t, err)
	var report struct {
		Reachable []string `json:"reachable"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Equal(t, []string{"start", "mid", "fin"}, report.Reachable)
}

func TestPathCmd(t *testing.T) {
	fs := memFS(t, map[string]string{"good.json": goodChapter})
	out, _, err := run(t, fs, "", "path", "good.json", "--to", "fin")
	require.NoError(t, err)
	assert.Contains(t, out, "--roll [success]--> fin")
	assert.Contains(t, out, "1 step")

	_, _, err = run(t, fs, "", "path", "good.json", "--to", "nowhere")
	assert.Error(t, err)

	_, _, err = run(t, fs, "", "path", "good.json")
	assert.Error(t, err)
}

func TestMigrateCmd(t *testing.T) {
	legacy := `{
		"start": {"text": "Begin", "choices": [
			{"id": "try", "text": "Try", "next": "fin", "skillCheck": {"type": "logical", "difficulty": 12}}]},
		"fin": {"title": "Fin", "text": "Done"}
	}`
	fs := memFS(t, map[string]string{"old.json": legacy})

	_, stderr, err := run(t, fs, "", "migrate", "old.json",
		"--legacy", "flat,fields", "--title", "Old", "--difficulty", "--fill-branches", "-o", "out/new.json")
	require.NoError(t, err)
	assert.Contains(t, stderr, "start: title  -> start")
	assert.Contains(t, stderr, `skillCheck.difficulty 12 -> "medium"`)

	b, err := afero.ReadFile(fs, "out/new.json")
	require.NoError(t, err)
	ch, err := story.ParseChapter(b)
	require.NoError(t, err)
	doc, err := story.Merge(ch)
	require.NoError(t, err)

	assert.Equal(t, "Old", doc.Title)
	n, _ := doc.Node("start")
	c := n.Choices[0]
	assert.Equal(t, story.ChoiceCheck, c.Kind())
	assert.Empty(t, c.Next)
	assert.Equal(t, "logical", c.Check.Skill)
	assert.Equal(t, story.DifficultyMedium, c.Check.Difficulty)
	assert.Equal(t, "fin", c.Check.SuccessNodeID)
	assert.Equal(t, "fin", c.Check.FailureNodeID)
}

func TestMigrateCmd_Stdout(t *testing.T) {
	fs := memFS(t, map[string]string{"good.json": goodChapter})
	out, stderr, err := run(t, fs, "", "migrate", "good.json")
	require.NoError(t, err)
	assert.Empty(t, stderr)
	assert.True(t, strings.HasPrefix(out, "{"))
}

func TestPlayCmd(t *testing.T) {
	fs := memFS(t, map[string]string{"good.json": goodChapter})
	out, _, err := run(t, fs, "nope\n2\n", "play", "good.json")
	require.NoError(t, err)

	assert.Contains(t, out, "== Start ==")
	assert.Contains(t, out, "(Empathy 5, Logical 5, Tech 5)")
	assert.Contains(t, out, "2) Roll [Tech, hard]")
	assert.Contains(t, out, "unknown choice")
	assert.Contains(t, out, "Tech check: rolled 20 + 5 = 25 against 20, success")
	assert.Contains(t, out, "THE END")
}

func TestPlayCmd_Quit(t *testing.T) {
	fs := memFS(t, map[string]string{"good.json": goodChapter})
	out, _, err := run(t, fs, "q\n", "play", "good.json")
	require.NoError(t, err)
	assert.NotContains(t, out, "THE END")
}

func TestRoot_BadFormat(t *testing.T) {
	fs := memFS(t, map[string]string{"good.json": goodChapter})
	_, _, err := run(t, fs, "", "analyze", "--format", "xml", "good.json")
	assert.Error(t, err)
}
