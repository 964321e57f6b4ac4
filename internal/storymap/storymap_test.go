package storymap

import (
	"bytes"
	"math"
	"regexp"
	"testing"

	"storygraph/internal/story"
)

func testDoc(t *testing.T) *story.Document {
	t.Helper()
	one, err := story.ParseChapter([]byte(`{"title": "Map Test", "startNode": "a", "nodes": {
		"a": {"title": "Awakening", "text": "a", "choices": [{"id": "n", "text": "n", "nextNode": "b"}]},
		"b": {"title": "Crossroads of a very long name", "text": "b", "choices": [
			{"id": "roll", "text": "roll", "skillCheck": {"skill": "tech", "difficulty": "easy", "successNode": "c", "failureNode": "b"}}]}
	}}`))
	if err != nil {
		t.Fatalf("ParseChapter: %v", err)
	}
	two, err := story.ParseChapter([]byte(`{"title": "Two", "startNode": "c", "nodes": {
		"c": {"title": "Épilogue", "text": "c"},
		"d": {"title": "Side", "text": "d", "choices": [
			{"id": "roll", "text": "roll", "skillCheck": {"skill": "tech", "difficulty": "easy", "successNode": "c", "failureNode": "c"}}]}
	}}`))
	if err != nil {
		t.Fatalf("ParseChapter: %v", err)
	}
	doc, err := story.Merge(one, two)
	if err != nil {
		t.Fatalf("Merge: %v", err)
	}
	return doc
}

func TestGenerate_NilDocument(t *testing.T) {
	b, err := Generate(nil, []string{"a"}, "a", "Test")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if b != nil {
		t.Error("expected nil PDF for nil document")
	}
}

func TestGenerate_EmptyHistoryUsesCurrent(t *testing.T) {
	b, err := Generate(testDoc(t), nil, "a", "")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if !bytes.HasPrefix(b, []byte("%PDF")) {
		t.Error("output is not a PDF (missing %PDF header)")
	}
}

func TestGenerate_PathReturnsPDF(t *testing.T) {
	history := []string{"a", "b", "b", "c", "unknown"}
	b, err := Generate(testDoc(t), history, "unknown", "A Playthrough")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if len(b) < 100 {
		t.Errorf("PDF too short: %d bytes", len(b))
	}
	if !bytes.HasPrefix(b, []byte("%PDF")) {
		t.Error("output is not a PDF (missing %PDF header)")
	}
}

func TestGenerate_LongPathWraps(t *testing.T) {
	history := make([]string, 0, 40)
	for i := 0; i < 20; i++ {
		history = append(history, "a", "b")
	}
	if _, err := Generate(testDoc(t), history, "b", ""); err != nil {
		t.Fatalf("Generate: %v", err)
	}
	pos := layout(perRow + 1)
	if pos[perRow][0] != pos[perRow-1][0] {
		t.Errorf("expected the path to turn under the last stop, got %v and %v", pos[perRow-1], pos[perRow])
	}
}

func TestGlyphFor(t *testing.T) {
	doc := testDoc(t)
	tests := []struct {
		id   string
		want glyph
	}{
		{"a", glyphStart},
		{"b", glyphLoop},
		{"c", glyphEnding},
		{"d", glyphCheck},
	}
	for _, tt := range tests {
		n, _ := doc.Node(tt.id)
		if got := glyphFor(doc, n); got != tt.want {
			t.Errorf("glyphFor(%s): expected %d, got %d", tt.id, tt.want, got)
		}
	}
}

func TestGenerate_LongPathPaginates(t *testing.T) {
	history := make([]string, 0, 2*perPage+3)
	history = append(history, "a")
	for len(history) < cap(history) {
		history = append(history, "b")
	}
	b, err := Generate(testDoc(t), history, "b", "Waiting")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	pages := regexp.MustCompile(`/Type /Page\b`).FindAll(b, -1)
	if len(pages) != 3 {
		t.Errorf("Expected 3 pages for %d stops, got %d", len(history), len(pages))
	}

	pos := layout(perPage + 1)
	if pos[perPage] != pos[0] {
		t.Errorf("Expected the next page to start at the top, got %v", pos[perPage])
	}
	last := pos[perPage-1]
	if last[1] > pageH-margin-stopSize {
		t.Errorf("Expected the last stop of a page to fit on it, got y=%v", last[1])
	}
}

func TestPageCount(t *testing.T) {
	tests := []struct{ stops, want int }{
		{0, 1}, {1, 1}, {perPage, 1}, {perPage + 1, 2}, {3 * perPage, 3},
	}
	for _, tt := range tests {
		if got := pageCount(tt.stops); got != tt.want {
			t.Errorf("pageCount(%d): expected %d, got %d", tt.stops, tt.want, got)
		}
	}
}

func TestWavyRectPoints_CornersStayPut(t *testing.T) {
	pts := wavyRectPoints(10, 20, 100, 50, 8, 2, 4)
	if len(pts) != 32 {
		t.Fatalf("Expected 32 points, got %d", len(pts))
	}
	corners := map[int][2]float64{0: {10, 20}, 8: {110, 20}, 16: {110, 70}, 24: {10, 70}}
	for i, want := range corners {
		if math.Abs(pts[i].X-want[0]) > 1e-9 || math.Abs(pts[i].Y-want[1]) > 1e-9 {
			t.Errorf("Point %d: expected %v, got %v", i, want, pts[i])
		}
	}
	for i, p := range pts {
		if p.X < 10-4.001 || p.X > 110+4.001 || p.Y < 20-4.001 || p.Y > 70+4.001 {
			t.Errorf("Point %d strays past the amplitude: %v", i, p)
		}
	}
}
