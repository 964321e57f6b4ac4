// Package storymap draws a printable PDF map of a playthrough: every visited
// node is a stop on a winding path, with a small glyph for what kind of node
// it is.
package storymap

import (
	"bytes"
	"fmt"
	"math"

	"github.com/jung-kurt/gofpdf/v2"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"storygraph/internal/story"
)

const (
	pageW     = 595
	pageH     = 842
	margin    = 40
	stopSize  = 56.0
	pathStep  = 70.0
	perRow    = 6
	perPage   = perRow * 9
	fontSize  = 8
	titleSize = 16
	labelSize = 7
	maxLabel  = 18
)

type glyph int

const (
	glyphPlain glyph = iota
	glyphStart
	glyphCheck
	glyphEnding
	glyphChapter
	glyphLoop
)

type stop struct {
	id    string
	label string
	glyph glyph
}

// Generate returns PDF bytes for the path in history. If history is empty,
// currentID is the only stop. Ids the document does not know are drawn as
// plain stops. A nil document yields nil bytes.
func Generate(doc *story.Document, history []string, currentID, title string) ([]byte, error) {
	if doc == nil {
		return nil, nil
	}
	path := history
	if len(path) == 0 {
		path = []string{currentID}
	}

	upper := cases.Upper(language.Und)
	stops := make([]stop, 0, len(path))
	for i, id := range path {
		s := stop{id: id, label: id, glyph: glyphPlain}
		if n, ok := doc.Node(id); ok {
			if n.Title != "" {
				s.label = n.Title
			}
			s.glyph = glyphFor(doc, n)
			if i > 0 && doc.Has(path[i-1]) && doc.Origin(path[i-1]) != doc.Origin(id) {
				s.glyph = glyphChapter
			}
		}
		s.label = upper.String(s.label)
		if r := []rune(s.label); len(r) > maxLabel {
			s.label = string(r[:maxLabel-3]) + "..."
		}
		stops = append(stops, s)
	}

	pdf := gofpdf.New("P", "pt", "A4", "")
	pdf.SetMargins(margin, margin, margin)
	pdf.SetAutoPageBreak(false, 0)
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	if title == "" {
		title = doc.Title
	}

	total := pageCount(len(stops))
	for page := 0; page < total; page++ {
		lo := page * perPage
		hi := min(lo+perPage, len(stops))
		pdf.AddPage()
		drawFrame(pdf, tr(title), page+1, total)
		drawPath(pdf, tr, stops[lo:hi], currentID, hi == len(stops))
	}

	if err := pdf.Error(); err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// pageCount is the number of pages needed for n stops.
func pageCount(n int) int {
	if n <= perPage {
		return 1
	}
	return (n + perPage - 1) / perPage
}

func drawFrame(pdf *gofpdf.Fpdf, title string, page, total int) {
	pdf.SetFillColor(238, 240, 244)
	pdf.Rect(0, 0, pageW, pageH, "F")
	drawWavyBorder(pdf)

	pdf.SetDrawColor(30, 40, 70)
	pdf.SetTextColor(30, 40, 70)
	pdf.SetLineWidth(1)

	pdf.SetFont("Helvetica", "B", titleSize)
	pdf.SetXY(pageW-margin-200, margin+2)
	pdf.CellFormat(200, 14, "Story Map", "", 0, "R", false, 0, "")
	pdf.SetFont("Helvetica", "", fontSize)
	if title != "" {
		pdf.SetXY(pageW-margin-200, margin+18)
		pdf.CellFormat(200, 10, title, "", 0, "R", false, 0, "")
	}
	if total > 1 {
		pdf.SetXY(pageW-margin-200, margin+28)
		pdf.CellFormat(200, 10, fmt.Sprintf("Page %d of %d", page, total), "", 0, "R", false, 0, "")
	}
	drawCompassRose(pdf, pageW-margin-55, margin+80)
}

// drawPath draws one page worth of stops. last marks the page holding the
// end of the playthrough, where the current node is flagged.
func drawPath(pdf *gofpdf.Fpdf, tr func(string) string, stops []stop, currentID string, last bool) {
	positions := layout(len(stops))

	pdf.SetDrawColor(40, 110, 180)
	pdf.SetLineWidth(2)
	pdf.SetDashPattern([]float64{10, 6}, 0)
	for i := 0; i < len(positions)-1; i++ {
		pdf.Line(positions[i][0], positions[i][1], positions[i+1][0], positions[i+1][1])
	}
	pdf.SetDashPattern([]float64{}, 0)
	pdf.SetLineWidth(1)

	for i, s := range stops {
		x, y := positions[i][0], positions[i][1]
		current := last && i == len(stops)-1 && s.id == currentID
		drawStop(pdf, x, y, s.glyph, current)

		pdf.SetFont("Helvetica", "B", labelSize)
		pdf.SetTextColor(20, 25, 40)
		pdf.SetXY(x-stopSize/2-4, y+stopSize/2+4)
		pdf.CellFormat(stopSize+8, 10, tr(s.label), "", 0, "C", false, 0, "")
		if current {
			pdf.SetFont("Helvetica", "I", 7)
			pdf.SetXY(x-stopSize/2, y+stopSize/2+14)
			pdf.CellFormat(stopSize, 8, "You are here", "", 0, "C", false, 0, "")
		}
	}
}

func glyphFor(doc *story.Document, n *story.Node) glyph {
	switch {
	case n.ID == doc.StartNodeID:
		return glyphStart
	case n.IsEnding():
		return glyphEnding
	}
	for i := range n.Choices {
		for _, to := range n.Choices[i].Targets() {
			if to == n.ID {
				return glyphLoop
			}
		}
	}
	for i := range n.Choices {
		if n.Choices[i].Kind() == story.ChoiceCheck {
			return glyphCheck
		}
	}
	return glyphPlain
}

// layout places n stops on a snake path that zig-zags down the page. Rows
// restart at the top every perPage stops.
func layout(n int) [][2]float64 {
	positions := make([][2]float64, n)
	x0 := float64(margin) + stopSize
	y0 := float64(margin) + 120
	for i := range positions {
		row, col := (i%perPage)/perRow, i%perRow
		if row%2 == 1 {
			col = perRow - 1 - col
		}
		positions[i][0] = x0 + float64(col)*pathStep
		positions[i][1] = y0 + float64(row)*pathStep
	}
	return positions
}

func drawWavyBorder(pdf *gofpdf.Fpdf) {
	pts := wavyRectPoints(margin, margin, pageW-2*margin, pageH-2*margin, 24, 3, 4)
	pdf.SetDrawColor(0, 0, 0)
	pdf.SetLineWidth(2)
	pdf.Polygon(pts, "D")
	pdf.SetLineWidth(1)
}

// wavyRectPoints walks the rectangle clockwise and pushes each point out along
// the side's normal by a sine wave, waves full periods per side. Corners stay
// on the rectangle.
func wavyRectPoints(x, y, w, h float64, steps, waves int, amp float64) []gofpdf.PointType {
	corners := [5]gofpdf.PointType{{X: x, Y: y}, {X: x + w, Y: y}, {X: x + w, Y: y + h}, {X: x, Y: y + h}, {X: x, Y: y}}
	pts := make([]gofpdf.PointType, 0, steps*4)
	for side := 0; side < 4; side++ {
		a, b := corners[side], corners[side+1]
		dx, dy := b.X-a.X, b.Y-a.Y
		l := math.Hypot(dx, dy)
		nx, ny := dy/l, -dx/l
		for i := 0; i < steps; i++ {
			t := float64(i) / float64(steps)
			off := amp * math.Sin(t*2*math.Pi*float64(waves))
			pts = append(pts, gofpdf.PointType{X: a.X + t*dx + off*nx, Y: a.Y + t*dy + off*ny})
		}
	}
	return pts
}

func drawCompassRose(pdf *gofpdf.Fpdf, cx, cy float64) {
	const rad = 22.0
	pdf.SetDrawColor(30, 40, 70)
	pdf.Circle(cx, cy, rad, "D")
	for i := 0; i < 8; i++ {
		angle := float64(i)*45.0*math.Pi/180 - math.Pi/2
		if i%2 == 0 {
			pdf.SetLineWidth(1.5)
		} else {
			pdf.SetLineWidth(0.7)
		}
		pdf.Line(cx, cy, cx+rad*math.Cos(angle), cy+rad*math.Sin(angle))
	}
	pdf.SetLineWidth(1)
	pdf.SetFont("Helvetica", "B", 8)
	pdf.SetXY(cx-4, cy-rad-13)
	pdf.CellFormat(8, 6, "N", "", 0, "C", false, 0, "")
}

func drawStop(pdf *gofpdf.Fpdf, x, y float64, g glyph, current bool) {
	r := stopSize / 2.0
	if current {
		pdf.SetDrawColor(200, 60, 40)
		pdf.SetLineWidth(2)
		pdf.Circle(x, y, r+4.0, "D")
	}
	pdf.SetDrawColor(0, 0, 0)
	pdf.SetLineWidth(1.2)
	switch g {
	case glyphStart:
		// flag
		pdf.Line(x-r*0.3, y+r*0.5, x-r*0.3, y-r*0.5)
		pdf.Polygon([]gofpdf.PointType{
			{X: x - r*0.3, Y: y - r*0.5},
			{X: x + r*0.4, Y: y - r*0.3},
			{X: x - r*0.3, Y: y - r*0.1},
		}, "D")
	case glyphCheck:
		// d20
		pdf.Polygon(hexagon(x, y, r*0.5), "D")
		pdf.Line(x, y-r*0.5, x-r*0.43, y+r*0.25)
		pdf.Line(x, y-r*0.5, x+r*0.43, y+r*0.25)
		pdf.Line(x-r*0.43, y+r*0.25, x+r*0.43, y+r*0.25)
	case glyphEnding:
		pdf.Circle(x, y, r*0.45, "D")
		pdf.SetFillColor(30, 40, 70)
		pdf.Circle(x, y, r*0.2, "F")
	case glyphChapter:
		// gate
		pdf.Arc(x, y, r*0.45, r*0.45, 0, 180, 360, "D")
		pdf.Line(x-r*0.45, y, x-r*0.45, y+r*0.5)
		pdf.Line(x+r*0.45, y, x+r*0.45, y+r*0.5)
	case glyphLoop:
		pdf.Arc(x, y, r*0.4, r*0.4, 0, 30, 330, "D")
		pdf.Line(x+r*0.35, y-r*0.2, x+r*0.5, y-r*0.35)
	default:
		pdf.Circle(x, y, r*0.35, "D")
	}
	pdf.SetLineWidth(1)
}

func hexagon(cx, cy, r float64) []gofpdf.PointType {
	pts := make([]gofpdf.PointType, 0, 6)
	for i := 0; i < 6; i++ {
		a := float64(i)*math.Pi/3 - math.Pi/2
		pts = append(pts, gofpdf.PointType{X: cx + r*math.Cos(a), Y: cy + r*math.Sin(a)})
	}
	return pts
}
