package pdfdoc

import (
	"math"
	"sort"
	"strings"
)

// glyph is one positioned text run as reported by the content stream.
type glyph struct {
	X, Y     float64
	W        float64
	FontSize float64
	S        string
}

func (g glyph) lineTolerance() float64 {
	return math.Max(1.5, g.FontSize*0.4)
}

// layoutText orders glyphs top-to-bottom, left-to-right and joins them into
// lines. A horizontal gap wider than a quarter of the font size becomes a space.
func layoutText(glyphs []glyph) string {
	if len(glyphs) == 0 {
		return ""
	}
	sorted := make([]glyph, len(glyphs))
	copy(sorted, glyphs)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if math.Abs(a.Y-b.Y) > a.lineTolerance() {
			return a.Y > b.Y
		}
		return a.X < b.X
	})

	var lines [][]glyph
	var current []glyph
	lineY := sorted[0].Y
	for _, g := range sorted {
		if len(current) > 0 && math.Abs(g.Y-lineY) > g.lineTolerance() {
			lines = append(lines, current)
			current = nil
		}
		if len(current) == 0 {
			lineY = g.Y
		}
		current = append(current, g)
	}
	if len(current) > 0 {
		lines = append(lines, current)
	}

	var buf strings.Builder
	for i, line := range lines {
		sort.SliceStable(line, func(a, b int) bool { return line[a].X < line[b].X })
		var lb strings.Builder
		prevEnd := math.Inf(-1)
		for _, g := range line {
			if lb.Len() > 0 && g.X-prevEnd > math.Max(1, g.FontSize*0.25) && !strings.HasSuffix(lb.String(), " ") {
				lb.WriteByte(' ')
			}
			lb.WriteString(g.S)
			prevEnd = g.X + g.W
		}
		if i > 0 {
			buf.WriteByte('\n')
		}
		buf.WriteString(strings.TrimRight(lb.String(), " "))
	}
	return strings.TrimSpace(buf.String())
}
