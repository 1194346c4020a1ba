package pdfdoc

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func chars(s string, x, y, size float64) []glyph {
	var out []glyph
	w := size * 0.5
	for _, r := range s {
		out = append(out, glyph{X: x, Y: y, W: w, FontSize: size, S: string(r)})
		x += w
	}
	return out
}

func TestLayoutText_OrdersLinesTopToBottom(t *testing.T) {
	var g []glyph
	g = append(g, chars("second", 72, 680, 12)...)
	g = append(g, chars("first", 72, 700, 12)...)

	assert.Equal(t, "first\nsecond", layoutText(g))
}

func TestLayoutText_InsertsSpaceForGaps(t *testing.T) {
	var g []glyph
	g = append(g, chars("TABLE", 72, 700, 12)...)
	g = append(g, chars("OF", 120, 700, 12)...)
	g = append(g, chars("CONTENT", 150, 700, 12)...)

	assert.Equal(t, "TABLE OF CONTENT", layoutText(g))
}

func TestLayoutText_ToleratesBaselineJitter(t *testing.T) {
	g := []glyph{
		{X: 72, Y: 700, W: 6, FontSize: 12, S: "A"},
		{X: 78, Y: 700.8, W: 6, FontSize: 12, S: "B"},
		{X: 84, Y: 699.5, W: 6, FontSize: 12, S: "C"},
	}
	assert.Equal(t, "ABC", layoutText(g))
}

func TestLayoutText_UnsortedInput(t *testing.T) {
	g := []glyph{
		{X: 84, Y: 700, W: 6, FontSize: 12, S: "C"},
		{X: 72, Y: 700, W: 6, FontSize: 12, S: "A"},
		{X: 78, Y: 700, W: 6, FontSize: 12, S: "B"},
	}
	assert.Equal(t, "ABC", layoutText(g))
}

func TestLayoutText_Empty(t *testing.T) {
	assert.Equal(t, "", layoutText(nil))
	assert.Equal(t, "", layoutText([]glyph{{X: 1, Y: 1, W: 3, FontSize: 12, S: "   "}}))
}
