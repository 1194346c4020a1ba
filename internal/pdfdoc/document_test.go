package pdfdoc

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpen_RejectsNonPDF(t *testing.T) {
	doc, err := Open([]byte("this is not a pdf"))
	require.Error(t, err)
	assert.Nil(t, doc)
	assert.True(t, errors.Is(err, ErrDecode), "expected ErrDecode, got %v", err)
}

func TestOpen_RejectsEmptyInput(t *testing.T) {
	_, err := Open(nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDecode)
}

func TestDocument_PageBounds(t *testing.T) {
	d := &Document{sizes: []Size{{Width: 595, Height: 842}}, glyphs: map[int][]glyph{}}

	assert.Equal(t, 1, d.PageCount())
	assert.Equal(t, Size{Width: 595, Height: 842}, d.PageSize(1))
	assert.Equal(t, Letter, d.PageSize(2))

	_, err := d.ExtractRegion(2, Rect{Width: 10, Height: 10})
	assert.ErrorIs(t, err, ErrPageRange)
}

func TestDocument_ExtractRegionUsesCachedGlyphs(t *testing.T) {
	d := &Document{
		sizes: []Size{Letter},
		glyphs: map[int][]glyph{
			1: append(chars("APPROVAL", 200, 740, 12), chars("footer", 72, 30, 8)...),
		},
	}

	text, err := d.ExtractRegion(1, FromTop(200, 45, 250, 45, Letter.Height))
	require.NoError(t, err)
	assert.Equal(t, "APPROVAL", text)

	text, err = d.ExtractRegion(1, FromTop(0, 0, 50, 50, Letter.Height))
	require.NoError(t, err)
	assert.Empty(t, text)
}

// singlePagePDF builds a Letter page drawing each line in 12pt Courier at
// x=72 with the given baseline.
func singlePagePDF(lines map[float64]string) []byte {
	var content strings.Builder
	for y, text := range lines {
		fmt.Fprintf(&content, "BT /F1 12 Tf 72 %g Td (%s) Tj ET\n", y, text)
	}
	stream := strings.TrimSuffix(content.String(), "\n")
	widths := strings.TrimSpace(strings.Repeat("600 ", 126-32+1))

	objects := []string{
		"<< /Type /Catalog /Pages 2 0 R >>",
		"<< /Type /Pages /Kids [3 0 R] /Count 1 >>",
		"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Resources << /Font << /F1 5 0 R >> >> /Contents 4 0 R >>",
		fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(stream), stream),
		"<< /Type /Font /Subtype /Type1 /BaseFont /Courier /Encoding /WinAnsiEncoding /FirstChar 32 /LastChar 126 /Widths [" + widths + "] >>",
	}

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objects))
	for i, obj := range objects {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}
	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n0000000000 65535 f \n", len(objects)+1)
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, xref)
	return buf.Bytes()
}

func TestOpen_ExtractsPositionedText(t *testing.T) {
	d, err := Open(singlePagePDF(map[float64]string{
		702: "TABLE OF CONTENT",
		672: "INTRODUCTION ..... 3",
	}))
	require.NoError(t, err)

	assert.Equal(t, 1, d.PageCount())
	assert.Equal(t, Letter, d.PageSize(1))

	all, err := d.ExtractRegion(1, FromTop(0, 0, 612, 792, 792))
	require.NoError(t, err)
	assert.Equal(t, "TABLE OF CONTENT\nINTRODUCTION ..... 3", all)

	tests := []struct {
		name string
		top  float64
		want string
	}{
		{"strip over the heading", 80, "TABLE OF CONTENT"},
		{"strip over the entry", 110, "INTRODUCTION ..... 3"},
		{"entry baseline on the bottom edge", 100, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			text, err := d.ExtractRegion(1, FromTop(-68, tt.top, 612, 20, 792))
			require.NoError(t, err)
			assert.Equal(t, tt.want, text)
		})
	}

	path := d.path
	require.NoError(t, d.Close())
	_, err = os.Stat(path)
	assert.ErrorIs(t, err, os.ErrNotExist)
}
