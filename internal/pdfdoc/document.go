package pdfdoc

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"sync"

	pdflib "github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

var (
	// ErrDecode marks input that cannot be read as a PDF.
	ErrDecode = errors.New("pdf decode failed")
	// ErrPageRange is returned for pages outside 1..PageCount.
	ErrPageRange = errors.New("page out of range")
)

var disableConfigDir sync.Once

// Document is a decoded PDF backed by an ephemeral working copy on disk.
// ExtractRegion is not safe for concurrent calls against the same page;
// callers serialize per page.
type Document struct {
	path   string
	file   *os.File
	reader *pdflib.Reader
	sizes  []Size

	mu     sync.Mutex
	glyphs map[int][]glyph
}

// Open decodes data. Page dimensions come from pdfcpu (relaxed validation),
// positioned text from ledongthuc/pdf reading the temp working copy.
func Open(data []byte) (*Document, error) {
	disableConfigDir.Do(api.DisableConfigDir)

	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed

	dims, err := pageDims(data, conf)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}

	// ledongthuc/pdf wants a file it can ReadAt for the lifetime of the document.
	tmp, err := os.CreateTemp("", "docverify-*.pdf")
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return nil, fmt.Errorf("write temp file: %w", err)
	}
	tmp.Close()

	f, reader, err := openReader(tmpPath)
	if err != nil {
		os.Remove(tmpPath)
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}

	n := reader.NumPage()
	if n == 0 {
		f.Close()
		os.Remove(tmpPath)
		return nil, fmt.Errorf("%w: document has no pages", ErrDecode)
	}

	sizes := make([]Size, n)
	for i := range sizes {
		switch {
		case i < len(dims):
			sizes[i] = dims[i]
		case len(dims) > 0:
			sizes[i] = dims[0]
		default:
			sizes[i] = Letter
		}
	}

	return &Document{
		path:   tmpPath,
		file:   f,
		reader: reader,
		sizes:  sizes,
		glyphs: make(map[int][]glyph),
	}, nil
}

func pageDims(data []byte, conf *model.Configuration) (sizes []Size, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("pdfcpu panic: %v", r)
		}
	}()
	ctx, err := api.ReadContext(bytes.NewReader(data), conf)
	if err != nil {
		return nil, fmt.Errorf("read context: %w", err)
	}
	if err := ctx.EnsurePageCount(); err != nil {
		return nil, fmt.Errorf("ensure page count: %w", err)
	}
	dims, err := ctx.PageDims()
	if err != nil {
		return nil, fmt.Errorf("page dims: %w", err)
	}
	for _, d := range dims {
		if d.Width <= 0 || d.Height <= 0 {
			sizes = append(sizes, Letter)
			continue
		}
		sizes = append(sizes, Size{Width: d.Width, Height: d.Height})
	}
	return sizes, nil
}

func openReader(path string) (f *os.File, r *pdflib.Reader, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("pdf reader panic: %v", rec)
		}
	}()
	return pdflib.Open(path)
}

// PageCount returns the number of pages.
func (d *Document) PageCount() int {
	return len(d.sizes)
}

// PageSize returns the media-box size of a 1-based page, or Letter when out of range.
func (d *Document) PageSize(page int) Size {
	if page < 1 || page > len(d.sizes) {
		return Letter
	}
	return d.sizes[page-1]
}

// ExtractRegion returns the trimmed text whose glyph origins fall inside r on
// the given 1-based page.
func (d *Document) ExtractRegion(page int, r Rect) (string, error) {
	if page < 1 || page > len(d.sizes) {
		return "", fmt.Errorf("%w: page %d of %d", ErrPageRange, page, len(d.sizes))
	}
	glyphs, err := d.pageGlyphs(page)
	if err != nil {
		return "", err
	}
	var inside []glyph
	for _, g := range glyphs {
		if r.Contains(g.X, g.Y) {
			inside = append(inside, g)
		}
	}
	return layoutText(inside), nil
}

// pageGlyphs decodes a page's content stream once and caches the result.
func (d *Document) pageGlyphs(page int) ([]glyph, error) {
	d.mu.Lock()
	cached, ok := d.glyphs[page]
	d.mu.Unlock()
	if ok {
		return cached, nil
	}

	glyphs, err := d.decodePage(page)
	if err != nil {
		return nil, err
	}

	d.mu.Lock()
	d.glyphs[page] = glyphs
	d.mu.Unlock()
	return glyphs, nil
}

func (d *Document) decodePage(page int) (glyphs []glyph, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("decode page %d: %v", page, r)
		}
	}()
	p := d.reader.Page(page)
	if p.V.IsNull() {
		return nil, fmt.Errorf("decode page %d: missing page object", page)
	}
	for _, t := range p.Content().Text {
		glyphs = append(glyphs, glyph{X: t.X, Y: t.Y, W: t.W, FontSize: t.FontSize, S: t.S})
	}
	return glyphs, nil
}

// Close releases the reader and deletes the working copy.
func (d *Document) Close() error {
	var errs []error
	if d.file != nil {
		errs = append(errs, d.file.Close())
	}
	if d.path != "" {
		if err := os.Remove(d.path); err != nil && !errors.Is(err, os.ErrNotExist) {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
