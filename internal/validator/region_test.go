package validator

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Novanna/doc-verifier/internal/templates"
)

func TestValidateRegion(t *testing.T) {
	tmpl := builtin(t, "UAT")
	title := tmpl.Cover.Regions[1]
	require.Equal(t, templates.KindTitle, title.Kind)

	doc := newFakeDoc(1)
	r := newTestRun(doc, tmpl, DefaultLocator())
	rect := title.Rect(r.pageHeight)

	err := r.validateRegion(context.Background(), 1, title, rect)
	assert.ErrorIs(t, err, ErrEmptyRegion)

	doc.place(1, title, "Production Verification Test")
	err = r.validateRegion(context.Background(), 1, title, rect)
	assert.ErrorIs(t, err, ErrPredicate)
	assert.Equal(t, KindPredicate, Diagnose(err).Kind)
	assert.Equal(t, title.Name, Diagnose(err).Region)

	doc.place(1, title, "User Acceptance Test")
	assert.NoError(t, r.validateRegion(context.Background(), 1, title, rect))
}

func TestValidateRegion_ExtractionFailure(t *testing.T) {
	doc := newFakeDoc(2)
	doc.fail[2] = errBrokenPage
	r := newTestRun(doc, &templates.Template{}, DefaultLocator())
	region := templates.Region{Name: "BODY", Kind: templates.KindContent, Box: []float64{0, 0, 100, 100}}

	err := r.validateRegion(context.Background(), 2, region, region.Rect(792))
	assert.ErrorIs(t, err, errBrokenPage)
	d := Diagnose(err)
	assert.Equal(t, KindExtraction, d.Kind)
	assert.Equal(t, 2, d.Page)
}

func TestDiagnose(t *testing.T) {
	assert.Equal(t, KindTimeout, Diagnose(context.DeadlineExceeded).Kind)
	assert.Equal(t, KindInternal, Diagnose(assert.AnError).Kind)

	err := &CheckError{Kind: KindAnchorNotFound, Page: 4, Region: "SCOPE", Err: ErrAnchorNotFound}
	assert.Equal(t, `anchor_not_found: page 4 region "SCOPE": anchor not found`, err.Error())
}
