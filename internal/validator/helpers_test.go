package validator

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Novanna/doc-verifier/internal/templates"
	"github.com/Novanna/doc-verifier/internal/workpool"
)

func builtin(t *testing.T, id string) *templates.Template {
	t.Helper()
	reg, err := templates.Builtin()
	require.NoError(t, err)
	tmpl, err := reg.Lookup(id)
	require.NoError(t, err)
	return tmpl
}

func newTestRun(src TextSource, tmpl *templates.Template, locator AreaLocator) *run {
	return &run{
		src:        src,
		tmpl:       tmpl,
		preds:      templates.NewPredicates(),
		locator:    locator,
		locks:      NewPageLocks(),
		pageHeight: src.PageSize(1).Height,
		log:        slog.New(slog.DiscardHandler),
		notes:      make(map[string][]string),
	}
}

func newTestEngine(t *testing.T, opts ...Option) *Engine {
	t.Helper()
	pool := workpool.New(8, nil)
	pool.Start()
	t.Cleanup(pool.Stop)
	return NewEngine(pool, append([]Option{WithLogger(slog.New(slog.DiscardHandler))}, opts...)...)
}
