// Package report renders a stored verification as Markdown and HTML.
package report

import (
	"bytes"
	"fmt"
	"sort"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/Novanna/doc-verifier/internal/pipeline"
	"github.com/Novanna/doc-verifier/internal/templates"
)

var md = goldmark.New(goldmark.WithExtensions(extension.Table))

// Markdown writes a summary of rec. steps supplies labels and order; keys
// the template no longer declares are listed after them.
func Markdown(rec pipeline.Record, steps []templates.Step) []byte {
	var b bytes.Buffer
	passed := 0
	for _, ok := range rec.Parameters {
		if ok {
			passed++
		}
	}

	fmt.Fprintf(&b, "# Verification %s\n\n", cell(rec.ResponseID))
	fmt.Fprintf(&b, "- Document type: **%s**\n", rec.DocType)
	if rec.Filename != "" {
		fmt.Fprintf(&b, "- File: `%s`\n", strings.ReplaceAll(rec.Filename, "`", "'"))
	}
	fmt.Fprintf(&b, "- Pages: %d\n", rec.PageCount)
	fmt.Fprintf(&b, "- Checked: %s (%d ms)\n", rec.CreatedAt.UTC().Format("2006-01-02 15:04:05 MST"), rec.DurationMs)
	fmt.Fprintf(&b, "- Result: %d of %d checks passed\n\n", passed, len(rec.Parameters))

	b.WriteString("| Step | Check | Result | Detail |\n")
	b.WriteString("|---|---|---|---|\n")
	for _, s := range ordered(rec, steps) {
		ok, present := rec.Parameters[s.Key]
		if !present {
			continue
		}
		result := "pass"
		if !ok {
			result = "**fail**"
		}
		detail := ""
		if d, has := rec.Diagnostics[s.Key]; has {
			detail = string(d.Kind) + ": " + d.Message
		}
		fmt.Fprintf(&b, "| %s | %s | %s | %s |\n", s.Key, cell(s.Label), result, cell(detail))
	}

	if len(rec.Notes) > 0 {
		b.WriteString("\n## Notes\n\n")
		keys := make([]string, 0, len(rec.Notes))
		for k := range rec.Notes {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			for _, n := range rec.Notes[k] {
				fmt.Fprintf(&b, "- step %s: %s\n", k, n)
			}
		}
	}
	return b.Bytes()
}

// HTML renders the Markdown summary to an HTML fragment.
func HTML(rec pipeline.Record, steps []templates.Step) ([]byte, error) {
	var out bytes.Buffer
	if err := md.Convert(Markdown(rec, steps), &out); err != nil {
		return nil, fmt.Errorf("render report: %w", err)
	}
	return out.Bytes(), nil
}

// Page wraps the HTML fragment in a minimal standalone document.
func Page(rec pipeline.Record, steps []templates.Step) ([]byte, error) {
	body, err := HTML(rec, steps)
	if err != nil {
		return nil, err
	}
	var b bytes.Buffer
	b.WriteString("<!DOCTYPE html>\n<html><head><meta charset=\"utf-8\"><title>Verification report</title></head><body>\n")
	b.Write(body)
	b.WriteString("</body></html>\n")
	return b.Bytes(), nil
}

func ordered(rec pipeline.Record, steps []templates.Step) []templates.Step {
	out := append([]templates.Step(nil), steps...)
	known := make(map[string]bool, len(steps))
	for _, s := range steps {
		known[s.Key] = true
	}
	var extra []string
	for k := range rec.Parameters {
		if !known[k] {
			extra = append(extra, k)
		}
	}
	sort.Strings(extra)
	for _, k := range extra {
		out = append(out, templates.Step{Key: k, Label: k})
	}
	return out
}

// cell makes s safe inside a Markdown table cell.
func cell(s string) string {
	s = strings.ReplaceAll(s, "\n", " ")
	return strings.ReplaceAll(s, "|", `\|`)
}
