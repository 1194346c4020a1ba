package toc

import (
	"regexp"
	"strings"
)

var (
	leadingNumber = regexp.MustCompile(`^\d+(\.\d+)*\.?\s+`)
	dotLeader     = regexp.MustCompile(`\s*\.{2,}.*$`)
	trailingPage  = regexp.MustCompile(`\s+\d+$`)
)

// Normalize upper-cases s, maps underscores to spaces and collapses
// whitespace, so schema names and extracted titles compare equal.
func Normalize(s string) string {
	return collapse(strings.ToUpper(strings.ReplaceAll(s, "_", " ")))
}

// Mentions reports whether title contains key after normalizing both.
func Mentions(title, key string) bool {
	k := Normalize(key)
	if k == "" {
		return false
	}
	return strings.Contains(Normalize(title), k)
}

// Labels returns the normalized label of every non-empty line in raw, with
// leading section numbering, dot leaders and the page number removed.
func Labels(raw string) []string {
	var labels []string
	for _, line := range strings.Split(raw, "\n") {
		label := strings.TrimSpace(line)
		label = leadingNumber.ReplaceAllString(label, "")
		label = dotLeader.ReplaceAllString(label, "")
		label = trailingPage.ReplaceAllString(label, "")
		if label = Normalize(label); label != "" {
			labels = append(labels, label)
		}
	}
	return labels
}

// Missing returns the names from sections that no label in raw equals.
func Missing(raw string, sections []string) []string {
	have := make(map[string]bool)
	for _, l := range Labels(raw) {
		have[l] = true
	}
	var missing []string
	for _, s := range sections {
		if !have[Normalize(s)] {
			missing = append(missing, s)
		}
	}
	return missing
}
