// Package toc parses table-of-contents text into ordered (title, page) entries.
package toc

import (
	"bufio"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Entry is one line of a table of contents, in order of appearance.
type Entry struct {
	Title string `json:"title"`
	Page  int    `json:"page"`
}

// Style selects the line grammar used by Parse.
type Style int

const (
	// Unnumbered lines look like "INTRODUCTION .......... 3".
	Unnumbered Style = iota
	// Numbered lines look like "2   FUNCTIONAL REQUIREMENT   ......   12".
	Numbered
)

func (s Style) String() string {
	switch s {
	case Unnumbered:
		return "unnumbered"
	case Numbered:
		return "numbered"
	default:
		return fmt.Sprintf("style(%d)", int(s))
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s Style) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Style) UnmarshalText(b []byte) error {
	switch strings.ToLower(strings.TrimSpace(string(b))) {
	case "", "unnumbered":
		*s = Unnumbered
	case "numbered":
		*s = Numbered
	default:
		return fmt.Errorf("unknown toc style %q", string(b))
	}
	return nil
}

var (
	unnumberedLine = regexp.MustCompile(`^\s*(.+?)\s*\.{2,}\s*(\d+)\s*$`)
	numberedLine   = regexp.MustCompile(`^\s*(\d+)\s*([A-Z0-9][A-Z0-9 \-]*?)\s*\.{3,}\s*(\d+)\s*$`)
	spaces         = regexp.MustCompile(`\s+`)
)

// Parse splits raw into lines and returns the entries whose lines match
// style. Lines of any other shape are skipped.
func Parse(raw string, style Style) []Entry {
	var entries []Entry
	scanner := bufio.NewScanner(strings.NewReader(raw))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := scanner.Text()
		var (
			e  Entry
			ok bool
		)
		switch style {
		case Numbered:
			e, ok = parseNumbered(line)
		default:
			e, ok = parseUnnumbered(line)
		}
		if ok {
			entries = append(entries, e)
		}
	}
	return entries
}

func parseUnnumbered(line string) (Entry, bool) {
	m := unnumberedLine.FindStringSubmatch(line)
	if m == nil {
		return Entry{}, false
	}
	title := collapse(strings.TrimRight(m[1], ". "))
	page, err := strconv.Atoi(m[2])
	if title == "" || err != nil {
		return Entry{}, false
	}
	return Entry{Title: title, Page: page}, true
}

func parseNumbered(line string) (Entry, bool) {
	m := numberedLine.FindStringSubmatch(line)
	if m == nil {
		return Entry{}, false
	}
	heading := collapse(m[2])
	page, err := strconv.Atoi(m[3])
	if heading == "" || err != nil {
		return Entry{}, false
	}
	return Entry{Title: m[1] + " " + heading, Page: page}, true
}

func collapse(s string) string {
	return strings.TrimSpace(spaces.ReplaceAllString(s, " "))
}
