// Package rewrite implements the link-range transformation: t.me links
// suffixed with a numeric range are shifted forward by a fixed offset.
package rewrite

import (
	"regexp"
	"strconv"
)

// Offset is added to both endpoints of every matched range.
const Offset = 30

var (
	triggerRe = regexp.MustCompile(`(?i)\bbatch\s*completed\b`)
	linkRe    = regexp.MustCompile(`(https?://t\.me/(?:c/\d+|[A-Za-z0-9_]+)/)(\d+)-(\d+)`)
)

// Match is one link range extracted from message text. Base keeps the URL
// prefix exactly as it appeared, trailing slash included.
type Match struct {
	Base  string
	Start int
	End   int
}

// Shifted renders the match with both endpoints moved forward by offset.
// Leading zeros in the original digits are not preserved.
func (m Match) Shifted(offset int) string {
	return m.Base + strconv.Itoa(m.Start+offset) + "-" + strconv.Itoa(m.End+offset)
}

// Triggered reports whether text contains the trigger phrase: "batch"
// followed by "completed", case-insensitive, any internal whitespace.
func Triggered(text string) bool {
	return triggerRe.MatchString(text)
}

// Extract returns all non-overlapping link-range matches in order of
// appearance.
func Extract(text string) []Match {
	groups := linkRe.FindAllStringSubmatch(text, -1)
	if len(groups) == 0 {
		return nil
	}
	matches := make([]Match, 0, len(groups))
	for _, g := range groups {
		start, err := strconv.Atoi(g[2])
		if err != nil {
			continue
		}
		end, err := strconv.Atoi(g[3])
		if err != nil {
			continue
		}
		matches = append(matches, Match{Base: g[1], Start: start, End: end})
	}
	return matches
}

// ShiftedLinks extracts every link range in text and returns the rewritten
// links, offset applied, preserving order of appearance.
func ShiftedLinks(text string) []string {
	matches := Extract(text)
	if len(matches) == 0 {
		return nil
	}
	links := make([]string, 0, len(matches))
	for _, m := range matches {
		links = append(links, m.Shifted(Offset))
	}
	return links
}
