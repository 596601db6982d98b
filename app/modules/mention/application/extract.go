package mentionservice

import (
	"regexp"
	"sort"
	"strings"
)

// tokenPattern matches <displayName:playerId>. The id is restricted to
// document-id characters so inline HTML such as <a href="x:y"> never matches.
var tokenPattern = regexp.MustCompile(`<([^<>:]*):([A-Za-z0-9_-]*)>`)

// Set is a set of player ids.
type Set map[string]struct{}

// Has reports whether id is in the set.
func (s Set) Has(id string) bool {
	_, ok := s[id]
	return ok
}

// Minus returns the ids in s but not in other, sorted.
func (s Set) Minus(other Set) []string {
	var out []string
	for id := range s {
		if !other.Has(id) {
			out = append(out, id)
		}
	}
	sort.Strings(out)
	return out
}

// Intersect returns the ids present in both sets, sorted.
func (s Set) Intersect(other Set) []string {
	var out []string
	for id := range s {
		if other.Has(id) {
			out = append(out, id)
		}
	}
	sort.Strings(out)
	return out
}

// Sorted returns the ids in ascending order.
func (s Set) Sorted() []string {
	out := make([]string, 0, len(s))
	for id := range s {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// ExtractFromText returns the player ids referenced by mention tokens in text.
// Tokens whose id segment is empty are dropped.
func ExtractFromText(text string) Set {
	set := Set{}
	addFromText(set, text)
	return set
}

func addFromText(set Set, text string) {
	if !strings.Contains(text, "<") {
		return
	}
	for _, m := range tokenPattern.FindAllStringSubmatch(text, -1) {
		if id := m[2]; id != "" {
			set[id] = struct{}{}
		}
	}
}

// ExtractMentions scans a stored record for mention tokens. Top-level string
// fields are scanned, and so are string values one level down: the values of a
// nested object and the elements of an array. Anything deeper is ignored, which
// means side-event descriptions and table cells do not contribute mentions.
func ExtractMentions(fields map[string]any) Set {
	set := Set{}
	for _, v := range fields {
		switch val := v.(type) {
		case string:
			addFromText(set, val)
		case map[string]any:
			for _, nested := range val {
				if s, ok := nested.(string); ok {
					addFromText(set, s)
				}
			}
		case []any:
			for _, nested := range val {
				if s, ok := nested.(string); ok {
					addFromText(set, s)
				}
			}
		case []string:
			for _, s := range val {
				addFromText(set, s)
			}
		}
	}
	return set
}
