// Package reconcile joins the service catalog, the bed-availability feed and
// the room inventory feed into one Building/RoomClass hierarchy.
//
// The three feeds name the same buildings and classes differently
// ("Gedung Mina", "Unit Mina", "Mina"), so every comparison goes through
// Normalize and the bidirectional containment rule in contains.
package reconcile

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// genericTokens are words one feed prefixes to a label and another omits.
// They are dropped only when another token follows them.
var genericTokens = map[string]struct{}{
	// building
	"gedung":   {},
	"building": {},
	"unit":     {},
	// room
	"ruang":   {},
	"ruangan": {},
	"kamar":   {},
	"room":    {},
	// by / name-of
	"an": {},
	"by": {},
	// ward
	"bangsal": {},
	"ward":    {},
	// class
	"kelas": {},
	"class": {},
}

// Normalize reduces a free-text label to its comparison key.
// It never fails and Normalize(Normalize(s)) == Normalize(s).
func Normalize(label string) string {
	// cases.Caser keeps state, so one per call.
	lowered := cases.Lower(language.Indonesian).String(label)

	tokens := strings.Fields(lowered)
	kept := make([]string, 0, len(tokens))
	for i, tok := range tokens {
		if i < len(tokens)-1 {
			// "- " separators and "Zam- zam" style dangling hyphens
			tok = strings.TrimRight(tok, "-")
			if tok == "" {
				continue
			}
			if _, generic := genericTokens[tok]; generic {
				continue
			}
		}
		kept = append(kept, tok)
	}
	return strings.Join(kept, " ")
}

// contains is the bidirectional substring rule on normalized labels.
// Empty keys never match: an unnamed label says nothing about identity.
func contains(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	return strings.Contains(a, b) || strings.Contains(b, a)
}

// pair is a normalized building+class key.
type pair struct {
	building string
	class    string
}

func newPair(building, class string) pair {
	return pair{building: Normalize(building), class: Normalize(class)}
}

func (p pair) matches(building, class string) bool {
	return contains(p.building, Normalize(building)) && contains(p.class, Normalize(class))
}
