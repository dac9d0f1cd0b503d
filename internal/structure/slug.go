package structure

import (
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// RootSlug identifies the index node; it is never assigned to a topic.
const RootSlug = "index"

const fallbackSlug = "section"

// Slugify normalizes a title into a lowercase, hyphen separated slug.
// Accents are folded ("Überblick" -> "uberblick"); a title without any
// letters or digits yields "section".
func Slugify(title string) string {
	t := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, title)
	if err != nil {
		folded = title
	}

	var b strings.Builder
	pendingDash := false
	for _, r := range strings.ToLower(folded) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if pendingDash && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingDash = false
			b.WriteRune(r)
			continue
		}
		pendingDash = true
	}
	if b.Len() == 0 {
		return fallbackSlug
	}
	return b.String()
}

// slugger hands out unique slugs in call order.
type slugger struct {
	used map[string]bool
}

func newSlugger() *slugger {
	return &slugger{used: map[string]bool{RootSlug: true}}
}

// next returns Slugify(title), suffixed -2, -3, ... when already taken.
func (s *slugger) next(title string) string {
	base := Slugify(title)
	slug := base
	for n := 2; s.used[slug]; n++ {
		slug = base + "-" + strconv.Itoa(n)
	}
	s.used[slug] = true
	return slug
}
