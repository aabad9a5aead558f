package storagefmt

import (
	"fmt"
	"regexp"
	"strings"
)

var nonAlnum = regexp.MustCompile(`[^a-zA-Z0-9]+`)

// slugify turns heading text into an anchor identifier: lowercase, runs of
// punctuation and whitespace collapse to single hyphens.
func slugify(title string) string {
	str := nonAlnum.ReplaceAllString(title, " ")
	str = strings.ToLower(str)
	str = strings.Join(strings.Fields(str), "-")

	return strings.Trim(str, "-")
}

// slugger hands out document-unique anchors.  The first occurrence of a slug
// is unsuffixed, repeats get -1, -2, and so on.  A suffixed candidate can
// itself collide with a heading whose natural slug already looks like
// "setup-1", so every candidate is checked against the anchors issued so far.
type slugger struct {
	issued map[string]bool
	next   map[string]int
}

func newSlugger() *slugger {
	return &slugger{
		issued: map[string]bool{},
		next:   map[string]int{},
	}
}

func (s *slugger) anchorFor(title string) string {
	slug := slugify(title)
	if slug == "" {
		slug = "section"
	}

	candidate := slug
	for n := s.next[slug]; ; n++ {
		if n > 0 {
			candidate = fmt.Sprintf("%s-%d", slug, n)
		}
		if !s.issued[candidate] {
			s.issued[candidate] = true
			s.next[slug] = n + 1
			return candidate
		}
	}
}
