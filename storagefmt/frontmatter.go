package storagefmt

import (
	"bytes"
	"fmt"

	"github.com/adrg/frontmatter"
)

// FrontMatter is the optional YAML header a document may start with.  It only
// carries publish metadata; none of it ends up in the page body.
type FrontMatter struct {
	Title  string   `yaml:"title"`
	Labels []string `yaml:"labels"`
}

// ParseFrontMatter splits an optional front matter header off the document.
// Documents without front matter come back unchanged.
func ParseFrontMatter(src []byte) (FrontMatter, []byte, error) {
	var fm FrontMatter
	rest, err := frontmatter.Parse(bytes.NewReader(src), &fm)
	if err != nil {
		return FrontMatter{}, nil, fmt.Errorf("storagefmt: couldn't parse front matter: %w", err)
	}
	return fm, rest, nil
}
