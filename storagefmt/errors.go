package storagefmt

import "fmt"

// AssetMissingError means the document referenced a local image that doesn't
// exist on disk.  Conversion stops before anything touches the network.
type AssetMissingError struct {
	// Ref is the path as written in the Markdown source.
	Ref string
	// Path is where we looked for it, relative to the document's directory.
	Path string
}

func (e *AssetMissingError) Error() string {
	return fmt.Sprintf("storagefmt: referenced image %s does not exist (looked at %s)", e.Ref, e.Path)
}

// DuplicateAssetError means two images from different directories share a
// filename.  Attachments are identified by filename alone, so this is
// ambiguous and we bail out rather than picking one.
type DuplicateAssetError struct {
	Filename   string
	FirstPath  string
	SecondPath string
}

func (e *DuplicateAssetError) Error() string {
	return fmt.Sprintf("storagefmt: duplicate image filename %s (%s vs %s)", e.Filename, e.FirstPath, e.SecondPath)
}

// MalformedMarkdownError points at the source line that made the document
// unconvertible.
type MalformedMarkdownError struct {
	Line   int
	Reason string
}

func (e *MalformedMarkdownError) Error() string {
	return fmt.Sprintf("storagefmt: malformed markdown at line %d: %s", e.Line, e.Reason)
}
