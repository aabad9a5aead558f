// Package storagefmt converts Markdown into Confluence's XHTML storage
// format.  Conversion is a pure local operation: it records which local
// images the page depends on, but uploading them is the publisher's job.
package storagefmt

// Convert parses one Markdown document and renders it into storage format.
// sourceDir is the directory the document lives in; relative image paths are
// resolved against it and must exist.  On failure no partial result is
// returned: the error is an *AssetMissingError, *DuplicateAssetError or
// *MalformedMarkdownError.
func Convert(src []byte, sourceDir string) (*RenderedPage, error) {
	doc, err := parse(src, sourceDir)
	if err != nil {
		return nil, err
	}

	return &RenderedPage{
		Title:  doc.Title,
		Body:   render(doc),
		Assets: doc.Assets,
	}, nil
}
