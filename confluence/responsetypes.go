package confluence

// ContentSearchResult is the envelope for v1 content queries (find page by
// title).  Start/Limit paginate, but a title+space query returns at most one
// hit so we never chase pages here.
type ContentSearchResult struct {
	Results []Page `json:"results"`
	Start   int    `json:"start"`
	Limit   int    `json:"limit"`
	Size    int    `json:"size"`
}

// AttachmentList is the envelope for the child-attachment listing and for the
// upload response (uploading returns the created attachments as a list).
type AttachmentList struct {
	Results []Attachment `json:"results"`
	Size    int          `json:"size"`
}
