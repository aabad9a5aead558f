package confluence

// FindPageQuery defines the query parameters for looking up a page by title:
// https://developer.atlassian.com/cloud/confluence/rest/v1/api-group-content/#api-wiki-rest-api-content-get
type FindPageQuery struct {
	SpaceKey string   `url:"spaceKey"`
	Title    string   `url:"title"`
	Type     string   `url:"type"`
	Expand   []string `url:"expand,omitempty,comma"`
	Limit    int      `url:"limit,omitempty"`
}

// GetPageByIDQuery defines the query parameters for fetching one content
// item, used for the fresh version read right before an update.
type GetPageByIDQuery struct {
	ID     string   `url:"-"` // ID of the page; required
	Expand []string `url:"expand,omitempty,comma"`
}

// AttachmentQuery filters the child-attachment listing down to one filename:
// https://developer.atlassian.com/cloud/confluence/rest/v1/api-group-content---attachments/#api-wiki-rest-api-content-id-child-attachment-get
type AttachmentQuery struct {
	Filename string `url:"filename,omitempty"`
	Limit    int    `url:"limit,omitempty"`
}
