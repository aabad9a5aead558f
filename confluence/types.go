package confluence

// See https://developer.atlassian.com/cloud/confluence/rest/v1/api-group-space/#api-wiki-rest-api-space-spacekey-get
type Space struct {
	ID   int64  `json:"id,omitempty"`
	Key  string `json:"key,omitempty"`
	Name string `json:"name,omitempty"`
	Type string `json:"type,omitempty"`
}

// Page mirrors the v1 content representation, which is the API generation
// that supports create/update with storage-format bodies:
// https://developer.atlassian.com/cloud/confluence/rest/v1/api-group-content/
//
// Only the fields the publish flow reads are mapped.
type Page struct {
	ID     string `json:"id,omitempty"`
	Type   string `json:"type,omitempty"`
	Status string `json:"status,omitempty"` // current, draft, trashed
	Title  string `json:"title,omitempty"`

	Space     *Space     `json:"space,omitempty"`
	Version   *Version   `json:"version,omitempty"`
	Ancestors []Ancestor `json:"ancestors,omitempty"`

	Body Body `json:"body"`

	Links struct {
		WebUI string `json:"webui"`
		Base  string `json:"base"`
	} `json:"_links"`
}

// Ancestor is a parent reference; creates pass exactly one.
type Ancestor struct {
	ID string `json:"id"`
}

// Version is the content version counter.  An update must carry the number
// it expects to become; the server rejects it if someone got there first.
type Version struct {
	Number    int    `json:"number"`
	When      string `json:"when,omitempty"`
	Message   string `json:"message,omitempty"`
	MinorEdit bool   `json:"minorEdit,omitempty"`
}

// Body holds the page body in one or more representations.
type Body struct {
	Storage Storage `json:"storage"`
}

// Storage is one body representation; for publishing, Representation is
// always "storage".
type Storage struct {
	Value          string `json:"value"`
	Representation string `json:"representation"`
}

// Attachment is a file hanging off a page:
// https://developer.atlassian.com/cloud/confluence/rest/v1/api-group-content---attachments/
type Attachment struct {
	ID    string `json:"id,omitempty"`
	Title string `json:"title,omitempty"`

	Version *Version `json:"version,omitempty"`

	Extensions struct {
		MediaType string `json:"mediaType"`
		FileSize  int64  `json:"fileSize"`
	} `json:"extensions"`

	Links struct {
		Download string `json:"download"`
	} `json:"_links"`
}

// Label is a page label.  Publishing always uses the "global" prefix, which
// is what labels added through the UI get.
type Label struct {
	Prefix string `json:"prefix"`
	Name   string `json:"name"`
}

// User, per https://developer.atlassian.com/cloud/confluence/rest/v1/api-group-users/#api-wiki-rest-api-user-current-get
type User struct {
	Type        string `json:"type"`
	Username    string `json:"username"`
	AccountID   string `json:"accountId"`
	DisplayName string `json:"displayName"`
	Email       string `json:"email"`
}
