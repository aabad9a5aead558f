package confluence

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

func NewAPI(baseURL string, token string) (*API, error) {

	if baseURL == "" {
		return &API{}, fmt.Errorf("confluence: configure your Confluence base URL with --base-url")
	}
	if token == "" {
		return &API{}, fmt.Errorf("confluence: auth token is empty, please check auth-token-cmd")
	}

	u, err := url.ParseRequestURI(strings.TrimSuffix(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("confluence: couldn't parse REST API URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("confluence: base URL must be http(s), got '%s'", baseURL)
	}

	a := &API{
		BaseURI: u,
		token:   token,
	}
	a.Client = &http.Client{}

	return a, nil
}

type API struct {
	// Base URL of the Confluence instance, e.g. https://wiki.example.com or
	// https://ORG.atlassian.net/wiki
	BaseURI *url.URL

	// An HTTP client - you can substitute VCR or whatnot.
	Client *http.Client

	// Bearer auth token (a Personal Access Token)
	token string
}

// Close drops idle connections.  There is no other per-API state to tear
// down.
func (api *API) Close() {
	api.Client.CloseIdleConnections()
}

// PageURL is the human-facing view URL for a page ID.
func (api *API) PageURL(pageID string) string {
	return fmt.Sprintf("%s/pages/viewpage.action?pageId=%s", api.BaseURI, pageID)
}
