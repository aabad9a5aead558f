package confluence

import (
	"fmt"
	"net/url"

	"github.com/google/go-querystring/query"
)

// contentEndpoint returns the v1 API endpoint for content queries and page
// creation:
// https://developer.atlassian.com/cloud/confluence/rest/v1/api-group-content/#api-wiki-rest-api-content-get
func (a *API) contentEndpoint(opts *FindPageQuery) (*url.URL, error) {
	ep, err := a.resolveEndpoint("/rest/api/content")
	if err != nil {
		return nil, fmt.Errorf("confluence: couldn't resolve endpoint: %w", err)
	}

	if opts != nil {
		v, err := query.Values(opts)
		if err != nil {
			return nil, fmt.Errorf("confluence: couldn't encode query params: %w", err)
		}
		ep.RawQuery = v.Encode()
	}

	return ep, nil
}

// contentByIDEndpoint returns the v1 API endpoint for one content item
// (version reads and updates):
// https://developer.atlassian.com/cloud/confluence/rest/v1/api-group-content/#api-wiki-rest-api-content-id-get
func (a *API) contentByIDEndpoint(opts GetPageByIDQuery) (*url.URL, error) {
	if opts.ID == "" {
		return nil, fmt.Errorf("confluence: please provide ID to get page by ID")
	}

	ep, err := a.resolveEndpoint(fmt.Sprintf("/rest/api/content/%s", url.PathEscape(opts.ID)))
	if err != nil {
		return nil, fmt.Errorf("confluence: couldn't resolve endpoint: %w", err)
	}

	v, err := query.Values(opts)
	if err != nil {
		return nil, fmt.Errorf("confluence: couldn't encode query params: %w", err)
	}
	ep.RawQuery = v.Encode()

	return ep, nil
}

// childAttachmentEndpoint returns the v1 API endpoint for a page's
// attachments, both listing and multipart upload:
// https://developer.atlassian.com/cloud/confluence/rest/v1/api-group-content---attachments/
func (a *API) childAttachmentEndpoint(pageID string, opts *AttachmentQuery) (*url.URL, error) {
	if pageID == "" {
		return nil, fmt.Errorf("confluence: please provide page ID for attachment endpoint")
	}

	ep, err := a.resolveEndpoint(fmt.Sprintf("/rest/api/content/%s/child/attachment", url.PathEscape(pageID)))
	if err != nil {
		return nil, fmt.Errorf("confluence: couldn't resolve attachment endpoint: %w", err)
	}

	if opts != nil {
		v, err := query.Values(opts)
		if err != nil {
			return nil, fmt.Errorf("confluence: couldn't encode query params: %w", err)
		}
		ep.RawQuery = v.Encode()
	}

	return ep, nil
}

// contentLabelEndpoint returns the v1 API endpoint for a page's labels:
// https://developer.atlassian.com/cloud/confluence/rest/v1/api-group-content-labels/
func (a *API) contentLabelEndpoint(pageID string) (*url.URL, error) {
	if pageID == "" {
		return nil, fmt.Errorf("confluence: please provide page ID for label endpoint")
	}

	return a.resolveEndpoint(fmt.Sprintf("/rest/api/content/%s/label", url.PathEscape(pageID)))
}

// spaceByKeyEndpoint returns the v1 API endpoint for one space:
// https://developer.atlassian.com/cloud/confluence/rest/v1/api-group-space/#api-wiki-rest-api-space-spacekey-get
func (a *API) spaceByKeyEndpoint(key string) (*url.URL, error) {
	if key == "" {
		return nil, fmt.Errorf("confluence: please provide a space key")
	}

	return a.resolveEndpoint(fmt.Sprintf("/rest/api/space/%s", url.PathEscape(key)))
}

// currentUserEndpoint returns the v1 API endpoint to query the current user:
// https://developer.atlassian.com/cloud/confluence/rest/v1/api-group-users/#api-wiki-rest-api-user-current-get
func (a *API) currentUserEndpoint() (*url.URL, error) {
	return a.resolveEndpoint("/rest/api/user/current")
}

// Do a bit of error checking on endpoint format, and return it relative to the base URI.
func (a *API) resolveEndpoint(endpoint string) (*url.URL, error) {
	ref, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("confluence: failed to parse endpoint ref: %w", err)
	}

	resolved := *a.BaseURI
	resolved.Path = a.BaseURI.Path + ref.Path
	resolved.RawQuery = ref.RawQuery

	return &resolved, nil
}
