package confluence

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// FindSpace looks up a space by key.  Retried on transient failures.
func (api *API) FindSpace(ctx context.Context, key string) (*Space, error) {
	ep, err := api.spaceByKeyEndpoint(key)
	if err != nil {
		return nil, fmt.Errorf("confluence: couldn't get space endpoint: %w", err)
	}

	var space Space
	err = retryLookup(ctx, func() error {
		body, err := api.request(ctx, "find-space", ep)
		if err != nil {
			return err
		}
		if err := json.Unmarshal(body, &space); err != nil {
			return fmt.Errorf("confluence: couldn't parse json response: %w", err)
		}
		return nil
	})
	if statusCode(err) == http.StatusNotFound {
		return nil, &NotFoundError{Kind: "space", Key: key}
	}
	if err != nil {
		return nil, err
	}

	return &space, nil
}

// FindPageByTitle looks for a page with exactly this title in the space.
// Absence is a *NotFoundError, which for the publish flow is an answer, not
// a failure.  Retried on transient failures.
func (api *API) FindPageByTitle(ctx context.Context, spaceKey, title string) (*Page, error) {
	ep, err := api.contentEndpoint(&FindPageQuery{
		SpaceKey: spaceKey,
		Title:    title,
		Type:     "page",
		Expand:   []string{"version"},
	})
	if err != nil {
		return nil, fmt.Errorf("confluence: couldn't get content endpoint: %w", err)
	}

	var result ContentSearchResult
	err = retryLookup(ctx, func() error {
		body, err := api.request(ctx, "find-page", ep)
		if err != nil {
			return err
		}
		if err := json.Unmarshal(body, &result); err != nil {
			return fmt.Errorf("confluence: couldn't parse json response: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if len(result.Results) == 0 {
		return nil, &NotFoundError{Kind: "page", Key: title}
	}

	return &result.Results[0], nil
}

// GetPageByID re-reads one page, including its current version.  This is the
// fresh read an update must be based on.  Retried on transient failures.
func (api *API) GetPageByID(ctx context.Context, pageID string) (*Page, error) {
	ep, err := api.contentByIDEndpoint(GetPageByIDQuery{
		ID:     pageID,
		Expand: []string{"version"},
	})
	if err != nil {
		return nil, fmt.Errorf("confluence: couldn't get content endpoint: %w", err)
	}

	var page Page
	err = retryLookup(ctx, func() error {
		body, err := api.request(ctx, "get-page", ep)
		if err != nil {
			return err
		}
		if err := json.Unmarshal(body, &page); err != nil {
			return fmt.Errorf("confluence: couldn't parse json response: %w", err)
		}
		return nil
	})
	if statusCode(err) == http.StatusNotFound {
		return nil, &NotFoundError{Kind: "content", Key: pageID}
	}
	if err != nil {
		return nil, err
	}

	return &page, nil
}

type spaceKeyRef struct {
	Key string `json:"key"`
}

type createContentRequest struct {
	Type      string      `json:"type"`
	Title     string      `json:"title"`
	Space     spaceKeyRef `json:"space"`
	Ancestors []Ancestor  `json:"ancestors,omitempty"`
	Body      Body        `json:"body"`
}

// CreatePage makes a brand-new page under the given parent.  The caller is
// responsible for having checked that no page with this title exists; this
// call itself is NOT idempotent and is never retried.
func (api *API) CreatePage(ctx context.Context, spaceKey, parentID, title, storageBody string) (*Page, error) {
	ep, err := api.contentEndpoint(nil)
	if err != nil {
		return nil, fmt.Errorf("confluence: couldn't get content endpoint: %w", err)
	}

	payload := createContentRequest{
		Type:  "page",
		Title: title,
		Space: spaceKeyRef{Key: spaceKey},
		Body: Body{
			Storage: Storage{
				Value:          storageBody,
				Representation: "storage",
			},
		},
	}
	if parentID != "" {
		payload.Ancestors = []Ancestor{{ID: parentID}}
	}

	body, err := api.sendJSON(ctx, "create-page", http.MethodPost, ep, payload)
	if err != nil {
		return nil, err
	}

	var page Page
	if err := json.Unmarshal(body, &page); err != nil {
		return nil, fmt.Errorf("confluence: couldn't parse json response: %w", err)
	}

	return &page, nil
}

type updateContentRequest struct {
	ID      string  `json:"id"`
	Type    string  `json:"type"`
	Title   string  `json:"title"`
	Version Version `json:"version"`
	Body    Body    `json:"body"`
}

// UpdatePage replaces a page body, conditional on expectedVersion being the
// page's current version.  A concurrent edit surfaces as
// *VersionConflictError; deciding what to do about it is the operator's
// call, so there is no automatic retry.
func (api *API) UpdatePage(ctx context.Context, pageID string, expectedVersion int, title, storageBody string) (*Page, error) {
	ep, err := api.contentByIDEndpoint(GetPageByIDQuery{ID: pageID})
	if err != nil {
		return nil, fmt.Errorf("confluence: couldn't get content endpoint: %w", err)
	}

	payload := updateContentRequest{
		ID:    pageID,
		Type:  "page",
		Title: title,
		// The server accepts the update only if the page is still at
		// expectedVersion when this lands.
		Version: Version{Number: expectedVersion + 1},
		Body: Body{
			Storage: Storage{
				Value:          storageBody,
				Representation: "storage",
			},
		},
	}

	body, err := api.sendJSON(ctx, "update-page", http.MethodPut, ep, payload)
	if statusCode(err) == http.StatusConflict {
		return nil, &VersionConflictError{PageID: pageID, ExpectedVersion: expectedVersion}
	}
	if err != nil {
		return nil, err
	}

	var page Page
	if err := json.Unmarshal(body, &page); err != nil {
		return nil, fmt.Errorf("confluence: couldn't parse json response: %w", err)
	}

	return &page, nil
}

// GetAttachment looks for an attachment by filename on a page.  Absence is a
// *NotFoundError.  Retried on transient failures.
func (api *API) GetAttachment(ctx context.Context, pageID, filename string) (*Attachment, error) {
	ep, err := api.childAttachmentEndpoint(pageID, &AttachmentQuery{Filename: filename})
	if err != nil {
		return nil, fmt.Errorf("confluence: couldn't get attachment endpoint: %w", err)
	}

	var list AttachmentList
	err = retryLookup(ctx, func() error {
		body, err := api.request(ctx, "get-attachment", ep)
		if err != nil {
			return err
		}
		if err := json.Unmarshal(body, &list); err != nil {
			return fmt.Errorf("confluence: couldn't parse json response: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if len(list.Results) == 0 {
		return nil, &NotFoundError{Kind: "attachment", Key: filename}
	}

	return &list.Results[0], nil
}

// UploadAttachment adds a new attachment to a page.  If the page already has
// one by that name the server refuses, which comes back as
// *AttachmentConflictError.  Never retried.
func (api *API) UploadAttachment(ctx context.Context, pageID, filename string, contents io.Reader) (*Attachment, error) {
	ep, err := api.childAttachmentEndpoint(pageID, nil)
	if err != nil {
		return nil, fmt.Errorf("confluence: couldn't get attachment endpoint: %w", err)
	}

	body, err := api.sendFile(ctx, "upload-attachment", ep, filename, contents)
	// Confluence signals a same-name attachment as 400 on some versions and
	// 409 on others.
	if code := statusCode(err); code == http.StatusBadRequest || code == http.StatusConflict {
		return nil, &AttachmentConflictError{PageID: pageID, Filename: filename}
	}
	if err != nil {
		return nil, err
	}

	var list AttachmentList
	if err := json.Unmarshal(body, &list); err != nil {
		return nil, fmt.Errorf("confluence: couldn't parse json response: %w", err)
	}
	if len(list.Results) == 0 {
		return nil, fmt.Errorf("confluence: upload response contained no attachment for %s", filename)
	}

	return &list.Results[0], nil
}

// AddLabels tags a page with the given label names, under the "global"
// prefix.  Adding a label the page already carries is a server-side no-op,
// so repeating this on every publish is safe.  Never retried.
func (api *API) AddLabels(ctx context.Context, pageID string, names []string) error {
	if len(names) == 0 {
		return nil
	}

	ep, err := api.contentLabelEndpoint(pageID)
	if err != nil {
		return fmt.Errorf("confluence: couldn't get label endpoint: %w", err)
	}

	labels := make([]Label, 0, len(names))
	for _, name := range names {
		labels = append(labels, Label{Prefix: "global", Name: name})
	}

	if _, err := api.sendJSON(ctx, "add-labels", http.MethodPost, ep, labels); err != nil {
		return err
	}

	return nil
}

// CurrentUser returns the user the token belongs to, which doubles as a
// cheap auth check before we start mutating anything.
func (api *API) CurrentUser(ctx context.Context) (*User, error) {
	ep, err := api.currentUserEndpoint()
	if err != nil {
		return nil, fmt.Errorf("confluence: couldn't get current user endpoint: %w", err)
	}

	body, err := api.request(ctx, "current-user", ep)
	if err != nil {
		return nil, err
	}

	var user User
	if err := json.Unmarshal(body, &user); err != nil {
		return nil, fmt.Errorf("confluence: couldn't parse json response: %w", err)
	}

	return &user, nil
}
