// Package publish drives the create-or-update protocol against one
// Confluence space.  A Publisher handles exactly one page per call; a run is
// strictly sequential, and the version-check-then-update step is the only
// safeguard against concurrent editors, so there must never be two update
// calls without a fresh version read in between.
package publish

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/pdwerry/confluence-publish/confluence"
	"github.com/pdwerry/confluence-publish/storagefmt"
)

type Publisher struct {
	API *confluence.API

	SpaceKey    string
	ParentTitle string

	// Labels are applied to the page after a successful create or update.
	Labels []string

	// Progress draws an upload progress bar on stderr.
	Progress bool

	Logger *log.Logger
}

type Outcome string

const (
	OutcomeCreated Outcome = "created"
	OutcomeUpdated Outcome = "updated"
)

type PublishResult struct {
	Outcome Outcome
	PageID  string
	PageURL string
	Version int

	AttachmentsUploaded int
}

// Stage names the step of the publish state machine an error came from.
type Stage string

const (
	StageResolveParent Stage = "resolve-parent"
	StageFindPage      Stage = "find-page"
	StageCreate        Stage = "create"
	StageUpload        Stage = "upload"
	StageUpdate        Stage = "update"
	StageFinalize      Stage = "finalize"
	StageLabel         Stage = "label"
)

// StageError wraps a failure with the stage and the input it was working on,
// so the operator knows where to look and what a manual retry would target.
type StageError struct {
	Stage  Stage
	Target string
	Err    error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("publish: stage %s failed for '%s': %v", e.Stage, e.Target, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// Publish creates or updates the page with this title.  The rendered page is
// consumed as-is; conversion problems have already been ruled out by the
// time we get here, so every failure below is a remote one.
func (p *Publisher) Publish(ctx context.Context, title string, page *storagefmt.RenderedPage) (*PublishResult, error) {
	if title == "" {
		return nil, fmt.Errorf("publish: refusing to publish a page with an empty title")
	}

	// Resolve the space and the parent page up front.  The parent is never
	// created implicitly; a typo'd parent title should fail loudly, not
	// quietly grow a new hierarchy.
	if _, err := p.API.FindSpace(ctx, p.SpaceKey); err != nil {
		return nil, &StageError{Stage: StageResolveParent, Target: p.SpaceKey, Err: err}
	}

	parent, err := p.API.FindPageByTitle(ctx, p.SpaceKey, p.ParentTitle)
	if err != nil {
		return nil, &StageError{Stage: StageResolveParent, Target: p.ParentTitle, Err: err}
	}
	p.logf("Resolved parent page '%s' (id %s).\n", p.ParentTitle, parent.ID)

	// Exact title match decides create vs update.  A renamed document gets
	// a new page rather than hijacking a similarly-named one.
	existing, err := p.API.FindPageByTitle(ctx, p.SpaceKey, title)

	var notFound *confluence.NotFoundError
	switch {
	case err == nil:
		return p.updateExisting(ctx, existing, title, page)
	case errors.As(err, &notFound):
		return p.createNew(ctx, parent.ID, title, page)
	default:
		return nil, &StageError{Stage: StageFindPage, Target: title, Err: err}
	}
}

// Plan reports what Publish would do for this title, without mutating
// anything: the same space, parent and title lookups, then a verdict.
func (p *Publisher) Plan(ctx context.Context, title string) (Outcome, error) {
	if _, err := p.API.FindSpace(ctx, p.SpaceKey); err != nil {
		return "", &StageError{Stage: StageResolveParent, Target: p.SpaceKey, Err: err}
	}
	if _, err := p.API.FindPageByTitle(ctx, p.SpaceKey, p.ParentTitle); err != nil {
		return "", &StageError{Stage: StageResolveParent, Target: p.ParentTitle, Err: err}
	}

	_, err := p.API.FindPageByTitle(ctx, p.SpaceKey, title)

	var notFound *confluence.NotFoundError
	switch {
	case err == nil:
		return OutcomeUpdated, nil
	case errors.As(err, &notFound):
		return OutcomeCreated, nil
	default:
		return "", &StageError{Stage: StageFindPage, Target: title, Err: err}
	}
}

// updateExisting is the one-pass flow: the page already exists, so its
// attachments can be brought up to date first and the body updated once.
func (p *Publisher) updateExisting(ctx context.Context, existing *confluence.Page, title string, page *storagefmt.RenderedPage) (*PublishResult, error) {
	p.logf("Page '%s' exists (id %s), updating.\n", title, existing.ID)

	uploaded, err := p.uploadAssets(ctx, existing.ID, page.Assets)
	if err != nil {
		return nil, err
	}

	updated, err := p.updateFresh(ctx, existing.ID, title, page.Body, StageUpdate)
	if err != nil {
		return nil, err
	}

	if err := p.applyLabels(ctx, updated.ID, title); err != nil {
		return nil, err
	}

	return &PublishResult{
		Outcome:             OutcomeUpdated,
		PageID:              updated.ID,
		PageURL:             p.API.PageURL(updated.ID),
		Version:             versionNumber(updated),
		AttachmentsUploaded: uploaded,
	}, nil
}

// createNew is the two-pass flow: attachments can only exist under a page,
// so the page is created first, assets uploaded, and the body written once
// more so attachment references resolve.
func (p *Publisher) createNew(ctx context.Context, parentID, title string, page *storagefmt.RenderedPage) (*PublishResult, error) {
	p.logf("Page '%s' doesn't exist yet, creating.\n", title)

	created, err := p.API.CreatePage(ctx, p.SpaceKey, parentID, title, page.Body)
	if err != nil {
		return nil, &StageError{Stage: StageCreate, Target: title, Err: err}
	}

	result := &PublishResult{
		Outcome: OutcomeCreated,
		PageID:  created.ID,
		PageURL: p.API.PageURL(created.ID),
		Version: versionNumber(created),
	}

	if len(page.Assets) > 0 {
		uploaded, err := p.uploadAssets(ctx, created.ID, page.Assets)
		if err != nil {
			return nil, err
		}
		result.AttachmentsUploaded = uploaded

		finalized, err := p.updateFresh(ctx, created.ID, title, page.Body, StageFinalize)
		if err != nil {
			return nil, err
		}
		result.Version = versionNumber(finalized)
	}

	if err := p.applyLabels(ctx, created.ID, title); err != nil {
		return nil, err
	}

	return result, nil
}

// applyLabels tags the page once the body is in place.  Re-adding labels the
// page already has is harmless, so no diffing.
func (p *Publisher) applyLabels(ctx context.Context, pageID, title string) error {
	if len(p.Labels) == 0 {
		return nil
	}

	if err := p.API.AddLabels(ctx, pageID, p.Labels); err != nil {
		return &StageError{Stage: StageLabel, Target: title, Err: err}
	}
	p.logf("Applied %d labels.\n", len(p.Labels))

	return nil
}

// updateFresh re-reads the page's current version immediately before the
// update call.  Version numbers read earlier in the run are stale by
// definition and must not be reused.
func (p *Publisher) updateFresh(ctx context.Context, pageID, title, body string, stage Stage) (*confluence.Page, error) {
	current, err := p.API.GetPageByID(ctx, pageID)
	if err != nil {
		return nil, &StageError{Stage: stage, Target: title, Err: err}
	}

	updated, err := p.API.UpdatePage(ctx, pageID, versionNumber(current), title, body)
	if err != nil {
		return nil, &StageError{Stage: stage, Target: title, Err: err}
	}

	return updated, nil
}

func versionNumber(page *confluence.Page) int {
	if page.Version == nil {
		return 1
	}
	return page.Version.Number
}

func (p *Publisher) logf(format string, args ...any) {
	if p.Logger != nil {
		p.Logger.Printf(format, args...)
	}
}
