package confluence

import (
	"errors"
	"fmt"
)

// ErrUnauthorized means the token was rejected (bad, expired, or lacking
// permission).  There is no point retrying without operator action.
var ErrUnauthorized = errors.New("confluence: authentication failed, check your token")

// NotFoundError covers anything the server says doesn't exist: a space, a
// page looked up by title, or a content ID.
type NotFoundError struct {
	Kind string // "space", "page", "content", "attachment"
	Key  string // the key or title we asked for
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("confluence: %s not found: %s", e.Kind, e.Key)
}

// VersionConflictError means the page moved on since our last version read.
// Someone else edited it; overwriting blindly would eat their change, so
// this is never retried automatically.
type VersionConflictError struct {
	PageID          string
	ExpectedVersion int
}

func (e *VersionConflictError) Error() string {
	return fmt.Sprintf("confluence: version conflict updating page %s (expected version %d): page was modified concurrently", e.PageID, e.ExpectedVersion)
}

// AttachmentConflictError means the page already has an attachment with this
// filename.  We don't silently replace it; the operator has to decide.
type AttachmentConflictError struct {
	PageID   string
	Filename string
}

func (e *AttachmentConflictError) Error() string {
	return fmt.Sprintf("confluence: page %s already has an attachment named %s", e.PageID, e.Filename)
}

// TransientError wraps connection resets, timeouts and server-side 5xxs.
// Read-only lookups may be retried; mutations must not be, because the
// request may have been applied even though the acknowledgment was lost.
type TransientError struct {
	Op  string
	Err error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("confluence: transient failure during %s: %v", e.Op, e.Err)
}

func (e *TransientError) Unwrap() error { return e.Err }

// apiStatusError is the fallback for status codes the caller hasn't mapped
// to a typed error.
type apiStatusError struct {
	StatusCode int
	Status     string
	Body       string
}

func (e *apiStatusError) Error() string {
	return fmt.Sprintf("confluence: unexpected HTTP response: %s: %s", e.Status, e.Body)
}
