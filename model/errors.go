package model

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when an announce or its data row no longer
// exists. Cleanup paths swallow it; everything else reports the session as
// gone.
var ErrNotFound = errors.New("announce not found")

// Reasons a send attempt is refused. Wrapped in ConcurrencyError.
var (
	ErrAlreadySent    = errors.New("announce already sent")
	ErrSendInProgress = errors.New("send already in progress")
)

// ValidationError reports a precondition the user can fix themselves:
// missing draft, missing target, duplicate session. Reason is the
// user-facing message.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string { return "validation: " + e.Reason }

// ConcurrencyError reports a send attempt refused because another attempt
// already holds or finished the session. Err is ErrAlreadySent or
// ErrSendInProgress.
type ConcurrencyError struct {
	Err error
}

func (e *ConcurrencyError) Error() string { return "concurrency: " + e.Err.Error() }

func (e *ConcurrencyError) Unwrap() error { return e.Err }

// DeliveryError reports a failed delivery to the target channel. When it is
// returned the send lock has been released and the session remains
// resumable.
type DeliveryError struct {
	TargetID string
	Err      error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("delivery to channel %s failed: %v", e.TargetID, e.Err)
}

func (e *DeliveryError) Unwrap() error { return e.Err }

// AttachmentFetchError reports a download that exhausted its retries. It is
// scoped to a single attachment; a send skips the attachment and proceeds.
type AttachmentFetchError struct {
	URL string
	Err error
}

func (e *AttachmentFetchError) Error() string {
	return fmt.Sprintf("fetching attachment %s: %v", e.URL, e.Err)
}

func (e *AttachmentFetchError) Unwrap() error { return e.Err }
