package review

import "errors"

var (
	// ErrCardNotFound reports an id the current snapshot does not contain.
	ErrCardNotFound = errors.New("card not found")

	// ErrNoImage is returned by collaborators when a card has no stored
	// image payload.
	ErrNoImage = errors.New("no image data")

	// ErrStoreUnreachable classifies connectivity failures talking to the
	// external spaced-repetition store. Callers render it as a checklist:
	// the external app may not be running, the integration may not be
	// installed, or it may not be enabled.
	ErrStoreUnreachable = errors.New("spaced-repetition store unreachable")

	// ErrNoEdit reports a draft operation without an active edit session.
	ErrNoEdit = errors.New("no card in edit mode")

	// ErrStaleSnapshot reports that an operation succeeded but the
	// follow-up snapshot refresh failed, so the in-memory view may lag the
	// store until the next refresh. Callers that got work done before the
	// refresh should report the result alongside this, not a failure.
	ErrStaleSnapshot = errors.New("snapshot refresh failed")
)

// PreconditionKind discriminates client-side sync precondition failures.
// No network call is attempted for any of these.
type PreconditionKind string

const (
	PreconditionNoDeck     PreconditionKind = "no_deck"
	PreconditionNoSelected PreconditionKind = "no_selected"
	PreconditionNoApproved PreconditionKind = "no_approved"
)

// PreconditionError is a sync request rejected before any network call.
type PreconditionError struct {
	Kind PreconditionKind
}

func (e *PreconditionError) Error() string {
	switch e.Kind {
	case PreconditionNoDeck:
		return "select a destination deck first"
	case PreconditionNoSelected:
		return "no cards selected"
	case PreconditionNoApproved:
		return "select approved cards to sync"
	}
	return "sync precondition failed"
}

// CollaboratorError carries a human-readable detail from a structured
// collaborator error response; the detail is surfaced verbatim.
type CollaboratorError struct {
	Detail string
}

func (e *CollaboratorError) Error() string { return e.Detail }
