package proposal

import "errors"

// Domain errors for proposal operations.
var (
	// ErrProposalNotFound is returned when a proposal does not exist.
	ErrProposalNotFound = errors.New("proposal not found")

	// ErrProposalExists is returned when creating a proposal that already exists.
	ErrProposalExists = errors.New("proposal already exists")

	// ErrInvalidProposal is returned when a proposal is structurally
	// invalid (e.g. empty ID).
	ErrInvalidProposal = errors.New("invalid proposal")

	// ErrNotDraft is returned when submitting a proposal that is not in
	// draft status. Submitting twice is rejected.
	ErrNotDraft = errors.New("proposal is not in draft status")

	// ErrSubmissionClosed is returned when the instance's current phase
	// rules do not permit proposal submission.
	ErrSubmissionClosed = errors.New("proposal submission is closed in the current phase")

	// ErrContentUnavailable is returned when a proposal's collaborative
	// content cannot be fetched for validation. Submission fails closed.
	ErrContentUnavailable = errors.New("proposal content unavailable")
)
