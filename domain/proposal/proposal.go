// Package proposal provides the proposal domain: member-submitted content
// moving through a decision process.
package proposal

import "time"

// Proposal is a member submission attached to a process instance. Content
// lives either in Data (legacy flat storage) or in an external
// collaborative document referenced by CollaborationDocID.
type Proposal struct {
	// ID identifies the proposal.
	ID string `json:"id"`

	// ProcessInstanceID references the owning process instance.
	ProcessInstanceID string `json:"processInstanceId"`

	// Data is the flat key/value proposal content for legacy proposals.
	// Collaboration-backed proposals keep their authoritative content in
	// the external document instead.
	Data map[string]any `json:"proposalData,omitempty"`

	// Status is the proposal lifecycle state.
	Status Status `json:"status"`

	// CollaborationDocID points at the external collaborative document
	// holding the proposal's content, when present.
	CollaborationDocID string `json:"collaborationDocId,omitempty"`

	// SubmitterProfileID is the member profile that created the proposal.
	SubmitterProfileID string `json:"submitterProfileId,omitempty"`

	// CreatedAt is when the proposal was created.
	CreatedAt time.Time `json:"createdAt"`

	// UpdatedAt is when the proposal was last modified.
	UpdatedAt time.Time `json:"updatedAt"`
}

// CollaborationBacked reports whether the proposal's authoritative content
// lives in an external collaborative document.
func (p *Proposal) CollaborationBacked() bool {
	return p.CollaborationDocID != ""
}
