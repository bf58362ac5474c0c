package process

import (
	"time"

	"github.com/felixgeelhaar/decision-go/domain/schema"
)

// InstanceStatus represents the lifecycle state of a process instance.
type InstanceStatus string

const (
	// InstanceStatusActive means the process is running.
	InstanceStatusActive InstanceStatus = "active"

	// InstanceStatusEnded means the process reached its final phase.
	InstanceStatusEnded InstanceStatus = "ended"

	// InstanceStatusArchived means the process was archived by its owner.
	InstanceStatusArchived InstanceStatus = "archived"
)

// InstancePhase is the per-instance copy of a template phase, carrying the
// instance's own dates, resolved settings, and optional rule overrides.
type InstancePhase struct {
	// PhaseID references the template phase this was materialized from.
	PhaseID string `json:"phaseId"`

	// Name is copied from the template phase at materialization time.
	Name string `json:"name"`

	// StartDate is when the phase opens. Optional.
	StartDate *time.Time `json:"startDate,omitempty"`

	// EndDate is when the phase closes. Required for date-driven phases.
	EndDate *time.Time `json:"endDate,omitempty"`

	// Settings holds resolved phase settings, validated against the
	// template phase's settings schema at override time.
	Settings map[string]any `json:"settings,omitempty"`

	// Rules overrides the template phase rules when non-nil.
	Rules *PhaseRules `json:"rules,omitempty"`
}

// Config holds process-level configuration flags.
type Config struct {
	// HideBudget suppresses budget fields in participant-facing views.
	HideBudget bool `json:"hideBudget,omitempty"`
}

// Instance is one concrete, running decision process.
type Instance struct {
	// ID identifies the instance.
	ID string `json:"id"`

	// TemplateID references the template this instance was created from.
	TemplateID string `json:"templateId"`

	// CurrentPhaseID always equals the PhaseID of exactly one phase in
	// Phases. It is advanced only by the transition monitor or an explicit
	// manual action, and never skips phases.
	CurrentPhaseID string `json:"currentPhaseId"`

	// Phases is the materialized phase list, in template order.
	Phases []InstancePhase `json:"phases"`

	// Config holds process-level configuration.
	Config Config `json:"config,omitempty"`

	// Status is the instance lifecycle state.
	Status InstanceStatus `json:"status"`

	// ProfileID is the organization profile the process belongs to.
	ProfileID string `json:"profileId,omitempty"`

	// OwnerProfileID is the profile administering the process.
	OwnerProfileID string `json:"ownerProfileId,omitempty"`

	// ProposalSchema validates proposal content for this instance.
	// Copied from the template, optionally customized by the owner.
	ProposalSchema schema.Document `json:"proposalSchema,omitempty"`

	// RubricSchema validates reviewer rubric data.
	RubricSchema schema.Document `json:"rubricSchema,omitempty"`
}

// Phase returns the instance phase with the given phase ID.
func (in *Instance) Phase(phaseID string) (*InstancePhase, bool) {
	for i := range in.Phases {
		if in.Phases[i].PhaseID == phaseID {
			return &in.Phases[i], true
		}
	}
	return nil, false
}

// PhaseIndex returns the position of the phase in the instance's list,
// or -1 when the ID is unknown.
func (in *Instance) PhaseIndex(phaseID string) int {
	for i := range in.Phases {
		if in.Phases[i].PhaseID == phaseID {
			return i
		}
	}
	return -1
}

// CurrentPhase returns the phase CurrentPhaseID points at.
func (in *Instance) CurrentPhase() (*InstancePhase, bool) {
	return in.Phase(in.CurrentPhaseID)
}

// NextPhase returns the successor of the given phase, if any.
func (in *Instance) NextPhase(phaseID string) (*InstancePhase, bool) {
	idx := in.PhaseIndex(phaseID)
	if idx < 0 || idx+1 >= len(in.Phases) {
		return nil, false
	}
	return &in.Phases[idx+1], true
}

// IsTerminal reports whether the instance sits in its final phase.
func (in *Instance) IsTerminal() bool {
	if len(in.Phases) == 0 {
		return false
	}
	return in.CurrentPhaseID == in.Phases[len(in.Phases)-1].PhaseID
}

// Validate checks the instance's structural invariants: a non-empty phase
// list and a current phase pointer that lands on exactly one phase.
func (in *Instance) Validate() error {
	if len(in.Phases) == 0 {
		return ErrNoPhases
	}
	if in.PhaseIndex(in.CurrentPhaseID) < 0 {
		return ErrUnknownPhase
	}
	return nil
}
