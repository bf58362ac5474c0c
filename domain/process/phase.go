// Package process defines the decision process domain: reusable templates,
// their ordered phases, and the running instances materialized from them.
package process

import (
	"time"

	"github.com/felixgeelhaar/decision-go/domain/schema"
)

// AdvancementMethod describes how a phase ends.
type AdvancementMethod string

const (
	// MethodManual means the phase ends only via an explicit action.
	MethodManual AdvancementMethod = "manual"

	// MethodDate means the phase ends automatically at its end date and
	// participates in transition scheduling.
	MethodDate AdvancementMethod = "date"
)

// Normalize maps an unset method to manual. The unset case is treated as
// manual uniformly; only an explicit date method produces transitions.
func (m AdvancementMethod) Normalize() AdvancementMethod {
	if m == "" {
		return MethodManual
	}
	return m
}

// Advancement configures how a phase advances to its successor.
type Advancement struct {
	// Method selects date-driven or manual advancement.
	Method AdvancementMethod `json:"method"`

	// EndDate is the template-level default end date for date-driven
	// phases. Instances usually override it with their own end date.
	EndDate *time.Time `json:"endDate,omitempty"`
}

// ActionRules controls whether members may submit or edit content during a
// phase. A nil flag means allowed; only an explicit false blocks.
type ActionRules struct {
	Submit *bool `json:"submit,omitempty"`
	Edit   *bool `json:"edit,omitempty"`
}

// PhaseRules are the behavioral rules in force during a phase.
type PhaseRules struct {
	Proposals   ActionRules  `json:"proposals,omitempty"`
	Voting      ActionRules  `json:"voting,omitempty"`
	Advancement *Advancement `json:"advancement,omitempty"`
}

// PhasePosition classifies a phase by its position in the ordered list.
type PhasePosition string

const (
	PositionInitial      PhasePosition = "initial"
	PositionIntermediate PhasePosition = "intermediate"
	PositionFinal        PhasePosition = "final"
)

// SelectionStep is one step of a phase's selection pipeline, narrowing
// which proposals carry forward out of the phase. The pipeline is consumed
// by the results layer; the core only stores and copies it.
type SelectionStep struct {
	Method string `json:"method"`
	Field  string `json:"field,omitempty"`
	Order  string `json:"order,omitempty"`
	Limit  int    `json:"limit,omitempty"`
}

// PhaseDefinition is one named stage of a decision process template.
// Definitions are immutable once the template is published.
type PhaseDefinition struct {
	// ID is the stable key referencing this phase from instances and
	// scheduled transitions. Unique within a template.
	ID string `json:"id"`

	// Name is the display name (e.g. "Voting").
	Name string `json:"name"`

	// Description explains the phase to participants.
	Description string `json:"description,omitempty"`

	// Rules are the behavioral rules in force during this phase.
	Rules PhaseRules `json:"rules,omitempty"`

	// SelectionPipeline narrows proposals advancing out of the phase.
	SelectionPipeline []SelectionStep `json:"selectionPipeline,omitempty"`

	// Settings describes the phase's admin-configurable values
	// (e.g. max votes per member) as a schema document.
	Settings schema.Document `json:"settings,omitempty"`
}

// allows is the single interpretation point for a tri-state rule flag:
// undefined means allowed, only explicit false blocks.
func allows(flag *bool) bool {
	return flag == nil || *flag
}
