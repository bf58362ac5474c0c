package process

import (
	"fmt"

	"github.com/felixgeelhaar/decision-go/domain/schema"
)

// Template is the reusable, ordered phase definition a process instance is
// created from.
type Template struct {
	// ID identifies the template.
	ID string `json:"id"`

	// Name is the template's display name.
	Name string `json:"name"`

	// Phases is the ordered, non-empty phase list. Position in this list
	// determines whether a phase is initial, intermediate, or final.
	Phases []PhaseDefinition `json:"phases"`

	// ProposalSchema validates proposal content submitted during the
	// process. Optional.
	ProposalSchema schema.Document `json:"proposalSchema,omitempty"`

	// RubricSchema validates reviewer rubric data. Optional.
	RubricSchema schema.Document `json:"rubricSchema,omitempty"`
}

// Validate checks the template's structural invariants: at least one phase
// and unique phase IDs.
func (t *Template) Validate() error {
	if len(t.Phases) == 0 {
		return ErrNoPhases
	}
	seen := make(map[string]struct{}, len(t.Phases))
	for _, phase := range t.Phases {
		if phase.ID == "" {
			return fmt.Errorf("%w: phase with empty id", ErrInvalidTemplate)
		}
		if _, dup := seen[phase.ID]; dup {
			return fmt.Errorf("%w: duplicate phase id %q", ErrInvalidTemplate, phase.ID)
		}
		seen[phase.ID] = struct{}{}
	}
	return nil
}

// Phase returns the phase definition with the given ID.
func (t *Template) Phase(id string) (*PhaseDefinition, bool) {
	for i := range t.Phases {
		if t.Phases[i].ID == id {
			return &t.Phases[i], true
		}
	}
	return nil, false
}

// Position classifies the phase at index i by list position alone.
func (t *Template) Position(i int) PhasePosition {
	switch {
	case i == 0:
		return PositionInitial
	case i == len(t.Phases)-1:
		return PositionFinal
	default:
		return PositionIntermediate
	}
}
