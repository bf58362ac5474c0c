// Package application provides application services for the decision
// process runtime: instance materialization, transition scheduling and
// monitoring, and the proposal submission gate.
package application

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/felixgeelhaar/decision-go/domain/process"
	"github.com/felixgeelhaar/decision-go/domain/schema"
)

// PhaseOverride carries the per-phase values an owner customizes when
// creating an instance from a template.
type PhaseOverride struct {
	// StartDate opens the phase at a specific time.
	StartDate *time.Time

	// EndDate closes the phase at a specific time. Required for phases
	// using date-driven advancement.
	EndDate *time.Time

	// Settings are validated against the phase's settings schema before
	// being applied. Invalid settings fail the whole materialization.
	Settings map[string]any

	// Rules overrides the template phase rules when non-nil. Overrides
	// merge field by field over the template's rules, so a partial
	// override keeps the template's unrelated rules in force.
	Rules *process.PhaseRules
}

// MaterializeRequest describes an instance to create from a template.
type MaterializeRequest struct {
	TemplateID     string
	ProfileID      string
	OwnerProfileID string
	Config         process.Config

	// Overrides maps template phase IDs to per-instance customizations.
	Overrides map[string]PhaseOverride
}

// Materializer creates running process instances from templates.
type Materializer struct {
	templates process.TemplateRepository
	instances process.Store
	validator schema.Validator
}

// NewMaterializer creates a new instance materializer.
func NewMaterializer(templates process.TemplateRepository, instances process.Store, validator schema.Validator) *Materializer {
	return &Materializer{
		templates: templates,
		instances: instances,
		validator: validator,
	}
}

// CreateInstance materializes an instance from the requested template and
// persists it.
func (m *Materializer) CreateInstance(ctx context.Context, req MaterializeRequest) (*process.Instance, error) {
	tmpl, err := m.templates.Template(ctx, req.TemplateID)
	if err != nil {
		return nil, err
	}

	instance, err := m.Materialize(ctx, tmpl, req)
	if err != nil {
		return nil, err
	}

	if err := m.instances.Save(ctx, instance); err != nil {
		return nil, err
	}
	return instance, nil
}

// Materialize builds an instance from a template and per-phase overrides
// without persisting it. The phase list keeps template order and the
// current phase pointer lands on the first phase. Each instance phase
// carries its own deep copy of the rules in force (overrides merged over
// the template's rules), so the instance stays self-contained: schedulers
// and submission checks read correct rules without the template at hand.
// Override settings are validated against the phase's settings schema;
// any invalid settings fail the whole operation, nothing is applied
// partially.
func (m *Materializer) Materialize(ctx context.Context, tmpl *process.Template, req MaterializeRequest) (*process.Instance, error) {
	if err := tmpl.Validate(); err != nil {
		return nil, err
	}

	phases := make([]process.InstancePhase, 0, len(tmpl.Phases))
	for i := range tmpl.Phases {
		def := &tmpl.Phases[i]
		phase := process.InstancePhase{
			PhaseID: def.ID,
			Name:    def.Name,
		}

		override := req.Overrides[def.ID]
		phase.StartDate = override.StartDate
		phase.EndDate = override.EndDate

		rules := process.EffectiveRules(&process.InstancePhase{Rules: override.Rules}, def).Clone()
		phase.Rules = &rules

		if override.Settings != nil {
			if err := m.checkSettings(ctx, def, override.Settings); err != nil {
				return nil, err
			}
			phase.Settings = override.Settings
		}

		phases = append(phases, phase)
	}

	instance := &process.Instance{
		ID:             uuid.NewString(),
		TemplateID:     tmpl.ID,
		CurrentPhaseID: phases[0].PhaseID,
		Phases:         phases,
		Config:         req.Config,
		Status:         process.InstanceStatusActive,
		ProfileID:      req.ProfileID,
		OwnerProfileID: req.OwnerProfileID,
		ProposalSchema: tmpl.ProposalSchema.Clone(),
		RubricSchema:   tmpl.RubricSchema.Clone(),
	}

	if err := instance.Validate(); err != nil {
		return nil, err
	}
	return instance, nil
}

// checkSettings validates override settings against the phase's settings
// schema, with presentation-only sub-schemas stripped first.
func (m *Materializer) checkSettings(ctx context.Context, def *process.PhaseDefinition, settings map[string]any) error {
	if def.Settings.IsZero() {
		return nil
	}

	stripped := def.Settings.WithoutPresentation()
	result, err := m.validator.Validate(ctx, stripped, settings)
	if err != nil {
		return fmt.Errorf("validate settings for phase %s: %w", def.ID, err)
	}
	if !result.Valid {
		return &schema.ValidationError{FieldErrors: result.Errors}
	}
	return nil
}
