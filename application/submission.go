package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/felixgeelhaar/decision-go/domain/process"
	"github.com/felixgeelhaar/decision-go/domain/proposal"
	"github.com/felixgeelhaar/decision-go/domain/schema"
	"github.com/felixgeelhaar/decision-go/infrastructure/logging"
)

// ContentAssembler turns a collaborative document's fragments into a
// flat proposal data object shaped by the proposal schema.
type ContentAssembler interface {
	AssembleFromDocument(ctx context.Context, docID string, template schema.Document) (map[string]any, error)
}

// SubmissionService gates the draft-to-submitted proposal status change.
type SubmissionService struct {
	proposals proposal.Store
	instances process.Store
	templates process.TemplateRepository
	validator schema.Validator
	assembler ContentAssembler
}

// NewSubmissionService creates a proposal submission service. The
// template repository may be nil when instances carry complete rule
// overrides; the assembler may be nil when no collaborative document
// service is configured.
func NewSubmissionService(
	proposals proposal.Store,
	instances process.Store,
	templates process.TemplateRepository,
	validator schema.Validator,
	assembler ContentAssembler,
) *SubmissionService {
	return &SubmissionService{
		proposals: proposals,
		instances: instances,
		templates: templates,
		validator: validator,
		assembler: assembler,
	}
}

// SubmitProposal moves a draft proposal to submitted. The proposal must
// currently be a draft, the instance's current phase rules must permit
// submission, and when the instance carries a proposal schema the
// proposal's content must validate against it. Collaboration-backed
// proposals have their content assembled from the external document
// first; if that content cannot be fetched the submission fails closed.
func (s *SubmissionService) SubmitProposal(ctx context.Context, proposalID string) (*proposal.Proposal, error) {
	p, err := s.proposals.Get(ctx, proposalID)
	if err != nil {
		return nil, err
	}
	if p.Status != proposal.StatusDraft {
		return nil, fmt.Errorf("%w: proposal %s is %s", proposal.ErrNotDraft, p.ID, p.Status)
	}

	instance, err := s.instances.Get(ctx, p.ProcessInstanceID)
	if err != nil {
		return nil, err
	}

	if err := s.checkPhaseAllowsSubmit(ctx, instance); err != nil {
		return nil, err
	}

	if !instance.ProposalSchema.IsZero() {
		data, err := s.proposalData(ctx, p, instance)
		if err != nil {
			return nil, err
		}
		if err := s.validator.ValidateProposal(ctx, instance.ProposalSchema, data); err != nil {
			return nil, err
		}
		p.Data = data
	}

	p.Status = proposal.StatusSubmitted
	p.UpdatedAt = time.Now()
	if err := s.proposals.Update(ctx, p); err != nil {
		return nil, err
	}

	logging.Info().
		Add(logging.Component("submission")).
		Add(logging.ProposalID(p.ID)).
		Add(logging.InstanceID(instance.ID)).
		Msg("proposal submitted")
	return p, nil
}

// checkPhaseAllowsSubmit resolves the effective rules for the instance's
// current phase. An absent submit flag means allowed; only an explicit
// false closes submission.
func (s *SubmissionService) checkPhaseAllowsSubmit(ctx context.Context, instance *process.Instance) error {
	phase, ok := instance.CurrentPhase()
	if !ok {
		return fmt.Errorf("%w: instance %s phase %s",
			process.ErrUnknownPhase, instance.ID, instance.CurrentPhaseID)
	}

	var def *process.PhaseDefinition
	if s.templates != nil && instance.TemplateID != "" {
		tmpl, err := s.templates.Template(ctx, instance.TemplateID)
		if err != nil && !errors.Is(err, process.ErrTemplateNotFound) {
			return err
		}
		if tmpl != nil {
			def, _ = tmpl.Phase(phase.PhaseID)
		}
	}

	rules := process.EffectiveRules(phase, def)
	if !rules.AllowsProposalSubmit() {
		return fmt.Errorf("%w: instance %s phase %s",
			proposal.ErrSubmissionClosed, instance.ID, phase.PhaseID)
	}
	return nil
}

// proposalData resolves the content to validate: assembled from the
// collaborative document for collaboration-backed proposals, the stored
// data for legacy ones. Unverifiable collaborative content refuses the
// submission rather than validating stale data.
func (s *SubmissionService) proposalData(ctx context.Context, p *proposal.Proposal, instance *process.Instance) (map[string]any, error) {
	if !p.CollaborationBacked() {
		return p.Data, nil
	}
	if s.assembler == nil {
		return nil, fmt.Errorf("%w: proposal %s has no content source",
			proposal.ErrContentUnavailable, p.ID)
	}

	data, err := s.assembler.AssembleFromDocument(ctx, p.CollaborationDocID, instance.ProposalSchema)
	if err != nil {
		return nil, fmt.Errorf("%w: proposal %s: %v",
			proposal.ErrContentUnavailable, p.ID, err)
	}
	return data, nil
}
