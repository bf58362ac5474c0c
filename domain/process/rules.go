package process

import "time"

// EffectiveRules resolves the rules in force for an instance phase with an
// explicit two-level lookup: each rule comes from the instance override when
// set, falling back to the template definition. Precedence is
// instance-over-template per field, not per struct, so a partial override
// does not hide unrelated template rules.
func EffectiveRules(instPhase *InstancePhase, def *PhaseDefinition) PhaseRules {
	var tmpl PhaseRules
	if def != nil {
		tmpl = def.Rules
	}
	if instPhase == nil || instPhase.Rules == nil {
		return tmpl
	}
	override := *instPhase.Rules

	merged := PhaseRules{
		Proposals: ActionRules{
			Submit: pick(override.Proposals.Submit, tmpl.Proposals.Submit),
			Edit:   pick(override.Proposals.Edit, tmpl.Proposals.Edit),
		},
		Voting: ActionRules{
			Submit: pick(override.Voting.Submit, tmpl.Voting.Submit),
			Edit:   pick(override.Voting.Edit, tmpl.Voting.Edit),
		},
		Advancement: tmpl.Advancement,
	}
	if override.Advancement != nil {
		merged.Advancement = override.Advancement
	}
	return merged
}

// EffectiveAdvancement resolves the advancement configuration for an
// instance phase, normalizing an unset method to manual.
func EffectiveAdvancement(instPhase *InstancePhase, def *PhaseDefinition) Advancement {
	rules := EffectiveRules(instPhase, def)
	if rules.Advancement == nil {
		return Advancement{Method: MethodManual}
	}
	adv := *rules.Advancement
	adv.Method = adv.Method.Normalize()
	return adv
}

// EffectiveEndDate resolves the end date governing a phase's scheduled
// transition: the instance phase's end date when set, falling back to the
// advancement's template-level end date.
func EffectiveEndDate(instPhase *InstancePhase, def *PhaseDefinition) *time.Time {
	if instPhase != nil && instPhase.EndDate != nil {
		return instPhase.EndDate
	}
	adv := EffectiveAdvancement(instPhase, def)
	return adv.EndDate
}

// AllowsProposalSubmit reports whether proposals may be submitted under the
// rules. An unset flag means allowed.
func (r PhaseRules) AllowsProposalSubmit() bool {
	return allows(r.Proposals.Submit)
}

// AllowsProposalEdit reports whether proposals may be edited under the rules.
func (r PhaseRules) AllowsProposalEdit() bool {
	return allows(r.Proposals.Edit)
}

// AllowsVoteSubmit reports whether votes may be cast under the rules.
func (r PhaseRules) AllowsVoteSubmit() bool {
	return allows(r.Voting.Submit)
}

// AllowsVoteEdit reports whether votes may be changed under the rules.
func (r PhaseRules) AllowsVoteEdit() bool {
	return allows(r.Voting.Edit)
}

func pick(override, fallback *bool) *bool {
	if override != nil {
		return override
	}
	return fallback
}

// Clone returns a deep copy of the rules. Flag pointers and the
// advancement block are duplicated so the copy shares no state with the
// template the rules came from.
func (r PhaseRules) Clone() PhaseRules {
	cloned := PhaseRules{
		Proposals: r.Proposals.clone(),
		Voting:    r.Voting.clone(),
	}
	if r.Advancement != nil {
		adv := *r.Advancement
		if r.Advancement.EndDate != nil {
			end := *r.Advancement.EndDate
			adv.EndDate = &end
		}
		cloned.Advancement = &adv
	}
	return cloned
}

func (a ActionRules) clone() ActionRules {
	return ActionRules{
		Submit: cloneFlag(a.Submit),
		Edit:   cloneFlag(a.Edit),
	}
}

func cloneFlag(flag *bool) *bool {
	if flag == nil {
		return nil
	}
	v := *flag
	return &v
}
