package process

import (
	"testing"
	"time"
)

func boolPtr(b bool) *bool { return &b }

func TestEffectiveRules(t *testing.T) {
	t.Parallel()

	tmplFalse := PhaseRules{
		Proposals: ActionRules{Submit: boolPtr(false)},
		Voting:    ActionRules{Edit: boolPtr(false)},
	}

	tests := []struct {
		name        string
		instPhase   *InstancePhase
		def         *PhaseDefinition
		wantSubmit  bool
		wantVotEdit bool
	}{
		{
			name:        "no rules anywhere means allowed",
			instPhase:   &InstancePhase{PhaseID: "voting"},
			def:         &PhaseDefinition{ID: "voting"},
			wantSubmit:  true,
			wantVotEdit: true,
		},
		{
			name:        "template rules apply without override",
			instPhase:   &InstancePhase{PhaseID: "voting"},
			def:         &PhaseDefinition{ID: "voting", Rules: tmplFalse},
			wantSubmit:  false,
			wantVotEdit: false,
		},
		{
			name: "instance override wins per field",
			instPhase: &InstancePhase{
				PhaseID: "voting",
				Rules: &PhaseRules{
					Proposals: ActionRules{Submit: boolPtr(true)},
				},
			},
			def:         &PhaseDefinition{ID: "voting", Rules: tmplFalse},
			wantSubmit:  true,
			wantVotEdit: false, // unrelated template rule survives a partial override
		},
		{
			name: "nil template definition",
			instPhase: &InstancePhase{
				PhaseID: "voting",
				Rules: &PhaseRules{
					Proposals: ActionRules{Submit: boolPtr(false)},
				},
			},
			def:         nil,
			wantSubmit:  false,
			wantVotEdit: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			rules := EffectiveRules(tt.instPhase, tt.def)
			if got := rules.AllowsProposalSubmit(); got != tt.wantSubmit {
				t.Errorf("AllowsProposalSubmit() = %v, want %v", got, tt.wantSubmit)
			}
			if got := rules.AllowsVoteEdit(); got != tt.wantVotEdit {
				t.Errorf("AllowsVoteEdit() = %v, want %v", got, tt.wantVotEdit)
			}
		})
	}
}

func TestEffectiveAdvancement(t *testing.T) {
	t.Parallel()

	t.Run("unset method normalizes to manual", func(t *testing.T) {
		t.Parallel()

		adv := EffectiveAdvancement(&InstancePhase{PhaseID: "p"}, &PhaseDefinition{ID: "p"})
		if adv.Method != MethodManual {
			t.Errorf("Method = %q, want %q", adv.Method, MethodManual)
		}
	})

	t.Run("instance advancement overrides template", func(t *testing.T) {
		t.Parallel()

		def := &PhaseDefinition{
			ID:    "p",
			Rules: PhaseRules{Advancement: &Advancement{Method: MethodManual}},
		}
		instPhase := &InstancePhase{
			PhaseID: "p",
			Rules:   &PhaseRules{Advancement: &Advancement{Method: MethodDate}},
		}

		adv := EffectiveAdvancement(instPhase, def)
		if adv.Method != MethodDate {
			t.Errorf("Method = %q, want %q", adv.Method, MethodDate)
		}
	})

	t.Run("template advancement as fallback", func(t *testing.T) {
		t.Parallel()

		def := &PhaseDefinition{
			ID:    "p",
			Rules: PhaseRules{Advancement: &Advancement{Method: MethodDate}},
		}

		adv := EffectiveAdvancement(&InstancePhase{PhaseID: "p"}, def)
		if adv.Method != MethodDate {
			t.Errorf("Method = %q, want %q", adv.Method, MethodDate)
		}
	})
}

func TestEffectiveEndDate(t *testing.T) {
	t.Parallel()

	instDate := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	tmplDate := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)

	def := &PhaseDefinition{
		ID: "p",
		Rules: PhaseRules{
			Advancement: &Advancement{Method: MethodDate, EndDate: &tmplDate},
		},
	}

	t.Run("instance end date wins", func(t *testing.T) {
		t.Parallel()

		got := EffectiveEndDate(&InstancePhase{PhaseID: "p", EndDate: &instDate}, def)
		if got == nil || !got.Equal(instDate) {
			t.Errorf("EffectiveEndDate() = %v, want %v", got, instDate)
		}
	})

	t.Run("falls back to advancement end date", func(t *testing.T) {
		t.Parallel()

		got := EffectiveEndDate(&InstancePhase{PhaseID: "p"}, def)
		if got == nil || !got.Equal(tmplDate) {
			t.Errorf("EffectiveEndDate() = %v, want %v", got, tmplDate)
		}
	})

	t.Run("nil when nothing is set", func(t *testing.T) {
		t.Parallel()

		if got := EffectiveEndDate(&InstancePhase{PhaseID: "p"}, &PhaseDefinition{ID: "p"}); got != nil {
			t.Errorf("EffectiveEndDate() = %v, want nil", got)
		}
	})
}

func TestPhaseRulesClone(t *testing.T) {
	t.Parallel()

	end := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	original := PhaseRules{
		Proposals:   ActionRules{Submit: boolPtr(false), Edit: boolPtr(true)},
		Voting:      ActionRules{Submit: boolPtr(true)},
		Advancement: &Advancement{Method: MethodDate, EndDate: &end},
	}

	cloned := original.Clone()

	if cloned.AllowsProposalSubmit() || !cloned.AllowsProposalEdit() {
		t.Error("clone should carry the original flag values")
	}
	if cloned.Advancement == nil || cloned.Advancement.Method != MethodDate {
		t.Fatal("clone should carry the advancement block")
	}
	if cloned.Advancement.EndDate == nil || !cloned.Advancement.EndDate.Equal(end) {
		t.Fatalf("clone EndDate = %v, want %v", cloned.Advancement.EndDate, end)
	}

	// Mutating the original must not bleed into the clone.
	*original.Proposals.Submit = true
	original.Advancement.Method = MethodManual
	*original.Advancement.EndDate = end.AddDate(0, 1, 0)

	if cloned.AllowsProposalSubmit() {
		t.Error("clone should not alias the original's flag pointers")
	}
	if cloned.Advancement.Method != MethodDate {
		t.Error("clone should not alias the original's advancement block")
	}
	if !cloned.Advancement.EndDate.Equal(end) {
		t.Error("clone should not alias the original's end date")
	}

	// Unset pieces stay unset.
	empty := PhaseRules{}.Clone()
	if empty.Proposals.Submit != nil || empty.Advancement != nil {
		t.Error("cloning empty rules should not invent values")
	}
}

func TestAdvancementMethodNormalize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   AdvancementMethod
		want AdvancementMethod
	}{
		{"", MethodManual},
		{MethodManual, MethodManual},
		{MethodDate, MethodDate},
	}

	for _, tt := range tests {
		if got := tt.in.Normalize(); got != tt.want {
			t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
