package logging

import (
	"time"

	"github.com/felixgeelhaar/bolt/v3"
)

// Field is a function that applies structured data to a log event.
type Field func(*bolt.Event) *bolt.Event

// Common field constructors for decision process logging.

// InstanceID adds a process instance ID field.
func InstanceID(id string) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("instance_id", id)
	}
}

// TransitionID adds a scheduled transition ID field.
func TransitionID(id string) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("transition_id", id)
	}
}

// FromPhase adds a from_phase field for transitions.
func FromPhase(id string) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("from_phase", id)
	}
}

// ToPhase adds a to_phase field for transitions.
func ToPhase(id string) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("to_phase", id)
	}
}

// PhaseID adds a phase ID field.
func PhaseID(id string) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("phase_id", id)
	}
}

// ProposalID adds a proposal ID field.
func ProposalID(id string) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("proposal_id", id)
	}
}

// TemplateID adds a template ID field.
func TemplateID(id string) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("template_id", id)
	}
}

// ScheduledDate adds the transition's scheduled date.
func ScheduledDate(t time.Time) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("scheduled_date", t.UTC().Format(time.RFC3339))
	}
}

// Count adds a named count field.
func Count(key string, n int) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Int(key, n)
	}
}

// Final marks a transition that lands on the instance's last phase.
func Final(final bool) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Bool("final", final)
	}
}

// Duration adds a duration field in milliseconds.
func Duration(d time.Duration) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Int64("duration_ms", d.Milliseconds())
	}
}

// ErrorField adds an error field.
func ErrorField(err error) Field {
	return func(e *bolt.Event) *bolt.Event {
		if err == nil {
			return e
		}
		return e.Str("error", err.Error())
	}
}

// Component adds a component name field.
func Component(name string) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("component", name)
	}
}

// Str adds an arbitrary string field.
func Str(key, value string) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str(key, value)
	}
}
