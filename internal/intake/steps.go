package intake

import (
	"errors"
	"fmt"
)

var engineeringFields = []string{
	"Civil Engineering",
	"Mechanical Engineering",
	"Electrical Engineering",
	"Electronics Engineering",
	"Chemical Engineering",
	"Computer Systems Engineering",
	"Structural Engineering",
	"Mining Engineering",
	"Engineering Technologist",
	"Engineering Associate",
	OtherOption,
}

// DefaultSteps returns the intake questions in traversal order.
func DefaultSteps() []StepDefinition {
	opts := make([]string, len(engineeringFields))
	copy(opts, engineeringFields)
	return []StepDefinition{
		{ID: "name", Prompt: "What's your full name?", Kind: KindText, Placeholder: "Asha Gurung"},
		{ID: "email", Prompt: "Where can we email your CDR assessment?", Kind: KindEmail, Placeholder: "you@example.com"},
		{ID: "phone", Prompt: "Which number should our writers call?", Kind: KindPhone},
		{ID: "field", Prompt: "Which engineering field are you being assessed in?", Kind: KindSelect, Options: opts},
		{ID: "message", Prompt: "Tell us about your career episodes and deadline.", Kind: KindFreeform, Placeholder: "I need three career episodes and a summary statement by..."},
	}
}

func ValidateSteps(steps []StepDefinition) error {
	if len(steps) == 0 {
		return errors.New("no steps defined")
	}
	seen := make(map[string]bool, len(steps))
	for i, st := range steps {
		if st.ID == "" {
			return fmt.Errorf("step %d: empty id", i)
		}
		if seen[st.ID] {
			return fmt.Errorf("step %d: duplicate id %q", i, st.ID)
		}
		seen[st.ID] = true
		switch st.Kind {
		case KindText, KindEmail, KindPhone, KindFreeform:
		case KindSelect:
			if len(st.Options) == 0 {
				return fmt.Errorf("step %q: select without options", st.ID)
			}
		default:
			return fmt.Errorf("step %q: unknown kind %q", st.ID, st.Kind)
		}
	}
	return nil
}

func hasOption(st StepDefinition, v string) bool {
	for _, o := range st.Options {
		if o == v {
			return true
		}
	}
	return false
}
