package intake

import "strings"

// IsValid reports whether raw may be committed for step. other is the free-text
// override that only matters when a select step has OtherOption chosen.
//
// A select value outside step.Options is accepted as free text; Retreat
// reopens it as OtherOption with the value as override.
func IsValid(step StepDefinition, raw string, other string) bool {
	v := strings.TrimSpace(raw)
	switch step.Kind {
	case KindSelect:
		if v == "" {
			return false
		}
		if v == OtherOption {
			return strings.TrimSpace(other) != ""
		}
		return true
	default:
		return v != ""
	}
}

// Resolve computes the value committed into the answers for step.
func Resolve(step StepDefinition, raw string, other string, country Country) string {
	v := strings.TrimSpace(raw)
	switch step.Kind {
	case KindPhone:
		return country.CallingCode + " " + v
	case KindSelect:
		if v == OtherOption {
			return strings.TrimSpace(other)
		}
		return v
	default:
		return v
	}
}
