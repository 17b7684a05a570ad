package educontent

import (
	"strings"
)

type fieldCheck struct {
	name  string
	value *string
}

// requireFields trims each value in place and reports the first empty one.
func requireFields(checks ...fieldCheck) error {
	for _, c := range checks {
		*c.value = strings.TrimSpace(*c.value)
		if *c.value == "" {
			return &ValidationError{Field: c.name, Reason: "is required"}
		}
	}
	return nil
}

func trimmed(p *string) *string {
	if p == nil {
		return nil
	}
	s := strings.TrimSpace(*p)
	return &s
}

// partialFields collects the non-nil optional string fields of an update.
// A required field that is present but blank is rejected.
type partialFields map[string]any

func (p partialFields) set(name string, value *string, required bool) error {
	value = trimmed(value)
	if value == nil {
		return nil
	}
	if required && *value == "" {
		return &ValidationError{Field: name, Reason: "must not be empty"}
	}
	p[name] = *value
	return nil
}

func (p partialFields) empty() error {
	if len(p) == 0 {
		return &ValidationError{Reason: "no fields to update"}
	}
	return nil
}
