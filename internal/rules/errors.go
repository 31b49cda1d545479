package rules

import (
	"fmt"

	"github.com/Schneison/unima/internal/core/domain"
)

// ConfigError reports a malformed rule file or an invalid rule discriminant.
// It matches domain.ErrConfiguration with errors.Is.
type ConfigError struct {
	// Path is the rule file, empty when the error is raised during evaluation.
	Path string

	// Kind is the offending discriminant, if any.
	Kind string

	Err error
}

func (e *ConfigError) Error() string {
	switch {
	case e.Path != "" && e.Kind != "":
		return fmt.Sprintf("rules: %s: type %q: %v", e.Path, e.Kind, e.Err)
	case e.Path != "":
		return fmt.Sprintf("rules: %s: %v", e.Path, e.Err)
	case e.Kind != "":
		return fmt.Sprintf("rules: type %q: %v", e.Kind, e.Err)
	default:
		return fmt.Sprintf("rules: %v", e.Err)
	}
}

// Unwrap exposes both the sentinel and the cause.
func (e *ConfigError) Unwrap() []error {
	return []error{domain.ErrConfiguration, e.Err}
}

func invalidType(what, kind string) error {
	return &ConfigError{Kind: kind, Err: fmt.Errorf("the %s type is invalid, there is no %s with this id", what, what)}
}
