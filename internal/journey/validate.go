package journey

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Validate checks a journey document for structural problems: missing ids or
// titles, unknown enum values, duplicate node ids and dangling references.
// Every problem is reported in the joined error. The engines tolerate all of
// these, so Validate is a diagnostic, not a precondition.
func Validate(j *Journey) error {
	if j == nil {
		return errors.New("journey is nil")
	}

	var errs []error
	if err := validate.Struct(j); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			for _, fe := range verrs {
				errs = append(errs, fieldError(fe))
			}
		} else {
			errs = append(errs, err)
		}
	}

	seen := make(map[string]bool, len(j.Nodes))
	for _, n := range j.Nodes {
		if n.ID == "" {
			continue
		}
		if seen[n.ID] {
			errs = append(errs, fmt.Errorf("node %q: duplicate id", n.ID))
		}
		seen[n.ID] = true
	}

	for _, n := range j.Nodes {
		for _, dep := range n.Dependencies {
			if !seen[dep] {
				errs = append(errs, fmt.Errorf("node %q: unknown dependency %q", n.ID, dep))
			}
		}
	}

	for _, c := range j.Connections {
		if c.From != "" && !seen[c.From] {
			errs = append(errs, fmt.Errorf("connection %q: unknown source %q", c.ID, c.From))
		}
		if c.To != "" && !seen[c.To] {
			errs = append(errs, fmt.Errorf("connection %q: unknown target %q", c.ID, c.To))
		}
	}

	return errors.Join(errs...)
}

// fieldError formats a single validator failure.
func fieldError(fe validator.FieldError) error {
	switch fe.Tag() {
	case "required":
		return fmt.Errorf("%s is required", fe.Namespace())
	case "oneof":
		return fmt.Errorf("%s must be one of: %s (got %q)", fe.Namespace(), fe.Param(), fe.Value())
	default:
		return fmt.Errorf("%s is invalid", fe.Namespace())
	}
}
