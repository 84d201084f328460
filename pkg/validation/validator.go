package validation

import (
	"errors"
	"fmt"
	"math"
	"unicode"

	"github.com/go-playground/validator/v10"
)

var (
	// validate is a singleton validator instance
	validate *validator.Validate

	// MaxNodeIDLength bounds node identifiers read from input files
	MaxNodeIDLength = 1024
)

func init() {
	validate = validator.New()
}

// EdgeRecord is one parsed input edge before it reaches the graph store
type EdgeRecord struct {
	Source string   `validate:"required,max=1024"`
	Target string   `validate:"required,max=1024"`
	Weight *float64 `validate:"omitempty"`
}

// Struct validates any struct against its validate tags and returns the
// first failure in a readable form.
func Struct(v any) error {
	if v == nil {
		return errors.New("value cannot be nil")
	}
	if err := validate.Struct(v); err != nil {
		return formatValidationError(err)
	}
	return nil
}

// ValidateEdgeRecord validates an input edge
func ValidateEdgeRecord(rec *EdgeRecord) error {
	if rec == nil {
		return errors.New("edge record cannot be nil")
	}

	if err := validate.Struct(rec); err != nil {
		return formatValidationError(err)
	}

	if err := ValidateNodeID(rec.Source); err != nil {
		return fmt.Errorf("Source: %w", err)
	}
	if err := ValidateNodeID(rec.Target); err != nil {
		return fmt.Errorf("Target: %w", err)
	}
	if rec.Weight != nil {
		if err := ValidateWeight(*rec.Weight); err != nil {
			return fmt.Errorf("Weight: %w", err)
		}
	}
	return nil
}

// ValidateNodeID validates a node identifier
func ValidateNodeID(id string) error {
	if id == "" {
		return errors.New("node id cannot be empty")
	}
	if len(id) > MaxNodeIDLength {
		return fmt.Errorf("node id exceeds maximum length of %d characters", MaxNodeIDLength)
	}
	for _, r := range id {
		if unicode.IsControl(r) {
			return fmt.Errorf("node id %q contains control characters", id)
		}
	}
	return nil
}

// ValidateWeight validates an edge weight
func ValidateWeight(w float64) error {
	if math.IsNaN(w) || math.IsInf(w, 0) {
		return fmt.Errorf("weight %v is not finite", w)
	}
	if w < 0 {
		return fmt.Errorf("weight %v must be non-negative", w)
	}
	return nil
}

// formatValidationError converts validator errors to a more user-friendly format
func formatValidationError(err error) error {
	if err == nil {
		return nil
	}

	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return err
	}

	// Return the first validation error in a user-friendly format
	for _, e := range validationErrs {
		field := e.Field()
		tag := e.Tag()
		param := e.Param()

		switch tag {
		case "required":
			return fmt.Errorf("%s: field is required", field)
		case "min", "gte":
			return fmt.Errorf("%s: must be at least %s", field, param)
		case "max", "lte":
			return fmt.Errorf("%s: must not exceed %s", field, param)
		case "gt":
			return fmt.Errorf("%s: must be greater than %s", field, param)
		case "lt":
			return fmt.Errorf("%s: must be less than %s", field, param)
		case "oneof":
			return fmt.Errorf("%s: must be one of [%s]", field, param)
		case "dive":
			// For array elements
			return fmt.Errorf("%s: invalid element in array", field)
		default:
			return fmt.Errorf("%s: validation failed (%s)", field, tag)
		}
	}

	return err
}
