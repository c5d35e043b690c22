package pricing

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidParameter is matched by every parameter validation failure.
	ErrInvalidParameter = errors.New("invalid parameter")

	// ErrEngineNotSet is returned by pricing queries on an option without an engine.
	ErrEngineNotSet = errors.New("no pricing engine set")

	// ErrEarlyExerciseUnsupported is returned when an American option is priced
	// through an engine that cannot value early exercise.
	ErrEarlyExerciseUnsupported = errors.New("engine does not support early exercise")

	// ErrNoStatistics is returned when sampling statistics are requested from a
	// deterministic engine.
	ErrNoStatistics = errors.New("engine does not produce sampling statistics")

	// ErrNoConvergence is returned by iterative solvers that exhaust their budget.
	ErrNoConvergence = errors.New("solver did not converge")
)

// ParameterError describes a single rejected input.
type ParameterError struct {
	Field   string
	Message string
}

func (e *ParameterError) Error() string {
	return fmt.Sprintf("%s: %s: %s", ErrInvalidParameter, e.Field, e.Message)
}

// Is lets errors.Is(err, ErrInvalidParameter) match any ParameterError.
func (e *ParameterError) Is(target error) bool {
	return target == ErrInvalidParameter
}

func invalid(field, format string, args ...any) error {
	return &ParameterError{Field: field, Message: fmt.Sprintf(format, args...)}
}
