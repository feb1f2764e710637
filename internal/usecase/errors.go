package usecase

import (
	"errors"
	"fmt"
)

// ConfigurationError is fatal: the run aborts before any platform mutation.
type ConfigurationError struct {
	Stage string
	Err   error
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration: %s: %v", e.Stage, e.Err)
}

func (e *ConfigurationError) Unwrap() error { return e.Err }

func IsConfigurationError(err error) bool {
	var ce *ConfigurationError
	return errors.As(err, &ce)
}

// transientError is implemented by platform errors that were retryable.
// Terminal platform errors do not implement it or report false.
type transientError interface {
	Transient() bool
}

// IsTransient reports whether a platform error was a transient failure
// (transport error or retryable status) rather than a terminal rejection.
func IsTransient(err error) bool {
	var te transientError
	if errors.As(err, &te) {
		return te.Transient()
	}
	return false
}
