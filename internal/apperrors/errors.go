package apperrors

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Domain entity errors represent missing entities in the system.
var (
	// ErrTransactionNotFound indicates that a transaction with the given ID does not exist.
	ErrTransactionNotFound = errors.New("transaction not found")

	// ErrSourceNotFound indicates that no connected source has the given name.
	ErrSourceNotFound = errors.New("source not found")

	// ErrNoPipelineResult indicates that the sampling pipeline has not completed a run yet.
	ErrNoPipelineResult = errors.New("no pipeline result available")
)

// Business logic errors represent constraint violations.
var (
	// ErrPipelineBusy indicates that a sampling pipeline run is already in flight.
	// A trigger that receives it was dropped, not queued.
	ErrPipelineBusy = errors.New("pipeline run already in progress")

	// ErrUnknownExchange indicates that no connector is registered for the requested kind.
	ErrUnknownExchange = errors.New("unknown exchange kind")

	// ErrInvalidCredentials indicates that a connector rejected its credentials.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrMissingCredentialKey indicates that no encryption key is configured for credential storage.
	ErrMissingCredentialKey = errors.New("credential encryption key not configured")

	// ErrDuplicateSource indicates that a source with the same name is already connected.
	ErrDuplicateSource = errors.New("source already connected")

	// ErrEmptyID indicates that a required ID parameter is empty or missing.
	ErrEmptyID = errors.New("ID cannot be empty")

	// ErrInvalidDate indicates a date parameter that could not be parsed.
	ErrInvalidDate = errors.New("invalid date")
)

// Operation failure errors.
var (
	ErrFailedToRetrieveTransactions = errors.New("failed to retrieve transactions")
	ErrFailedToCreateTransaction    = errors.New("failed to create transaction")
	ErrFailedToDeleteTransaction    = errors.New("failed to delete transaction")
	ErrFailedToConnectSource        = errors.New("failed to connect source")
	ErrFailedToDisconnectSource     = errors.New("failed to disconnect source")
	ErrFailedToUpdateSettings       = errors.New("failed to update notification settings")
	ErrFailedToRetrieveHistory      = errors.New("failed to retrieve snapshot history")
	ErrFailedToRetrieveSettings     = errors.New("failed to retrieve notification settings")
	ErrFailedToRetrieveSources      = errors.New("failed to retrieve sources")
	ErrFailedToRunPipeline          = errors.New("failed to run sampling pipeline")
	ErrFailedToSync                 = errors.New("failed to sync sources")
)

// ValidationError reports malformed input rejected at a boundary. Fields maps
// the offending field name to a human readable reason.
type ValidationError struct {
	Fields map[string]string
}

// NewValidationError builds a ValidationError for a single field.
func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: reason}}
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for field := range e.Fields {
		keys = append(keys, field)
	}
	sort.Strings(keys)

	msgs := make([]string, 0, len(keys))
	for _, field := range keys {
		msgs = append(msgs, fmt.Sprintf("%s: %s", field, e.Fields[field]))
	}
	return strings.Join(msgs, "; ")
}

// SourceFetchError reports that a single exchange, wallet or price call failed.
// It is isolated to that source and reported next to the successful results.
type SourceFetchError struct {
	Source string
	Op     string
	Err    error
}

func (e *SourceFetchError) Error() string {
	return fmt.Sprintf("source %s: %s: %v", e.Source, e.Op, e.Err)
}

func (e *SourceFetchError) Unwrap() error { return e.Err }

// ConfigError reports missing or invalid credentials or settings for a source.
// It blocks only that source's connection attempt.
type ConfigError struct {
	Source string
	Reason string
	Err    error
}

func (e *ConfigError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("source %s: %s: %v", e.Source, e.Reason, e.Err)
	}
	return fmt.Sprintf("source %s: %s", e.Source, e.Reason)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// IsValidation reports whether err carries a ValidationError.
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

// IsConfig reports whether err carries a ConfigError.
func IsConfig(err error) bool {
	var c *ConfigError
	return errors.As(err, &c)
}
