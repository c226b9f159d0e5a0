package validation

import "github.com/ndewijer/pnl-tracker/internal/apperrors"

// fieldsError returns a ValidationError for errs, or nil when errs is empty.
func fieldsError(errs map[string]string) error {
	if len(errs) > 0 {
		return &apperrors.ValidationError{Fields: errs}
	}
	return nil
}
