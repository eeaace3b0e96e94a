package usecases

import "errors"

// Validation errors are raised before any remote call and map to a
// client-error status at the transport layer. Everything else surfaces
// as a generic server failure.
var (
	ErrInvalidDocumentType = errors.New("invalid document type")
	ErrMissingPayload      = errors.New("document payload is missing")
	ErrMissingCredentials  = errors.New("api key and user id are required")
	ErrEmptyMessage        = errors.New("message is required")
	ErrMessageTooLong      = errors.New("message exceeds maximum length")
)

// IsValidation reports whether err belongs to the validation taxonomy.
func IsValidation(err error) bool {
	return errors.Is(err, ErrInvalidDocumentType) ||
		errors.Is(err, ErrMissingPayload) ||
		errors.Is(err, ErrMissingCredentials) ||
		errors.Is(err, ErrEmptyMessage) ||
		errors.Is(err, ErrMessageTooLong)
}
