package validators

import "errors"

var (
	ErrUnsupportedType = errors.New("unsupported type for validation")
	ErrUnknownField    = errors.New("unknown field for validation")

	ErrEmptyDeviceID       = errors.New("deviceId is required")
	ErrEmptyCollection     = errors.New("collection is required")
	ErrEmptyDocumentID     = errors.New("documentId is required")
	ErrMissingClientData   = errors.New("clientData is required")
	ErrNegativePageLimit   = errors.New("pageLimit must not be negative")
	ErrNegativeMaxPages    = errors.New("maxPages must not be negative")
	ErrInvalidStatusWindow = errors.New("sinceMinutes is out of range")
)
