package validators

import (
	"context"
	"fmt"
	"strings"

	"github.com/MKhiriev/go-facility-sync/models"
)

const (
	FieldDeviceID     = "device_id"
	FieldCollection   = "collection"
	FieldDocumentID   = "document_id"
	FieldClientData   = "client_data"
	FieldPageLimit    = "page_limit"
	FieldMaxPages     = "max_pages"
	FieldChanges      = "changes"
	FieldSinceMinutes = "since_minutes"
)

// MaxStatusWindowMinutes is the longest window a status summary may cover.
const MaxStatusWindowMinutes = 7 * 24 * 60

type SyncValidator struct {
}

func NewSyncValidator() Validator {
	return &SyncValidator{}
}

func (v *SyncValidator) Validate(ctx context.Context, obj any, fields ...string) error {
	switch value := obj.(type) {
	case models.SyncRequest:
		return v.validateSyncRequest(ctx, value, fields...)
	case *models.SyncRequest:
		return v.validateSyncRequest(ctx, *value, fields...)

	case models.ClientChange:
		return v.validateClientChange(ctx, value, fields...)
	case *models.ClientChange:
		return v.validateClientChange(ctx, *value, fields...)

	case models.ReconcileRequest:
		return v.validateReconcileRequest(ctx, value, fields...)
	case *models.ReconcileRequest:
		return v.validateReconcileRequest(ctx, *value, fields...)

	case models.DocumentKey:
		return v.validateDocumentKey(ctx, value, fields...)
	case *models.DocumentKey:
		return v.validateDocumentKey(ctx, *value, fields...)

	case models.StatusQuery:
		return v.validateStatusQuery(ctx, value, fields...)
	case *models.StatusQuery:
		return v.validateStatusQuery(ctx, *value, fields...)

	default:
		return ErrUnsupportedType
	}
}

// validateSyncRequest leaves the pushed changes alone unless asked for
// them: a bad change fails on its own, not the whole session.
func (v *SyncValidator) validateSyncRequest(ctx context.Context, req models.SyncRequest, fields ...string) error {
	if len(fields) == 0 {
		fields = []string{FieldDeviceID, FieldPageLimit, FieldMaxPages}
	}

	for _, f := range fields {
		switch f {
		case FieldDeviceID:
			if strings.TrimSpace(req.DeviceID) == "" {
				return ErrEmptyDeviceID
			}
		case FieldPageLimit:
			if req.PageLimit < 0 {
				return ErrNegativePageLimit
			}
		case FieldMaxPages:
			if req.MaxPages < 0 {
				return ErrNegativeMaxPages
			}
		case FieldChanges:
			for i, change := range req.Changes {
				if err := v.validateClientChange(ctx, change); err != nil {
					return fmt.Errorf("validation error at index %d: %w", i, err)
				}
			}
		default:
			return fmt.Errorf("%w: %s", ErrUnknownField, f)
		}
	}

	return nil
}

func (v *SyncValidator) validateClientChange(ctx context.Context, change models.ClientChange, fields ...string) error {
	return v.validateDocumentWrite(change.Collection, change.DocumentID, change.ClientData, fields...)
}

func (v *SyncValidator) validateReconcileRequest(ctx context.Context, req models.ReconcileRequest, fields ...string) error {
	return v.validateDocumentWrite(req.Collection, req.DocumentID, req.ClientData, fields...)
}

// validateDocumentWrite checks a client write. A nil clientData is
// rejected; an empty object is a legitimate write.
func (v *SyncValidator) validateDocumentWrite(collection, documentID string, data models.Fields, fields ...string) error {
	if len(fields) == 0 {
		fields = []string{FieldCollection, FieldDocumentID, FieldClientData}
	}

	for _, f := range fields {
		switch f {
		case FieldCollection:
			if collection == "" {
				return ErrEmptyCollection
			}
		case FieldDocumentID:
			if documentID == "" {
				return ErrEmptyDocumentID
			}
		case FieldClientData:
			if data == nil {
				return ErrMissingClientData
			}
		default:
			return fmt.Errorf("%w: %s", ErrUnknownField, f)
		}
	}

	return nil
}

func (v *SyncValidator) validateDocumentKey(ctx context.Context, key models.DocumentKey, fields ...string) error {
	if len(fields) == 0 {
		fields = []string{FieldCollection, FieldDocumentID}
	}

	for _, f := range fields {
		switch f {
		case FieldCollection:
			if key.Collection == "" {
				return ErrEmptyCollection
			}
		case FieldDocumentID:
			if key.DocumentID == "" {
				return ErrEmptyDocumentID
			}
		default:
			return fmt.Errorf("%w: %s", ErrUnknownField, f)
		}
	}

	return nil
}

func (v *SyncValidator) validateStatusQuery(ctx context.Context, q models.StatusQuery, fields ...string) error {
	if len(fields) == 0 {
		fields = []string{FieldSinceMinutes}
	}

	for _, f := range fields {
		switch f {
		case FieldSinceMinutes:
			if q.SinceMinutes < 0 || q.SinceMinutes > MaxStatusWindowMinutes {
				return fmt.Errorf("%w: must be between 0 and %d", ErrInvalidStatusWindow, MaxStatusWindowMinutes)
			}
		default:
			return fmt.Errorf("%w: %s", ErrUnknownField, f)
		}
	}

	return nil
}
