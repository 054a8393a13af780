package patient

import (
	"context"

	"github.com/google/uuid"
)

// PatientRepository is the document-store seam for patient records.
// Implementations return apperr.ErrNotFound when an identity does not
// resolve and otherwise surface their backend's errors unwrapped.
type PatientRepository interface {
	Create(ctx context.Context, p *Patient) error
	GetByID(ctx context.Context, id uuid.UUID) (*Patient, error)
	Update(ctx context.Context, p *Patient) error
	Delete(ctx context.Context, id uuid.UUID) error
	// List returns every patient in store-provided order.
	List(ctx context.Context) ([]*Patient, error)
}
