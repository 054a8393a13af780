package consultation

import (
	"context"

	"github.com/google/uuid"
)

// ConsultationRepository is the document-store seam for consultation
// records. Lookups are always scoped to the owning patient; a consultation
// id under the wrong patient resolves to apperr.ErrNotFound.
type ConsultationRepository interface {
	Create(ctx context.Context, c *Consultation) error
	GetByID(ctx context.Context, patientID, id uuid.UUID) (*Consultation, error)
	Update(ctx context.Context, c *Consultation) error
	Delete(ctx context.Context, patientID, id uuid.UUID) error
	ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*Consultation, error)
}
