package consultation

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/podoclinic/podoclinic/internal/platform/apperr"
)

// Consultation is one visit record owned by exactly one patient. Date is
// stored as entered ("2006-01-02" when well formed); photos hold download
// URLs handed out by the photo store.
type Consultation struct {
	ID          uuid.UUID `db:"id" json:"id"`
	PatientID   uuid.UUID `db:"patient_id" json:"patientId"`
	Date        string    `db:"date" json:"date"`
	CompteRendu string    `db:"compte_rendu" json:"compteRendu"`
	Photos      []string  `db:"photos" json:"photos"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// Validate checks the write preconditions: date and report text must be
// non-empty.
func (c *Consultation) Validate() error {
	if strings.TrimSpace(c.Date) == "" {
		return apperr.Validation("la date est requise")
	}
	if strings.TrimSpace(c.CompteRendu) == "" {
		return apperr.Validation("le compte rendu est requis")
	}
	return nil
}

// Normalize guarantees photos is a slice, never nil, on every read path.
func (c *Consultation) Normalize() {
	if c.Photos == nil {
		c.Photos = []string{}
	}
}

// dateBefore orders two date strings descending-friendly: well-formed
// dates compare chronologically, anything unparseable falls back to plain
// string comparison.
func dateBefore(a, b string) bool {
	ta, errA := time.Parse("2006-01-02", a)
	tb, errB := time.Parse("2006-01-02", b)
	if errA == nil && errB == nil {
		return ta.Before(tb)
	}
	return a < b
}
