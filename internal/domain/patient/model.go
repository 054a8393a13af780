package patient

import (
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/podoclinic/podoclinic/internal/platform/apperr"
)

// Patient is the root entity of the practice's record model. Field names
// follow the persisted document layout (nom, prenom, dateNaissance, ...).
type Patient struct {
	ID            uuid.UUID `db:"id" json:"id"`
	Nom           string    `db:"nom" json:"nom"`
	Prenom        string    `db:"prenom" json:"prenom"`
	DateNaissance string    `db:"date_naissance" json:"dateNaissance"`
	Telephone     string    `db:"telephone" json:"telephone"`
	Email         string    `db:"email" json:"email,omitempty"`
	Notes         string    `db:"notes" json:"notes,omitempty"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}

// Validate checks the creation/update preconditions: last and first name
// must be non-empty.
func (p *Patient) Validate() error {
	if strings.TrimSpace(p.Nom) == "" {
		return apperr.Validation("le nom est requis")
	}
	if strings.TrimSpace(p.Prenom) == "" {
		return apperr.Validation("le prénom est requis")
	}
	return nil
}

// MatchesTerm reports whether the patient matches a search term: substring,
// case-insensitive on nom and prenom, literal on telephone.
func (p *Patient) MatchesTerm(term string) bool {
	lower := strings.ToLower(term)
	return strings.Contains(strings.ToLower(p.Nom), lower) ||
		strings.Contains(strings.ToLower(p.Prenom), lower) ||
		strings.Contains(p.Telephone, term)
}

// WhatsAppLink builds a wa.me deep link for messaging the patient. The
// phone number is reduced to its digits, the message is URL-encoded.
func (p *Patient) WhatsAppLink(message string) string {
	var digits strings.Builder
	for _, r := range p.Telephone {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	return "https://wa.me/" + digits.String() + "?text=" + url.QueryEscape(message)
}
