package patient

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/podoclinic/podoclinic/internal/platform/apperr"
)

// ConsultationCascader removes everything a patient owns below the patient
// record itself: consultation records and their photo blobs. Implemented by
// the consultation service and wired in main, keeping the two domain
// packages independent.
type ConsultationCascader interface {
	DeleteAllForPatient(ctx context.Context, patientID uuid.UUID) error
}

// Service holds the patient operations. It is stateless between calls;
// every method is an independent request-scoped operation.
type Service struct {
	repo     PatientRepository
	cascader ConsultationCascader
	logger   zerolog.Logger
}

func NewService(repo PatientRepository, cascader ConsultationCascader, logger zerolog.Logger) *Service {
	return &Service{repo: repo, cascader: cascader, logger: logger}
}

// ListPatients returns every patient record in store-provided order.
func (s *Service) ListPatients(ctx context.Context) ([]*Patient, error) {
	items, err := s.repo.List(ctx)
	if err != nil {
		return nil, apperr.StoreUnavailable("list patients", err)
	}
	if items == nil {
		items = []*Patient{}
	}
	return items, nil
}

// GetPatient returns one patient by identity.
func (s *Service) GetPatient(ctx context.Context, id uuid.UUID) (*Patient, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, err
		}
		return nil, apperr.StoreUnavailable("get patient", err)
	}
	return p, nil
}

// CreatePatient validates and persists a new record, returning the assigned
// identity through the populated struct.
func (s *Service) CreatePatient(ctx context.Context, p *Patient) error {
	if err := p.Validate(); err != nil {
		return err
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return apperr.StoreUnavailable("create patient", err)
	}
	return nil
}

// UpdatePatient performs a full-field replace of an existing record. The
// identity is immutable; everything else is overwritten.
func (s *Service) UpdatePatient(ctx context.Context, id uuid.UUID, p *Patient) error {
	if err := p.Validate(); err != nil {
		return err
	}
	p.ID = id
	if err := s.repo.Update(ctx, p); err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return err
		}
		return apperr.StoreUnavailable("update patient", err)
	}
	return nil
}

// DeletePatient cascades: every consultation owned by the patient is
// removed along with its photo blobs, then the patient record itself.
// The cascade is not transactional; partially completed cleanup is never
// rolled back.
func (s *Service) DeletePatient(ctx context.Context, id uuid.UUID) error {
	if _, err := s.GetPatient(ctx, id); err != nil {
		return err
	}

	if err := s.cascader.DeleteAllForPatient(ctx, id); err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return err
		}
		return apperr.StoreUnavailable("delete patient", err)
	}

	s.logger.Info().Str("patient_id", id.String()).Msg("patient deleted with cascade")
	return nil
}

// SearchPatients filters the full patient list by term: case-insensitive
// substring on nom and prenom, literal substring on telephone. An empty or
// whitespace-only term means "no query yet typed" and yields an empty
// result set, not the full list. The full fetch is a known scalability
// ceiling, isolated here so it can be swapped for an indexed query without
// changing callers.
func (s *Service) SearchPatients(ctx context.Context, term string) ([]*Patient, error) {
	if strings.TrimSpace(term) == "" {
		return []*Patient{}, nil
	}

	all, err := s.ListPatients(ctx)
	if err != nil {
		return nil, err
	}

	matches := []*Patient{}
	for _, p := range all {
		if p.MatchesTerm(term) {
			matches = append(matches, p)
		}
	}
	return matches, nil
}
