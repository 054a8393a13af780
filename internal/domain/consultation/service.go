package consultation

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/podoclinic/podoclinic/internal/platform/apperr"
	"github.com/podoclinic/podoclinic/internal/platform/photostore"
)

// Service holds the consultation operations, including the photo lifecycle
// and the cascade used by patient deletion.
type Service struct {
	repo   ConsultationRepository
	photos photostore.Store
	logger zerolog.Logger
}

func NewService(repo ConsultationRepository, photos photostore.Store, logger zerolog.Logger) *Service {
	return &Service{repo: repo, photos: photos, logger: logger}
}

// ListConsultations returns a patient's consultations, most recent date
// first, with photos normalized to a non-nil slice.
func (s *Service) ListConsultations(ctx context.Context, patientID uuid.UUID) ([]*Consultation, error) {
	items, err := s.repo.ListByPatient(ctx, patientID)
	if err != nil {
		return nil, apperr.StoreUnavailable("list consultations", err)
	}
	if items == nil {
		items = []*Consultation{}
	}
	for _, c := range items {
		c.Normalize()
	}
	sort.SliceStable(items, func(i, j int) bool {
		return dateBefore(items[j].Date, items[i].Date)
	})
	return items, nil
}

// AddConsultation validates and persists a new visit record. Photos in the
// record are expected to be URLs already returned by UploadPhotos.
func (s *Service) AddConsultation(ctx context.Context, patientID uuid.UUID, c *Consultation) error {
	if err := c.Validate(); err != nil {
		return err
	}
	c.PatientID = patientID
	c.Normalize()
	if err := s.repo.Create(ctx, c); err != nil {
		return apperr.StoreUnavailable("create consultation", err)
	}
	return nil
}

// UpdateConsultation performs a full-field replace of an existing record.
// Existence under the given patient is checked before any write.
func (s *Service) UpdateConsultation(ctx context.Context, patientID, id uuid.UUID, c *Consultation) error {
	if err := c.Validate(); err != nil {
		return err
	}
	if _, err := s.getConsultation(ctx, patientID, id); err != nil {
		return err
	}
	c.ID = id
	c.PatientID = patientID
	c.Normalize()
	if err := s.repo.Update(ctx, c); err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return err
		}
		return apperr.StoreUnavailable("update consultation", err)
	}
	return nil
}

func (s *Service) getConsultation(ctx context.Context, patientID, id uuid.UUID) (*Consultation, error) {
	c, err := s.repo.GetByID(ctx, patientID, id)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, err
		}
		return nil, apperr.StoreUnavailable("get consultation", err)
	}
	c.Normalize()
	return c, nil
}

// DeleteConsultation removes a visit record and its photo blobs. Blob
// deletions are best effort: each failure is logged and skipped, only a
// failing record delete surfaces to the caller.
func (s *Service) DeleteConsultation(ctx context.Context, patientID, id uuid.UUID) error {
	c, err := s.getConsultation(ctx, patientID, id)
	if err != nil {
		return err
	}

	for _, url := range c.Photos {
		s.deletePhotoBlob(ctx, url)
	}

	if err := s.repo.Delete(ctx, patientID, id); err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return err
		}
		return apperr.StoreUnavailable("delete consultation", err)
	}
	return nil
}

// DeleteAllForPatient removes every consultation a patient owns, photo
// blobs included. Used by the patient delete cascade. Not transactional;
// a record-delete failure aborts with already-removed records left gone.
func (s *Service) DeleteAllForPatient(ctx context.Context, patientID uuid.UUID) error {
	items, err := s.repo.ListByPatient(ctx, patientID)
	if err != nil {
		return apperr.StoreUnavailable("list consultations for cascade", err)
	}

	for _, c := range items {
		for _, url := range c.Photos {
			s.deletePhotoBlob(ctx, url)
		}
		if err := s.repo.Delete(ctx, patientID, c.ID); err != nil && !errors.Is(err, apperr.ErrNotFound) {
			return apperr.StoreUnavailable("delete consultation in cascade", err)
		}
	}
	return nil
}

func (s *Service) deletePhotoBlob(ctx context.Context, url string) {
	if err := s.photos.Delete(ctx, url); err != nil {
		s.logger.Error().Err(err).Str("url", url).Msg("photo blob delete failed, skipping")
	}
}

// UploadFile is one file in an upload batch.
type UploadFile struct {
	Name        string
	ContentType string
	Content     io.Reader
}

// UploadPhotos stores a batch of photos concurrently and returns their
// download URLs in input order. Any single failure fails the whole batch
// with an UploadError; blobs uploaded before the failure are left in place.
func (s *Service) UploadPhotos(ctx context.Context, patientID uuid.UUID, files []UploadFile) ([]string, error) {
	urls := make([]string, len(files))

	g, gctx := errgroup.WithContext(ctx)
	for i, f := range files {
		i, f := i, f
		g.Go(func() error {
			storagePath := fmt.Sprintf("consultations/%s/%d-%s",
				patientID, time.Now().UnixMilli(), sanitizeName(f.Name))
			url, err := s.photos.Upload(gctx, storagePath, f.ContentType, f.Content)
			if err != nil {
				return apperr.Upload(fmt.Sprintf("upload %s", f.Name), err)
			}
			urls[i] = url
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return urls, nil
}

// RemovePhoto detaches a photo URL from a consultation record, then
// deletes the blob best effort. The record write is the authoritative
// step; a failing blob delete is only logged.
func (s *Service) RemovePhoto(ctx context.Context, patientID, id uuid.UUID, url string) error {
	c, err := s.getConsultation(ctx, patientID, id)
	if err != nil {
		return err
	}

	kept := make([]string, 0, len(c.Photos))
	found := false
	for _, p := range c.Photos {
		if p == url {
			found = true
			continue
		}
		kept = append(kept, p)
	}
	if !found {
		return apperr.NotFound("photo %s", url)
	}

	c.Photos = kept
	if err := s.repo.Update(ctx, c); err != nil {
		return apperr.StoreUnavailable("detach photo", err)
	}

	s.deletePhotoBlob(ctx, url)
	return nil
}

// sanitizeName reduces an uploaded filename to its base name with path
// separators and whitespace stripped out.
func sanitizeName(name string) string {
	base := path.Base(strings.ReplaceAll(name, "\\", "/"))
	base = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '.', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, base)
	if base == "" || base == "." || base == ".." {
		return "photo"
	}
	return base
}
