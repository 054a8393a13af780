package consultation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/podoclinic/podoclinic/internal/platform/apperr"
)

type consultationRepoPG struct{ pool *pgxpool.Pool }

func NewConsultationRepoPG(pool *pgxpool.Pool) ConsultationRepository {
	return &consultationRepoPG{pool: pool}
}

const consultationCols = `id, patient_id, date, compte_rendu, photos, created_at, updated_at`

func (r *consultationRepoPG) scanRow(row pgx.Row) (*Consultation, error) {
	var c Consultation
	var photos []byte
	err := row.Scan(&c.ID, &c.PatientID, &c.Date, &c.CompteRendu, &photos,
		&c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if len(photos) > 0 {
		if err := json.Unmarshal(photos, &c.Photos); err != nil {
			return nil, fmt.Errorf("decoding photos for consultation %s: %w", c.ID, err)
		}
	}
	c.Normalize()
	return &c, nil
}

func marshalPhotos(c *Consultation) ([]byte, error) {
	c.Normalize()
	return json.Marshal(c.Photos)
}

func (r *consultationRepoPG) Create(ctx context.Context, c *Consultation) error {
	photos, err := marshalPhotos(c)
	if err != nil {
		return err
	}
	c.ID = uuid.New()
	_, err = r.pool.Exec(ctx, `
		INSERT INTO consultations (id, patient_id, date, compte_rendu, photos)
		VALUES ($1,$2,$3,$4,$5)`,
		c.ID, c.PatientID, c.Date, c.CompteRendu, photos)
	return err
}

func (r *consultationRepoPG) GetByID(ctx context.Context, patientID, id uuid.UUID) (*Consultation, error) {
	c, err := r.scanRow(r.pool.QueryRow(ctx,
		`SELECT `+consultationCols+` FROM consultations WHERE id = $1 AND patient_id = $2`,
		id, patientID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound("consultation %s", id)
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (r *consultationRepoPG) Update(ctx context.Context, c *Consultation) error {
	photos, err := marshalPhotos(c)
	if err != nil {
		return err
	}
	tag, err := r.pool.Exec(ctx, `
		UPDATE consultations SET date=$3, compte_rendu=$4, photos=$5, updated_at=NOW()
		WHERE id = $1 AND patient_id = $2`,
		c.ID, c.PatientID, c.Date, c.CompteRendu, photos)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("consultation %s", c.ID)
	}
	return nil
}

func (r *consultationRepoPG) Delete(ctx context.Context, patientID, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM consultations WHERE id = $1 AND patient_id = $2`, id, patientID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("consultation %s", id)
	}
	return nil
}

func (r *consultationRepoPG) ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*Consultation, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+consultationCols+` FROM consultations WHERE patient_id = $1`, patientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*Consultation
	for rows.Next() {
		c, err := r.scanRow(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, c)
	}
	return items, rows.Err()
}
