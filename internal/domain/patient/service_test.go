package patient

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/podoclinic/podoclinic/internal/platform/apperr"
)

type mockRepo struct {
	patients map[uuid.UUID]*Patient
	order    []uuid.UUID
	failList bool
}

func newMockRepo() *mockRepo {
	return &mockRepo{patients: map[uuid.UUID]*Patient{}}
}

func (m *mockRepo) Create(ctx context.Context, p *Patient) error {
	p.ID = uuid.New()
	m.patients[p.ID] = p
	m.order = append(m.order, p.ID)
	return nil
}

func (m *mockRepo) GetByID(ctx context.Context, id uuid.UUID) (*Patient, error) {
	p, ok := m.patients[id]
	if !ok {
		return nil, apperr.NotFound("patient %s", id)
	}
	return p, nil
}

func (m *mockRepo) Update(ctx context.Context, p *Patient) error {
	if _, ok := m.patients[p.ID]; !ok {
		return apperr.NotFound("patient %s", p.ID)
	}
	m.patients[p.ID] = p
	return nil
}

func (m *mockRepo) Delete(ctx context.Context, id uuid.UUID) error {
	if _, ok := m.patients[id]; !ok {
		return apperr.NotFound("patient %s", id)
	}
	delete(m.patients, id)
	return nil
}

func (m *mockRepo) List(ctx context.Context) ([]*Patient, error) {
	if m.failList {
		return nil, errors.New("connection refused")
	}
	var items []*Patient
	for _, id := range m.order {
		if p, ok := m.patients[id]; ok {
			items = append(items, p)
		}
	}
	return items, nil
}

type mockCascader struct {
	called []uuid.UUID
	err    error
}

func (m *mockCascader) DeleteAllForPatient(ctx context.Context, patientID uuid.UUID) error {
	m.called = append(m.called, patientID)
	return m.err
}

func newTestService(repo *mockRepo, cascader *mockCascader) *Service {
	return NewService(repo, cascader, zerolog.Nop())
}

func seedPatient(t *testing.T, svc *Service, nom, prenom, tel string) *Patient {
	t.Helper()
	p := &Patient{Nom: nom, Prenom: prenom, Telephone: tel}
	if err := svc.CreatePatient(context.Background(), p); err != nil {
		t.Fatalf("CreatePatient: %v", err)
	}
	return p
}

func TestCreatePatientValidates(t *testing.T) {
	svc := newTestService(newMockRepo(), &mockCascader{})

	err := svc.CreatePatient(context.Background(), &Patient{Prenom: "Marie"})
	if !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("err = %v, want ErrValidation", err)
	}
}

func TestListPatientsEmpty(t *testing.T) {
	svc := newTestService(newMockRepo(), &mockCascader{})

	items, err := svc.ListPatients(context.Background())
	if err != nil {
		t.Fatalf("ListPatients: %v", err)
	}
	if items == nil {
		t.Fatal("expected empty slice, got nil")
	}
	if len(items) != 0 {
		t.Fatalf("len = %d, want 0", len(items))
	}
}

func TestListPatientsStoreFailure(t *testing.T) {
	repo := newMockRepo()
	repo.failList = true
	svc := newTestService(repo, &mockCascader{})

	_, err := svc.ListPatients(context.Background())
	if !errors.Is(err, apperr.ErrStoreUnavailable) {
		t.Fatalf("err = %v, want ErrStoreUnavailable", err)
	}
}

func TestUpdatePatientNotFound(t *testing.T) {
	svc := newTestService(newMockRepo(), &mockCascader{})

	err := svc.UpdatePatient(context.Background(), uuid.New(), &Patient{Nom: "Dupont", Prenom: "Marie"})
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestUpdatePatientKeepsIdentity(t *testing.T) {
	repo := newMockRepo()
	svc := newTestService(repo, &mockCascader{})
	p := seedPatient(t, svc, "Dupont", "Marie", "0612345678")

	upd := &Patient{ID: uuid.New(), Nom: "Durand", Prenom: "Marie"}
	if err := svc.UpdatePatient(context.Background(), p.ID, upd); err != nil {
		t.Fatalf("UpdatePatient: %v", err)
	}
	if upd.ID != p.ID {
		t.Errorf("id = %s, want %s", upd.ID, p.ID)
	}
	got, err := svc.GetPatient(context.Background(), p.ID)
	if err != nil {
		t.Fatalf("GetPatient: %v", err)
	}
	if got.Nom != "Durand" {
		t.Errorf("nom = %q, want %q", got.Nom, "Durand")
	}
}

func TestDeletePatientCascades(t *testing.T) {
	repo := newMockRepo()
	cascader := &mockCascader{}
	svc := newTestService(repo, cascader)
	p := seedPatient(t, svc, "Dupont", "Marie", "0612345678")

	if err := svc.DeletePatient(context.Background(), p.ID); err != nil {
		t.Fatalf("DeletePatient: %v", err)
	}
	if len(cascader.called) != 1 || cascader.called[0] != p.ID {
		t.Errorf("cascade calls = %v, want [%s]", cascader.called, p.ID)
	}
	if _, err := svc.GetPatient(context.Background(), p.ID); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("patient still retrievable after delete: %v", err)
	}
}

func TestDeletePatientNotFoundSkipsCascade(t *testing.T) {
	cascader := &mockCascader{}
	svc := newTestService(newMockRepo(), cascader)

	err := svc.DeletePatient(context.Background(), uuid.New())
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
	if len(cascader.called) != 0 {
		t.Errorf("cascade ran for missing patient: %v", cascader.called)
	}
}

func TestDeletePatientCascadeFailureAborts(t *testing.T) {
	repo := newMockRepo()
	cascader := &mockCascader{err: errors.New("store down")}
	svc := newTestService(repo, cascader)
	p := seedPatient(t, svc, "Dupont", "Marie", "0612345678")

	if err := svc.DeletePatient(context.Background(), p.ID); err == nil {
		t.Fatal("expected error when cascade fails")
	}
	if _, err := svc.GetPatient(context.Background(), p.ID); err != nil {
		t.Errorf("patient record removed despite failed cascade: %v", err)
	}
}

func TestSearchPatients(t *testing.T) {
	repo := newMockRepo()
	svc := newTestService(repo, &mockCascader{})
	seedPatient(t, svc, "Dupont", "Marie", "0612345678")
	seedPatient(t, svc, "Durand", "Paul", "0799887766")
	seedPatient(t, svc, "Martin", "Sophie", "0655443322")

	got, err := svc.SearchPatients(context.Background(), "dur")
	if err != nil {
		t.Fatalf("SearchPatients: %v", err)
	}
	if len(got) != 1 || got[0].Nom != "Durand" {
		t.Fatalf("got %d results, want Durand only", len(got))
	}

	got, err = svc.SearchPatients(context.Background(), "06")
	if err != nil {
		t.Fatalf("SearchPatients: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("phone search: got %d results, want 2", len(got))
	}
}

func TestSearchPatientsEmptyTerm(t *testing.T) {
	repo := newMockRepo()
	svc := newTestService(repo, &mockCascader{})
	seedPatient(t, svc, "Dupont", "Marie", "0612345678")

	for _, term := range []string{"", "   "} {
		got, err := svc.SearchPatients(context.Background(), term)
		if err != nil {
			t.Fatalf("SearchPatients(%q): %v", term, err)
		}
		if len(got) != 0 {
			t.Errorf("SearchPatients(%q) = %d results, want 0", term, len(got))
		}
	}
}
