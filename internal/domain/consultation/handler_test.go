package consultation

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"net/url"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

func setupEcho(h *Handler) *echo.Echo {
	e := echo.New()
	h.RegisterRoutes(e.Group("/api/v1"))
	return e
}

func jsonRequest(e *echo.Echo, method, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestHandlerAddAndList(t *testing.T) {
	svc := newTestService(newMockRepo(), newMockStore())
	e := setupEcho(NewHandler(svc))
	patientID := uuid.New()

	rec := jsonRequest(e, http.MethodPost, "/api/v1/patients/"+patientID.String()+"/consultations",
		`{"date":"2024-03-15","compteRendu":"soin des ongles"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body)
	}

	rec = jsonRequest(e, http.MethodGet, "/api/v1/patients/"+patientID.String()+"/consultations", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var items []*Consultation
	if err := json.Unmarshal(rec.Body.Bytes(), &items); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(items) != 1 || items[0].CompteRendu != "soin des ongles" {
		t.Fatalf("items = %+v", items)
	}
	if !strings.Contains(rec.Body.String(), `"photos":[]`) {
		t.Errorf("photos not serialized as empty array: %s", rec.Body)
	}
}

func TestHandlerAddInvalid(t *testing.T) {
	svc := newTestService(newMockRepo(), newMockStore())
	e := setupEcho(NewHandler(svc))
	patientID := uuid.New()

	rec := jsonRequest(e, http.MethodPost, "/api/v1/patients/"+patientID.String()+"/consultations",
		`{"compteRendu":"sans date"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400: %s", rec.Code, rec.Body)
	}
}

func TestHandlerUpdateNotFound(t *testing.T) {
	svc := newTestService(newMockRepo(), newMockStore())
	e := setupEcho(NewHandler(svc))

	rec := jsonRequest(e, http.MethodPut,
		"/api/v1/patients/"+uuid.NewString()+"/consultations/"+uuid.NewString(),
		`{"date":"2024-01-01","compteRendu":"x"}`)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404: %s", rec.Code, rec.Body)
	}
}

func TestHandlerDelete(t *testing.T) {
	store := newMockStore()
	svc := newTestService(newMockRepo(), store)
	e := setupEcho(NewHandler(svc))
	patientID := uuid.New()
	c := seedConsultation(t, svc, patientID, "2024-01-01", "u1")

	rec := jsonRequest(e, http.MethodDelete,
		"/api/v1/patients/"+patientID.String()+"/consultations/"+c.ID.String(), "")
	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body)
	}
	if len(store.deletes) != 1 {
		t.Errorf("blob deletes = %v, want [u1]", store.deletes)
	}
}

func TestHandlerUploadPhotos(t *testing.T) {
	svc := newTestService(newMockRepo(), newMockStore())
	e := setupEcho(NewHandler(svc))
	patientID := uuid.New()

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	for _, name := range []string{"gauche.png", "droite.png"} {
		hdr := textproto.MIMEHeader{}
		hdr.Set("Content-Disposition", `form-data; name="photos"; filename="`+name+`"`)
		hdr.Set("Content-Type", "image/png")
		part, err := w.CreatePart(hdr)
		if err != nil {
			t.Fatalf("CreatePart: %v", err)
		}
		part.Write([]byte("fake image bytes"))
	}
	w.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/patients/"+patientID.String()+"/photos", &body)
	req.Header.Set(echo.HeaderContentType, w.FormDataContentType())
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body)
	}
	var resp map[string][]string
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	urls := resp["urls"]
	if len(urls) != 2 {
		t.Fatalf("urls = %v, want 2", urls)
	}
	if !strings.HasSuffix(urls[0], "-gauche.png") || !strings.HasSuffix(urls[1], "-droite.png") {
		t.Errorf("urls out of input order: %v", urls)
	}
}

func TestHandlerUploadPhotosEmpty(t *testing.T) {
	svc := newTestService(newMockRepo(), newMockStore())
	e := setupEcho(NewHandler(svc))
	patientID := uuid.New()

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	w.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/patients/"+patientID.String()+"/photos", &body)
	req.Header.Set(echo.HeaderContentType, w.FormDataContentType())
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestHandlerRemovePhoto(t *testing.T) {
	store := newMockStore()
	repo := newMockRepo()
	svc := newTestService(repo, store)
	e := setupEcho(NewHandler(svc))
	patientID := uuid.New()
	c := seedConsultation(t, svc, patientID, "2024-01-01", "memory://photos/x", "memory://photos/y")

	target := "/api/v1/patients/" + patientID.String() + "/consultations/" + c.ID.String() +
		"/photos?url=" + url.QueryEscape("memory://photos/x")
	rec := jsonRequest(e, http.MethodDelete, target, "")
	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body)
	}

	got, err := repo.GetByID(context.Background(), patientID, c.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if len(got.Photos) != 1 || got.Photos[0] != "memory://photos/y" {
		t.Errorf("photos = %v", got.Photos)
	}

	rec = jsonRequest(e, http.MethodDelete,
		"/api/v1/patients/"+patientID.String()+"/consultations/"+c.ID.String()+"/photos", "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("missing url status = %d, want 400", rec.Code)
	}
}
