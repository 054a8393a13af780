package patient

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

func newTestHandler(t *testing.T) (*Handler, *Service) {
	t.Helper()
	svc := newTestService(newMockRepo(), &mockCascader{})
	return NewHandler(svc), svc
}

func doRequest(e *echo.Echo, method, target, body string) *httptest.ResponseRecorder {
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func setupEcho(h *Handler) *echo.Echo {
	e := echo.New()
	h.RegisterRoutes(e.Group("/api/v1"))
	return e
}

func TestHandlerCreateAndGet(t *testing.T) {
	h, _ := newTestHandler(t)
	e := setupEcho(h)

	rec := doRequest(e, http.MethodPost, "/api/v1/patients",
		`{"nom":"Dupont","prenom":"Marie","telephone":"0612345678"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201: %s", rec.Code, rec.Body)
	}

	var created Patient
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if created.ID == uuid.Nil {
		t.Fatal("created patient has no id")
	}

	rec = doRequest(e, http.MethodGet, "/api/v1/patients/"+created.ID.String(), "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"nom":"Dupont"`) {
		t.Errorf("body missing nom: %s", rec.Body)
	}
}

func TestHandlerCreateInvalid(t *testing.T) {
	h, _ := newTestHandler(t)
	e := setupEcho(h)

	rec := doRequest(e, http.MethodPost, "/api/v1/patients", `{"prenom":"Marie"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400: %s", rec.Code, rec.Body)
	}
}

func TestHandlerGetBadID(t *testing.T) {
	h, _ := newTestHandler(t)
	e := setupEcho(h)

	rec := doRequest(e, http.MethodGet, "/api/v1/patients/not-a-uuid", "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestHandlerGetNotFound(t *testing.T) {
	h, _ := newTestHandler(t)
	e := setupEcho(h)

	rec := doRequest(e, http.MethodGet, "/api/v1/patients/"+uuid.NewString(), "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestHandlerUpdateAndDelete(t *testing.T) {
	h, svc := newTestHandler(t)
	e := setupEcho(h)
	p := seedPatient(t, svc, "Dupont", "Marie", "0612345678")

	rec := doRequest(e, http.MethodPut, "/api/v1/patients/"+p.ID.String(),
		`{"nom":"Durand","prenom":"Marie"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("update status = %d: %s", rec.Code, rec.Body)
	}

	rec = doRequest(e, http.MethodDelete, "/api/v1/patients/"+p.ID.String(), "")
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d", rec.Code)
	}

	rec = doRequest(e, http.MethodGet, "/api/v1/patients/"+p.ID.String(), "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status after delete = %d, want 404", rec.Code)
	}
}

func TestHandlerSearch(t *testing.T) {
	h, svc := newTestHandler(t)
	e := setupEcho(h)
	seedPatient(t, svc, "Dupont", "Marie", "0612345678")
	seedPatient(t, svc, "Durand", "Paul", "0799887766")

	rec := doRequest(e, http.MethodGet, "/api/v1/patients/search?q=dupont", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var results []*Patient
	if err := json.Unmarshal(rec.Body.Bytes(), &results); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(results) != 1 || results[0].Nom != "Dupont" {
		t.Fatalf("got %d results, want Dupont only", len(results))
	}

	rec = doRequest(e, http.MethodGet, "/api/v1/patients/search?q=", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if body := strings.TrimSpace(rec.Body.String()); body != "[]" {
		t.Errorf("empty term body = %s, want []", body)
	}
}

func TestHandlerWhatsAppLink(t *testing.T) {
	h, svc := newTestHandler(t)
	e := setupEcho(h)
	p := seedPatient(t, svc, "Dupont", "Marie", "+33 6 12 34 56 78")

	rec := doRequest(e, http.MethodGet,
		"/api/v1/patients/"+p.ID.String()+"/whatsapp?message=Bonjour", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body)
	}
	var resp map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp["url"] != "https://wa.me/33612345678?text=Bonjour" {
		t.Errorf("url = %q", resp["url"])
	}

	rec = doRequest(e, http.MethodGet, "/api/v1/patients/"+p.ID.String()+"/whatsapp", "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("missing message status = %d, want 400", rec.Code)
	}
}
