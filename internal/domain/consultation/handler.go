package consultation

import (
	"mime/multipart"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/podoclinic/podoclinic/internal/platform/apperr"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/patients/:id/consultations", h.ListConsultations)
	api.POST("/patients/:id/consultations", h.AddConsultation)
	api.PUT("/patients/:id/consultations/:cid", h.UpdateConsultation)
	api.DELETE("/patients/:id/consultations/:cid", h.DeleteConsultation)
	api.POST("/patients/:id/photos", h.UploadPhotos)
	api.DELETE("/patients/:id/consultations/:cid/photos", h.RemovePhoto)
}

func httpError(err error) error {
	return echo.NewHTTPError(apperr.HTTPStatus(err), err.Error())
}

func parseIDs(c echo.Context) (patientID, id uuid.UUID, err error) {
	patientID, err = uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, uuid.Nil, echo.NewHTTPError(http.StatusBadRequest, "invalid patient id")
	}
	if cid := c.Param("cid"); cid != "" {
		id, err = uuid.Parse(cid)
		if err != nil {
			return uuid.Nil, uuid.Nil, echo.NewHTTPError(http.StatusBadRequest, "invalid consultation id")
		}
	}
	return patientID, id, nil
}

func (h *Handler) ListConsultations(c echo.Context) error {
	patientID, _, err := parseIDs(c)
	if err != nil {
		return err
	}
	items, err := h.svc.ListConsultations(c.Request().Context(), patientID)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, items)
}

func (h *Handler) AddConsultation(c echo.Context) error {
	patientID, _, err := parseIDs(c)
	if err != nil {
		return err
	}
	var in Consultation
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.AddConsultation(c.Request().Context(), patientID, &in); err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, in)
}

func (h *Handler) UpdateConsultation(c echo.Context) error {
	patientID, id, err := parseIDs(c)
	if err != nil {
		return err
	}
	var in Consultation
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.UpdateConsultation(c.Request().Context(), patientID, id, &in); err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, in)
}

func (h *Handler) DeleteConsultation(c echo.Context) error {
	patientID, id, err := parseIDs(c)
	if err != nil {
		return err
	}
	if err := h.svc.DeleteConsultation(c.Request().Context(), patientID, id); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// UploadPhotos accepts a multipart batch under the "photos" field and
// returns the download URLs in the order the files were sent.
func (h *Handler) UploadPhotos(c echo.Context) error {
	patientID, _, err := parseIDs(c)
	if err != nil {
		return err
	}
	form, err := c.MultipartForm()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "multipart form required")
	}
	headers := form.File["photos"]
	if len(headers) == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "no photos in request")
	}

	files := make([]UploadFile, 0, len(headers))
	opened := make([]multipart.File, 0, len(headers))
	defer func() {
		for _, f := range opened {
			f.Close()
		}
	}()
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "unreadable file "+fh.Filename)
		}
		opened = append(opened, f)
		files = append(files, UploadFile{
			Name:        fh.Filename,
			ContentType: fh.Header.Get("Content-Type"),
			Content:     f,
		})
	}

	urls, err := h.svc.UploadPhotos(c.Request().Context(), patientID, files)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, map[string][]string{"urls": urls})
}

func (h *Handler) RemovePhoto(c echo.Context) error {
	patientID, id, err := parseIDs(c)
	if err != nil {
		return err
	}
	url := c.QueryParam("url")
	if url == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "url is required")
	}
	if err := h.svc.RemovePhoto(c.Request().Context(), patientID, id, url); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}
