package assist

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"
)

// PatientLookup resolves a patient id to a JSON-serializable record used as
// chat context. Wired from the patient service in main to avoid a domain
// import here.
type PatientLookup func(ctx context.Context, id string) (interface{}, error)

// Handler exposes the AI conveniences over HTTP.
type Handler struct {
	groq    *GroqClient
	gemini  *GeminiClient
	patient PatientLookup
}

func NewHandler(groq *GroqClient, gemini *GeminiClient, patient PatientLookup) *Handler {
	return &Handler{groq: groq, gemini: gemini, patient: patient}
}

// RegisterRoutes mounts assist routes on the supplied Echo groups.
func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.POST("/assist/transcribe", h.Transcribe)
	api.POST("/assist/image", h.AnalyzeImage)
	api.POST("/patients/:id/assist/chat", h.Chat)
}

// Transcribe accepts a multipart audio recording and returns its transcript.
func (h *Handler) Transcribe(c echo.Context) error {
	file, err := c.FormFile("file")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "audio file is required")
	}

	src, err := file.Open()
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to open uploaded file")
	}
	defer src.Close()

	text, err := h.groq.Transcribe(c.Request().Context(), file.Filename, src)
	if err != nil {
		return assistError(err)
	}

	return c.JSON(http.StatusOK, map[string]string{"text": text})
}

// AnalyzeImage accepts a multipart image plus a question form field and
// returns the model's answer.
func (h *Handler) AnalyzeImage(c echo.Context) error {
	question := c.FormValue("question")
	if question == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "question is required")
	}

	file, err := c.FormFile("image")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "image file is required")
	}

	src, err := file.Open()
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to open uploaded file")
	}
	defer src.Close()

	data, err := io.ReadAll(src)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to read uploaded file")
	}

	mimeType := file.Header.Get("Content-Type")
	if mimeType == "" {
		mimeType = "image/jpeg"
	}

	answer, err := h.gemini.AnalyzeImage(c.Request().Context(), data, mimeType, question)
	if err != nil {
		return assistError(err)
	}

	return c.JSON(http.StatusOK, map[string]string{"answer": answer})
}

type chatRequest struct {
	Messages  []ChatMessage `json:"messages"`
	MaxTokens int           `json:"maxTokens"`
}

// Chat forwards a conversation about one patient to the chat model, with
// the patient's record embedded in the system prompt.
func (h *Handler) Chat(c echo.Context) error {
	var req chatRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if len(req.Messages) == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "messages are required")
	}

	record, err := h.patient(c.Request().Context(), c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "patient not found")
	}

	recordJSON, err := json.Marshal(record)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to serialize patient record")
	}

	messages := make([]ChatMessage, 0, len(req.Messages)+1)
	messages = append(messages, ChatMessage{
		Role:    "system",
		Content: fmt.Sprintf("Vous êtes un assistant médical. Voici les informations du patient : %s", recordJSON),
	})
	messages = append(messages, req.Messages...)

	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 150
	}

	answer, err := h.groq.Chat(c.Request().Context(), messages, maxTokens)
	if err != nil {
		return assistError(err)
	}

	return c.JSON(http.StatusOK, ChatMessage{Role: "assistant", Content: answer})
}

func assistError(err error) error {
	switch {
	case errors.Is(err, ErrNotConfigured):
		return echo.NewHTTPError(http.StatusServiceUnavailable, err.Error())
	case errors.Is(err, ErrUpstream):
		return echo.NewHTTPError(http.StatusBadGateway, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
}
