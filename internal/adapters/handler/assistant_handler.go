package handler

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/IANDYI/eldercare-service/internal/core/ports"
	"go.uber.org/zap"
)

const maxAudioBytes = 10 << 20

// AssistantHandler handles the chat and voice endpoints
type AssistantHandler struct {
	assistantService ports.AssistantService
	logger           *zap.Logger
}

// NewAssistantHandler creates a new assistant handler
func NewAssistantHandler(assistantService ports.AssistantService, logger *zap.Logger) *AssistantHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AssistantHandler{
		assistantService: assistantService,
		logger:           logger,
	}
}

type ChatRequest struct {
	Message   string `json:"message"`
	SessionID string `json:"session_id"`
}

type SpeakRequest struct {
	Text string `json:"text"`
}

// Chat handles POST /chat. The session comes from X-Session-ID or the body.
func (h *AssistantHandler) Chat(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	sessionID := strings.TrimSpace(r.Header.Get("X-Session-ID"))
	if sessionID == "" {
		sessionID = req.SessionID
	}

	reply, err := h.assistantService.Chat(r.Context(), sessionID, req.Message)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"response": reply})
}

// Transcribe handles POST /transcribe with the audio in multipart field "file"
func (h *AssistantHandler) Transcribe(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxAudioBytes)
	file, _, err := r.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, r, h.logger, badRequest("audio file is too large"))
			return
		}
		writeError(w, r, h.logger, badRequest("No file part"))
		return
	}
	defer file.Close()

	audio, err := io.ReadAll(file)
	if err != nil {
		writeError(w, r, h.logger, badRequest("failed to read audio: %v", err))
		return
	}

	text, err := h.assistantService.Transcribe(r.Context(), audio)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"transcription": text,
		"transcript":    text,
	})
}

// Speak handles POST /speak and answers a WAV attachment
func (h *AssistantHandler) Speak(w http.ResponseWriter, r *http.Request) {
	var req SpeakRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	audio, err := h.assistantService.Speak(r.Context(), req.Text)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	w.Header().Set("Content-Type", "audio/wav")
	w.Header().Set("Content-Disposition", `attachment; filename="response.wav"`)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(audio); err != nil {
		h.logger.Warn("failed to write audio response", zap.Error(err))
	}
}
