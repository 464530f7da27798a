package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/marketpulse/trendchat/internal/core"
	"github.com/marketpulse/trendchat/internal/logging"
	"github.com/marketpulse/trendchat/internal/store"
)

type APIHandler struct {
	chatService *core.ChatService
	logger      *zap.Logger
}

func NewAPIHandler(cs *core.ChatService, logger *zap.Logger) *APIHandler {
	return &APIHandler{chatService: cs, logger: logger}
}

type SendMessageRequest struct {
	Message *string `json:"message"`
}

type SendMessageResponse struct {
	Message string `json:"message"`
}

type errorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

func (h *APIHandler) SendMessageHandler(w http.ResponseWriter, r *http.Request) {
	if !h.chatService.StoreAvailable() {
		h.writeError(w, http.StatusServiceUnavailable, core.ErrStoreUnavailable.Error(), "")
		return
	}

	var req SendMessageRequest
	if err := decodeJSONBody(r.Body, &req); err != nil {
		h.logger.Warn("invalid send_message body", zap.Error(err))
		h.writeError(w, http.StatusBadRequest, "Invalid request format", "")
		return
	}

	message := ""
	if req.Message != nil {
		message = strings.TrimSpace(*req.Message)
	}
	if message == "" {
		h.writeError(w, http.StatusBadRequest, "Message is required", "")
		return
	}

	answer, err := h.chatService.SendMessage(r.Context(), message)
	if err != nil {
		var perr *core.ProviderError
		switch {
		case errors.As(err, &perr):
			h.logger.Error("AI provider error", zap.String("message", logging.Snippet(message, 50)), zap.Error(err))
			h.writeError(w, http.StatusBadGateway, perr.Error(), "")
		case isUnavailable(err):
			h.writeError(w, http.StatusServiceUnavailable, core.ErrStoreUnavailable.Error(), "")
		default:
			h.logger.Error("send_message failed", zap.Error(err))
			h.writeError(w, http.StatusInternalServerError, "Internal server error", err.Error())
		}
		return
	}

	h.writeJSON(w, http.StatusOK, SendMessageResponse{Message: answer})
}

func (h *APIHandler) GetChatHistoryHandler(w http.ResponseWriter, r *http.Request) {
	history, err := h.chatService.History(r.Context())
	if err != nil {
		if isUnavailable(err) {
			h.writeError(w, http.StatusServiceUnavailable, core.ErrStoreUnavailable.Error(), "")
			return
		}
		h.logger.Error("error retrieving chat history", zap.Error(err))
		h.writeError(w, http.StatusInternalServerError, "Error retrieving chat history: "+err.Error(), "")
		return
	}
	h.writeJSON(w, http.StatusOK, history)
}

func (h *APIHandler) ClearChatHistoryHandler(w http.ResponseWriter, r *http.Request) {
	if err := h.chatService.ClearHistory(r.Context()); err != nil {
		if isUnavailable(err) {
			h.writeError(w, http.StatusServiceUnavailable, core.ErrStoreUnavailable.Error(), "")
			return
		}
		h.logger.Error("error clearing chat history", zap.Error(err))
		h.writeError(w, http.StatusInternalServerError, "Error clearing chat history: "+err.Error(), "")
		return
	}
	h.writeJSON(w, http.StatusOK, SendMessageResponse{Message: "Chat history cleared"})
}

func (h *APIHandler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	storeStatus := "up"
	if !h.chatService.StoreAvailable() {
		storeStatus = "down"
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "store": storeStatus})
}

// decodeJSONBody decodes exactly one JSON value; trailing data is an error.
func decodeJSONBody(body io.Reader, v any) error {
	dec := json.NewDecoder(body)
	if err := dec.Decode(v); err != nil {
		return err
	}
	if err := dec.Decode(&json.RawMessage{}); !errors.Is(err, io.EOF) {
		return errors.New("unexpected data after JSON body")
	}
	return nil
}

func isUnavailable(err error) bool {
	return errors.Is(err, core.ErrStoreUnavailable) || errors.Is(err, store.ErrUnavailable)
}

func (h *APIHandler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Warn("failed to write response", zap.Error(err))
	}
}

func (h *APIHandler) writeError(w http.ResponseWriter, status int, msg, details string) {
	h.writeJSON(w, status, errorResponse{Error: msg, Details: details})
}
