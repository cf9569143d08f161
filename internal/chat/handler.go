package chat

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"elifsite/internal/model"
)

type ChatRequest struct {
	SessionID string `json:"session_id"`
	Message   string `json:"message"`
}

type ChatResponse struct {
	SessionID string     `json:"session_id"`
	Reply     model.Turn `json:"reply"`
	State     State      `json:"state"`
}

type SessionResponse struct {
	SessionID  string       `json:"session_id"`
	State      State        `json:"state"`
	Transcript []model.Turn `json:"transcript"`
}

type errorResponse struct {
	Error string `json:"error"`
}

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// OpenSession starts a conversation; the widget calls it when it mounts.
func (h *Handler) OpenSession(w http.ResponseWriter, r *http.Request) {
	id, turns, err := h.svc.Open(r.Context(), "")
	if err != nil {
		h.svc.log.Errorw("open session failed", "err", err)
		writeError(w, http.StatusServiceUnavailable, "chat is unavailable right now")
		return
	}
	writeJSON(w, http.StatusCreated, SessionResponse{SessionID: id, State: h.svc.State(id), Transcript: turns})
}

func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	turns, err := h.svc.Transcript(r.Context(), id)
	if err != nil {
		h.svc.log.Errorw("load transcript failed", "session", id, "err", err)
		writeError(w, http.StatusServiceUnavailable, "chat is unavailable right now")
		return
	}
	if len(turns) == 0 {
		writeError(w, http.StatusNotFound, "unknown session")
		return
	}
	writeJSON(w, http.StatusOK, SessionResponse{SessionID: id, State: h.svc.State(id), Transcript: turns})
}

// Send handles one user message and answers with the assistant turn.
func (h *Handler) Send(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}

	turn, err := h.svc.Submit(r.Context(), req.SessionID, req.Message)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, ChatResponse{SessionID: req.SessionID, Reply: turn, State: h.svc.State(req.SessionID)})
	case errors.Is(err, ErrEmptyMessage), errors.Is(err, ErrMissingSession):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrSuperseded), errors.Is(err, ErrCanceled):
		writeError(w, http.StatusConflict, err.Error())
	default:
		h.svc.log.Errorw("submit failed", "session", req.SessionID, "err", err)
		writeError(w, http.StatusServiceUnavailable, "chat is unavailable right now")
	}
}

// CloseSession aborts the in-flight request and drops the transcript; the
// widget calls it when the page goes away.
func (h *Handler) CloseSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.svc.Close(r.Context(), id); err != nil {
		h.svc.log.Errorw("close session failed", "session", id, "err", err)
		writeError(w, http.StatusServiceUnavailable, "chat is unavailable right now")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// CancelRequest aborts the in-flight request but keeps the transcript.
func (h *Handler) CancelRequest(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !h.svc.Cancel(id) {
		writeError(w, http.StatusNotFound, "no request in flight")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}
