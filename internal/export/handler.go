package export

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// Download serves GET /export/{format} as an attachment.
func (h *Handler) Download(w http.ResponseWriter, r *http.Request) {
	f, err := ParseFormat(chi.URLParam(r, "format"))
	if err != nil {
		http.Error(w, "unknown export format", http.StatusNotFound)
		return
	}

	doc, err := h.svc.Export(r.Context(), f)
	if err != nil {
		var exportErr *Error
		msg := f.UserMessage()
		if errors.As(err, &exportErr) {
			msg = exportErr.Format.UserMessage()
		}
		http.Error(w, msg, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", doc.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, doc.Filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(doc.Body)))
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	w.Write(doc.Body)
}

func RegisterRoutes(r chi.Router, h *Handler) {
	r.Get("/export/{format}", h.Download)
}
