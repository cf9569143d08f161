package chat

import "github.com/go-chi/chi/v5"

func RegisterRoutes(r chi.Router, h *Handler) {
	r.Post("/api/chat", h.Send)
	r.Post("/api/chat/sessions", h.OpenSession)
	r.Get("/api/chat/{id}", h.GetSession)
	r.Delete("/api/chat/{id}", h.CloseSession)
	r.Post("/api/chat/{id}/cancel", h.CancelRequest)
}
