package api

import (
	"net/http"
)

// RegisterRoutes регистрирует все маршруты API.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	// Middleware chain
	chain := Chain(
		Recovery(h.logger),
		Logging(h.logger),
	)

	// Users
	mux.Handle("GET /api/v1/users", chain(http.HandlerFunc(h.ListUsers)))
	mux.Handle("GET /api/v1/users/{id}", chain(http.HandlerFunc(h.GetUser)))
	mux.Handle("POST /api/v1/users/{id}/approve", chain(http.HandlerFunc(h.ApproveUser)))
	mux.Handle("POST /api/v1/users/{id}/reject", chain(http.HandlerFunc(h.RejectUser)))
	mux.Handle("DELETE /api/v1/users/{id}", chain(http.HandlerFunc(h.RemoveUser)))

	// Channels
	mux.Handle("GET /api/v1/channels", chain(http.HandlerFunc(h.ListChannels)))
	mux.Handle("POST /api/v1/channels/vk/refresh", chain(http.HandlerFunc(h.RefreshVKChannels)))

	// Posts
	mux.Handle("GET /api/v1/posts", chain(http.HandlerFunc(h.ListPosts)))
	mux.Handle("GET /api/v1/posts/{id}", chain(http.HandlerFunc(h.GetPost)))
	mux.Handle("POST /api/v1/posts/{id}/cancel", chain(http.HandlerFunc(h.CancelPost)))
}
