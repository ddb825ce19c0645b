package api

import (
	"net/http"

	"github.com/shaiso/Postomat/internal/domain"
)

// ListChannels возвращает реестр целей, опционально по платформе.
// GET /api/v1/channels?platform=telegram|vk
func (h *Handler) ListChannels(w http.ResponseWriter, r *http.Request) {
	platforms := []domain.Platform{domain.PlatformTelegram, domain.PlatformVK}
	switch p := r.URL.Query().Get("platform"); p {
	case "":
	case string(domain.PlatformTelegram):
		platforms = platforms[:1]
	case string(domain.PlatformVK):
		platforms = platforms[1:]
	default:
		BadRequest(w, "unknown platform: "+p)
		return
	}

	var out []ChannelResponse
	for _, p := range platforms {
		channels, err := h.registry.List(r.Context(), p)
		if err != nil {
			InternalError(w, h.logger, err)
			return
		}
		for i := range channels {
			out = append(out, ToChannelResponse(&channels[i]))
		}
	}
	List(w, out, len(out))
}

// RefreshVKChannels перечитывает список сообществ VK.
// POST /api/v1/channels/vk/refresh
func (h *Handler) RefreshVKChannels(w http.ResponseWriter, r *http.Request) {
	groups, err := h.registry.RefreshVK(r.Context())
	if err != nil {
		InternalError(w, h.logger, err)
		return
	}
	out := make([]ChannelResponse, 0, len(groups))
	for i := range groups {
		out = append(out, ToChannelResponse(&groups[i]))
	}
	List(w, out, len(out))
}
