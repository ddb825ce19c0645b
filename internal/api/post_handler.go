package api

import (
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/shaiso/Postomat/internal/domain"
)

// ListPosts возвращает посты: запланированные либо историю финализаций.
// GET /api/v1/posts?view=scheduled|history&owner_id=...&limit=...
func (h *Handler) ListPosts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	var owner *int64
	if s := q.Get("owner_id"); s != "" {
		id, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			BadRequest(w, "invalid owner_id")
			return
		}
		owner = &id
	}

	var (
		posts []domain.Post
		err   error
	)
	switch view := q.Get("view"); view {
	case "", "scheduled":
		posts, err = h.posts.ListScheduled(r.Context(), owner)
	case "history":
		limit := 50
		if s := q.Get("limit"); s != "" {
			limit, err = strconv.Atoi(s)
			if err != nil || limit <= 0 {
				BadRequest(w, "invalid limit")
				return
			}
		}
		posts, err = h.posts.ListHistory(r.Context(), owner, limit)
	default:
		BadRequest(w, "unknown view: "+view)
		return
	}
	if err != nil {
		InternalError(w, h.logger, err)
		return
	}

	out := make([]PostResponse, 0, len(posts))
	for i := range posts {
		out = append(out, ToPostResponse(&posts[i]))
	}
	List(w, out, len(out))
}

// GetPost возвращает пост со всеми доставками.
// GET /api/v1/posts/{id}
func (h *Handler) GetPost(w http.ResponseWriter, r *http.Request) {
	id, ok := parsePostID(w, r)
	if !ok {
		return
	}

	post, err := h.posts.GetByID(r.Context(), id)
	if HandleRepoError(w, h.logger, err, "post not found") {
		return
	}
	deliveries, err := h.posts.ListDeliveries(r.Context(), id)
	if err != nil {
		InternalError(w, h.logger, err)
		return
	}

	resp := ToPostResponse(post)
	resp.Deliveries = make([]DeliveryResponse, 0, len(deliveries))
	for i := range deliveries {
		resp.Deliveries = append(resp.Deliveries, ToDeliveryResponse(&deliveries[i]))
	}
	Success(w, resp)
}

// CancelPost отменяет запланированный пост.
// POST /api/v1/posts/{id}/cancel
func (h *Handler) CancelPost(w http.ResponseWriter, r *http.Request) {
	id, ok := parsePostID(w, r)
	if !ok {
		return
	}
	err := h.posts.Cancel(r.Context(), id)
	if HandleRepoError(w, h.logger, err, "post not found") {
		return
	}
	post, err := h.posts.GetByID(r.Context(), id)
	if HandleRepoError(w, h.logger, err, "post not found") {
		return
	}
	Success(w, ToPostResponse(post))
}

func parsePostID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		BadRequest(w, "invalid post id")
		return uuid.Nil, false
	}
	return id, true
}
