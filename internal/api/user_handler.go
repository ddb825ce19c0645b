package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/shaiso/Postomat/internal/access"
	"github.com/shaiso/Postomat/internal/domain"
)

// ListUsers возвращает пользователей, опционально по состоянию.
// GET /api/v1/users?state=PENDING
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	state := r.URL.Query().Get("state")

	var (
		users []domain.User
		err   error
	)
	switch state {
	case "":
		users, err = h.access.ListAll(r.Context())
	case string(domain.AuthStatePending):
		users, err = h.access.ListPending(r.Context())
	case string(domain.AuthStateApproved):
		users, err = h.access.ListApproved(r.Context())
	default:
		BadRequest(w, "unknown state filter: "+state)
		return
	}
	if err != nil {
		InternalError(w, h.logger, err)
		return
	}

	out := make([]UserResponse, 0, len(users))
	for i := range users {
		out = append(out, ToUserResponse(&users[i]))
	}
	List(w, out, len(out))
}

// GetUser возвращает одного пользователя.
// GET /api/v1/users/{id}
func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	u, err := h.access.GetUser(r.Context(), id)
	if HandleRepoError(w, h.logger, err, "user not found") {
		return
	}
	Success(w, ToUserResponse(u))
}

// ApproveUser одобряет заявку от имени оператора.
// POST /api/v1/users/{id}/approve
func (h *Handler) ApproveUser(w http.ResponseWriter, r *http.Request) {
	h.changeState(w, r, h.access.Approve)
}

// RejectUser отклоняет заявку от имени оператора.
// POST /api/v1/users/{id}/reject
func (h *Handler) RejectUser(w http.ResponseWriter, r *http.Request) {
	h.changeState(w, r, h.access.Reject)
}

// RemoveUser удаляет пользователя.
// DELETE /api/v1/users/{id}
func (h *Handler) RemoveUser(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	if err := h.access.Remove(r.Context(), access.SystemActor, id); err != nil {
		h.handleAccessError(w, err)
		return
	}
	NoContent(w)
}

func (h *Handler) changeState(w http.ResponseWriter, r *http.Request, op func(ctx context.Context, adminID, targetID int64) error) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	if err := op(r.Context(), access.SystemActor, id); err != nil {
		h.handleAccessError(w, err)
		return
	}
	u, err := h.access.GetUser(r.Context(), id)
	if HandleRepoError(w, h.logger, err, "user not found") {
		return
	}
	Success(w, ToUserResponse(u))
}

func (h *Handler) handleAccessError(w http.ResponseWriter, err error) {
	if errors.Is(err, access.ErrNotAuthorized) {
		// Единственный защищённый от оператора случай — суперадмин.
		Conflict(w, "superadmin cannot be modified")
		return
	}
	HandleRepoError(w, h.logger, err, "user not found")
}

// parseID разбирает {id} пути в Telegram ID.
func parseID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		BadRequest(w, "invalid user id")
		return 0, false
	}
	return id, true
}
