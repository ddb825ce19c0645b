package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/shaiso/Postomat/internal/domain"
	"github.com/shaiso/Postomat/internal/repo"
)

// fakePostStore mirrors PostRepo.Cancel semantics: cancel only from SCHEDULED.
type fakePostStore struct {
	posts map[uuid.UUID]domain.Post
}

func newFakePostStore(posts ...domain.Post) *fakePostStore {
	f := &fakePostStore{posts: make(map[uuid.UUID]domain.Post)}
	for _, p := range posts {
		f.posts[p.ID] = p
	}
	return f
}

func (f *fakePostStore) GetByID(_ context.Context, id uuid.UUID) (*domain.Post, error) {
	p, ok := f.posts[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	return &p, nil
}

func (f *fakePostStore) ListScheduled(_ context.Context, _ *int64) ([]domain.Post, error) {
	var out []domain.Post
	for _, p := range f.posts {
		if p.Status == domain.PostStatusScheduled {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakePostStore) ListHistory(_ context.Context, _ *int64, _ int) ([]domain.Post, error) {
	return nil, nil
}

func (f *fakePostStore) ListDeliveries(_ context.Context, _ uuid.UUID) ([]domain.Delivery, error) {
	return nil, nil
}

func (f *fakePostStore) Cancel(_ context.Context, id uuid.UUID) error {
	p, ok := f.posts[id]
	if !ok {
		return repo.ErrNotFound
	}
	if p.Status != domain.PostStatusScheduled {
		return repo.ErrInvalidState
	}
	p.Status = domain.PostStatusCancelled
	f.posts[id] = p
	return nil
}

func newPostTestServer(t *testing.T, store *fakePostStore) *httptest.Server {
	t.Helper()
	h := NewHandler(Config{Posts: store})
	mux := http.NewServeMux()
	h.RegisterRoutes(mux)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestCancelPost(t *testing.T) {
	id := uuid.New()
	store := newFakePostStore(domain.Post{
		ID:         id,
		OwnerID:    1,
		Status:     domain.PostStatusScheduled,
		DispatchAt: time.Now().UTC().Add(time.Hour),
	})
	srv := newPostTestServer(t, store)

	resp, err := http.Post(srv.URL+"/api/v1/posts/"+id.String()+"/cancel", "", nil)
	if err != nil {
		t.Fatal(err)
	}
	var got PostResponse
	decodeData(t, resp, &got)
	if got.Status != string(domain.PostStatusCancelled) {
		t.Errorf("status = %s, want CANCELLED", got.Status)
	}
}

// A post past SCHEDULED maps to 422, a stale CAS loss to 409, a missing id
// to 404; none of them hide behind a 500.
func TestCancelPostErrorMapping(t *testing.T) {
	sent := domain.Post{ID: uuid.New(), OwnerID: 1, Status: domain.PostStatusSent}
	srv := newPostTestServer(t, newFakePostStore(sent))

	resp, err := http.Post(srv.URL+"/api/v1/posts/"+sent.ID.String()+"/cancel", "", nil)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Errorf("cancel sent post: status = %d, want 422", resp.StatusCode)
	}

	resp, err = http.Post(srv.URL+"/api/v1/posts/"+uuid.NewString()+"/cancel", "", nil)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("cancel missing post: status = %d, want 404", resp.StatusCode)
	}
}

func TestHandleRepoErrorStateConflict(t *testing.T) {
	rec := httptest.NewRecorder()
	if !HandleRepoError(rec, nil, repo.ErrStateConflict, "post not found") {
		t.Fatal("state conflict not handled")
	}
	if rec.Code != http.StatusConflict {
		t.Errorf("status = %d, want 409", rec.Code)
	}
}
