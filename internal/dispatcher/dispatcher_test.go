package dispatcher

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shaiso/Postomat/internal/domain"
	"github.com/shaiso/Postomat/internal/platform"
	"github.com/shaiso/Postomat/internal/repo"
)

// fakePostStore implements PostStore in memory with CAS semantics
// matching the real repository.
type fakePostStore struct {
	mu         sync.Mutex
	posts      map[uuid.UUID]*domain.Post
	deliveries map[uuid.UUID][]domain.Delivery
	listErr    error
}

func newFakePostStore() *fakePostStore {
	return &fakePostStore{
		posts:      make(map[uuid.UUID]*domain.Post),
		deliveries: make(map[uuid.UUID][]domain.Delivery),
	}
}

func (f *fakePostStore) add(post *domain.Post, deliveries []domain.Delivery) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.posts[post.ID] = post
	f.deliveries[post.ID] = deliveries
}

func (f *fakePostStore) ListDue(_ context.Context, now time.Time, limit int) ([]domain.Post, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	var due []domain.Post
	for _, p := range f.posts {
		if p.Status == domain.PostStatusScheduled && !p.DispatchAt.After(now) {
			due = append(due, *p)
		}
		if len(due) >= limit {
			break
		}
	}
	return due, nil
}

func (f *fakePostStore) Transition(_ context.Context, id uuid.UUID, from, to domain.PostStatus, errText string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.posts[id]
	if !ok {
		return repo.ErrNotFound
	}
	if p.Status != from {
		return repo.ErrStateConflict
	}
	p.Status = to
	p.Error = errText
	return nil
}

func (f *fakePostStore) ListDeliveries(_ context.Context, postID uuid.UUID) ([]domain.Delivery, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]domain.Delivery, len(f.deliveries[postID]))
	copy(out, f.deliveries[postID])
	return out, nil
}

func (f *fakePostStore) UpdateDelivery(_ context.Context, d *domain.Delivery) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	list := f.deliveries[d.PostID]
	for i := range list {
		if list[i].ID == d.ID {
			list[i] = *d
			return nil
		}
	}
	return repo.ErrNotFound
}

func (f *fakePostStore) status(id uuid.UUID) domain.PostStatus {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.posts[id].Status
}

// fakeTelegram records calls and fails on demand.
type fakeTelegram struct {
	mu          sync.Mutex
	forwardErr  error
	copyErr     error
	downloadErr error
	forwards    int
	copies      int
}

func (f *fakeTelegram) Forward(_ context.Context, targetID int64, _ platform.SourceRef) (platform.MessageRef, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.forwards++
	if f.forwardErr != nil {
		return platform.MessageRef{}, f.forwardErr
	}
	return platform.MessageRef{Platform: domain.PlatformTelegram, ChatID: targetID, MessageID: 100}, nil
}

func (f *fakeTelegram) Copy(_ context.Context, targetID int64, _ platform.SourceRef) (platform.MessageRef, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.copies++
	if f.copyErr != nil {
		return platform.MessageRef{}, f.copyErr
	}
	return platform.MessageRef{Platform: domain.PlatformTelegram, ChatID: targetID, MessageID: 200}, nil
}

func (f *fakeTelegram) DownloadFile(_ context.Context, _ string) ([]byte, error) {
	if f.downloadErr != nil {
		return nil, f.downloadErr
	}
	return []byte("jpeg"), nil
}

type fakeVK struct {
	postErr   error
	uploadErr error
	posted    []string
}

func (f *fakeVK) PostWall(_ context.Context, groupID int64, message, attachment string) (int64, error) {
	if f.postErr != nil {
		return 0, f.postErr
	}
	f.posted = append(f.posted, fmt.Sprintf("%d|%s|%s", groupID, message, attachment))
	return 42, nil
}

func (f *fakeVK) UploadWallPhoto(_ context.Context, groupID int64, _ []byte) (string, error) {
	if f.uploadErr != nil {
		return "", f.uploadErr
	}
	return fmt.Sprintf("photo-%d_1", groupID), nil
}

func duePost(targets ...domain.Delivery) (*domain.Post, []domain.Delivery) {
	post := &domain.Post{
		ID:              uuid.New(),
		OwnerID:         1,
		SourceChatID:    500,
		SourceMessageID: 7,
		Caption:         "caption",
		Status:          domain.PostStatusScheduled,
		DispatchAt:      time.Now().UTC().Add(-time.Minute),
	}
	for i := range targets {
		targets[i].ID = uuid.New()
		targets[i].PostID = post.ID
		targets[i].Status = domain.DeliveryStatusPending
	}
	return post, targets
}

func newDispatcher(store *fakePostStore, tg *fakeTelegram, vk *fakeVK) *Dispatcher {
	return New(Config{Posts: store, Telegram: tg, VK: vk})
}

func TestTickForwardSuccess(t *testing.T) {
	store := newFakePostStore()
	tg := &fakeTelegram{}
	post, dels := duePost(domain.Delivery{Platform: domain.PlatformTelegram, TargetID: -100})
	store.add(post, dels)

	if err := newDispatcher(store, tg, nil).Tick(context.Background()); err != nil {
		t.Fatalf("Tick: %v", err)
	}

	if got := store.status(post.ID); got != domain.PostStatusSent {
		t.Fatalf("post status = %s, want SENT", got)
	}
	final, _ := store.ListDeliveries(context.Background(), post.ID)
	if final[0].Status != domain.DeliveryStatusSent || final[0].Method != domain.DeliveryMethodForward {
		t.Errorf("unexpected delivery: %+v", final[0])
	}
	if final[0].PlatformMessageID != 100 {
		t.Errorf("message id = %d, want 100", final[0].PlatformMessageID)
	}
	if tg.copies != 0 {
		t.Error("copy must not be attempted when forward succeeds")
	}
}

// An unavailable forward source must fall back to copy within the same tick.
func TestTickCopyFallbackOnNotMember(t *testing.T) {
	store := newFakePostStore()
	tg := &fakeTelegram{forwardErr: fmt.Errorf("%w: source gone", platform.ErrNotMember)}
	post, dels := duePost(domain.Delivery{Platform: domain.PlatformTelegram, TargetID: -100})
	store.add(post, dels)

	if err := newDispatcher(store, tg, nil).Tick(context.Background()); err != nil {
		t.Fatal(err)
	}

	if got := store.status(post.ID); got != domain.PostStatusSent {
		t.Fatalf("post status = %s, want SENT", got)
	}
	final, _ := store.ListDeliveries(context.Background(), post.ID)
	if final[0].Method != domain.DeliveryMethodCopy || final[0].PlatformMessageID != 200 {
		t.Errorf("unexpected fallback delivery: %+v", final[0])
	}
	if tg.copies != 1 {
		t.Errorf("copies = %d, want 1", tg.copies)
	}
}

// Rate limits and transient failures finalize the delivery; no fallback,
// no retry on a later tick.
func TestTickNoFallbackOnOtherErrors(t *testing.T) {
	for _, cause := range []error{platform.ErrRateLimited, platform.ErrTransient} {
		t.Run(cause.Error(), func(t *testing.T) {
			store := newFakePostStore()
			tg := &fakeTelegram{forwardErr: fmt.Errorf("%w: boom", cause)}
			post, dels := duePost(domain.Delivery{Platform: domain.PlatformTelegram, TargetID: -100})
			store.add(post, dels)
			disp := newDispatcher(store, tg, nil)

			if err := disp.Tick(context.Background()); err != nil {
				t.Fatal(err)
			}

			if got := store.status(post.ID); got != domain.PostStatusFailed {
				t.Fatalf("post status = %s, want FAILED", got)
			}
			if tg.copies != 0 {
				t.Error("copy fallback must be reserved for unavailable sources")
			}

			// Terminal post must not be picked up again.
			if err := disp.Tick(context.Background()); err != nil {
				t.Fatal(err)
			}
			if tg.forwards != 1 {
				t.Errorf("forwards = %d, want 1 (no retry)", tg.forwards)
			}
		})
	}
}

func TestTickPartialFailureAggregates(t *testing.T) {
	store := newFakePostStore()
	tg := &fakeTelegram{}
	vk := &fakeVK{postErr: fmt.Errorf("%w: wall closed", platform.ErrNotMember)}
	post, dels := duePost(
		domain.Delivery{Platform: domain.PlatformTelegram, TargetID: -100},
		domain.Delivery{Platform: domain.PlatformVK, TargetID: 777},
	)
	store.add(post, dels)

	if err := newDispatcher(store, tg, vk).Tick(context.Background()); err != nil {
		t.Fatal(err)
	}

	if got := store.status(post.ID); got != domain.PostStatusFailed {
		t.Fatalf("post status = %s, want FAILED on partial failure", got)
	}

	final, _ := store.ListDeliveries(context.Background(), post.ID)
	byPlatform := map[domain.Platform]domain.Delivery{}
	for _, d := range final {
		byPlatform[d.Platform] = d
	}
	if byPlatform[domain.PlatformTelegram].Status != domain.DeliveryStatusSent {
		t.Error("telegram delivery must succeed independently")
	}
	if byPlatform[domain.PlatformVK].Status != domain.DeliveryStatusFailed {
		t.Error("vk delivery must be failed")
	}

	store.mu.Lock()
	errText := store.posts[post.ID].Error
	store.mu.Unlock()
	if !strings.Contains(errText, "1/2 targets failed") {
		t.Errorf("aggregate error = %q", errText)
	}
}

func TestTickVKPhotoPipeline(t *testing.T) {
	store := newFakePostStore()
	tg := &fakeTelegram{}
	vk := &fakeVK{}
	post, dels := duePost(domain.Delivery{Platform: domain.PlatformVK, TargetID: 777})
	post.PhotoFileID = "file-1"
	store.add(post, dels)

	if err := newDispatcher(store, tg, vk).Tick(context.Background()); err != nil {
		t.Fatal(err)
	}

	if got := store.status(post.ID); got != domain.PostStatusSent {
		t.Fatalf("post status = %s, want SENT", got)
	}
	if len(vk.posted) != 1 || vk.posted[0] != "777|caption|photo-777_1" {
		t.Errorf("unexpected wall.post calls: %v", vk.posted)
	}
	final, _ := store.ListDeliveries(context.Background(), post.ID)
	if final[0].Method != domain.DeliveryMethodPost || final[0].PlatformMessageID != 42 {
		t.Errorf("unexpected vk delivery: %+v", final[0])
	}
}

// Two dispatchers racing over the same post must deliver it exactly once.
func TestConcurrentClaimDeliversOnce(t *testing.T) {
	store := newFakePostStore()
	tg := &fakeTelegram{}
	post, dels := duePost(domain.Delivery{Platform: domain.PlatformTelegram, TargetID: -100})
	store.add(post, dels)

	a := newDispatcher(store, tg, nil)
	b := newDispatcher(store, tg, nil)

	var wg sync.WaitGroup
	for _, disp := range []*Dispatcher{a, b} {
		wg.Add(1)
		go func(d *Dispatcher) {
			defer wg.Done()
			if err := d.Tick(context.Background()); err != nil {
				t.Errorf("Tick: %v", err)
			}
		}(disp)
	}
	wg.Wait()

	if tg.forwards != 1 {
		t.Fatalf("forwards = %d, want exactly 1", tg.forwards)
	}
	if got := store.status(post.ID); got != domain.PostStatusSent {
		t.Fatalf("post status = %s, want SENT", got)
	}
}

// A repository failure aborts the whole tick so nothing is claimed.
func TestTickAbortsOnListError(t *testing.T) {
	store := newFakePostStore()
	store.listErr = errors.New("db down")
	tg := &fakeTelegram{}

	err := newDispatcher(store, tg, nil).Tick(context.Background())
	if err == nil {
		t.Fatal("want error when listing due posts fails")
	}
	if tg.forwards != 0 {
		t.Error("no deliveries must happen on an aborted tick")
	}
}

func TestTickSkipsCancelledPost(t *testing.T) {
	store := newFakePostStore()
	tg := &fakeTelegram{}
	post, dels := duePost(domain.Delivery{Platform: domain.PlatformTelegram, TargetID: -100})
	store.add(post, dels)

	// The owner cancels between ListDue and the claim.
	listed, err := store.ListDue(context.Background(), time.Now().UTC(), 10)
	if err != nil || len(listed) != 1 {
		t.Fatalf("setup: %v, %d posts", err, len(listed))
	}
	if err := store.Transition(context.Background(), post.ID, domain.PostStatusScheduled, domain.PostStatusCancelled, ""); err != nil {
		t.Fatal(err)
	}

	if err := newDispatcher(store, tg, nil).Tick(context.Background()); err != nil {
		t.Fatal(err)
	}
	if tg.forwards != 0 {
		t.Error("cancelled post must not be delivered")
	}
	if got := store.status(post.ID); got != domain.PostStatusCancelled {
		t.Errorf("post status = %s, want CANCELLED", got)
	}
}
