package registry

import (
	"context"
	"errors"
	"testing"

	"github.com/shaiso/Postomat/internal/domain"
	"github.com/shaiso/Postomat/internal/repo"
)

type channelKey struct {
	platform domain.Platform
	id       int64
}

// fakeChannelStore keeps channels in memory with repo-compatible errors.
type fakeChannelStore struct {
	channels map[channelKey]domain.Channel
}

func newFakeChannelStore() *fakeChannelStore {
	return &fakeChannelStore{channels: make(map[channelKey]domain.Channel)}
}

func (f *fakeChannelStore) Upsert(_ context.Context, ch *domain.Channel) error {
	f.channels[channelKey{ch.Platform, ch.ExternalID}] = *ch
	return nil
}

func (f *fakeChannelStore) Get(_ context.Context, platform domain.Platform, externalID int64) (*domain.Channel, error) {
	ch, ok := f.channels[channelKey{platform, externalID}]
	if !ok {
		return nil, repo.ErrNotFound
	}
	return &ch, nil
}

func (f *fakeChannelStore) List(_ context.Context, platform domain.Platform) ([]domain.Channel, error) {
	var out []domain.Channel
	for key, ch := range f.channels {
		if key.platform == platform {
			out = append(out, ch)
		}
	}
	return out, nil
}

func (f *fakeChannelStore) ReplacePlatform(_ context.Context, platform domain.Platform, channels []domain.Channel) error {
	for key := range f.channels {
		if key.platform == platform {
			delete(f.channels, key)
		}
	}
	for _, ch := range channels {
		f.channels[channelKey{ch.Platform, ch.ExternalID}] = ch
	}
	return nil
}

type fakeGroupLister struct {
	groups []domain.Channel
	err    error
}

func (f *fakeGroupLister) Groups(_ context.Context) ([]domain.Channel, error) {
	return f.groups, f.err
}

func TestHandleChatMemberUpdatePromotion(t *testing.T) {
	store := newFakeChannelStore()
	svc := New(Config{Channels: store})

	if err := svc.HandleChatMemberUpdate(context.Background(), -100500, "News", "administrator"); err != nil {
		t.Fatalf("HandleChatMemberUpdate: %v", err)
	}

	ch, err := svc.Get(context.Background(), domain.PlatformTelegram, -100500)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !ch.CanPost || ch.Title != "News" {
		t.Errorf("unexpected channel after promotion: %+v", ch)
	}
}

// Losing admin rights must clear CanPost but keep the registry entry.
func TestHandleChatMemberUpdateDemotionKeepsEntry(t *testing.T) {
	store := newFakeChannelStore()
	svc := New(Config{Channels: store})
	ctx := context.Background()

	if err := svc.HandleChatMemberUpdate(ctx, -100500, "News", "administrator"); err != nil {
		t.Fatal(err)
	}
	if err := svc.HandleChatMemberUpdate(ctx, -100500, "News", "left"); err != nil {
		t.Fatal(err)
	}

	ch, err := svc.Get(ctx, domain.PlatformTelegram, -100500)
	if err != nil {
		t.Fatalf("entry must survive demotion: %v", err)
	}
	if ch.CanPost {
		t.Error("CanPost must be cleared after demotion")
	}

	postable, err := svc.Postable(ctx, domain.PlatformTelegram)
	if err != nil {
		t.Fatal(err)
	}
	if len(postable) != 0 {
		t.Errorf("demoted channel must not be postable, got %+v", postable)
	}
}

func TestRefreshVKReplacesAtomically(t *testing.T) {
	store := newFakeChannelStore()
	lister := &fakeGroupLister{groups: []domain.Channel{
		{Platform: domain.PlatformVK, ExternalID: 1, Title: "Old", CanPost: true},
	}}
	svc := New(Config{Channels: store, VK: lister})
	ctx := context.Background()

	if _, err := svc.RefreshVK(ctx); err != nil {
		t.Fatal(err)
	}

	lister.groups = []domain.Channel{
		{Platform: domain.PlatformVK, ExternalID: 2, Title: "New", CanPost: true},
	}
	refreshed, err := svc.RefreshVK(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(refreshed) != 1 || refreshed[0].ExternalID != 2 {
		t.Fatalf("unexpected refresh result: %+v", refreshed)
	}

	if _, err := svc.Get(ctx, domain.PlatformVK, 1); !errors.Is(err, repo.ErrNotFound) {
		t.Errorf("stale vk group must be gone, got err %v", err)
	}
	if _, err := svc.Get(ctx, domain.PlatformVK, 2); err != nil {
		t.Errorf("fresh vk group must be present: %v", err)
	}
}

// A failed VK poll must leave the registry untouched.
func TestRefreshVKFailureKeepsRegistry(t *testing.T) {
	store := newFakeChannelStore()
	lister := &fakeGroupLister{groups: []domain.Channel{
		{Platform: domain.PlatformVK, ExternalID: 1, Title: "Kept", CanPost: true},
	}}
	svc := New(Config{Channels: store, VK: lister})
	ctx := context.Background()

	if _, err := svc.RefreshVK(ctx); err != nil {
		t.Fatal(err)
	}

	lister.err = errors.New("vk down")
	if _, err := svc.RefreshVK(ctx); err == nil {
		t.Fatal("want error when vk poll fails")
	}

	if _, err := svc.Get(ctx, domain.PlatformVK, 1); err != nil {
		t.Errorf("registry must be intact after failed refresh: %v", err)
	}
}

func TestRefreshVKWithoutClient(t *testing.T) {
	svc := New(Config{Channels: newFakeChannelStore()})
	if _, err := svc.RefreshVK(context.Background()); err == nil {
		t.Fatal("want error when vk is not configured")
	}
}
