package bot

import (
	"testing"
	"time"

	"github.com/shaiso/Postomat/internal/domain"
)

func TestBuildPostResolvesInstantFromOwnerOffset(t *testing.T) {
	user := &domain.User{ID: 7, TZOffsetMin: 120} // +02:00
	dr := &draft{
		SourceChatID:    -100500,
		SourceMessageID: 12,
		Caption:         "caption",
		Platform:        domain.PlatformTelegram,
		TargetID:        -200,
		TargetTitle:     "News",
		Stage:           stageTime,
	}
	now := time.Date(2025, 6, 5, 11, 55, 0, 0, time.UTC)
	lt, err := domain.ParseLocalTime("14:00")
	if err != nil {
		t.Fatal(err)
	}

	post, deliveries := buildPost(user, dr, lt, "14:00", now)

	want := time.Date(2025, 6, 5, 12, 0, 0, 0, time.UTC)
	if !post.DispatchAt.Equal(want) {
		t.Errorf("DispatchAt = %v, want %v", post.DispatchAt, want)
	}
	if post.OwnerID != 7 || post.Status != domain.PostStatusScheduled || post.RequestedAt != "14:00" {
		t.Errorf("unexpected post: %+v", post)
	}

	if len(deliveries) != 1 {
		t.Fatalf("got %d deliveries, want 1", len(deliveries))
	}
	d := deliveries[0]
	if d.PostID != post.ID || d.Platform != domain.PlatformTelegram || d.TargetID != -200 {
		t.Errorf("unexpected delivery: %+v", d)
	}
	if d.Status != domain.DeliveryStatusPending {
		t.Errorf("delivery status = %s, want PENDING", d.Status)
	}
}

func TestBuildPostSendNow(t *testing.T) {
	user := &domain.User{ID: 7, TZOffsetMin: 180}
	dr := &draft{Platform: domain.PlatformVK, TargetID: 777, Stage: stageTime}
	now := time.Date(2025, 6, 5, 11, 55, 30, 0, time.UTC)

	post, _ := buildPost(user, dr, domain.NowLocalTime(), "now", now)

	if post.DispatchAt.After(now) {
		t.Errorf("immediate post must be due at once, got %v", post.DispatchAt)
	}
}

func TestDraftsLifecycle(t *testing.T) {
	d := newDrafts()
	if d.get(1) != nil {
		t.Fatal("empty drafts must return nil")
	}
	d.set(1, &draft{Stage: stageService})
	if got := d.get(1); got == nil || got.Stage != stageService {
		t.Fatalf("unexpected draft: %+v", got)
	}
	d.clear(1)
	if d.get(1) != nil {
		t.Fatal("cleared draft must be gone")
	}
}

func TestParseUserID(t *testing.T) {
	tests := []struct {
		in   string
		want int64
		ok   bool
	}{
		{"123", 123, true},
		{" 456 ", 456, true},
		{"", 0, false},
		{"abc", 0, false},
		{"-5", 0, false},
		{"0", 0, false},
	}
	for _, tt := range tests {
		got, ok := parseUserID(tt.in)
		if got != tt.want || ok != tt.ok {
			t.Errorf("parseUserID(%q) = (%d, %v), want (%d, %v)", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}
