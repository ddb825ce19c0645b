package platform

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shaiso/Postomat/internal/domain"
)

// newTestVK points the client at a stub VK API server.
func newTestVK(t *testing.T, handler http.HandlerFunc) *VK {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c := NewVK("test-token", 777, nil)
	c.baseURL = srv.URL
	return c
}

func TestVKGroupsDirect(t *testing.T) {
	c := newTestVK(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/groups.get" {
			t.Errorf("unexpected method path %q", r.URL.Path)
		}
		if err := r.ParseForm(); err != nil {
			t.Fatal(err)
		}
		if got := r.Form.Get("filter"); got != "admin" {
			t.Errorf("filter = %q, want admin", got)
		}
		fmt.Fprint(w, `{"response":{"count":2,"items":[{"id":11,"name":"First"},{"id":22,"name":"Second"}]}}`)
	})

	channels, err := c.Groups(context.Background())
	if err != nil {
		t.Fatalf("Groups: %v", err)
	}
	if len(channels) != 2 {
		t.Fatalf("got %d channels, want 2", len(channels))
	}
	if channels[0].Platform != domain.PlatformVK || channels[0].ExternalID != 11 || channels[0].Title != "First" {
		t.Errorf("unexpected first channel: %+v", channels[0])
	}
	if !channels[1].CanPost {
		t.Error("listed group must be postable")
	}
}

// A token without the groups scope gets error 27 from groups.get; the
// client must fall back to groups.getById with the configured group.
func TestVKGroupsFallbackOnError27(t *testing.T) {
	c := newTestVK(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/groups.get":
			fmt.Fprint(w, `{"error":{"error_code":27,"error_msg":"Group authorization failed"}}`)
		case "/groups.getById":
			if err := r.ParseForm(); err != nil {
				t.Fatal(err)
			}
			if got := r.Form.Get("group_id"); got != "777" {
				t.Errorf("group_id = %q, want 777", got)
			}
			fmt.Fprint(w, `{"response":{"groups":[{"id":777,"name":"Fallback"}]}}`)
		default:
			t.Errorf("unexpected method path %q", r.URL.Path)
		}
	})

	channels, err := c.Groups(context.Background())
	if err != nil {
		t.Fatalf("Groups: %v", err)
	}
	if len(channels) != 1 || channels[0].ExternalID != 777 || channels[0].Title != "Fallback" {
		t.Fatalf("unexpected fallback channels: %+v", channels)
	}
}

func TestVKGroupsOtherErrorNotRetried(t *testing.T) {
	c := newTestVK(t, func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"error":{"error_code":5,"error_msg":"User authorization failed"}}`)
	})

	_, err := c.Groups(context.Background())
	if err == nil {
		t.Fatal("want error for code 5")
	}
	var apiErr *vkError
	if !errors.As(err, &apiErr) || apiErr.Code != 5 {
		t.Fatalf("want vk error code 5, got %v", err)
	}
}

func TestVKPostWall(t *testing.T) {
	c := newTestVK(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/wall.post" {
			t.Errorf("unexpected method path %q", r.URL.Path)
		}
		if err := r.ParseForm(); err != nil {
			t.Fatal(err)
		}
		if got := r.Form.Get("owner_id"); got != "-777" {
			t.Errorf("owner_id = %q, want -777", got)
		}
		if got := r.Form.Get("from_group"); got != "1" {
			t.Errorf("from_group = %q, want 1", got)
		}
		if got := r.Form.Get("attachments"); got != "photo-777_42" {
			t.Errorf("attachments = %q", got)
		}
		fmt.Fprint(w, `{"response":{"post_id":314}}`)
	})

	postID, err := c.PostWall(context.Background(), 777, "hello", "photo-777_42")
	if err != nil {
		t.Fatalf("PostWall: %v", err)
	}
	if postID != 314 {
		t.Errorf("post_id = %d, want 314", postID)
	}
}

func TestVKErrorClassification(t *testing.T) {
	tests := []struct {
		code int
		want error
	}{
		{6, ErrRateLimited},
		{10, ErrTransient},
		{15, ErrNotMember},
		{214, ErrNotMember},
	}
	for _, tt := range tests {
		err := classifyVKError(&vkError{Code: tt.code, Msg: "x"})
		if !errors.Is(err, tt.want) {
			t.Errorf("code %d: got %v, want %v", tt.code, err, tt.want)
		}
	}

	// Unknown codes stay unclassified.
	err := classifyVKError(&vkError{Code: 100, Msg: "x"})
	for _, sentinel := range []error{ErrRateLimited, ErrTransient, ErrNotMember} {
		if errors.Is(err, sentinel) {
			t.Errorf("code 100 must not match %v", sentinel)
		}
	}
}

func TestVKCallServerErrorIsTransient(t *testing.T) {
	c := newTestVK(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	_, err := c.PostWall(context.Background(), 777, "hello", "")
	if !errors.Is(err, ErrTransient) {
		t.Fatalf("want ErrTransient, got %v", err)
	}
}
