package platform

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// newTestTelegram spins up a fake Bot API server and a client wired to it.
func newTestTelegram(t *testing.T, handle func(method string, w http.ResponseWriter)) (*Telegram, func() []string) {
	t.Helper()

	var methods []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		method := path.Base(r.URL.Path)
		methods = append(methods, method)
		w.Header().Set("Content-Type", "application/json")
		if method == "getMe" {
			fmt.Fprint(w, `{"ok":true,"result":{"id":1,"is_bot":true,"first_name":"postomat","username":"postomat_bot"}}`)
			return
		}
		handle(method, w)
	}))
	t.Cleanup(srv.Close)

	botAPI, err := tgbotapi.NewBotAPIWithClient("TOKEN", srv.URL+"/bot%s/%s", srv.Client())
	if err != nil {
		t.Fatalf("bot init: %v", err)
	}
	return NewTelegram(botAPI, nil), func() []string { return methods }
}

func TestForwardReturnsMessageRef(t *testing.T) {
	tg, _ := newTestTelegram(t, func(method string, w http.ResponseWriter) {
		if method != "forwardMessage" {
			t.Errorf("unexpected API method %s", method)
		}
		fmt.Fprint(w, `{"ok":true,"result":{"message_id":101,"chat":{"id":-100200},"date":1}}`)
	})

	ref, err := tg.Forward(context.Background(), -100200, SourceRef{ChatID: 42, MessageID: 7})
	if err != nil {
		t.Fatalf("forward: %v", err)
	}
	if ref.MessageID != 101 || ref.ChatID != -100200 {
		t.Errorf("ref = %+v, want message 101 in chat -100200", ref)
	}
}

// Copy must hit copyMessage, whose response carries only a message id.
func TestCopyReturnsMessageRef(t *testing.T) {
	tg, methods := newTestTelegram(t, func(method string, w http.ResponseWriter) {
		if method != "copyMessage" {
			t.Errorf("unexpected API method %s", method)
		}
		fmt.Fprint(w, `{"ok":true,"result":{"message_id":102}}`)
	})

	ref, err := tg.Copy(context.Background(), -100200, SourceRef{ChatID: 42, MessageID: 7})
	if err != nil {
		t.Fatalf("copy: %v", err)
	}
	if ref.MessageID != 102 {
		t.Errorf("ref.MessageID = %d, want 102", ref.MessageID)
	}
	called := methods()
	if called[len(called)-1] != "copyMessage" {
		t.Errorf("last API method = %s, want copyMessage", called[len(called)-1])
	}
}

func TestClassifyTelegramError(t *testing.T) {
	tests := []struct {
		name string
		in   error
		want error
	}{
		{
			name: "rate limited",
			in: &tgbotapi.Error{
				Code:               429,
				Message:            "Too Many Requests: retry after 7",
				ResponseParameters: tgbotapi.ResponseParameters{RetryAfter: 7},
			},
			want: ErrRateLimited,
		},
		{
			name: "bot not in source chat",
			in:   &tgbotapi.Error{Code: 403, Message: "Forbidden: bot is not a member of the channel chat"},
			want: ErrNotMember,
		},
		{
			name: "target chat gone",
			in:   &tgbotapi.Error{Code: 400, Message: "Bad Request: chat not found"},
			want: ErrNotMember,
		},
		{
			name: "source message gone",
			in:   &tgbotapi.Error{Code: 400, Message: "Bad Request: message to forward not found"},
			want: ErrNotMember,
		},
		{
			name: "telegram internal error",
			in:   &tgbotapi.Error{Code: 500, Message: "Internal Server Error"},
			want: ErrTransient,
		},
		{
			name: "network failure",
			in:   fmt.Errorf("dial tcp: connection refused"),
			want: ErrTransient,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := classifyTelegramError(tt.in)
			if !errors.Is(got, tt.want) {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
		})
	}
}

// Errors the taxonomy does not cover stay unclassified so the dispatcher
// records them verbatim without the copy fallback.
func TestClassifyTelegramErrorUnknown(t *testing.T) {
	got := classifyTelegramError(&tgbotapi.Error{Code: 400, Message: "Bad Request: BUTTON_DATA_INVALID"})
	for _, sentinel := range []error{ErrRateLimited, ErrTransient, ErrNotMember} {
		if errors.Is(got, sentinel) {
			t.Fatalf("unexpected classification %v for unknown API error", sentinel)
		}
	}
}
