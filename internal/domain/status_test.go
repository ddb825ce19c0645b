package domain

import (
	"testing"
	"time"
)

func TestPostStatus_IsTerminal(t *testing.T) {
	terminal := []PostStatus{PostStatusSent, PostStatusFailed, PostStatusCancelled}
	for _, s := range terminal {
		if !s.IsTerminal() {
			t.Errorf("%s should be terminal", s)
		}
	}

	nonTerminal := []PostStatus{PostStatusScheduled, PostStatusDispatching}
	for _, s := range nonTerminal {
		if s.IsTerminal() {
			t.Errorf("%s should not be terminal", s)
		}
	}
}

func TestDeliveryStatus_IsTerminal(t *testing.T) {
	if DeliveryStatusPending.IsTerminal() {
		t.Error("PENDING should not be terminal")
	}
	if !DeliveryStatusSent.IsTerminal() || !DeliveryStatusFailed.IsTerminal() {
		t.Error("SENT and FAILED should be terminal")
	}
}

func TestAggregateStatus(t *testing.T) {
	sent := Delivery{Status: DeliveryStatusSent}
	failed := Delivery{Status: DeliveryStatusFailed}
	pending := Delivery{Status: DeliveryStatusPending}

	tests := []struct {
		name       string
		deliveries []Delivery
		want       PostStatus
	}{
		{"all sent", []Delivery{sent, sent}, PostStatusSent},
		{"one failed", []Delivery{sent, failed}, PostStatusFailed},
		{"all failed", []Delivery{failed, failed}, PostStatusFailed},
		{"pending counts as not delivered", []Delivery{sent, pending}, PostStatusFailed},
		{"single sent", []Delivery{sent}, PostStatusSent},
	}

	for _, tt := range tests {
		if got := AggregateStatus(tt.deliveries); got != tt.want {
			t.Errorf("%s: got %s, want %s", tt.name, got, tt.want)
		}
	}
}

func TestDeliveryMarkHelpers(t *testing.T) {
	now := time.Date(2025, time.June, 5, 12, 0, 0, 0, time.UTC)

	var d Delivery
	d.MarkSent(now, DeliveryMethodCopy, 42)
	if d.Status != DeliveryStatusSent || d.Method != DeliveryMethodCopy || d.PlatformMessageID != 42 {
		t.Errorf("MarkSent: got %+v", d)
	}
	if d.SentAt == nil || !d.SentAt.Equal(now) {
		t.Error("MarkSent should set SentAt")
	}

	var f Delivery
	f.MarkFailed("rate limited")
	if f.Status != DeliveryStatusFailed || f.Error != "rate limited" {
		t.Errorf("MarkFailed: got %+v", f)
	}
}

func TestUser_IsAuthorized(t *testing.T) {
	tests := []struct {
		state AuthState
		want  bool
	}{
		{AuthStatePending, false},
		{AuthStateApproved, true},
		{AuthStateRejected, false},
		{AuthStateSuperadmin, true},
	}
	for _, tt := range tests {
		u := &User{State: tt.state}
		if got := u.IsAuthorized(); got != tt.want {
			t.Errorf("IsAuthorized(%s) = %v, want %v", tt.state, got, tt.want)
		}
	}
}
