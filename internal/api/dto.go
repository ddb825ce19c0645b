package api

import (
	"time"

	"github.com/shaiso/Postomat/internal/domain"
)

// UserResponse — DTO пользователя.
type UserResponse struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username,omitempty"`
	State     string    `json:"state"`
	TZOffset  string    `json:"tz_offset"`
	CreatedAt time.Time `json:"created_at"`
}

// ToUserResponse преобразует domain.User в DTO.
func ToUserResponse(u *domain.User) UserResponse {
	return UserResponse{
		ID:        u.ID,
		Username:  u.Username,
		State:     string(u.State),
		TZOffset:  domain.FormatOffset(u.TZOffsetMin),
		CreatedAt: u.CreatedAt,
	}
}

// ChannelResponse — DTO цели публикации.
type ChannelResponse struct {
	Platform   string    `json:"platform"`
	ExternalID int64     `json:"external_id"`
	Title      string    `json:"title"`
	CanPost    bool      `json:"can_post"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// ToChannelResponse преобразует domain.Channel в DTO.
func ToChannelResponse(ch *domain.Channel) ChannelResponse {
	return ChannelResponse{
		Platform:   string(ch.Platform),
		ExternalID: ch.ExternalID,
		Title:      ch.Title,
		CanPost:    ch.CanPost,
		UpdatedAt:  ch.UpdatedAt,
	}
}

// DeliveryResponse — DTO результата доставки в одну цель.
type DeliveryResponse struct {
	ID                string     `json:"id"`
	Platform          string     `json:"platform"`
	TargetID          int64      `json:"target_id"`
	TargetTitle       string     `json:"target_title,omitempty"`
	Status            string     `json:"status"`
	Method            string     `json:"method,omitempty"`
	PlatformMessageID int64      `json:"platform_message_id,omitempty"`
	Error             string     `json:"error,omitempty"`
	SentAt            *time.Time `json:"sent_at,omitempty"`
}

// ToDeliveryResponse преобразует domain.Delivery в DTO.
func ToDeliveryResponse(d *domain.Delivery) DeliveryResponse {
	return DeliveryResponse{
		ID:                d.ID.String(),
		Platform:          string(d.Platform),
		TargetID:          d.TargetID,
		TargetTitle:       d.TargetTitle,
		Status:            string(d.Status),
		Method:            string(d.Method),
		PlatformMessageID: d.PlatformMessageID,
		Error:             d.Error,
		SentAt:            d.SentAt,
	}
}

// PostResponse — DTO поста.
type PostResponse struct {
	ID          string             `json:"id"`
	OwnerID     int64              `json:"owner_id"`
	Status      string             `json:"status"`
	RequestedAt string             `json:"requested_at"`
	DispatchAt  time.Time          `json:"dispatch_at"`
	SentAt      *time.Time         `json:"sent_at,omitempty"`
	Error       string             `json:"error,omitempty"`
	CreatedAt   time.Time          `json:"created_at"`
	Deliveries  []DeliveryResponse `json:"deliveries,omitempty"`
}

// ToPostResponse преобразует domain.Post в DTO без доставок.
func ToPostResponse(p *domain.Post) PostResponse {
	return PostResponse{
		ID:          p.ID.String(),
		OwnerID:     p.OwnerID,
		Status:      string(p.Status),
		RequestedAt: p.RequestedAt,
		DispatchAt:  p.DispatchAt,
		SentAt:      p.SentAt,
		Error:       p.Error,
		CreatedAt:   p.CreatedAt,
	}
}
