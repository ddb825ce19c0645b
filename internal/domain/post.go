package domain

import (
	"time"

	"github.com/google/uuid"
)

// Post — запланированная публикация.
//
// Post создаётся, когда авторизованный пользователь пересылает боту сообщение
// и выбирает цели и время. Источник хранится как пара (chat_id, message_id) —
// этого достаточно и для forwardMessage, и для copyMessage.
//
// Момент публикации (DispatchAt) вычисляется один раз при создании поста из
// смещения владельца на тот момент. Последующая смена смещения пользователем
// уже запланированные посты не сдвигает.
type Post struct {
	// ID — уникальный идентификатор поста.
	ID uuid.UUID `json:"id"`

	// OwnerID — Telegram ID пользователя, запланировавшего пост.
	OwnerID int64 `json:"owner_id"`

	// SourceChatID — чат, из которого переслано исходное сообщение.
	SourceChatID int64 `json:"source_chat_id"`

	// SourceMessageID — ID исходного сообщения в SourceChatID.
	SourceMessageID int `json:"source_message_id"`

	// Caption — подпись исходного сообщения.
	// Используется как текст при публикации на стену VK.
	Caption string `json:"caption,omitempty"`

	// PhotoFileID — file_id фотографии исходного сообщения (если была).
	// Нужен для загрузки фото на стену VK.
	PhotoFileID string `json:"photo_file_id,omitempty"`

	// Status — текущий статус поста.
	Status PostStatus `json:"status"`

	// RequestedAt — введённое пользователем локальное время, как есть
	// ("14:00", "05.06.2025 14:00" или "now"). Хранится для отчётности.
	RequestedAt string `json:"requested_at"`

	// DispatchAt — абсолютный момент публикации в UTC.
	DispatchAt time.Time `json:"dispatch_at"`

	// SentAt — момент фактической доставки (финализации).
	// Nil, пока пост не финализирован.
	SentAt *time.Time `json:"sent_at,omitempty"`

	// Error — агрегированный текст ошибки для статуса FAILED.
	Error string `json:"error,omitempty"`

	// CreatedAt — время создания поста.
	CreatedAt time.Time `json:"created_at"`
}

// Delivery — результат доставки поста в одну цель.
//
// Пост с N целями порождает N записей Delivery, поэтому частичный отказ
// (часть целей доставлена, часть нет) представим и виден в отчётах.
type Delivery struct {
	// ID — уникальный идентификатор доставки.
	ID uuid.UUID `json:"id"`

	// PostID — пост, к которому относится доставка.
	PostID uuid.UUID `json:"post_id"`

	// Platform — платформа цели.
	Platform Platform `json:"platform"`

	// TargetID — внешний идентификатор цели.
	// Для Telegram — chat_id канала, для VK — id сообщества.
	TargetID int64 `json:"target_id"`

	// TargetTitle — отображаемое имя цели на момент планирования.
	TargetTitle string `json:"target_title,omitempty"`

	// Status — статус этой доставки.
	Status DeliveryStatus `json:"status"`

	// Method — способ доставки (forward/copy/post). Пустой, пока PENDING.
	Method DeliveryMethod `json:"method,omitempty"`

	// PlatformMessageID — ID опубликованного сообщения на платформе.
	PlatformMessageID int64 `json:"platform_message_id,omitempty"`

	// Error — текст ошибки для статуса FAILED.
	Error string `json:"error,omitempty"`

	// SentAt — момент успешной доставки.
	SentAt *time.Time `json:"sent_at,omitempty"`
}

// MarkSent помечает доставку успешной.
func (d *Delivery) MarkSent(now time.Time, method DeliveryMethod, messageID int64) {
	d.Status = DeliveryStatusSent
	d.Method = method
	d.PlatformMessageID = messageID
	d.SentAt = &now
}

// MarkFailed помечает доставку неуспешной.
func (d *Delivery) MarkFailed(errText string) {
	d.Status = DeliveryStatusFailed
	d.Error = errText
}

// AggregateStatus сводит статусы доставок в итоговый статус поста:
// SENT, если все цели доставлены; FAILED, если хотя бы одна не доставлена.
func AggregateStatus(deliveries []Delivery) PostStatus {
	for i := range deliveries {
		if deliveries[i].Status != DeliveryStatusSent {
			return PostStatusFailed
		}
	}
	return PostStatusSent
}
