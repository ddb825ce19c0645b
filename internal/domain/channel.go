package domain

import "time"

// Channel — цель публикации: Telegram-канал или сообщество VK.
//
// Telegram-каналы обнаруживаются по событиям my_chat_member (бот назначен
// администратором). VK-сообщества обнаруживаются запросом groups.get по
// настроенному токену; /refresh_vkgroups атомарно заменяет весь VK-набор,
// поэтому записи ротации токена не переживают.
//
// Канал, где бот потерял права администратора, из реестра сам не исчезает:
// событие понижения лишь сбрасывает CanPost. Удаление — только явным путём.
type Channel struct {
	// Platform — платформа канала.
	Platform Platform `json:"platform"`

	// ExternalID — внешний идентификатор.
	// Telegram: chat_id канала (отрицательный). VK: положительный id группы.
	ExternalID int64 `json:"external_id"`

	// Title — отображаемое имя.
	Title string `json:"title"`

	// CanPost — есть ли у бота/токена права на публикацию.
	CanPost bool `json:"can_post"`

	// UpdatedAt — время последнего обновления записи.
	UpdatedAt time.Time `json:"updated_at"`
}
