package platform

import "github.com/shaiso/Postomat/internal/domain"

// SourceRef — ссылка на исходное сообщение: чат и сообщение в нём.
// Достаточна и для forwardMessage, и для copyMessage.
type SourceRef struct {
	ChatID    int64
	MessageID int
}

// MessageRef — ссылка на опубликованное сообщение на платформе.
type MessageRef struct {
	Platform  domain.Platform
	ChatID    int64
	MessageID int64
}
