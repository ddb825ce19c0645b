package platform

import "errors"

// Таксономия ошибок доставки.
var (
	// ErrNotMember — бот/токен не имеет доступа к источнику или цели
	// (не участник чата, сообщение недоступно для пересылки).
	// Только эта ошибка включает fallback forward → copy.
	ErrNotMember = errors.New("not a member")

	// ErrRateLimited — платформа ответила ограничением частоты.
	// Fallback не выполняется, доставка фиксируется как неуспешная.
	ErrRateLimited = errors.New("rate limited")

	// ErrTransient — сетевая или иная временная ошибка.
	// Fallback не выполняется, доставка фиксируется как неуспешная.
	ErrTransient = errors.New("transient error")
)
