package domain

// PostStatus — статус запланированного поста.
//
// Жизненный цикл:
//
//	SCHEDULED → DISPATCHING → SENT
//	                        ↘ FAILED
//	SCHEDULED → CANCELLED (отмена пользователем)
//
// SENT, FAILED и CANCELLED — финальные статусы, из них переходов нет.
type PostStatus string

const (
	// PostStatusScheduled — пост ожидает своего времени публикации.
	PostStatusScheduled PostStatus = "SCHEDULED"

	// PostStatusDispatching — пост захвачен циклом доставки.
	// CAS-переход SCHEDULED → DISPATCHING даёт эксклюзивное право доставки.
	PostStatusDispatching PostStatus = "DISPATCHING"

	// PostStatusSent — все цели доставлены успешно.
	PostStatusSent PostStatus = "SENT"

	// PostStatusFailed — хотя бы одна цель не доставлена.
	// Автоматических повторов нет: пост планируется заново вручную.
	PostStatusFailed PostStatus = "FAILED"

	// PostStatusCancelled — пост отменён до захвата.
	PostStatusCancelled PostStatus = "CANCELLED"
)

// IsTerminal возвращает true, если статус финальный.
func (s PostStatus) IsTerminal() bool {
	switch s {
	case PostStatusSent, PostStatusFailed, PostStatusCancelled:
		return true
	default:
		return false
	}
}

// DeliveryStatus — статус доставки в одну конкретную цель.
//
// Жизненный цикл: PENDING → SENT или PENDING → FAILED.
type DeliveryStatus string

const (
	// DeliveryStatusPending — доставка в цель ещё не выполнялась.
	DeliveryStatusPending DeliveryStatus = "PENDING"

	// DeliveryStatusSent — сообщение доставлено в цель.
	DeliveryStatusSent DeliveryStatus = "SENT"

	// DeliveryStatusFailed — доставка в цель завершилась ошибкой.
	DeliveryStatusFailed DeliveryStatus = "FAILED"
)

// IsTerminal возвращает true, если статус финальный.
func (s DeliveryStatus) IsTerminal() bool {
	switch s {
	case DeliveryStatusSent, DeliveryStatusFailed:
		return true
	default:
		return false
	}
}

// DeliveryMethod — способ, которым сообщение попало в цель.
type DeliveryMethod string

const (
	// DeliveryMethodForward — forwardMessage с сохранением атрибуции источника.
	DeliveryMethodForward DeliveryMethod = "forward"

	// DeliveryMethodCopy — copyMessage без атрибуции.
	// Fallback, когда источник недоступен боту для пересылки.
	DeliveryMethodCopy DeliveryMethod = "copy"

	// DeliveryMethodPost — публикация текста/вложений (VK wall.post).
	DeliveryMethodPost DeliveryMethod = "post"
)

// AuthState — состояние авторизации пользователя.
//
// Жизненный цикл:
//
//	PENDING → APPROVED
//	        ↘ REJECTED
//
// SUPERADMIN создаётся один раз при первом контакте с ботом.
// REJECTED — тупиковое состояние: повторная саморегистрация запрещена.
type AuthState string

const (
	// AuthStatePending — заявка ожидает решения администратора.
	AuthStatePending AuthState = "PENDING"

	// AuthStateApproved — пользователь допущен к планированию постов.
	AuthStateApproved AuthState = "APPROVED"

	// AuthStateRejected — заявка отклонена; повторная регистрация невозможна.
	AuthStateRejected AuthState = "REJECTED"

	// AuthStateSuperadmin — первый пользователь бота, полные права.
	AuthStateSuperadmin AuthState = "SUPERADMIN"
)

// Platform — платформа цели публикации.
type Platform string

const (
	// PlatformTelegram — Telegram-канал, где бот является администратором.
	PlatformTelegram Platform = "telegram"

	// PlatformVK — стена сообщества VK, доступная по настроенному токену.
	PlatformVK Platform = "vk"
)
