package domain

import "time"

// User — пользователь бота и его состояние авторизации.
//
// Запись создаётся при первом контакте с ботом. Самый первый пользователь
// становится SUPERADMIN, остальные попадают в очередь PENDING и ждут решения
// администратора. Удаление записи возвращает пользователя в исходное
// состояние: следующий контакт создаст новую PENDING-заявку (с учётом лимита
// очереди регистраций).
type User struct {
	// ID — Telegram ID пользователя.
	ID int64 `json:"id"`

	// Username — Telegram username на момент последнего контакта.
	Username string `json:"username,omitempty"`

	// State — состояние авторизации.
	State AuthState `json:"state"`

	// TZOffsetMin — смещение локального времени пользователя от UTC
	// в минутах со знаком. Задаётся командой /tz, по умолчанию берётся
	// из конфигурации.
	TZOffsetMin int `json:"tz_offset_min"`

	// CreatedAt — время создания записи.
	CreatedAt time.Time `json:"created_at"`
}

// IsAuthorized возвращает true, если пользователь может планировать посты
// и просматривать каналы.
func (u *User) IsAuthorized() bool {
	return u.State == AuthStateApproved || u.State == AuthStateSuperadmin
}

// IsSuperadmin возвращает true для суперадминистратора.
func (u *User) IsSuperadmin() bool {
	return u.State == AuthStateSuperadmin
}
