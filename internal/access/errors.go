package access

import "errors"

// Ошибки контроля доступа. Все они локальны: пользователю возвращается отказ,
// состояние хранилища не меняется.
var (
	// ErrNotAuthorized — операцию запросил пользователь без прав.
	ErrNotAuthorized = errors.New("not authorized")

	// ErrAlreadyRejected — отклонённый пользователь пытается
	// зарегистрироваться снова.
	ErrAlreadyRejected = errors.New("registration already rejected")

	// ErrQueueFull — очередь заявок на регистрацию заполнена.
	ErrQueueFull = errors.New("registration queue is full")
)
