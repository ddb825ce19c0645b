package repo

import "errors"

// Общие ошибки репозиториев.
var (
	// ErrNotFound — запись не найдена в БД.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists — запись уже существует (конфликт уникальности).
	ErrAlreadyExists = errors.New("already exists")

	// ErrStateConflict — CAS-переход не прошёл: хранимый статус не совпал
	// с ожидаемым. Штатная ситуация при конкурентном захвате поста,
	// ошибкой не считается.
	ErrStateConflict = errors.New("state conflict")

	// ErrInvalidState — операция невозможна в текущем статусе записи
	// (например, отмена уже захваченного поста).
	ErrInvalidState = errors.New("invalid state")
)
