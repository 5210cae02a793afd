package store

import "errors"

// Ошибки хранилища.
var (
	// ErrNotFound — execution с таким ID не существует.
	ErrNotFound = errors.New("not found")

	// ErrUnknownBackend — неизвестное значение STORE_BACKEND.
	ErrUnknownBackend = errors.New("unknown store backend")

	// ErrCorruptValue — значение в хранилище не удалось декодировать.
	ErrCorruptValue = errors.New("corrupt stored value")
)
