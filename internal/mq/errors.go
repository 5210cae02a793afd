package mq

import "errors"

// Ошибки транспорта.
var (
	// ErrNotConnected — нет открытого канала к брокеру.
	ErrNotConnected = errors.New("broker not connected")

	// ErrNotConfirmed — брокер не подтвердил публикацию (nack).
	ErrNotConfirmed = errors.New("publish not confirmed by broker")
)
