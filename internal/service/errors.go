package service

import (
	"errors"

	"github.com/capitalize-ai/support-chat/internal/store"
)

var (
	// ErrNotFound marks a missing conversation, identity or order.
	ErrNotFound = store.ErrNotFound
	// ErrStorage marks an unreachable or failing persistence layer.
	ErrStorage = store.ErrStorage
	// ErrInvalidCredentials is returned by Login for any credential mismatch.
	ErrInvalidCredentials = errors.New("invalid email or password")
)
