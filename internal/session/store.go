package session

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Update when the id has no value.
var ErrNotFound = errors.New("session not found")

// Store keeps one value per playthrough. Values are copied in and out, so
// callers must Put (or Update) after changing a value.
type Store[T any] interface {
	Get(ctx context.Context, id string) (T, bool, error)
	Put(ctx context.Context, id string, v T) error
	// Update applies fn to the stored value under the store lock and saves the
	// result unless fn returns an error.
	Update(ctx context.Context, id string, fn func(T) (T, error)) (T, error)
	Delete(ctx context.Context, id string) error
	NewID() string
}
