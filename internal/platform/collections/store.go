// Package collections implements persistence for named record collections.
// Collections are JSON arrays stored either as flat files on disk or as keys
// in a redis-compatible document store.
package collections

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// Well-known collection names used across the application.
const (
	Products       = "products"
	Cart           = "cart"
	Orders         = "orders"
	Addresses      = "addresses"
	Users          = "users"
	Reviews        = "reviews"
	BuyNowIntents  = "buy_now_intents"
	PasswordResets = "password_resets"
)

var (
	// ErrInvalidName indicates the collection name is empty or malformed.
	ErrInvalidName = errors.New("collections: invalid collection name")
	// ErrUnavailable indicates the underlying medium rejected the operation.
	ErrUnavailable = errors.New("collections: store unavailable")
)

// Store is the persistence collaborator: load and save named collections as
// raw JSON documents, plus synchronous cache invalidation. A missing
// collection reads as an empty array, never as an error.
type Store interface {
	Read(ctx context.Context, name string) ([]byte, error)
	Write(ctx context.Context, name string, data []byte) error
	Invalidate(name string)
}

// ReadAll loads and decodes a whole collection. Empty or absent collections
// decode to a nil slice.
func ReadAll[T any](ctx context.Context, store Store, name string) ([]T, error) {
	raw, err := store.Read(ctx, name)
	if err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return nil, nil
	}
	var records []T
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, fmt.Errorf("collections: decode %q: %w", name, err)
	}
	return records, nil
}

// WriteAll encodes and persists a whole collection. A nil slice is stored as
// an empty array so downstream readers never see JSON null.
func WriteAll[T any](ctx context.Context, store Store, name string, records []T) error {
	if records == nil {
		records = []T{}
	}
	raw, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("collections: encode %q: %w", name, err)
	}
	return store.Write(ctx, name, raw)
}
