// Package storage provides per-instance durable key-value state with
// all-or-nothing transactions.
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

var (
	// ErrReadOnly is returned by Tx.Set inside a View.
	ErrReadOnly = errors.New("storage: read-only transaction")
	// ErrInvalidKey is returned for keys not built with the package constructors.
	ErrInvalidKey = errors.New("storage: invalid key")
)

// Tx reads and writes the storage of one instance within a transaction.
type Tx interface {
	// Get decodes the value stored under key into dst and reports whether it was present.
	Get(key Key, dst any) (bool, error)
	Set(key Key, value any) error
	Has(key Key) (bool, error)
}

// Store persists instance storage. Update runs fn atomically: either every
// Set performed by fn is committed or none is. Updates on the same instance
// never interleave.
type Store interface {
	Update(ctx context.Context, instance string, fn func(Tx) error) error
	View(ctx context.Context, instance string, fn func(Tx) error) error
}

func encode(key Key, value any) ([]byte, error) {
	if key.kind == 0 {
		return nil, ErrInvalidKey
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", key, err)
	}
	return raw, nil
}

func decode(key Key, raw []byte, dst any) error {
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("decode %s: %w", key, err)
	}
	return nil
}

// Get is a typed convenience over Tx.Get.
func Get[T any](tx Tx, key Key) (T, bool, error) {
	var v T
	found, err := tx.Get(key, &v)
	return v, found, err
}
