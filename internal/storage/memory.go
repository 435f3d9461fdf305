package storage

import (
	"context"
	"sync"
)

type memoryStore struct {
	mu        sync.RWMutex
	instances map[string]map[string][]byte
}

// NewMemory creates an in-memory store. Updates are serialized by a single
// mutex, which gives every instance a total order of calls.
func NewMemory() Store {
	return &memoryStore{instances: make(map[string]map[string][]byte)}
}

func (s *memoryStore) Update(ctx context.Context, instance string, fn func(Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &memoryTx{base: s.instances[instance], pending: make(map[string][]byte)}
	if err := fn(tx); err != nil {
		return err
	}
	if len(tx.pending) == 0 {
		return nil
	}

	data, ok := s.instances[instance]
	if !ok {
		data = make(map[string][]byte, len(tx.pending))
		s.instances[instance] = data
	}
	for k, v := range tx.pending {
		data[k] = v
	}
	return nil
}

func (s *memoryStore) View(ctx context.Context, instance string, fn func(Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	return fn(&memoryTx{base: s.instances[instance], readOnly: true})
}

type memoryTx struct {
	base     map[string][]byte
	pending  map[string][]byte
	readOnly bool
}

func (t *memoryTx) lookup(key Key) ([]byte, bool) {
	if raw, ok := t.pending[key.String()]; ok {
		return raw, true
	}
	raw, ok := t.base[key.String()]
	return raw, ok
}

func (t *memoryTx) Get(key Key, dst any) (bool, error) {
	raw, ok := t.lookup(key)
	if !ok {
		return false, nil
	}
	return true, decode(key, raw, dst)
}

func (t *memoryTx) Set(key Key, value any) error {
	if t.readOnly {
		return ErrReadOnly
	}
	raw, err := encode(key, value)
	if err != nil {
		return err
	}
	t.pending[key.String()] = raw
	return nil
}

func (t *memoryTx) Has(key Key) (bool, error) {
	_, ok := t.lookup(key)
	return ok, nil
}
