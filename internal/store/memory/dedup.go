package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/fekuna/omnipos-sales-service/internal/model"
)

// Deduplicator is the in-process sale idempotency guard.
type Deduplicator struct {
	mu   sync.Mutex
	keys map[string]string // key -> sale id, "" while in flight
}

func NewDeduplicator() *Deduplicator {
	return &Deduplicator{keys: map[string]string{}}
}

func (d *Deduplicator) Reserve(_ context.Context, key string) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	saleID, ok := d.keys[key]
	if !ok {
		d.keys[key] = ""
		return "", nil
	}
	if saleID == "" {
		return "", fmt.Errorf("key %s: %w", key, model.ErrDuplicateRequest)
	}
	return saleID, nil
}

func (d *Deduplicator) Complete(_ context.Context, key, saleID string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.keys[key] = saleID
	return nil
}

func (d *Deduplicator) Release(_ context.Context, key string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.keys[key] == "" {
		delete(d.keys, key)
	}
	return nil
}
