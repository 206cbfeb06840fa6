// Package events publishes domain events after their transaction commits.
package events

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	SaleCompleted       = "sale.completed"
	LoanCreated         = "loan.created"
	LoanPaymentRecorded = "loan.payment_recorded"
	LoanCancelled       = "loan.cancelled"
	StockReceived       = "stock.received"
	ProductLowStock     = "product.low_stock"
)

type Event struct {
	ID         string      `json:"event_id"`
	Type       string      `json:"event_type"`
	Key        string      `json:"-"` // Partition key, the aggregate id
	Payload    interface{} `json:"payload"`
	OccurredAt time.Time   `json:"timestamp"`
}

func New(eventType, key string, payload interface{}) Event {
	return Event{
		ID:         uuid.New().String(),
		Type:       eventType,
		Key:        key,
		Payload:    payload,
		OccurredAt: time.Now().UTC(),
	}
}

// Publisher delivers events. Delivery is best effort: callers log failures
// and never undo committed work because of them.
type Publisher interface {
	Publish(ctx context.Context, events ...Event) error
}

type nopPublisher struct{}

func NewNopPublisher() Publisher { return nopPublisher{} }

func (nopPublisher) Publish(context.Context, ...Event) error { return nil }

// Recorder keeps published events in memory.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *Recorder) Publish(_ context.Context, events ...Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, events...)
	return nil
}

// Types returns the types of the recorded events in publish order.
func (r *Recorder) Types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.events))
	for i, e := range r.events {
		out[i] = e.Type
	}
	return out
}

func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}
