// Package memory is an in-process implementation of every repository, used
// by tests and by local runs without a database.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/fekuna/omnipos-sales-service/internal/model"
)

type txKey struct{}

type state struct {
	units      map[string]model.Unit
	products   map[string]model.Product
	lots       map[string]model.Lot
	sales      map[string]model.Sale
	operations []model.Operation
	loans      map[string]model.Loan
	payments   []model.LoanPayment
}

func newState() *state {
	return &state{
		units:    map[string]model.Unit{},
		products: map[string]model.Product{},
		lots:     map[string]model.Lot{},
		sales:    map[string]model.Sale{},
		loans:    map[string]model.Loan{},
	}
}

func (s *state) clone() *state {
	c := newState()
	for k, v := range s.units {
		c.units[k] = v
	}
	for k, v := range s.products {
		c.products[k] = v
	}
	for k, v := range s.lots {
		c.lots[k] = v
	}
	for k, v := range s.sales {
		v.Operations = nil
		c.sales[k] = v
	}
	for k, v := range s.loans {
		c.loans[k] = v
	}
	c.operations = append([]model.Operation(nil), s.operations...)
	c.payments = append([]model.LoanPayment(nil), s.payments...)
	return c
}

// Store holds all entities behind one mutex. A transaction holds the mutex
// for its whole duration, so transactions are serialised and a failed one
// restores the snapshot taken when it began.
type Store struct {
	mu     sync.Mutex
	data   *state
	faults map[string]error
}

func New() *Store {
	return &Store{data: newState(), faults: map[string]error{}}
}

func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if inTx(ctx) {
		return fn(ctx)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.data.clone()
	if err := fn(context.WithValue(ctx, txKey{}, true)); err != nil {
		s.data = snapshot
		return err
	}
	return nil
}

// Fail makes every later call of op return err, e.g. Fail("operations.create", err).
// A nil err clears the fault.
func (s *Store) Fail(op string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		delete(s.faults, op)
		return
	}
	s.faults[op] = err
}

func (s *Store) fault(op string) error {
	return s.faults[op]
}

// lock takes the store mutex unless ctx already runs inside WithinTx.
func (s *Store) lock(ctx context.Context) func() {
	if inTx(ctx) {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

func inTx(ctx context.Context) bool {
	v, _ := ctx.Value(txKey{}).(bool)
	return v
}

func (s *Store) Units() *UnitRepository { return &UnitRepository{s: s} }
func (s *Store) Products() *ProductRepository { return &ProductRepository{s: s} }
func (s *Store) Inventory() *InventoryRepository { return &InventoryRepository{s: s} }
func (s *Store) Sales() *SaleRepository { return &SaleRepository{s: s} }
func (s *Store) Loans() *LoanRepository { return &LoanRepository{s: s} }

func contains(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}

// page applies the same offset pagination the SQL repositories use.
func page[T any](items []T, page, pageSize int) []T {
	if pageSize <= 0 {
		return items
	}
	if page < 1 {
		page = 1
	}
	start := (page - 1) * pageSize
	if start >= len(items) {
		return []T{}
	}
	end := start + pageSize
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}

func sortBy[T any](items []T, less func(a, b T) bool) {
	sort.SliceStable(items, func(i, j int) bool { return less(items[i], items[j]) })
}
