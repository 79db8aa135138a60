package state

import (
	"fmt"
	"sync"
	"time"

	"github.com/five82/bufeadmin/internal/bufe"
	"github.com/five82/bufeadmin/internal/realtime"
)

// Snapshot represents the latest data available to the UI.
type Snapshot struct {
	Orders              []bufe.Order
	Products            []bufe.Product
	Hours               bufe.OpeningHoursSnapshot
	HasHours            bool
	LastUpdated         time.Time
	LastError           error
	ConsecutiveFailures int // Number of consecutive snapshot load failures
}

// IsOffline returns true when the API has failed several loads in a row.
func (s Snapshot) IsOffline() bool {
	return s.ConsecutiveFailures >= 2
}

// Outcome describes what a pushed change requires from the caller.
type Outcome struct {
	// Changed is set when the store was mutated and the view must re-render.
	Changed bool
	// Reload asks for a full snapshot reload from REST.
	Reload bool
	// Notify asks for the new-order sound.
	Notify bool
	// Highlight is the id to flash, or 0.
	Highlight int64
	// Product marks outcomes of product changes; Highlight and Reload then
	// refer to products.
	Product bool
}

// Store coordinates concurrent access to the mirrored entities.
type Store struct {
	mu       sync.RWMutex
	orders   Table[bufe.Order]
	products Table[bufe.Product]
	hours    bufe.OpeningHoursSnapshot
	hasHours bool

	lastUpdated time.Time
	lastError   error
	failures    int
}

// ApplyOrder reconciles one pushed order change. Unknown actions are ignored.
func (s *Store) ApplyOrder(action realtime.Action, order bufe.Order) Outcome {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch action {
	case realtime.ActionNew, realtime.ActionAdd:
		s.orders.Upsert(order)
		return Outcome{Changed: true, Notify: action == realtime.ActionNew, Highlight: order.ID}
	case realtime.ActionUpdate:
		s.orders.Upsert(order)
		return Outcome{Changed: true}
	case realtime.ActionArchive:
		return Outcome{Changed: s.orders.Remove(order.ID)}
	case realtime.ActionArchiveAll:
		s.orders.Clear()
		return Outcome{Changed: true, Reload: true}
	}
	return Outcome{}
}

// ApplyProduct reconciles one pushed product change. Unknown actions are ignored.
func (s *Store) ApplyProduct(action realtime.Action, product bufe.Product) Outcome {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch action {
	case realtime.ActionNew, realtime.ActionAdd:
		s.products.Upsert(product)
		return Outcome{Changed: true, Highlight: product.ID, Product: true}
	case realtime.ActionUpdate:
		s.products.Upsert(product)
		return Outcome{Changed: true, Product: true}
	case realtime.ActionArchive:
		return Outcome{Changed: s.products.Remove(product.ID), Product: true}
	case realtime.ActionArchiveAll:
		s.products.Clear()
		return Outcome{Changed: true, Reload: true, Product: true}
	}
	return Outcome{}
}

// ReplaceOrders installs a full order snapshot.
func (s *Store) ReplaceOrders(orders []bufe.Order) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.orders.Replace(orders)
	s.recordSuccess()
}

// ReplaceProducts installs a full product snapshot.
func (s *Store) ReplaceProducts(products []bufe.Product) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.products.Replace(products)
	s.recordSuccess()
}

// ReplaceOpeningHours installs the büfé status and opening periods.
func (s *Store) ReplaceOpeningHours(snapshot bufe.OpeningHoursSnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hours = cloneHoursSnapshot(snapshot)
	s.hasHours = true
	s.recordSuccess()
}

// RecordLoadError keeps the previous data and records err for visibility.
func (s *Store) RecordLoadError(err error) {
	if err == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastError = err
	s.lastUpdated = time.Now()
	s.failures++
}

// PutProduct stores p and returns the previous record so an optimistic
// change can be reverted.
func (s *Store) PutProduct(p bufe.Product) (bufe.Product, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev, ok := s.products.Get(p.ID)
	s.products.Upsert(p)
	return prev, ok
}

// Product returns the product with id.
func (s *Store) Product(id int64) (bufe.Product, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.products.Get(id)
}

// Order returns the order with id.
func (s *Store) Order(id int64) (bufe.Order, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.orders.Get(id)
}

// SetOpeningHour changes one field of an opening period and returns its
// previous value.
func (s *Store) SetOpeningHour(id int64, field, value string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.hours.Hours {
		h := &s.hours.Hours[i]
		if h.ID != id {
			continue
		}
		switch field {
		case bufe.FieldFromHour:
			prev := h.From
			h.From = value
			return prev, nil
		case bufe.FieldToHour:
			prev := h.To
			h.To = value
			return prev, nil
		default:
			return "", fmt.Errorf("unknown opening hours field %q", field)
		}
	}
	return "", fmt.Errorf("opening hours %d not found", id)
}

// SetEmergencyClosed sets the büfé flag and returns the previous value.
func (s *Store) SetEmergencyClosed(closed bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev := s.hours.Bufe.EmergencyClosed
	s.hours.Bufe.EmergencyClosed = closed
	return prev
}

// OrderCount returns the number of mirrored orders.
func (s *Store) OrderCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.orders.Len()
}

// Snapshot returns a copy of the current state.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := Snapshot{
		Orders:              s.orders.Values(),
		Products:            s.products.Values(),
		Hours:               cloneHoursSnapshot(s.hours),
		HasHours:            s.hasHours,
		LastUpdated:         s.lastUpdated,
		ConsecutiveFailures: s.failures,
	}
	for i := range snap.Orders {
		snap.Orders[i].Items = cloneItems(snap.Orders[i].Items)
	}
	if s.lastError != nil {
		snap.LastError = fmt.Errorf("%w", s.lastError)
	}
	return snap
}

func (s *Store) recordSuccess() {
	s.lastError = nil
	s.lastUpdated = time.Now()
	s.failures = 0
}

func cloneHoursSnapshot(in bufe.OpeningHoursSnapshot) bufe.OpeningHoursSnapshot {
	out := in
	if len(in.Hours) > 0 {
		out.Hours = make([]bufe.OpeningHours, len(in.Hours))
		copy(out.Hours, in.Hours)
	}
	return out
}

func cloneItems(items []bufe.OrderItem) []bufe.OrderItem {
	if len(items) == 0 {
		return nil
	}
	dup := make([]bufe.OrderItem, len(items))
	copy(dup, items)
	return dup
}
