package state

import "github.com/five82/bufeadmin/internal/realtime"

// Applier adapts a Store to realtime.Handler. It applies every pushed change
// and collects the outcomes and add-product responses until Drain is called.
// It is not safe for concurrent use; one event loop owns it.
type Applier struct {
	store     *Store
	outcomes  []Outcome
	responses []realtime.AddProductResponse
}

var _ realtime.Handler = (*Applier)(nil)

// NewApplier returns an Applier writing into s.
func NewApplier(s *Store) *Applier {
	return &Applier{store: s}
}

func (a *Applier) HandleOrder(m realtime.OrderUpdate) {
	a.outcomes = append(a.outcomes, a.store.ApplyOrder(m.Action, m.Order))
}

func (a *Applier) HandleProduct(m realtime.ProductUpdate) {
	a.outcomes = append(a.outcomes, a.store.ApplyProduct(m.Action, m.Product))
}

func (a *Applier) HandleAddProductResponse(m realtime.AddProductResponse) {
	a.responses = append(a.responses, m)
}

// Drain returns everything collected since the previous call.
func (a *Applier) Drain() ([]Outcome, []realtime.AddProductResponse) {
	outcomes, responses := a.outcomes, a.responses
	a.outcomes, a.responses = nil, nil
	return outcomes, responses
}
