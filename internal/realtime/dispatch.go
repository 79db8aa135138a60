package realtime

import (
	"io"
	"log/slog"
)

// Handler receives decoded frames that need reconciliation. Pong and error
// frames never reach it.
type Handler interface {
	HandleOrder(OrderUpdate)
	HandleProduct(ProductUpdate)
	HandleAddProductResponse(AddProductResponse)
}

// Dispatcher routes inbound frames to a Handler by type. Calls must not
// overlap; the caller's event loop provides the ordering.
type Dispatcher struct {
	handler Handler
	logger  *slog.Logger
}

// NewDispatcher returns a Dispatcher for h. A nil logger discards diagnostics.
func NewDispatcher(h Handler, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Dispatcher{handler: h, logger: logger}
}

// DispatchFrame decodes raw and dispatches it. Malformed or unknown frames are
// logged and dropped; the error is returned for callers that want to count them.
func (d *Dispatcher) DispatchFrame(raw []byte) error {
	msg, err := Decode(raw)
	if err != nil {
		d.logger.Warn("dropping inbound frame", "error", err, "bytes", len(raw))
		return err
	}
	d.Dispatch(msg)
	return nil
}

// Dispatch routes one decoded frame.
func (d *Dispatcher) Dispatch(msg Inbound) {
	if msg == nil {
		return
	}
	switch m := msg.(type) {
	case OrderUpdate:
		d.logger.Debug("order update", "action", m.Action, "order_id", m.Order.ID)
		d.handler.HandleOrder(m)
	case ProductUpdate:
		d.logger.Debug("product update", "action", m.Action, "product_id", m.Product.ID)
		d.handler.HandleProduct(m)
	case AddProductResponse:
		d.logger.Debug("add product response", "success", m.Success)
		d.handler.HandleAddProductResponse(m)
	case Pong:
	case ServerError:
		d.logger.Error("realtime server error", "message", m.Message)
	default:
		d.logger.Warn("unhandled inbound frame", "type", msg.Type())
	}
}
