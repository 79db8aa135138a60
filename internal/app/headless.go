package app

import (
	"context"

	"github.com/five82/bufeadmin/internal/realtime"
	"github.com/five82/bufeadmin/internal/state"
)

// runHeadless consumes channel updates until the channel shuts down,
// reconciling every frame into the store and logging what changed.
func (c *Controller) runHeadless(ctx context.Context) error {
	applier := state.NewApplier(c.Store)
	dispatcher := realtime.NewDispatcher(applier, c.Logger)
	wasDown := false

	for upd := range c.Conn.Updates() {
		switch u := upd.(type) {
		case realtime.StatusUpdate:
			switch u.Status {
			case realtime.StatusConnected:
				// Frames may have been missed while the channel was down.
				if wasDown {
					c.reloadOrders(ctx)
				}
				wasDown = false
			case realtime.StatusDisconnected, realtime.StatusFailed:
				wasDown = true
			}
			if u.Status == realtime.StatusFailed {
				c.Logger.Error("realtime channel gave up", "max_attempts", realtime.MaxReconnectAttempts)
			}

		case realtime.ReconnectScheduled:
			// Already logged by the channel.

		case realtime.FrameUpdate:
			if err := dispatcher.DispatchFrame(u.Data); err != nil {
				continue
			}
			outcomes, responses := applier.Drain()
			for _, resp := range responses {
				if resp.Success && resp.Product != nil {
					c.Logger.Info("product added", "product_id", resp.Product.ID, "name", resp.Product.Name)
				} else {
					c.Logger.Warn("product add rejected", "error", resp.Error)
				}
			}
			for _, out := range outcomes {
				c.applyOutcome(ctx, out)
			}
		}
	}
	return nil
}

func (c *Controller) applyOutcome(ctx context.Context, out state.Outcome) {
	if !out.Changed {
		return
	}
	if out.Notify {
		c.Logger.Info("new order", "order_id", out.Highlight)
		go func() {
			if err := c.Player.Play(ctx); err != nil {
				c.Logger.Warn("notification failed", "error", err)
			}
		}()
	}
	if out.Reload {
		if out.Product {
			c.reloadProducts(ctx)
		} else {
			c.reloadOrders(ctx)
		}
	}
	c.Logger.Info("store reconciled", "count", state.CountLabel(c.Store.OrderCount()))
}

func (c *Controller) reloadOrders(ctx context.Context) {
	orders, err := c.Client.FetchOrders(ctx)
	if err != nil {
		c.Store.RecordLoadError(err)
		c.Logger.Warn("order reload failed", "error", err)
		return
	}
	c.Store.ReplaceOrders(orders)
	c.Logger.Info("orders reloaded", "orders", len(orders))
}

func (c *Controller) reloadProducts(ctx context.Context) {
	products, err := c.Client.FetchProducts(ctx)
	if err != nil {
		c.Store.RecordLoadError(err)
		c.Logger.Warn("product reload failed", "error", err)
		return
	}
	c.Store.ReplaceProducts(products)
	c.Logger.Info("products reloaded", "products", len(products))
}
