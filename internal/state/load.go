package state

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/five82/bufeadmin/internal/bufe"
)

// Loaded is a full REST snapshot, fetched off the event loop and installed
// on it.
type Loaded struct {
	Orders   []bufe.Order
	Products []bufe.Product
	Hours    bufe.OpeningHoursSnapshot
}

// Fetch loads orders, products and opening hours concurrently. The first
// failure cancels the others.
func Fetch(ctx context.Context, api bufe.API) (Loaded, error) {
	var out Loaded
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		orders, err := api.FetchOrders(ctx)
		if err != nil {
			return fmt.Errorf("load orders: %w", err)
		}
		out.Orders = orders
		return nil
	})
	g.Go(func() error {
		products, err := api.FetchProducts(ctx)
		if err != nil {
			return fmt.Errorf("load products: %w", err)
		}
		out.Products = products
		return nil
	})
	g.Go(func() error {
		hours, err := api.FetchOpeningHours(ctx)
		if err != nil {
			return fmt.Errorf("load opening hours: %w", err)
		}
		out.Hours = hours
		return nil
	})
	if err := g.Wait(); err != nil {
		return Loaded{}, err
	}
	return out, nil
}

// Install replaces every table with l.
func (s *Store) Install(l Loaded) {
	s.ReplaceOrders(l.Orders)
	s.ReplaceProducts(l.Products)
	s.ReplaceOpeningHours(l.Hours)
}
