package ui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/bufeadmin/internal/bufe"
	"github.com/five82/bufeadmin/internal/realtime"
	"github.com/five82/bufeadmin/internal/state"
)

// Messages

type updateMsg struct{ update realtime.Update }

type updatesClosedMsg struct{}

type loadedMsg struct {
	loaded state.Loaded
	err    error
}

type ordersLoadedMsg struct {
	orders []bufe.Order
	err    error
}

type productsLoadedMsg struct {
	products []bufe.Product
	err      error
}

type toastExpiredMsg struct{ seq int }

type highlightExpiredMsg struct {
	id      int64
	seq     int
	product bool
}

type logTickMsg time.Time

// Commands

// waitForUpdate blocks on the next channel update. Update re-arms it after
// every updateMsg so updates are handled one at a time in arrival order.
func waitForUpdate(conn Connection) tea.Cmd {
	if conn == nil {
		return nil
	}
	updates := conn.Updates()
	return func() tea.Msg {
		u, ok := <-updates
		if !ok {
			return updatesClosedMsg{}
		}
		return updateMsg{update: u}
	}
}

func (m Model) loadCmd() tea.Cmd {
	if m.api == nil {
		return nil
	}
	api, ctx := m.api, m.ctx
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(ctx, actionTimeout)
		defer cancel()
		loaded, err := state.Fetch(ctx, api)
		return loadedMsg{loaded: loaded, err: err}
	}
}

func (m Model) reloadOrdersCmd() tea.Cmd {
	if m.api == nil {
		return nil
	}
	api, ctx := m.api, m.ctx
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(ctx, actionTimeout)
		defer cancel()
		orders, err := api.FetchOrders(ctx)
		return ordersLoadedMsg{orders: orders, err: err}
	}
}

func (m Model) reloadProductsCmd() tea.Cmd {
	if m.api == nil {
		return nil
	}
	api, ctx := m.api, m.ctx
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(ctx, actionTimeout)
		defer cancel()
		products, err := api.FetchProducts(ctx)
		return productsLoadedMsg{products: products, err: err}
	}
}

// playCmd plays the notification sound off the event loop.
func (m Model) playCmd() tea.Cmd {
	if m.player == nil {
		return nil
	}
	player, ctx, logger := m.player, m.ctx, m.logger
	return func() tea.Msg {
		if err := player.Play(ctx); err != nil {
			logger.Warn("notification failed", "error", err)
		}
		return nil
	}
}

func logTickCmd() tea.Cmd {
	return tea.Tick(logRefreshInterval, func(t time.Time) tea.Msg {
		return logTickMsg(t)
	})
}
