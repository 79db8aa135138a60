package state

import (
	"fmt"
	"sort"
	"strings"

	"github.com/five82/bufeadmin/internal/bufe"
)

// Filter selects which orders are displayed: one status, or every order.
type Filter string

// FilterAll displays every order.
const FilterAll Filter = "all"

// OrderFilters is the tab order used when cycling filters.
var OrderFilters = []Filter{
	FilterAll,
	Filter(bufe.StatusPlaced),
	Filter(bufe.StatusConfirmed),
	Filter(bufe.StatusHandedOut),
	Filter(bufe.StatusDeleted),
	Filter(bufe.StatusWithdrawn),
}

// ParseFilter maps a persisted value back to a Filter, defaulting to FilterAll.
func ParseFilter(value string) Filter {
	v := Filter(strings.ToLower(strings.TrimSpace(value)))
	for _, f := range OrderFilters {
		if f == v {
			return f
		}
	}
	return FilterAll
}

// Next returns the filter after f in tab order.
func (f Filter) Next() Filter {
	for i, candidate := range OrderFilters {
		if candidate == f {
			return OrderFilters[(i+1)%len(OrderFilters)]
		}
	}
	return FilterAll
}

// Prev returns the filter before f in tab order.
func (f Filter) Prev() Filter {
	for i, candidate := range OrderFilters {
		if candidate == f {
			return OrderFilters[(i-1+len(OrderFilters))%len(OrderFilters)]
		}
	}
	return FilterAll
}

// Label returns the tab caption.
func (f Filter) Label() string {
	if f == FilterAll {
		return "Összes"
	}
	return bufe.StatusLabel(string(f))
}

// Matches reports whether order is shown under f.
func (f Filter) Matches(order bufe.Order) bool {
	return f == FilterAll || f == "" || order.Status == string(f)
}

// VisibleOrders projects orders through f, newest first. Orders without a
// parseable placement time sort by id.
func VisibleOrders(orders []bufe.Order, f Filter) []bufe.Order {
	out := make([]bufe.Order, 0, len(orders))
	for _, o := range orders {
		if f.Matches(o) {
			out = append(out, o)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		ti, tj := out[i].ParsedPlacedAt(), out[j].ParsedPlacedAt()
		if !ti.Equal(tj) {
			return ti.After(tj)
		}
		return out[i].ID > out[j].ID
	})
	return out
}

// CountLabel renders the order count caption.
func CountLabel(n int) string {
	return fmt.Sprintf("%d rendelés", n)
}

// WindowTitle renders the terminal title for n orders.
func WindowTitle(n int) string {
	return fmt.Sprintf("(%d) Büfé Admin - Rendelések", n)
}
