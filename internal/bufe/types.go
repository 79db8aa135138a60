package bufe

import (
	"strings"
	"time"
)

const bufeTimestampLayout = "2006-01-02 15:04:05"

// Order statuses as used by the backend.
const (
	StatusPlaced    = "leadva"
	StatusWithdrawn = "visszavonva"
	StatusConfirmed = "visszaigasolva"
	StatusDeleted   = "torolve"
	StatusHandedOut = "atadva"
)

// OrderStatuses lists every known order status in workflow order.
var OrderStatuses = []string{
	StatusPlaced,
	StatusConfirmed,
	StatusHandedOut,
	StatusDeleted,
	StatusWithdrawn,
}

var statusLabels = map[string]string{
	StatusPlaced:    "Leadva",
	StatusWithdrawn: "Visszavonva",
	StatusConfirmed: "Visszaigazolva",
	StatusDeleted:   "Törölve",
	StatusHandedOut: "Átadva",
}

// StatusLabel returns the display label for an order status.
func StatusLabel(status string) string {
	if label, ok := statusLabels[strings.ToLower(strings.TrimSpace(status))]; ok {
		return label
	}
	return status
}

// Order mirrors a serialized order from the admin API and realtime channel.
type Order struct {
	ID            int64       `json:"id"`
	Status        string      `json:"allapot"`
	StatusDisplay string      `json:"allapot_display"`
	PlacedAt      string      `json:"leadva"`
	ScheduledAt   string      `json:"idozitve,omitempty"`
	Note          string      `json:"megjegyzes"`
	Total         int         `json:"vegosszeg"`
	User          OrderUser   `json:"user"`
	Items         []OrderItem `json:"items"`
}

// OrderUser is the customer attached to an order.
type OrderUser struct {
	ID       int64  `json:"id,omitempty"`
	FullName string `json:"full_name"`
	Email    string `json:"email"`
}

// OrderItem is a single line of an order.
type OrderItem struct {
	ProductID   int64  `json:"termek_id"`
	ProductName string `json:"termek_nev"`
	Quantity    int    `json:"mennyiseg"`
	UnitPrice   int    `json:"termek_ar"`
	LineTotal   int    `json:"osszeg"`
}

// Key returns the order identifier.
func (o Order) Key() int64 { return o.ID }

// Label returns the server supplied status label, falling back to a local one.
func (o Order) Label() string {
	if label := strings.TrimSpace(o.StatusDisplay); label != "" {
		return label
	}
	return StatusLabel(o.Status)
}

// ParsedPlacedAt returns the placement time when it can be parsed.
func (o Order) ParsedPlacedAt() time.Time {
	return parseTime(o.PlacedAt)
}

// NextStatus returns the status a quick "advance" moves the order to.
// Only placed and confirmed orders advance.
func (o Order) NextStatus() (string, bool) {
	switch o.Status {
	case StatusPlaced:
		return StatusConfirmed, true
	case StatusConfirmed:
		return StatusHandedOut, true
	}
	return "", false
}

// Product mirrors a menu product.
type Product struct {
	ID           int64  `json:"id"`
	Name         string `json:"nev"`
	CategoryID   int64  `json:"kategoria_id"`
	CategoryName string `json:"kategoria_nev"`
	Price        int    `json:"ar"`
	MaxPerOrder  int    `json:"max_rendelesenkent"`
	Chilled      bool   `json:"hutve"`
	Available    bool   `json:"elerheto"`
	SoldOut      bool   `json:"kisult"`
}

// Key returns the product identifier.
func (p Product) Key() int64 { return p.ID }

// NewProduct carries the fields needed to create a product.
type NewProduct struct {
	Name        string `json:"nev"`
	CategoryID  int64  `json:"kategoria_id"`
	Price       int    `json:"ar"`
	MaxPerOrder int    `json:"max_rendelesenkent"`
	Chilled     bool   `json:"hutve"`
	Available   bool   `json:"elerheto"`
	SoldOut     bool   `json:"kisult"`
}

// Product field names accepted by the update-product endpoint.
const (
	FieldName        = "nev"
	FieldPrice       = "ar"
	FieldMaxPerOrder = "max_rendelesenkent"
	FieldChilled     = "hutve"
	FieldAvailable   = "elerheto"
	FieldSoldOut     = "kisult"
)

// OpeningHours is one opening period for a weekday.
type OpeningHours struct {
	ID      int64  `json:"id"`
	Weekday int    `json:"weekday"`
	From    string `json:"from_hour"`
	To      string `json:"to_hour"`
}

// Opening hours field names accepted by the update endpoint.
const (
	FieldFromHour = "from_hour"
	FieldToHour   = "to_hour"
)

var weekdayNames = []string{"Hétfő", "Kedd", "Szerda", "Csütörtök", "Péntek", "Szombat", "Vasárnap"}

// WeekdayName returns the Hungarian weekday name (0 = Monday).
func (h OpeningHours) WeekdayName() string {
	if h.Weekday < 0 || h.Weekday >= len(weekdayNames) {
		return "?"
	}
	return weekdayNames[h.Weekday]
}

// Closed reports whether the period has no opening time set.
func (h OpeningHours) Closed() bool {
	return strings.TrimSpace(h.From) == "" || strings.TrimSpace(h.To) == ""
}

// BufeStatus is the cafeteria singleton.
type BufeStatus struct {
	Name            string `json:"nev"`
	EmergencyClosed bool   `json:"rendkivuli_zarva"`
}

// OpeningHoursSnapshot is the payload of the opening hours listing.
type OpeningHoursSnapshot struct {
	Bufe  BufeStatus     `json:"bufe"`
	Hours []OpeningHours `json:"opening_hours"`
}

func parseTime(value string) time.Time {
	if value == "" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339} {
		if t, err := time.Parse(layout, value); err == nil {
			return t
		}
	}
	if t, err := time.ParseInLocation(bufeTimestampLayout, value, time.Local); err == nil {
		return t
	}
	return time.Time{}
}

// FormatTimestamp renders a timestamp as YYYY.MM.DD HH:MM in local time.
func FormatTimestamp(value string) string {
	t := parseTime(value)
	if t.IsZero() {
		return value
	}
	return t.Local().Format("2006.01.02 15:04")
}
