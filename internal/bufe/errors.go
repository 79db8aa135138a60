package bufe

import (
	"errors"
	"fmt"
)

// Operation names carried by errors and used for operator messages.
const (
	OpLoadOrders         = "load orders"
	OpUpdateOrder        = "update order"
	OpArchiveOrder       = "archive order"
	OpArchiveAll         = "archive orders"
	OpLoadProducts       = "load products"
	OpUpdateProduct      = "update product"
	OpAddProduct         = "add product"
	OpLoadOpeningHours   = "load opening hours"
	OpUpdateOpeningHours = "update opening hours"
	OpUpdateBufeStatus   = "update büfé status"
)

// APIError reports a failed admin API call. Message is set when the backend
// answered with success=false; otherwise StatusCode carries the HTTP failure.
type APIError struct {
	Op         string
	Path       string
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	}
	return fmt.Sprintf("%s: api %s returned status %d", e.Op, e.Path, e.StatusCode)
}

// Rejected reports whether the backend processed the request and refused it.
func (e *APIError) Rejected() bool {
	return e.Message != ""
}

// UserMessage returns the text shown to the operator when op failed with err.
// Server supplied reasons are shown verbatim; anything else names the operation.
func UserMessage(op string, err error) string {
	if err == nil {
		return ""
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Rejected() {
		return "Hiba: " + apiErr.Message
	}
	if label, ok := operationLabels[op]; ok {
		return fmt.Sprintf("Hiba történt %s során.", label)
	}
	return "Hiba történt a frissítés során."
}

var operationLabels = map[string]string{
	OpLoadOrders:         "a rendelések betöltése",
	OpUpdateOrder:        "a rendelés frissítése",
	OpArchiveOrder:       "a rendelés archiválása",
	OpArchiveAll:         "a rendelések archiválása",
	OpLoadProducts:       "a termékek betöltése",
	OpUpdateProduct:      "a termék frissítése",
	OpAddProduct:         "a termék létrehozása",
	OpLoadOpeningHours:   "a nyitvatartás betöltése",
	OpUpdateOpeningHours: "a nyitvatartás frissítése",
	OpUpdateBufeStatus:   "a büfé állapotának frissítése",
}
