// Package bufe provides the domain types and the HTTP client for the büfé
// admin API.
//
// # Overview
//
// Orders, products and opening hours are mirrored as plain structs whose JSON
// tags follow the backend's Hungarian field names. The Client wraps every
// admin endpoint used by the console:
//
//   - GET  /bufe/admin/api/orders/: active orders
//   - POST /bufe/admin/api/update-order/: change an order's status
//   - POST /bufe/admin/api/archive-order/: archive one order
//   - POST /bufe/admin/api/archive-all-done/: archive every handed out order
//   - GET  /bufe/admin/api/products/: the menu
//   - POST /bufe/admin/api/update-product/: change product fields
//   - POST /bufe/admin/api/add-product/: create a product
//   - GET  /bufe/admin/api/opening-hours/: büfé status and opening periods
//   - POST /bufe/admin/api/update-opening-hours/: change one period
//   - POST /bufe/admin/api/update-bufe/: toggle the emergency closure
//
// # Sessions and CSRF
//
// The client owns a cookie jar seeded with the configured session id and
// CSRF token. The same jar is handed to the realtime dialer so the WebSocket
// handshake is authenticated the same way as REST calls.
//
// Mutating requests carry an X-CSRFToken header. The token is taken from the
// csrftoken cookie, then from the csrfmiddlewaretoken hidden input of the
// admin page, then from its csrf-token meta tag.
//
// # Error Handling
//
// Every response body is an object with a success flag. HTTP failures and
// success=false both surface as *APIError; UserMessage turns either into the
// Hungarian text shown to the operator:
//
//   - "Hiba: <server message>" when the backend refused the request
//   - "Hiba történt <operation> során." for everything else
//
// # Timestamps
//
// Order timestamps are accepted as RFC3339 or "2006-01-02 15:04:05" in local
// time and rendered as "2006.01.02 15:04".
package bufe
