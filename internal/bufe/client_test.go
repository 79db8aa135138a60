package bufe

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseBaseURL_DefaultsAndNormalizes(t *testing.T) {
	u, err := parseBaseURL("")
	if err != nil {
		t.Fatalf("parseBaseURL returned error: %v", err)
	}
	if u.String() != defaultBaseURL {
		t.Fatalf("base = %q, want %q", u.String(), defaultBaseURL)
	}

	u, err = parseBaseURL("https://bufe.example.com:8443/path?x=1#frag")
	if err != nil {
		t.Fatalf("parseBaseURL returned error: %v", err)
	}
	if u.Path != "" || u.RawQuery != "" || u.Fragment != "" {
		t.Fatalf("url not normalized: %q", u.String())
	}

	if _, err := parseBaseURL("ftp://example.com"); err == nil {
		t.Fatalf("parseBaseURL(ftp) returned nil error, want unsupported scheme")
	}
}

func TestClient_WebSocketURLFollowsTransportSecurity(t *testing.T) {
	cases := []struct {
		base string
		want string
	}{
		{"http://127.0.0.1:8000", "ws://127.0.0.1:8000/ws/bufe/orders/"},
		{"https://bufe.example.com", "wss://bufe.example.com/ws/bufe/orders/"},
		{"bufe.local:9000", "ws://bufe.local:9000/ws/bufe/orders/"},
	}
	for _, tc := range cases {
		c, err := NewClient(Options{BaseURL: tc.base})
		require.NoError(t, err)
		assert.Equal(t, tc.want, c.WebSocketURL("/ws/bufe/orders/"))
	}

	c, err := NewClient(Options{BaseURL: "http://h"})
	require.NoError(t, err)
	assert.Equal(t, "ws://h/ws/x/", c.WebSocketURL("ws/x/"))
}

func TestClient_OrderEndpointsSendBodiesAndCSRF(t *testing.T) {
	t.Parallel()

	type call struct {
		path string
		csrf string
		body map[string]any
	}
	calls := make(chan call, 8)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		if r.Method == http.MethodPost && r.ContentLength != 0 {
			_ = json.NewDecoder(r.Body).Decode(&body)
		}
		calls <- call{path: r.URL.Path, csrf: r.Header.Get("X-CSRFToken"), body: body}

		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case PathOrders:
			_, _ = w.Write([]byte(`{"success":true,"orders":[{"id":7,"allapot":"leadva","items":[{"termek_nev":"Kifli","mennyiseg":2}]}]}`))
		case PathUpdateOrder:
			_, _ = w.Write([]byte(`{"success":true,"order":{"id":7,"allapot":"visszaigasolva"}}`))
		case PathArchiveOrder:
			_, _ = w.Write([]byte(`{"success":true}`))
		case PathArchiveAllDone:
			_, _ = w.Write([]byte(`{"success":true,"archived_count":3}`))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(server.Close)

	c, err := NewClient(Options{BaseURL: server.URL, CSRFToken: "tok123", SessionID: "sess"})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	t.Cleanup(cancel)

	orders, err := c.FetchOrders(ctx)
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, int64(7), orders[0].ID)
	assert.Equal(t, StatusPlaced, orders[0].Status)
	assert.Equal(t, "Kifli", orders[0].Items[0].ProductName)
	got := <-calls
	assert.Empty(t, got.csrf, "GET must not carry a CSRF header")

	order, err := c.UpdateOrderStatus(ctx, 7, StatusConfirmed)
	require.NoError(t, err)
	assert.Equal(t, StatusConfirmed, order.Status)
	got = <-calls
	assert.Equal(t, "tok123", got.csrf)
	assert.Equal(t, float64(7), got.body["order_id"])
	assert.Equal(t, StatusConfirmed, got.body["status"])

	require.NoError(t, c.ArchiveOrder(ctx, 7))
	got = <-calls
	assert.Equal(t, PathArchiveOrder, got.path)
	assert.Equal(t, float64(7), got.body["order_id"])

	count, err := c.ArchiveAllDone(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}

func TestClient_ProductAndOpeningHoursEndpoints(t *testing.T) {
	t.Parallel()

	var mu sync.Mutex
	bodies := make(map[string]map[string]any)
	bodyFor := func(path string) map[string]any {
		mu.Lock()
		defer mu.Unlock()
		return bodies[path]
	}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		if r.Method == http.MethodPost && r.ContentLength != 0 {
			_ = json.NewDecoder(r.Body).Decode(&body)
		}
		mu.Lock()
		bodies[r.URL.Path] = body
		mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case PathProducts:
			_, _ = w.Write([]byte(`{"success":true,"products":[{"id":1,"nev":"Kakaós csiga","ar":450,"elerheto":true}]}`))
		case PathAddProduct:
			_, _ = w.Write([]byte(`{"success":true,"product":{"id":9,"nev":"Pogácsa","ar":200}}`))
		case PathUpdateProduct, PathUpdateOpeningHour, PathUpdateBufe:
			_, _ = w.Write([]byte(`{"success":true}`))
		case PathOpeningHours:
			_, _ = w.Write([]byte(`{"success":true,"bufe":{"nev":"Iskolai Büfé","rendkivuli_zarva":true},"opening_hours":[{"id":3,"weekday":0,"from_hour":"07:30","to_hour":"14:00"}]}`))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(server.Close)

	c, err := NewClient(Options{BaseURL: server.URL, CSRFToken: "tok"})
	require.NoError(t, err)
	ctx := context.Background()

	products, err := c.FetchProducts(ctx)
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.True(t, products[0].Available)

	require.NoError(t, c.UpdateProduct(ctx, 1, map[string]any{FieldAvailable: false}))
	assert.Equal(t, float64(1), bodyFor(PathUpdateProduct)["product_id"])
	assert.Equal(t, false, bodyFor(PathUpdateProduct)[FieldAvailable])

	created, err := c.AddProduct(ctx, NewProduct{Name: "Pogácsa", CategoryID: 2, Price: 200, MaxPerOrder: 5, Available: true})
	require.NoError(t, err)
	assert.Equal(t, int64(9), created.ID)
	add := bodyFor(PathAddProduct)
	for _, key := range []string{"nev", "kategoria_id", "ar", "max_rendelesenkent", "hutve", "elerheto", "kisult"} {
		assert.Contains(t, add, key)
	}

	snapshot, err := c.FetchOpeningHours(ctx)
	require.NoError(t, err)
	assert.True(t, snapshot.Bufe.EmergencyClosed)
	require.Len(t, snapshot.Hours, 1)
	assert.Equal(t, "Hétfő", snapshot.Hours[0].WeekdayName())

	require.NoError(t, c.UpdateOpeningHours(ctx, 3, FieldToHour, "15:00"))
	assert.Equal(t, "15:00", bodyFor(PathUpdateOpeningHour)[FieldToHour])
	assert.Equal(t, float64(3), bodyFor(PathUpdateOpeningHour)["id"])

	require.NoError(t, c.UpdateBufeStatus(ctx, false))
	assert.Equal(t, false, bodyFor(PathUpdateBufe)["rendkivuli_zarva"])

	assert.Error(t, c.UpdateOpeningHours(ctx, 3, "weekday", "2"))
	assert.Error(t, c.UpdateProduct(ctx, 1, nil))
}

func TestClient_HTTPErrorAndRejection(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case PathOrders:
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte("{not-json"))
		case PathArchiveOrder:
			http.Error(w, "nope", http.StatusInternalServerError)
		case PathUpdateOrder:
			_, _ = w.Write([]byte(`{"success":false,"error":"Érvénytelen állapot"}`))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(server.Close)

	c, err := NewClient(Options{BaseURL: server.URL, CSRFToken: "tok"})
	require.NoError(t, err)

	_, err = c.FetchOrders(context.Background())
	if err == nil || !strings.Contains(err.Error(), "decode response") {
		t.Fatalf("FetchOrders error = %v, want decode response error", err)
	}

	err = c.ArchiveOrder(context.Background(), 1)
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusInternalServerError, apiErr.StatusCode)
	assert.False(t, apiErr.Rejected())
	assert.Equal(t, "Hiba történt a rendelés archiválása során.", UserMessage(OpArchiveOrder, err))

	_, err = c.UpdateOrderStatus(context.Background(), 1, "bogus")
	require.True(t, errors.As(err, &apiErr))
	assert.True(t, apiErr.Rejected())
	assert.Equal(t, "Hiba: Érvénytelen állapot", UserMessage(OpUpdateOrder, err))
}

func TestClient_CSRFFromAdminPage(t *testing.T) {
	t.Parallel()

	var pageHits atomic.Int32
	var gotToken atomic.Value
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case PathAdminPage:
			pageHits.Add(1)
			w.Header().Set("Content-Type", "text/html")
			_, _ = w.Write([]byte(`<html><head><meta name="csrf-token" content="from-meta"></head>
<body><form><input type="hidden" name="csrfmiddlewaretoken" value="from-field"></form></body></html>`))
		case PathUpdateBufe:
			gotToken.Store(r.Header.Get("X-CSRFToken"))
			_, _ = w.Write([]byte(`{"success":true}`))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(server.Close)

	c, err := NewClient(Options{BaseURL: server.URL})
	require.NoError(t, err)

	require.NoError(t, c.UpdateBufeStatus(context.Background(), true))
	require.NoError(t, c.UpdateBufeStatus(context.Background(), false))
	assert.Equal(t, "from-field", gotToken.Load())
	assert.Equal(t, int32(1), pageHits.Load(), "page token should be cached")
}

func TestClient_ForbiddenRefreshesPageToken(t *testing.T) {
	t.Parallel()

	var pageHits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case PathAdminPage:
			token := "old"
			if pageHits.Add(1) > 1 {
				token = "rotated"
			}
			w.Header().Set("Content-Type", "text/html")
			_, _ = w.Write([]byte(`<input type="hidden" name="csrfmiddlewaretoken" value="` + token + `">`))
		case PathUpdateBufe:
			if r.Header.Get("X-CSRFToken") != "rotated" {
				w.WriteHeader(http.StatusForbidden)
				return
			}
			_, _ = w.Write([]byte(`{"success":true}`))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(server.Close)

	c, err := NewClient(Options{BaseURL: server.URL})
	require.NoError(t, err)

	err = c.UpdateBufeStatus(context.Background(), true)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusForbidden, apiErr.StatusCode)

	require.NoError(t, c.UpdateBufeStatus(context.Background(), true))
	assert.Equal(t, int32(2), pageHits.Load(), "page token should be fetched again after 403")
}

func TestExtractCSRF(t *testing.T) {
	field, meta, err := extractCSRF(strings.NewReader(`<meta name="csrf-token" content=" m ">`))
	require.NoError(t, err)
	assert.Empty(t, field)
	assert.Equal(t, "m", meta)
	assert.Equal(t, "m", firstNonEmpty(field, meta))

	field, meta, err = extractCSRF(strings.NewReader(`<p>nothing here</p>`))
	require.NoError(t, err)
	assert.Empty(t, field)
	assert.Empty(t, meta)
}

func TestOrderHelpers(t *testing.T) {
	next, ok := Order{Status: StatusPlaced}.NextStatus()
	assert.True(t, ok)
	assert.Equal(t, StatusConfirmed, next)

	next, ok = Order{Status: StatusConfirmed}.NextStatus()
	assert.True(t, ok)
	assert.Equal(t, StatusHandedOut, next)

	_, ok = Order{Status: StatusHandedOut}.NextStatus()
	assert.False(t, ok)

	assert.Equal(t, "Visszaigazolva", Order{Status: StatusConfirmed}.Label())
	assert.Equal(t, "Egyedi", Order{Status: StatusConfirmed, StatusDisplay: "Egyedi"}.Label())

	assert.Equal(t, "?", OpeningHours{Weekday: 9}.WeekdayName())
	assert.True(t, OpeningHours{From: "08:00"}.Closed())
}
