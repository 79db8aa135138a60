package bufe

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/publicsuffix"
)

// Admin API paths.
const (
	PathOrders            = "/bufe/admin/api/orders/"
	PathUpdateOrder       = "/bufe/admin/api/update-order/"
	PathArchiveOrder      = "/bufe/admin/api/archive-order/"
	PathArchiveAllDone    = "/bufe/admin/api/archive-all-done/"
	PathProducts          = "/bufe/admin/api/products/"
	PathUpdateProduct     = "/bufe/admin/api/update-product/"
	PathAddProduct        = "/bufe/admin/api/add-product/"
	PathOpeningHours      = "/bufe/admin/api/opening-hours/"
	PathUpdateOpeningHour = "/bufe/admin/api/update-opening-hours/"
	PathUpdateBufe        = "/bufe/admin/api/update-bufe/"
	PathAdminPage         = "/bufe/admin/"
)

// Cookie names used by the backend.
const (
	CSRFCookieName    = "csrftoken"
	SessionCookieName = "sessionid"
	csrfHeaderName    = "X-CSRFToken"
)

const (
	defaultBaseURL   = "http://127.0.0.1:8000"
	defaultUserAgent = "bufeadmin/0.1"
	requestTimeout   = 10 * time.Second
)

// API defines the admin REST operations. *Client implements it; tests and the
// UI depend on the interface.
type API interface {
	FetchOrders(ctx context.Context) ([]Order, error)
	UpdateOrderStatus(ctx context.Context, orderID int64, status string) (Order, error)
	ArchiveOrder(ctx context.Context, orderID int64) error
	ArchiveAllDone(ctx context.Context) (int, error)
	FetchProducts(ctx context.Context) ([]Product, error)
	UpdateProduct(ctx context.Context, productID int64, fields map[string]any) error
	AddProduct(ctx context.Context, product NewProduct) (Product, error)
	FetchOpeningHours(ctx context.Context) (OpeningHoursSnapshot, error)
	UpdateOpeningHours(ctx context.Context, id int64, field, value string) error
	UpdateBufeStatus(ctx context.Context, emergencyClosed bool) error
}

// Ensure Client implements API at compile time.
var _ API = (*Client)(nil)

// Options configure a Client.
type Options struct {
	BaseURL   string
	SessionID string
	CSRFToken string
	UserAgent string
}

// Client talks to the büfé admin HTTP API.
type Client struct {
	baseURL   *url.URL
	http      *http.Client
	jar       http.CookieJar
	csrf      *csrfSource
	userAgent string
}

// NewClient builds a Client for the given backend origin. Session and CSRF
// values, when present, are seeded into the cookie jar so both REST calls and
// the realtime dial carry them.
func NewClient(opts Options) (*Client, error) {
	base, err := parseBaseURL(opts.BaseURL)
	if err != nil {
		return nil, err
	}
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("create cookie jar: %w", err)
	}

	var seed []*http.Cookie
	if session := strings.TrimSpace(opts.SessionID); session != "" {
		seed = append(seed, &http.Cookie{Name: SessionCookieName, Value: session, Path: "/"})
	}
	if token := strings.TrimSpace(opts.CSRFToken); token != "" {
		seed = append(seed, &http.Cookie{Name: CSRFCookieName, Value: token, Path: "/"})
	}
	if len(seed) > 0 {
		jar.SetCookies(base, seed)
	}

	userAgent := opts.UserAgent
	if strings.TrimSpace(userAgent) == "" {
		userAgent = defaultUserAgent
	}

	c := &Client{
		baseURL: base,
		http: &http.Client{
			Timeout: requestTimeout,
			Jar:     jar,
		},
		jar:       jar,
		userAgent: userAgent,
	}
	c.csrf = &csrfSource{client: c}
	return c, nil
}

// Jar returns the cookie jar shared with the realtime dialer.
func (c *Client) Jar() http.CookieJar {
	return c.jar
}

// BaseURL returns a copy of the backend origin.
func (c *Client) BaseURL() *url.URL {
	u := *c.baseURL
	return &u
}

// WebSocketURL derives the realtime endpoint from the backend origin: wss for
// https origins, ws otherwise.
func (c *Client) WebSocketURL(path string) string {
	u := c.BaseURL()
	if u.Scheme == "https" {
		u.Scheme = "wss"
	} else {
		u.Scheme = "ws"
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	u.Path = path
	return u.String()
}

// FetchOrders retrieves the authoritative list of active orders.
func (c *Client) FetchOrders(ctx context.Context) ([]Order, error) {
	var payload struct {
		Orders []Order `json:"orders"`
	}
	if err := c.do(ctx, OpLoadOrders, http.MethodGet, PathOrders, nil, &payload); err != nil {
		return nil, err
	}
	return payload.Orders, nil
}

// UpdateOrderStatus moves an order to a new status and returns the server's view of it.
func (c *Client) UpdateOrderStatus(ctx context.Context, orderID int64, status string) (Order, error) {
	body := map[string]any{"order_id": orderID, "status": status}
	var payload struct {
		Order Order `json:"order"`
	}
	if err := c.do(ctx, OpUpdateOrder, http.MethodPost, PathUpdateOrder, body, &payload); err != nil {
		return Order{}, err
	}
	return payload.Order, nil
}

// ArchiveOrder archives a single order.
func (c *Client) ArchiveOrder(ctx context.Context, orderID int64) error {
	body := map[string]any{"order_id": orderID}
	return c.do(ctx, OpArchiveOrder, http.MethodPost, PathArchiveOrder, body, nil)
}

// ArchiveAllDone archives every handed out order and returns how many were archived.
func (c *Client) ArchiveAllDone(ctx context.Context) (int, error) {
	var payload struct {
		ArchivedCount int `json:"archived_count"`
	}
	if err := c.do(ctx, OpArchiveAll, http.MethodPost, PathArchiveAllDone, nil, &payload); err != nil {
		return 0, err
	}
	return payload.ArchivedCount, nil
}

// FetchProducts retrieves the menu.
func (c *Client) FetchProducts(ctx context.Context) ([]Product, error) {
	var payload struct {
		Products []Product `json:"products"`
	}
	if err := c.do(ctx, OpLoadProducts, http.MethodGet, PathProducts, nil, &payload); err != nil {
		return nil, err
	}
	return payload.Products, nil
}

// UpdateProduct sends changed product fields.
func (c *Client) UpdateProduct(ctx context.Context, productID int64, fields map[string]any) error {
	if len(fields) == 0 {
		return fmt.Errorf("%s: no fields", OpUpdateProduct)
	}
	body := make(map[string]any, len(fields)+1)
	for k, v := range fields {
		body[k] = v
	}
	body["product_id"] = productID
	return c.do(ctx, OpUpdateProduct, http.MethodPost, PathUpdateProduct, body, nil)
}

// AddProduct creates a product over REST. The realtime channel is preferred
// when open; this is the fallback.
func (c *Client) AddProduct(ctx context.Context, product NewProduct) (Product, error) {
	var payload struct {
		Product Product `json:"product"`
	}
	if err := c.do(ctx, OpAddProduct, http.MethodPost, PathAddProduct, product, &payload); err != nil {
		return Product{}, err
	}
	return payload.Product, nil
}

// FetchOpeningHours retrieves the cafeteria status and opening periods.
func (c *Client) FetchOpeningHours(ctx context.Context) (OpeningHoursSnapshot, error) {
	var payload OpeningHoursSnapshot
	if err := c.do(ctx, OpLoadOpeningHours, http.MethodGet, PathOpeningHours, nil, &payload); err != nil {
		return OpeningHoursSnapshot{}, err
	}
	return payload, nil
}

// UpdateOpeningHours changes one field of an opening period.
func (c *Client) UpdateOpeningHours(ctx context.Context, id int64, field, value string) error {
	if field != FieldFromHour && field != FieldToHour {
		return fmt.Errorf("%s: unknown field %q", OpUpdateOpeningHours, field)
	}
	body := map[string]any{"id": id, field: value}
	return c.do(ctx, OpUpdateOpeningHours, http.MethodPost, PathUpdateOpeningHour, body, nil)
}

// UpdateBufeStatus toggles the emergency closed flag.
func (c *Client) UpdateBufeStatus(ctx context.Context, emergencyClosed bool) error {
	body := map[string]any{"rendkivuli_zarva": emergencyClosed}
	return c.do(ctx, OpUpdateBufeStatus, http.MethodPost, PathUpdateBufe, body, nil)
}

type apiResult struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

func (c *Client) do(ctx context.Context, op, method, path string, body, dest any) error {
	if c == nil {
		return fmt.Errorf("client is nil")
	}
	reqURL := c.baseURL.ResolveReference(&url.URL{Path: path})

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%s: encode request: %w", op, err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL.String(), reader)
	if err != nil {
		return fmt.Errorf("%s: create request: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	if method != http.MethodGet {
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Referer", c.baseURL.String()+"/")
		token, err := c.csrf.Token(ctx)
		if err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
		if token != "" {
			req.Header.Set(csrfHeaderName, token)
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s: execute request: %w", op, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 {
		if resp.StatusCode == http.StatusForbidden && method != http.MethodGet {
			// The token may have rotated; resolve it again on the next call.
			c.csrf.reset()
		}
		return &APIError{Op: op, Path: path, StatusCode: resp.StatusCode}
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%s: read response: %w", op, err)
	}
	var result apiResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return fmt.Errorf("%s: decode response: %w", op, err)
	}
	if !result.Success {
		return &APIError{Op: op, Path: path, StatusCode: resp.StatusCode, Message: result.Error}
	}
	if dest == nil {
		return nil
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return fmt.Errorf("%s: decode response: %w", op, err)
	}
	return nil
}

func parseBaseURL(raw string) (*url.URL, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		trimmed = defaultBaseURL
	}
	if !strings.Contains(trimmed, "://") {
		trimmed = "http://" + trimmed
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("parse base_url %q: %w", raw, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("parse base_url %q: unsupported scheme %q", raw, u.Scheme)
	}
	u.Path = ""
	u.RawQuery = ""
	u.Fragment = ""
	return u, nil
}
