package bufe

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"golang.org/x/net/html"
)

const (
	csrfFieldName = "csrfmiddlewaretoken"
	csrfMetaName  = "csrf-token"
)

// csrfSource resolves the CSRF token attached to mutating calls. The first
// match wins: the csrftoken cookie, then the hidden form field on the admin
// page, then the csrf-token meta tag.
type csrfSource struct {
	client *Client

	mu     sync.Mutex
	cached string
}

// Token returns the current CSRF token, or "" when none could be found.
func (s *csrfSource) Token(ctx context.Context) (string, error) {
	if token := s.cookieToken(); token != "" {
		return token, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cached != "" {
		return s.cached, nil
	}

	field, meta, err := s.fetchPageTokens(ctx)
	if err != nil {
		return "", fmt.Errorf("resolve csrf token: %w", err)
	}
	// Loading the page usually sets the cookie as well.
	if token := s.cookieToken(); token != "" {
		return token, nil
	}
	s.cached = firstNonEmpty(field, meta)
	return s.cached, nil
}

// reset drops a token taken from the admin page.
func (s *csrfSource) reset() {
	s.mu.Lock()
	s.cached = ""
	s.mu.Unlock()
}

func (s *csrfSource) cookieToken() string {
	if s.client == nil || s.client.jar == nil {
		return ""
	}
	for _, cookie := range s.client.jar.Cookies(s.client.baseURL) {
		if cookie.Name == CSRFCookieName {
			if value, err := url.QueryUnescape(cookie.Value); err == nil {
				return strings.TrimSpace(value)
			}
			return strings.TrimSpace(cookie.Value)
		}
	}
	return ""
}

func (s *csrfSource) fetchPageTokens(ctx context.Context) (string, string, error) {
	c := s.client
	pageURL := c.baseURL.ResolveReference(&url.URL{Path: PathAdminPage})
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL.String(), nil)
	if err != nil {
		return "", "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "text/html")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", "", fmt.Errorf("execute request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 {
		// No page means no embedded token; the cookie path may still work.
		return "", "", nil
	}
	return extractCSRF(resp.Body)
}

// extractCSRF scans an HTML document for the hidden csrfmiddlewaretoken input
// and the csrf-token meta tag.
func extractCSRF(r io.Reader) (field, meta string, err error) {
	tokenizer := html.NewTokenizer(r)
	for {
		switch tokenizer.Next() {
		case html.ErrorToken:
			if tokenizer.Err() == io.EOF {
				return field, meta, nil
			}
			return field, meta, fmt.Errorf("parse page: %w", tokenizer.Err())
		case html.StartTagToken, html.SelfClosingTagToken:
			tok := tokenizer.Token()
			switch tok.Data {
			case "input":
				if field == "" && attr(tok, "name") == csrfFieldName {
					field = strings.TrimSpace(attr(tok, "value"))
				}
			case "meta":
				if meta == "" && attr(tok, "name") == csrfMetaName {
					meta = strings.TrimSpace(attr(tok, "content"))
				}
			}
		}
	}
}

func attr(tok html.Token, name string) string {
	for _, a := range tok.Attr {
		if strings.EqualFold(a.Key, name) {
			return a.Val
		}
	}
	return ""
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
