package kaspi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"sync"
	"time"
)

// Client talks to the marketplace seller cabinet. Authentication is
// session-based: login establishes a cookie session, and any request that
// comes back 401 triggers exactly one re-login and retry before the error is
// surfaced to the caller.
type Client struct {
	baseURL    string
	email      string
	password   string
	httpClient *http.Client

	mu       sync.Mutex
	loggedIn bool
}

// NewClient creates a marketplace client for one merchant's credentials
func NewClient(baseURL, email, password string, timeout time.Duration) *Client {
	jar, _ := cookiejar.New(nil)
	return &Client{
		baseURL:  baseURL,
		email:    email,
		password: password,
		httpClient: &http.Client{
			Timeout: timeout,
			Jar:     jar,
		},
	}
}

// login establishes a fresh cabinet session.
func (c *Client) login(ctx context.Context) error {
	payload, _ := json.Marshal(map[string]string{
		"email":    c.email,
		"password": c.password,
	})

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/auth/login", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("error building login request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("error logging in: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("login failed (%d): %s", resp.StatusCode, string(body))
	}

	c.mu.Lock()
	c.loggedIn = true
	c.mu.Unlock()
	return nil
}

// doAuthed performs a request against the cabinet, logging in first if no
// session exists and retrying once after a re-login on 401.
func (c *Client) doAuthed(ctx context.Context, method, path string, body []byte) ([]byte, error) {
	c.mu.Lock()
	needLogin := !c.loggedIn
	c.mu.Unlock()

	if needLogin {
		if err := c.login(ctx); err != nil {
			return nil, err
		}
	}

	data, status, err := c.do(ctx, method, path, body)
	if err != nil {
		return nil, err
	}
	if status == http.StatusUnauthorized {
		// Session expired. Re-login once, then surface the error.
		if err := c.login(ctx); err != nil {
			return nil, fmt.Errorf("session expired and re-login failed: %w", err)
		}
		data, status, err = c.do(ctx, method, path, body)
		if err != nil {
			return nil, err
		}
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("API error (%d): %s", status, string(data))
	}
	return data, nil
}

func (c *Client) do(ctx context.Context, method, path string, body []byte) ([]byte, int, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, 0, fmt.Errorf("error building request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("error calling marketplace: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, fmt.Errorf("error reading response: %w", err)
	}
	return data, resp.StatusCode, nil
}

// GetOrders fetches all orders created inside [from, to], paging until the
// marketplace reports no more.
func (c *Client) GetOrders(ctx context.Context, from, to time.Time) ([]Order, error) {
	var all []Order
	page := 0

	for {
		params := url.Values{}
		params.Set("creationDateFrom", from.Format(time.RFC3339))
		params.Set("creationDateTo", to.Format(time.RFC3339))
		params.Set("page", fmt.Sprintf("%d", page))
		params.Set("size", "100")

		data, err := c.doAuthed(ctx, http.MethodGet, "/orders?"+params.Encode(), nil)
		if err != nil {
			return nil, err
		}

		var result struct {
			Orders  []Order `json:"orders"`
			HasMore bool    `json:"hasMore"`
		}
		if err := json.Unmarshal(data, &result); err != nil {
			return nil, fmt.Errorf("error parsing orders: %w", err)
		}

		all = append(all, result.Orders...)
		if !result.HasMore {
			break
		}
		page++
	}

	return all, nil
}

// GetProducts fetches the merchant's product listings
func (c *Client) GetProducts(ctx context.Context) ([]Product, error) {
	data, err := c.doAuthed(ctx, http.MethodGet, "/products", nil)
	if err != nil {
		return nil, err
	}

	var result struct {
		Products []Product `json:"products"`
	}
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("error parsing products: %w", err)
	}
	return result.Products, nil
}

// UpdatePrice sets a new price on a listing
func (c *Client) UpdatePrice(ctx context.Context, sku string, price float64) error {
	payload, _ := json.Marshal(map[string]interface{}{
		"sku":   sku,
		"price": price,
	})

	_, err := c.doAuthed(ctx, http.MethodPut, "/products/price", payload)
	return err
}
