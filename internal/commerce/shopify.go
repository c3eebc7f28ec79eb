package commerce

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// ErrNotConfigured is returned by a nil Client.
var ErrNotConfigured = errors.New("shopify client is not configured")

// Client is a minimal Shopify Admin REST client for order and customer search.
type Client struct {
	baseURL     string
	accessToken string
	httpClient  *http.Client
}

// NewClient builds a client for shopName. baseURL overrides the shop's
// myshopify.com host and is mainly useful in tests.
func NewClient(shopName, accessToken, apiVersion, baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = fmt.Sprintf("https://%s.myshopify.com", shopName)
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		baseURL:     strings.TrimSuffix(baseURL, "/") + "/admin/api/" + apiVersion,
		accessToken: accessToken,
		httpClient:  &http.Client{Timeout: timeout},
	}
}

// Order is the subset of a Shopify order resource used for context.
type Order struct {
	ID                int64            `json:"id"`
	Name              string           `json:"name"`
	Email             string           `json:"email"`
	CreatedAt         time.Time        `json:"created_at"`
	CancelledAt       *time.Time       `json:"cancelled_at"`
	FulfillmentStatus string           `json:"fulfillment_status"`
	FinancialStatus   string           `json:"financial_status"`
	TotalPrice        string           `json:"total_price"`
	Note              string           `json:"note"`
	Tags              string           `json:"tags"`
	Customer          *OrderCustomer   `json:"customer"`
	LineItems         []OrderLineItem  `json:"line_items"`
	ShippingAddress   *OrderAddress    `json:"shipping_address"`
	Fulfillments      []OrderFulfilled `json:"fulfillments"`
}

type OrderCustomer struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

type OrderLineItem struct {
	Title        string `json:"title"`
	Quantity     int    `json:"quantity"`
	VariantTitle string `json:"variant_title"`
}

type OrderAddress struct {
	City     string `json:"city"`
	Province string `json:"province"`
	Zip      string `json:"zip"`
}

type OrderFulfilled struct {
	TrackingNumber  string `json:"tracking_number"`
	TrackingCompany string `json:"tracking_company"`
	TrackingURL     string `json:"tracking_url"`
}

// Customer is the subset of a Shopify customer resource used for context.
type Customer struct {
	ID          int64     `json:"id"`
	FirstName   string    `json:"first_name"`
	LastName    string    `json:"last_name"`
	Email       string    `json:"email"`
	OrdersCount int       `json:"orders_count"`
	TotalSpent  string    `json:"total_spent"`
	CreatedAt   time.Time `json:"created_at"`
	Tags        string    `json:"tags"`
}

// OrdersByName lists orders in any status whose name matches exactly.
func (c *Client) OrdersByName(ctx context.Context, name string) ([]Order, error) {
	query := url.Values{}
	query.Set("name", name)
	query.Set("status", "any")
	return c.listOrders(ctx, query)
}

// OrdersByEmail lists up to limit orders in any status placed with email.
func (c *Client) OrdersByEmail(ctx context.Context, email string, limit int) ([]Order, error) {
	query := url.Values{}
	query.Set("email", email)
	query.Set("status", "any")
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}
	return c.listOrders(ctx, query)
}

// SearchCustomers runs a customer search query such as "email:jane@example.com".
func (c *Client) SearchCustomers(ctx context.Context, q string) ([]Customer, error) {
	query := url.Values{}
	query.Set("query", q)

	var result struct {
		Customers []Customer `json:"customers"`
	}
	if err := c.get(ctx, "/customers/search.json", query, &result); err != nil {
		return nil, err
	}
	return result.Customers, nil
}

func (c *Client) listOrders(ctx context.Context, query url.Values) ([]Order, error) {
	var result struct {
		Orders []Order `json:"orders"`
	}
	if err := c.get(ctx, "/orders.json", query, &result); err != nil {
		return nil, err
	}
	return result.Orders, nil
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	if c == nil {
		return ErrNotConfigured
	}

	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Shopify-Access-Token", c.accessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("shopify request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read shopify response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("shopify returned status %d: %s", resp.StatusCode, string(body))
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to decode shopify response: %w", err)
	}
	return nil
}
