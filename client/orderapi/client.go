// Package orderapi is a typed client for the order service that caches query
// results and refreshes them when a mutation changes the orders they depend on.
package orderapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/sing3demons/go-order-admin/order"
	"github.com/sing3demons/go-order-admin/pkg/querycache"
	"github.com/sing3demons/go-order-admin/product"
)

// TagOrders marks every query whose result depends on the order collection.
const TagOrders = "Orders"

type Client struct {
	baseURL string
	http    *http.Client
	token   string
	cache   *querycache.Cache
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithToken sends token as a bearer credential on every request.
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

func WithCache(cache *querycache.Cache) Option {
	return func(c *Client) { c.cache = cache }
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http: &http.Client{
			Timeout:   30 * time.Second,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.cache == nil {
		c.cache = querycache.New()
	}
	return c
}

func (c *Client) Cache() *querycache.Cache {
	return c.cache
}

// UpdateOrderInput carries the admin edits of one order. Nil fields are not sent.
type UpdateOrderInput struct {
	OrderID               string
	Paid                  *bool
	Delivered             *bool
	ProductCreationStatus *order.Status
}

type updateOrderBody struct {
	IsPaid                *bool         `json:"isPaid,omitempty"`
	IsDelivered           *bool         `json:"isDelivered,omitempty"`
	ProductCreationStatus *order.Status `json:"productCreationStatus,omitempty"`
}

func (c *Client) CreateOrder(ctx context.Context, req order.CreateOrderRequest) (*order.Order, error) {
	var o order.Order
	if err := c.do(ctx, http.MethodPost, "/api/orders", req, &o); err != nil {
		return nil, err
	}
	c.cache.Invalidate(TagOrders)
	return &o, nil
}

// GetOrderByEmail subscribes to the orders placed with email.
func (c *Client) GetOrderByEmail(ctx context.Context, email string) *querycache.Subscription {
	return c.cache.Subscribe(ctx, "orders/email/"+email, []string{TagOrders}, func(ctx context.Context) (any, error) {
		return c.FetchOrdersByEmail(ctx, email)
	})
}

// GetAllOrders subscribes to the full order list.
func (c *Client) GetAllOrders(ctx context.Context) *querycache.Subscription {
	return c.cache.Subscribe(ctx, "orders/all", []string{TagOrders}, func(ctx context.Context) (any, error) {
		return c.FetchAllOrders(ctx)
	})
}

func (c *Client) UpdateOrder(ctx context.Context, in UpdateOrderInput) (*order.Order, error) {
	body := updateOrderBody{
		IsPaid:                in.Paid,
		IsDelivered:           in.Delivered,
		ProductCreationStatus: in.ProductCreationStatus,
	}
	var o order.Order
	if err := c.do(ctx, http.MethodPatch, "/api/orders/"+url.PathEscape(in.OrderID), body, &o); err != nil {
		return nil, err
	}
	c.cache.Invalidate(TagOrders)
	return &o, nil
}

func (c *Client) DeleteOrder(ctx context.Context, id string) error {
	var res order.MessageResponse
	if err := c.do(ctx, http.MethodDelete, "/api/orders/delete/"+url.PathEscape(id), nil, &res); err != nil {
		return err
	}
	c.cache.Invalidate(TagOrders)
	return nil
}

// GetProductByID subscribes to one product. Order mutations leave it alone.
func (c *Client) GetProductByID(ctx context.Context, id string) *querycache.Subscription {
	return c.cache.Subscribe(ctx, "products/"+id, nil, func(ctx context.Context) (any, error) {
		return c.FetchProduct(ctx, id)
	})
}

func (c *Client) FetchAllOrders(ctx context.Context) ([]order.Order, error) {
	orders := []order.Order{}
	if err := c.do(ctx, http.MethodGet, "/api/orders", nil, &orders); err != nil {
		return nil, err
	}
	return orders, nil
}

func (c *Client) FetchOrdersByEmail(ctx context.Context, email string) ([]order.Order, error) {
	orders := []order.Order{}
	if err := c.do(ctx, http.MethodGet, "/api/orders/email/"+url.PathEscape(email), nil, &orders); err != nil {
		return nil, err
	}
	return orders, nil
}

func (c *Client) FetchProduct(ctx context.Context, id string) (*product.Product, error) {
	var p product.Product
	if err := c.do(ctx, http.MethodGet, "/api/products/"+url.PathEscape(id), nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// Orders returns the order list held by a query result, or nil while nothing
// has been fetched.
func Orders(r querycache.Result) []order.Order {
	orders, _ := r.Data.([]order.Order)
	return orders
}

func Product(r querycache.Result) *product.Product {
	p, _ := r.Data.(*product.Product)
	return p
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode %s %s: %w", method, path, err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read %s %s: %w", method, path, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return newAPIError(resp.StatusCode, data)
	}
	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}
