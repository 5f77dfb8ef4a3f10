package mall

import (
	"bytes"
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

	"github.com/cenkalti/backoff/v5"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	"github.com/five82/storefront/internal/cart"
	"github.com/five82/storefront/internal/region"
)

// Fetcher defines the calls the storefront core makes against the mall API.
// It is implemented by *Client and can be faked in tests.
type Fetcher interface {
	FetchBanners(ctx context.Context, placement string) ([]Banner, error)
	FetchCategories(ctx context.Context) ([]Category, error)
	FetchProducts(ctx context.Context, filter ProductFilter) ([]Product, error)
	FetchSystemParameters(ctx context.Context) (json.RawMessage, error)
	FetchVipLevel(ctx context.Context) (int, error)
	FetchRegions(ctx context.Context, parentID int64) ([]region.Record, error)
	FetchOrders(ctx context.Context, query OrderQuery) ([]Order, error)
	FetchCart(ctx context.Context) ([]cart.LineItem, error)
	UpdateCart(ctx context.Context, items []cart.LineItem) error
	RemoveCartItem(ctx context.Context, goodsID int64, propertyID string) error
}

// Ensure Client implements Fetcher at compile time.
var _ Fetcher = (*Client)(nil)

// Client talks to the mall HTTP API.
type Client struct {
	baseURL   *url.URL
	http      *http.Client
	userAgent string
	retry     RetryPolicy
}

// RetryPolicy bounds transport retries of transient failures.
type RetryPolicy struct {
	MaxTries        uint
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

// APIError is a non-zero envelope code.
type APIError struct {
	Path    string
	Code    int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api %s returned code %d: %s", e.Path, e.Code, e.Message)
}

const (
	defaultAPIBase   = "https://api.it120.cc"
	defaultUserAgent = "storefront/0.1"
	requestTimeout   = 5 * time.Second

	codeOK = 0
	// codeNoData is how the API reports an empty list.
	codeNoData = 700
)

// DefaultRetryPolicy is used when NewClient is given a zero policy.
var DefaultRetryPolicy = RetryPolicy{
	MaxTries:        3,
	InitialInterval: 200 * time.Millisecond,
	MaxInterval:     2 * time.Second,
}

// Option customises a Client.
type Option func(*Client)

// WithRetryPolicy overrides DefaultRetryPolicy.
func WithRetryPolicy(p RetryPolicy) Option {
	return func(c *Client) { c.retry = p }
}

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// NewClient builds a Client for apiBase, optionally scoped to a tenant
// sub-domain path segment.
func NewClient(apiBase, subDomain string, opts ...Option) (*Client, error) {
	base, err := parseBaseURL(apiBase, subDomain)
	if err != nil {
		return nil, err
	}
	c := &Client{
		baseURL: base,
		http: &http.Client{
			Timeout: requestTimeout,
		},
		userAgent: defaultUserAgent,
		retry:     DefaultRetryPolicy,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// FetchBanners lists the banners for a placement such as "index".
func (c *Client) FetchBanners(ctx context.Context, placement string) ([]Banner, error) {
	if c == nil {
		return nil, fmt.Errorf("client is nil")
	}
	values := url.Values{}
	if p := strings.TrimSpace(placement); p != "" {
		values.Set("type", p)
	}
	var payload []Banner
	if err := c.get(ctx, "/banner/list", values, &payload); err != nil {
		return nil, err
	}
	return payload, nil
}

// FetchCategories lists all goods categories.
func (c *Client) FetchCategories(ctx context.Context) ([]Category, error) {
	if c == nil {
		return nil, fmt.Errorf("client is nil")
	}
	var payload []Category
	if err := c.get(ctx, "/shop/goods/category/all", nil, &payload); err != nil {
		return nil, err
	}
	return payload, nil
}

// FetchProducts lists goods matching filter.
func (c *Client) FetchProducts(ctx context.Context, filter ProductFilter) ([]Product, error) {
	if c == nil {
		return nil, fmt.Errorf("client is nil")
	}
	values := url.Values{}
	if filter.CategoryID > 0 {
		values.Set("categoryId", strconv.FormatInt(filter.CategoryID, 10))
	}
	if filter.RecommendStatus > 0 {
		values.Set("recommendStatus", strconv.Itoa(filter.RecommendStatus))
	}
	if filter.Page > 0 {
		values.Set("page", strconv.Itoa(filter.Page))
	}
	if filter.PageSize > 0 {
		values.Set("pageSize", strconv.Itoa(filter.PageSize))
	}
	var payload []Product
	if err := c.postForm(ctx, "/shop/goods/list", values, &payload); err != nil {
		return nil, err
	}
	return payload, nil
}

// FetchSystemParameters returns the undecoded parameter list so the caller
// can validate its shape.
func (c *Client) FetchSystemParameters(ctx context.Context) (json.RawMessage, error) {
	if c == nil {
		return nil, fmt.Errorf("client is nil")
	}
	var payload json.RawMessage
	if err := c.get(ctx, "/config/values", nil, &payload); err != nil {
		return nil, err
	}
	return payload, nil
}

// FetchVipLevel returns the mall's vip level.
func (c *Client) FetchVipLevel(ctx context.Context) (int, error) {
	if c == nil {
		return 0, fmt.Errorf("client is nil")
	}
	var level int
	if err := c.get(ctx, "/config/vipLevel", nil, &level); err != nil {
		return 0, err
	}
	return level, nil
}

// FetchRegions lists provinces when parentID is zero, otherwise the children
// of parentID.
func (c *Client) FetchRegions(ctx context.Context, parentID int64) ([]region.Record, error) {
	if c == nil {
		return nil, fmt.Errorf("client is nil")
	}
	path := "/common/region/v2/province"
	values := url.Values{}
	if parentID > 0 {
		path = "/common/region/v2/child"
		values.Set("pid", strconv.FormatInt(parentID, 10))
	}
	var payload []region.Record
	if err := c.get(ctx, path, values, &payload); err != nil {
		return nil, err
	}
	return payload, nil
}

// FetchOrders lists orders with their goods and logistics attached.
func (c *Client) FetchOrders(ctx context.Context, query OrderQuery) ([]Order, error) {
	if c == nil {
		return nil, fmt.Errorf("client is nil")
	}
	values := url.Values{}
	if s := strings.TrimSpace(query.Status); s != "" && s != "all" {
		values.Set("status", s)
	}
	if query.Page > 0 {
		values.Set("page", strconv.Itoa(query.Page))
	}
	if query.PageSize > 0 {
		values.Set("pageSize", strconv.Itoa(query.PageSize))
	}
	var payload orderListResponse
	if err := c.postForm(ctx, "/order/list", values, &payload); err != nil {
		return nil, err
	}
	return payload.fold(), nil
}

// FetchCart returns the server-side cart lines.
func (c *Client) FetchCart(ctx context.Context) ([]cart.LineItem, error) {
	if c == nil {
		return nil, fmt.Errorf("client is nil")
	}
	var payload cartInfoResponse
	if err := c.get(ctx, "/shopping-cart/info", nil, &payload); err != nil {
		return nil, err
	}
	return payload.lineItems(), nil
}

// UpdateCart mirrors local cart lines to the server. Only the line identity,
// quantity and selection are sent; prices stay server-side.
func (c *Client) UpdateCart(ctx context.Context, items []cart.LineItem) error {
	if c == nil {
		return fmt.Errorf("client is nil")
	}
	if len(items) == 0 {
		return nil
	}
	lines := make([]cartUpdateLine, 0, len(items))
	for _, item := range items {
		lines = append(lines, cartUpdateLine{
			GoodsID:          item.GoodsID,
			PropertyChildIDs: item.PropertySelectionID,
			Number:           item.Quantity,
			Active:           item.Active,
		})
	}
	body, err := json.Marshal(struct {
		Items []cartUpdateLine `json:"items"`
	}{Items: lines})
	if err != nil {
		return fmt.Errorf("encode cart: %w", err)
	}
	return c.do(ctx, http.MethodPost, &url.URL{Path: "/shopping-cart/update"}, "application/json", body, nil)
}

// RemoveCartItem deletes one line from the server-side cart.
func (c *Client) RemoveCartItem(ctx context.Context, goodsID int64, propertyID string) error {
	if c == nil {
		return fmt.Errorf("client is nil")
	}
	values := url.Values{}
	values.Set("goodsId", strconv.FormatInt(goodsID, 10))
	if propertyID != "" {
		values.Set("propertyChildIds", propertyID)
	}
	return c.postForm(ctx, "/shopping-cart/remove", values, nil)
}

func (c *Client) get(ctx context.Context, path string, values url.Values, dest any) error {
	rel := &url.URL{Path: path, RawQuery: values.Encode()}
	return c.do(ctx, http.MethodGet, rel, "", nil, dest)
}

func (c *Client) postForm(ctx context.Context, path string, values url.Values, dest any) error {
	rel := &url.URL{Path: path}
	return c.do(ctx, http.MethodPost, rel, "application/x-www-form-urlencoded", []byte(values.Encode()), dest)
}

// do runs a request with transport retries. Network errors and 5xx responses
// are retried; everything else is permanent.
func (c *Client) do(ctx context.Context, method string, rel *url.URL, contentType string, body []byte, dest any) error {
	policy := c.retry
	if policy.MaxTries == 0 {
		policy = DefaultRetryPolicy
	}
	expo := backoff.NewExponentialBackOff()
	expo.InitialInterval = policy.InitialInterval
	expo.MaxInterval = policy.MaxInterval

	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		return struct{}{}, c.once(ctx, method, rel, contentType, body, dest)
	}, backoff.WithBackOff(expo), backoff.WithMaxTries(policy.MaxTries))
	return err
}

func (c *Client) once(ctx context.Context, method string, rel *url.URL, contentType string, body []byte, dest any) error {
	reqURL := c.resolve(rel)
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, reqURL.String(), reader)
	if err != nil {
		return backoff.Permanent(fmt.Errorf("create request: %w", err))
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("X-Request-Id", uuid.NewString())
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return backoff.Permanent(fmt.Errorf("execute request: %w", err))
		}
		return fmt.Errorf("execute request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 500 {
		return fmt.Errorf("api %s returned status %d", rel.Path, resp.StatusCode)
	}
	if resp.StatusCode >= 400 {
		return backoff.Permanent(fmt.Errorf("api %s returned status %d", rel.Path, resp.StatusCode))
	}

	var env Envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return backoff.Permanent(fmt.Errorf("decode response: %w", err))
	}
	switch env.Code {
	case codeOK:
	case codeNoData:
		return nil
	default:
		return backoff.Permanent(&APIError{Path: rel.Path, Code: env.Code, Message: env.Message})
	}
	if dest == nil || len(env.Data) == 0 || string(env.Data) == "null" {
		return nil
	}
	if err := json.Unmarshal(env.Data, dest); err != nil {
		return backoff.Permanent(fmt.Errorf("decode data: %w", err))
	}
	return nil
}

func (c *Client) resolve(rel *url.URL) *url.URL {
	u := *c.baseURL
	u.Path = strings.TrimSuffix(c.baseURL.Path, "/") + rel.Path
	u.RawQuery = rel.RawQuery
	return &u
}

// IsAPIError reports whether err carries an envelope error code.
func IsAPIError(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr)
}

func parseBaseURL(apiBase, subDomain string) (*url.URL, error) {
	trimmed := strings.TrimSpace(apiBase)
	if trimmed == "" {
		trimmed = defaultAPIBase
	}
	if !strings.Contains(trimmed, "://") {
		trimmed = "https://" + trimmed
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("parse api base %q: %w", apiBase, err)
	}
	u.Path = ""
	if sub := strings.Trim(strings.TrimSpace(subDomain), "/"); sub != "" {
		u.Path = "/" + sub
	}
	u.RawQuery = ""
	u.Fragment = ""
	return u, nil
}
