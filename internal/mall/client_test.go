package mall

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/five82/storefront/internal/cart"
)

var fastRetry = RetryPolicy{MaxTries: 3, InitialInterval: time.Millisecond, MaxInterval: 2 * time.Millisecond}

func writeEnvelope(t *testing.T, w http.ResponseWriter, code int, data any) {
	t.Helper()
	raw, err := json.Marshal(data)
	if err != nil {
		t.Fatalf("marshal data: %v", err)
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(Envelope{Code: code, Data: raw})
}

func TestParseBaseURL_DefaultsAndNormalizes(t *testing.T) {
	u, err := parseBaseURL("", "")
	if err != nil {
		t.Fatalf("parseBaseURL returned error: %v", err)
	}
	if u.String() != defaultAPIBase {
		t.Fatalf("base = %q, want %q", u.String(), defaultAPIBase)
	}

	u, err = parseBaseURL("http://example.com:1234/path?x=1#frag", "/tz/")
	if err != nil {
		t.Fatalf("parseBaseURL returned error: %v", err)
	}
	if u.Path != "/tz" || u.RawQuery != "" || u.Fragment != "" {
		t.Fatalf("url not normalized: %q", u.String())
	}

	u, err = parseBaseURL("shop.example.com", "")
	if err != nil {
		t.Fatalf("parseBaseURL returned error: %v", err)
	}
	if u.Scheme != "https" {
		t.Fatalf("scheme = %q, want https", u.Scheme)
	}
}

func TestClient_FetchesEndpointsAndEncodesQueries(t *testing.T) {
	t.Parallel()

	var gotBannerQuery url.Values
	var gotProductForm url.Values
	var gotRegionQuery url.Values
	var gotUserAgent, gotRequestID string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUserAgent = r.Header.Get("User-Agent")
		gotRequestID = r.Header.Get("X-Request-Id")

		switch r.URL.Path {
		case "/tz/banner/list":
			gotBannerQuery = r.URL.Query()
			writeEnvelope(t, w, 0, []Banner{{ID: 1, PicURL: "a.png"}})
		case "/tz/shop/goods/list":
			if err := r.ParseForm(); err != nil {
				t.Errorf("ParseForm: %v", err)
			}
			gotProductForm = r.PostForm
			_, _ = w.Write([]byte(`{"code":0,"data":[{"id":7,"name":"Tea","minPrice":12.5,"minScore":0}]}`))
		case "/tz/config/vipLevel":
			writeEnvelope(t, w, 0, 3)
		case "/tz/common/region/v2/child":
			gotRegionQuery = r.URL.Query()
			_, _ = w.Write([]byte(`{"code":0,"data":[{"id":11,"name":"合肥市","firstLetter":"h","pid":3}]}`))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(server.Close)

	c, err := NewClient(server.URL, "tz", WithRetryPolicy(fastRetry))
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	t.Cleanup(cancel)

	banners, err := c.FetchBanners(ctx, "index")
	if err != nil {
		t.Fatalf("FetchBanners returned error: %v", err)
	}
	if len(banners) != 1 || banners[0].PicURL != "a.png" {
		t.Fatalf("FetchBanners = %#v, want one banner", banners)
	}
	if gotBannerQuery.Get("type") != "index" {
		t.Fatalf("banner query = %v, want type=index", gotBannerQuery)
	}

	products, err := c.FetchProducts(ctx, ProductFilter{Key: "allProducts", RecommendStatus: 1, Page: 2, PageSize: 10, CategoryID: 5})
	if err != nil {
		t.Fatalf("FetchProducts returned error: %v", err)
	}
	if len(products) != 1 || products[0].MinPrice != 1250 {
		t.Fatalf("FetchProducts = %#v, want minPrice 1250 fen", products)
	}
	if gotProductForm.Get("recommendStatus") != "1" ||
		gotProductForm.Get("page") != "2" ||
		gotProductForm.Get("pageSize") != "10" ||
		gotProductForm.Get("categoryId") != "5" ||
		gotProductForm.Has("key") {
		t.Fatalf("product form = %v, want filter fields without key", gotProductForm)
	}

	level, err := c.FetchVipLevel(ctx)
	if err != nil || level != 3 {
		t.Fatalf("FetchVipLevel = %d, %v; want 3, nil", level, err)
	}

	regions, err := c.FetchRegions(ctx, 3)
	if err != nil {
		t.Fatalf("FetchRegions returned error: %v", err)
	}
	if len(regions) != 1 || regions[0].ParentID != 3 || gotRegionQuery.Get("pid") != "3" {
		t.Fatalf("FetchRegions = %#v (query %v), want child of 3", regions, gotRegionQuery)
	}

	if !strings.HasPrefix(gotUserAgent, "storefront/") {
		t.Fatalf("User-Agent = %q, want storefront/*", gotUserAgent)
	}
	if gotRequestID == "" {
		t.Fatalf("X-Request-Id header missing")
	}
}

func TestClient_NoDataCodeYieldsEmptyList(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"code":700,"msg":"暂无数据"}`))
	}))
	t.Cleanup(server.Close)

	c, err := NewClient(server.URL, "")
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	banners, err := c.FetchBanners(context.Background(), "index")
	if err != nil {
		t.Fatalf("FetchBanners returned error: %v", err)
	}
	if len(banners) != 0 {
		t.Fatalf("FetchBanners = %#v, want empty", banners)
	}
}

func TestClient_EnvelopeErrorIsAPIError(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		_, _ = w.Write([]byte(`{"code":2000,"msg":"not login"}`))
	}))
	t.Cleanup(server.Close)

	c, err := NewClient(server.URL, "", WithRetryPolicy(fastRetry))
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	_, err = c.FetchVipLevel(context.Background())
	if !IsAPIError(err) {
		t.Fatalf("FetchVipLevel error = %v, want APIError", err)
	}
	if calls.Load() != 1 {
		t.Fatalf("calls = %d, want 1 (envelope errors are permanent)", calls.Load())
	}
}

func TestClient_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			http.Error(w, "busy", http.StatusServiceUnavailable)
			return
		}
		writeEnvelope(t, w, 0, []Category{{ID: 1, Name: "Tea"}})
	}))
	t.Cleanup(server.Close)

	c, err := NewClient(server.URL, "", WithRetryPolicy(fastRetry))
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	cats, err := c.FetchCategories(context.Background())
	if err != nil {
		t.Fatalf("FetchCategories returned error: %v", err)
	}
	if len(cats) != 1 || calls.Load() != 3 {
		t.Fatalf("FetchCategories = %#v after %d calls, want 1 category after 3 calls", cats, calls.Load())
	}
}

func TestClient_HTTPErrorAndDecodeError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/config/values":
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte("{not-json"))
		case "/config/vipLevel":
			http.Error(w, "nope", http.StatusInternalServerError)
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(server.Close)

	c, err := NewClient(server.URL, "", WithRetryPolicy(fastRetry))
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}

	_, err = c.FetchSystemParameters(context.Background())
	if err == nil || !strings.Contains(err.Error(), "decode response") {
		t.Fatalf("FetchSystemParameters error = %v, want decode response error", err)
	}

	_, err = c.FetchVipLevel(context.Background())
	if err == nil || !strings.Contains(err.Error(), "returned status 500") {
		t.Fatalf("FetchVipLevel error = %v, want status 500 error", err)
	}

	_, err = c.FetchCategories(context.Background())
	if err == nil || !strings.Contains(err.Error(), "returned status 404") {
		t.Fatalf("FetchCategories error = %v, want status 404 error", err)
	}
}

func TestClient_FetchOrdersFoldsMaps(t *testing.T) {
	var gotStatus string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		gotStatus = r.PostForm.Get("status")
		_, _ = w.Write([]byte(`{"code":0,"data":{
			"orderList":[{"id":1,"orderNumber":"A1","amountReal":9.9},{"id":2,"orderNumber":"A2"}],
			"goodsMap":{"1":[{"goodsId":7,"goodsName":"Tea","number":2}]},
			"logisticsMap":{"1":{"linkMan":"Li","provinceId":3}}
		}}`))
	}))
	t.Cleanup(server.Close)

	c, err := NewClient(server.URL, "")
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	orders, err := c.FetchOrders(context.Background(), OrderQuery{Status: "all"})
	if err != nil {
		t.Fatalf("FetchOrders returned error: %v", err)
	}
	if gotStatus != "" {
		t.Fatalf("status form = %q, want omitted for all", gotStatus)
	}
	if len(orders) != 2 {
		t.Fatalf("orders = %#v, want 2", orders)
	}
	if len(orders[0].Goods) != 1 || orders[0].Logistics == nil || orders[0].Logistics.LinkMan != "Li" {
		t.Fatalf("order 1 = %#v, want goods and logistics folded", orders[0])
	}
	if orders[0].AmountReal != 990 {
		t.Fatalf("AmountReal = %d, want 990", orders[0].AmountReal)
	}
	if orders[1].Goods != nil || orders[1].Logistics != nil {
		t.Fatalf("order 2 = %#v, want no goods or logistics", orders[1])
	}
}

func TestClient_UpdateCartPostsWireLines(t *testing.T) {
	var got struct {
		Items []map[string]any `json:"items"`
	}
	var contentType string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		contentType = r.Header.Get("Content-Type")
		_ = json.NewDecoder(r.Body).Decode(&got)
		_, _ = w.Write([]byte(`{"code":0}`))
	}))
	t.Cleanup(server.Close)

	c, err := NewClient(server.URL, "")
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	err = c.UpdateCart(context.Background(), []cart.LineItem{
		{GoodsID: 1, PropertySelectionID: "1:2", Name: "Tea", UnitPrice: 1000, Quantity: 2, Active: true},
	})
	if err != nil {
		t.Fatalf("UpdateCart returned error: %v", err)
	}
	if contentType != "application/json" {
		t.Fatalf("Content-Type = %q, want application/json", contentType)
	}
	want := map[string]any{
		"goodsId":          float64(1),
		"propertyChildIds": "1:2",
		"number":           float64(2),
		"active":           true,
	}
	if len(got.Items) != 1 {
		t.Fatalf("posted items = %#v, want 1", got.Items)
	}
	if len(got.Items[0]) != len(want) {
		t.Fatalf("posted line = %#v, want only %v", got.Items[0], want)
	}
	for k, v := range want {
		if got.Items[0][k] != v {
			t.Fatalf("posted %s = %#v, want %#v", k, got.Items[0][k], v)
		}
	}

	if err := c.UpdateCart(context.Background(), nil); err != nil {
		t.Fatalf("UpdateCart(nil) returned error: %v", err)
	}
}

func TestClient_FetchCartConvertsYuan(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/shop/shopping-cart/info" {
			t.Errorf("path = %q, want /shop/shopping-cart/info", r.URL.Path)
		}
		writeEnvelope(t, w, 0, map[string]any{
			"items": []map[string]any{
				{"goodsId": 7, "propertyChildIds": "3:4", "name": "Oolong", "price": "12.50", "score": 5, "number": 2, "active": true},
				{"goodsId": 8, "name": "Puer", "price": 3, "number": 1},
			},
		})
	}))
	t.Cleanup(server.Close)

	c, err := NewClient(server.URL, "shop")
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	items, err := c.FetchCart(context.Background())
	if err != nil {
		t.Fatalf("FetchCart returned error: %v", err)
	}
	want := []cart.LineItem{
		{GoodsID: 7, PropertySelectionID: "3:4", Name: "Oolong", UnitPrice: 1250, UnitScore: 5, Quantity: 2, Active: true},
		{GoodsID: 8, Name: "Puer", UnitPrice: 300, Quantity: 1},
	}
	if len(items) != len(want) {
		t.Fatalf("FetchCart = %#v, want %#v", items, want)
	}
	for i := range want {
		if items[i] != want[i] {
			t.Fatalf("item %d = %#v, want %#v", i, items[i], want[i])
		}
	}
}

func TestClient_FetchCartEmptyCode(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"code":700,"msg":"no data"}`))
	}))
	t.Cleanup(server.Close)

	c, err := NewClient(server.URL, "")
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	items, err := c.FetchCart(context.Background())
	if err != nil || items != nil {
		t.Fatalf("FetchCart = %#v, %v; want nil, nil", items, err)
	}
}

func TestClient_NilReceiver(t *testing.T) {
	var c *Client
	if _, err := c.FetchBanners(context.Background(), "index"); err == nil {
		t.Fatalf("FetchBanners on nil client returned nil error")
	}
}

func TestClient_RemoveCartItemPostsForm(t *testing.T) {
	var form url.Values
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		form = r.PostForm
		_, _ = w.Write([]byte(`{"code":0}`))
	}))
	t.Cleanup(server.Close)

	c, err := NewClient(server.URL, "")
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	if err := c.RemoveCartItem(context.Background(), 9, "4:5"); err != nil {
		t.Fatalf("RemoveCartItem returned error: %v", err)
	}
	if form.Get("goodsId") != "9" || form.Get("propertyChildIds") != "4:5" {
		t.Fatalf("form = %v, want goodsId=9 propertyChildIds=4:5", form)
	}
}
