package mall

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/five82/storefront/internal/cart"
)

const mallTimestampLayout = "2006-01-02 15:04:05"

// Envelope wraps every API response.
type Envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"msg"`
	Data    json.RawMessage `json:"data"`
}

// fenLimit bounds amounts that convert to Fen without overflow.
const fenLimit = float64(math.MaxInt64)

// Fen is an amount in minor currency units. The API sends decimal yuan;
// Fen decodes them by rounding to the nearest cent.
type Fen int64

// UnmarshalJSON accepts numbers and numeric strings.
func (f *Fen) UnmarshalJSON(data []byte) error {
	trimmed := bytes.Trim(bytes.TrimSpace(data), `"`)
	if len(trimmed) == 0 || string(trimmed) == "null" {
		*f = 0
		return nil
	}
	yuan, err := strconv.ParseFloat(string(trimmed), 64)
	if err != nil {
		return fmt.Errorf("parse amount %q: %w", trimmed, err)
	}
	fen := math.Round(yuan * 100)
	if math.IsNaN(fen) || fen >= fenLimit || fen <= -fenLimit {
		return fmt.Errorf("amount %q out of range", trimmed)
	}
	*f = Fen(fen)
	return nil
}

// MarshalJSON writes the amount back as decimal yuan.
func (f Fen) MarshalJSON() ([]byte, error) {
	return []byte(strconv.FormatFloat(float64(f)/100, 'f', 2, 64)), nil
}

// Banner mirrors /banner/list entries.
type Banner struct {
	ID       int64  `json:"id"`
	Title    string `json:"title"`
	PicURL   string `json:"picUrl"`
	LinkURL  string `json:"linkUrl"`
	Type     string `json:"type"`
	Position int    `json:"paixu"`
}

// Category mirrors /shop/goods/category/all entries.
type Category struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Icon  string `json:"icon"`
	Level int    `json:"level"`
	PID   int64  `json:"pid"`
}

// Product is the list projection of a goods record.
type Product struct {
	ID             int64  `json:"id"`
	Name           string `json:"name"`
	Pic            string `json:"pic"`
	Characteristic string `json:"characteristic"`
	CategoryID     int64  `json:"categoryId"`
	MinPrice       Fen    `json:"minPrice"`
	OriginalPrice  Fen    `json:"originalPrice"`
	MinScore       int64  `json:"minScore"`
	NumberSells    int    `json:"numberSells"`
	Stores         int    `json:"stores"`
	RecommendState int    `json:"recommendStatus"`
}

// PaysWithScore reports whether the product is sold for points only.
func (p Product) PaysWithScore() bool {
	return p.MinPrice <= 0 && p.MinScore > 0
}

// ProductFilter selects a product list. Key is the cache fingerprint and is
// not sent to the API.
type ProductFilter struct {
	Key             string
	CategoryID      int64
	RecommendStatus int
	Page            int
	PageSize        int
}

// CategoryKey is the fingerprint used for a category's product list.
func CategoryKey(categoryID int64) string {
	return "category_" + strconv.FormatInt(categoryID, 10)
}

// Parameter is one raw system parameter.
type Parameter struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// OrderQuery selects an order list.
type OrderQuery struct {
	Status   string
	Page     int
	PageSize int
}

// StatusKey is the fingerprint used for the order list; empty means "all".
func (q OrderQuery) StatusKey() string {
	if q.Status == "" {
		return "all"
	}
	return q.Status
}

// Order is an order with its goods and logistics folded in.
type Order struct {
	ID          int64          `json:"id"`
	OrderNumber string         `json:"orderNumber"`
	Status      int            `json:"status"`
	StatusStr   string         `json:"statusStr"`
	AmountReal  Fen            `json:"amountReal"`
	Score       int64          `json:"score"`
	DateAdd     string         `json:"dateAdd"`
	Goods       []OrderGoods   `json:"-"`
	Logistics   *OrderShipping `json:"-"`
}

// ParsedDateAdd returns the creation time when it can be parsed.
func (o Order) ParsedDateAdd() time.Time {
	return parseTime(o.DateAdd)
}

// OrderGoods is a line of an order.
type OrderGoods struct {
	GoodsID   int64  `json:"goodsId"`
	GoodsName string `json:"goodsName"`
	Pic       string `json:"pic"`
	Number    int    `json:"number"`
	Amount    Fen    `json:"amount"`
	Property  string `json:"property"`
}

// OrderShipping is the delivery address attached to an order.
type OrderShipping struct {
	LinkMan    string `json:"linkMan"`
	Mobile     string `json:"mobile"`
	Address    string `json:"address"`
	ProvinceID int64  `json:"provinceId"`
	CityID     int64  `json:"cityId"`
	DistrictID int64  `json:"districtId"`
}

type orderListResponse struct {
	OrderList    []Order                  `json:"orderList"`
	GoodsMap     map[string][]OrderGoods  `json:"goodsMap"`
	LogisticsMap map[string]OrderShipping `json:"logisticsMap"`
}

func (r orderListResponse) fold() []Order {
	orders := make([]Order, 0, len(r.OrderList))
	for _, order := range r.OrderList {
		id := strconv.FormatInt(order.ID, 10)
		order.Goods = r.GoodsMap[id]
		if ship, ok := r.LogisticsMap[id]; ok {
			order.Logistics = &ship
		}
		orders = append(orders, order)
	}
	return orders
}

func parseTime(value string) time.Time {
	if value == "" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339} {
		if t, err := time.Parse(layout, value); err == nil {
			return t
		}
	}
	if t, err := time.ParseInLocation(mallTimestampLayout, value, time.Local); err == nil {
		return t
	}
	return time.Time{}
}

// cartInfoResponse is the payload of /shopping-cart/info.
type cartInfoResponse struct {
	Items []cartLine `json:"items"`
}

type cartLine struct {
	GoodsID          int64  `json:"goodsId"`
	PropertyChildIDs string `json:"propertyChildIds"`
	Name             string `json:"name"`
	Pic              string `json:"pic"`
	Price            Fen    `json:"price"`
	Score            int64  `json:"score"`
	Number           int    `json:"number"`
	Active           bool   `json:"active"`
}

func (r cartInfoResponse) lineItems() []cart.LineItem {
	if len(r.Items) == 0 {
		return nil
	}
	items := make([]cart.LineItem, 0, len(r.Items))
	for _, l := range r.Items {
		items = append(items, cart.LineItem{
			GoodsID:             l.GoodsID,
			PropertySelectionID: l.PropertyChildIDs,
			Name:                l.Name,
			Pic:                 l.Pic,
			UnitPrice:           int64(l.Price),
			UnitScore:           l.Score,
			Quantity:            l.Number,
			Active:              l.Active,
		})
	}
	return items
}

// cartUpdateLine is one entry posted to /shopping-cart/update.
type cartUpdateLine struct {
	GoodsID          int64  `json:"goodsId"`
	PropertyChildIDs string `json:"propertyChildIds,omitempty"`
	Number           int    `json:"number"`
	Active           bool   `json:"active"`
}
