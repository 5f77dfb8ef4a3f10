package ui

import (
	"context"
	"errors"
	"log/slog"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/storefront/internal/cart"
	"github.com/five82/storefront/internal/mall"
	"github.com/five82/storefront/internal/region"
	"github.com/five82/storefront/internal/state"
)

// View represents the current active view.
type View int

const (
	ViewHome View = iota
	ViewCart
	ViewRegions
	ViewOrders
	viewCount
)

func (v View) String() string {
	switch v {
	case ViewCart:
		return "Cart"
	case ViewRegions:
		return "Regions"
	case ViewOrders:
		return "Orders"
	default:
		return "Home"
	}
}

// Cache keys shown on the home view.
const (
	homePlacement  = "index"
	keyRecommended = "homeRecommendProducts"
	keyAllProducts = "allProducts"
)

// orderStatuses is the cycle behind the orders filter; "" lists every order.
var orderStatuses = []string{"", "0", "1", "2", "3", "4"}

// Intents are the storefront operations the UI triggers.
// *dispatch.Dispatcher implements it.
type Intents interface {
	Store() *state.Store
	LoadCategories(ctx context.Context) error
	LoadProducts(ctx context.Context, filter mall.ProductFilter) error
	LoadRegions(ctx context.Context, level region.Level, parentID int64) error
	LoadOrders(ctx context.Context, query mall.OrderQuery) error
	LoadCart(ctx context.Context) error
	UpdateCart(ctx context.Context, patches ...cart.LineItem) error
	SetItemActive(ctx context.Context, goodsID int64, propertyID string, active bool) error
	ToggleSelectAll(ctx context.Context) error
	SetItemQuantity(ctx context.Context, goodsID int64, propertyID string, quantity int) error
	RemoveItem(ctx context.Context, goodsID int64, propertyID string) error
}

// ThemeStore persists the chosen theme. *prefs.Scalars implements it.
type ThemeStore interface {
	SetTheme(theme string) error
}

// Options configures the UI.
type Options struct {
	Context    context.Context
	Dispatcher Intents
	Prefs      ThemeStore
	ThemeName  string
	Logger     *slog.Logger
}

// Model is the root application state for Bubble Tea.
type Model struct {
	ctx     context.Context
	intents Intents
	prefs   ThemeStore
	logger  *slog.Logger

	theme    Theme
	keys     keyMap
	help     help.Model
	view     View
	width    int
	height   int
	ready    bool
	showHelp bool

	snapshot state.Snapshot
	notice   string // last intent failure, cleared by the next success

	cursor   [viewCount]int
	content  viewport.Model
	level    region.Level
	parents  []int64 // region ids drilled through, outermost first
	orderIdx int
}

// New creates a new Bubble Tea model.
func New(opts Options) Model {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	m := Model{
		ctx:     ctx,
		intents: opts.Dispatcher,
		prefs:   opts.Prefs,
		logger:  logger,
		theme:   GetTheme(opts.ThemeName),
		keys:    DefaultKeyMap(),
		help:    help.New(),
		view:    ViewHome,
		level:   region.Province,
	}
	if m.intents != nil {
		m.snapshot = m.intents.Store().Snapshot()
	}
	return m
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.loadView(ViewHome)...)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		if !m.ready {
			m.content = viewport.New(msg.Width, m.contentHeight())
			m.ready = true
		} else {
			m.content.Width = msg.Width
			m.content.Height = m.contentHeight()
		}
		m.refreshContent()
		return m, nil

	case snapshotMsg:
		// Snapshots are delivered from goroutines and may arrive out of order.
		if msg.Version < m.snapshot.Version {
			return m, nil
		}
		m.snapshot = state.Snapshot(msg)
		m.clampCursor()
		m.refreshContent()
		return m, nil

	case intentDoneMsg:
		if msg.err != nil {
			m.notice = msg.op + ": " + msg.err.Error()
			m.logger.Debug("intent failed", slog.String("op", msg.op), slog.String("error", msg.err.Error()))
		} else {
			m.notice = ""
		}
		return m, nil
	}

	return m, nil
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	if m.showHelp {
		return m.renderHelp()
	}
	return m.renderMain()
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.showHelp {
		m.showHelp = false
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.showHelp = true
		return m, nil
	case key.Matches(msg, m.keys.CycleTheme):
		m.theme = GetTheme(NextTheme(m.theme.Name))
		if m.prefs != nil {
			if err := m.prefs.SetTheme(m.theme.Name); err != nil {
				m.logger.Warn("save theme failed", slog.String("error", err.Error()))
			}
		}
		m.refreshContent()
		return m, nil
	case key.Matches(msg, m.keys.Tab):
		return m.switchView((m.view + 1) % viewCount)
	case key.Matches(msg, m.keys.ViewHome):
		return m.switchView(ViewHome)
	case key.Matches(msg, m.keys.ViewCart):
		return m.switchView(ViewCart)
	case key.Matches(msg, m.keys.ViewRegions):
		return m.switchView(ViewRegions)
	case key.Matches(msg, m.keys.ViewOrders):
		return m.switchView(ViewOrders)
	case key.Matches(msg, m.keys.Refresh):
		return m, tea.Batch(m.loadView(m.view)...)
	case key.Matches(msg, m.keys.Up):
		m.moveCursor(-1)
		return m, nil
	case key.Matches(msg, m.keys.Down):
		m.moveCursor(1)
		return m, nil
	case key.Matches(msg, m.keys.Top):
		m.cursor[m.view] = 0
		m.refreshContent()
		return m, nil
	case key.Matches(msg, m.keys.Bottom):
		m.cursor[m.view] = max(m.rowCount()-1, 0)
		m.refreshContent()
		return m, nil
	}

	switch m.view {
	case ViewHome:
		return m.handleHomeKey(msg)
	case ViewCart:
		return m.handleCartKey(msg)
	case ViewRegions:
		return m.handleRegionKey(msg)
	case ViewOrders:
		if key.Matches(msg, m.keys.CycleStatus) {
			m.orderIdx = (m.orderIdx + 1) % len(orderStatuses)
			m.cursor[ViewOrders] = 0
			m.refreshContent()
			return m, tea.Batch(m.loadView(ViewOrders)...)
		}
	}
	return m, nil
}

func (m Model) switchView(v View) (tea.Model, tea.Cmd) {
	m.view = v
	m.clampCursor()
	m.refreshContent()
	return m, tea.Batch(m.loadView(v)...)
}

func (m Model) handleHomeKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.intents == nil || !key.Matches(msg, m.keys.AddToCart) {
		return m, nil
	}
	p, ok := m.selectedProduct()
	if !ok {
		return m, nil
	}
	line, found := cart.Find(m.snapshot.Cart, p.ID, "")
	if found {
		line.Quantity++
	} else {
		line = cart.LineItem{
			GoodsID:   p.ID,
			Name:      p.Name,
			Pic:       p.Pic,
			UnitPrice: int64(p.MinPrice),
			UnitScore: p.MinScore,
			Quantity:  1,
		}
	}
	line.Active = true
	return m, m.intent("cart", func(ctx context.Context) error {
		return m.intents.UpdateCart(ctx, line)
	})
}

func (m Model) handleCartKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.intents == nil {
		return m, nil
	}
	items := m.snapshot.Cart
	switch {
	case key.Matches(msg, m.keys.SelectAll):
		return m, m.intent("cart", m.intents.ToggleSelectAll)
	case len(items) == 0:
		return m, nil
	}

	line := items[m.cursor[ViewCart]]
	switch {
	case key.Matches(msg, m.keys.ToggleItem):
		return m, m.intent("cart", func(ctx context.Context) error {
			return m.intents.SetItemActive(ctx, line.GoodsID, line.PropertySelectionID, !line.Active)
		})
	case key.Matches(msg, m.keys.Increase):
		return m, m.intent("cart", func(ctx context.Context) error {
			return m.intents.SetItemQuantity(ctx, line.GoodsID, line.PropertySelectionID, line.Quantity+1)
		})
	case key.Matches(msg, m.keys.Decrease):
		if line.Quantity <= 1 {
			return m, nil
		}
		return m, m.intent("cart", func(ctx context.Context) error {
			return m.intents.SetItemQuantity(ctx, line.GoodsID, line.PropertySelectionID, line.Quantity-1)
		})
	case key.Matches(msg, m.keys.Remove):
		return m, m.intent("cart", func(ctx context.Context) error {
			return m.intents.RemoveItem(ctx, line.GoodsID, line.PropertySelectionID)
		})
	}
	return m, nil
}

func (m Model) handleRegionKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Enter):
		item, ok := m.selectedRegion()
		if !ok {
			return m, nil
		}
		next, ok := m.level.Next()
		if !ok {
			return m, nil
		}
		m.parents = append(m.parents, item.ID)
		m.level = next
		m.cursor[ViewRegions] = 0
		m.refreshContent()
		return m, tea.Batch(m.loadView(ViewRegions)...)
	case key.Matches(msg, m.keys.Back):
		if len(m.parents) == 0 {
			return m, nil
		}
		m.parents = m.parents[:len(m.parents)-1]
		m.level--
		m.cursor[ViewRegions] = 0
		m.refreshContent()
		return m, nil
	}
	return m, nil
}

// loadView returns the fetch commands that back view v.
func (m Model) loadView(v View) []tea.Cmd {
	if m.intents == nil {
		return nil
	}
	switch v {
	case ViewHome:
		return []tea.Cmd{
			m.intent("categories", m.intents.LoadCategories),
			m.intent("products", func(ctx context.Context) error {
				return m.intents.LoadProducts(ctx, mall.ProductFilter{Key: keyRecommended, RecommendStatus: 1})
			}),
			m.intent("products", func(ctx context.Context) error {
				return m.intents.LoadProducts(ctx, mall.ProductFilter{Key: keyAllProducts})
			}),
		}
	case ViewCart:
		return []tea.Cmd{m.intent("cart", m.intents.LoadCart)}
	case ViewRegions:
		level, parent := m.level, m.parentID()
		return []tea.Cmd{m.intent("regions", func(ctx context.Context) error {
			return m.intents.LoadRegions(ctx, level, parent)
		})}
	case ViewOrders:
		query := mall.OrderQuery{Status: orderStatuses[m.orderIdx]}
		return []tea.Cmd{m.intent("orders", func(ctx context.Context) error {
			return m.intents.LoadOrders(ctx, query)
		})}
	}
	return nil
}

func (m Model) intent(op string, fn func(context.Context) error) tea.Cmd {
	ctx := m.ctx
	return func() tea.Msg {
		return intentDoneMsg{op: op, err: fn(ctx)}
	}
}

func (m Model) parentID() int64 {
	if len(m.parents) == 0 {
		return 0
	}
	return m.parents[len(m.parents)-1]
}

func (m Model) regionItems() []region.Item {
	var items []region.Item
	for _, b := range m.snapshot.RegionBuckets(m.level) {
		items = append(items, b.Items...)
	}
	return items
}

func (m Model) selectedRegion() (region.Item, bool) {
	items := m.regionItems()
	idx := m.cursor[ViewRegions]
	if idx < 0 || idx >= len(items) {
		return region.Item{}, false
	}
	return items[idx], true
}

// homeProducts lists the selectable products in display order.
func (m Model) homeProducts() []mall.Product {
	products := m.snapshot.Products.Items(keyRecommended)
	return append(products, m.snapshot.Products.Items(keyAllProducts)...)
}

func (m Model) selectedProduct() (mall.Product, bool) {
	products := m.homeProducts()
	idx := m.cursor[ViewHome]
	if idx < 0 || idx >= len(products) {
		return mall.Product{}, false
	}
	return products[idx], true
}

func (m Model) orderItems() []mall.Order {
	return m.snapshot.Orders.Items(mall.OrderQuery{Status: orderStatuses[m.orderIdx]}.StatusKey())
}

// rowCount is the number of selectable rows in the current view.
func (m Model) rowCount() int {
	switch m.view {
	case ViewCart:
		return len(m.snapshot.Cart)
	case ViewRegions:
		return len(m.regionItems())
	case ViewOrders:
		return len(m.orderItems())
	default:
		return len(m.homeProducts())
	}
}

func (m *Model) moveCursor(delta int) {
	m.cursor[m.view] += delta
	m.clampCursor()
	m.refreshContent()
}

func (m *Model) clampCursor() {
	limit := m.rowCount()
	switch {
	case limit == 0:
		m.cursor[m.view] = 0
	case m.cursor[m.view] >= limit:
		m.cursor[m.view] = limit - 1
	case m.cursor[m.view] < 0:
		m.cursor[m.view] = 0
	}
}

func (m Model) contentHeight() int {
	// header, tabs and footer take one line each
	return max(m.height-3, 1)
}

// Messages

type snapshotMsg state.Snapshot

type intentDoneMsg struct {
	op  string
	err error
}

// Run starts the Bubble Tea program and feeds it every committed snapshot.
func Run(opts Options) error {
	m := New(opts)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(m.ctx))
	if m.intents != nil {
		cancel := m.intents.Store().Subscribe(func(snap state.Snapshot) {
			go p.Send(snapshotMsg(snap))
		})
		defer cancel()
	}
	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && m.ctx.Err() != nil {
		return nil
	}
	return err
}
