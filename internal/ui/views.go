package ui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/five82/storefront/internal/cart"
	"github.com/five82/storefront/internal/mall"
	"github.com/five82/storefront/internal/region"
)

// renderMain renders header, tabs, content and footer.
func (m Model) renderMain() string {
	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n")
	b.WriteString(m.renderTabs())
	b.WriteString("\n")
	b.WriteString(m.content.View())
	b.WriteString("\n")
	b.WriteString(m.renderFooter())
	return b.String()
}

// renderHeader shows the mall name, member level and connection state.
func (m Model) renderHeader() string {
	styles := m.theme.Styles()
	bg := NewBgStyle(m.theme.Surface)

	name := m.snapshot.Config.Params.MallName
	if name == "" {
		name = "storefront"
	}
	parts := []string{
		bg.Render(name, styles.Logo),
		bg.Render("VIP", styles.MutedText) + bg.Spaces(1) + bg.Render(strconv.Itoa(m.snapshot.Config.VipLevel), styles.Text),
	}
	if count := cart.Count(m.snapshot.Cart); count > 0 {
		parts = append(parts, bg.Render("Cart", styles.MutedText)+bg.Spaces(1)+bg.Render(strconv.Itoa(count), styles.AccentText))
	}

	switch {
	case m.snapshot.IsOffline():
		parts = append(parts, bg.Render("● OFFLINE", styles.DangerText))
	case m.snapshot.LastError != nil:
		parts = append(parts, bg.Render("● DEGRADED", styles.WarningText))
	default:
		parts = append(parts, bg.Render("● ONLINE", styles.SuccessText))
	}
	if !m.snapshot.LastUpdated.IsZero() {
		parts = append(parts, bg.Render(m.snapshot.LastUpdated.Format("15:04:05"), styles.FaintText))
	}

	return styles.Header.Width(m.width).Render(bg.Join(parts, "  "))
}

func (m Model) renderTabs() string {
	styles := m.theme.Styles()
	tabs := make([]string, 0, int(viewCount))
	for v := ViewHome; v < viewCount; v++ {
		label := fmt.Sprintf(" %d %s ", int(v)+1, v)
		if v == m.view {
			tabs = append(tabs, styles.Selected.Bold(true).Render(label))
		} else {
			tabs = append(tabs, styles.MutedText.Render(label))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
}

func (m Model) renderFooter() string {
	styles := m.theme.Styles()
	if m.notice != "" {
		return styles.Footer.Width(m.width).Render(styles.DangerText.Render(truncate(m.notice, max(m.width-2, 1))))
	}
	if m.view == ViewCart {
		return styles.Footer.Width(m.width).Render(m.cartSummary())
	}
	return styles.Footer.Width(m.width).Render(m.help.View(m.keys))
}

// refreshContent re-renders the active view into the viewport and keeps the
// cursor row on screen.
func (m *Model) refreshContent() {
	if !m.ready {
		return
	}
	lines, cursorLine := m.contentLines()
	m.content.SetContent(strings.Join(lines, "\n"))
	switch {
	case cursorLine < m.content.YOffset:
		m.content.SetYOffset(cursorLine)
	case cursorLine >= m.content.YOffset+m.content.Height:
		m.content.SetYOffset(cursorLine - m.content.Height + 1)
	}
}

// contentLines returns the rendered rows and the line index of the cursor.
func (m Model) contentLines() ([]string, int) {
	switch m.view {
	case ViewCart:
		return m.cartLines()
	case ViewRegions:
		return m.regionLines()
	case ViewOrders:
		return m.orderLines()
	default:
		return m.homeLines()
	}
}

func (m Model) row(selected bool, text string) string {
	styles := m.theme.Styles()
	if selected {
		return styles.Selected.Width(m.width).Render(text)
	}
	return styles.Text.Render(text)
}

func (m Model) homeLines() ([]string, int) {
	styles := m.theme.Styles()
	var lines []string
	cursorLine := 0

	if banners := m.snapshot.Config.Banners.Items(homePlacement); len(banners) > 0 {
		titles := make([]string, 0, len(banners))
		for _, b := range banners {
			title := b.Title
			if title == "" {
				title = "#" + strconv.FormatInt(b.ID, 10)
			}
			titles = append(titles, title)
		}
		lines = append(lines, styles.MutedText.Render("Banners: "+strings.Join(titles, " · ")))
	}
	if len(m.snapshot.Categories) > 0 {
		names := make([]string, 0, len(m.snapshot.Categories))
		for _, c := range m.snapshot.Categories {
			names = append(names, c.Name)
		}
		lines = append(lines, styles.MutedText.Render("Categories: "+strings.Join(names, " · ")))
	}

	idx := 0
	for _, section := range []struct{ title, key string }{
		{"Recommended", keyRecommended},
		{"All products", keyAllProducts},
	} {
		lines = append(lines, "", styles.Title.Render(section.title))
		products := m.snapshot.Products.Items(section.key)
		if len(products) == 0 {
			lines = append(lines, styles.FaintText.Render("  nothing here yet"))
			continue
		}
		for _, p := range products {
			selected := idx == m.cursor[ViewHome]
			if selected {
				cursorLine = len(lines)
			}
			lines = append(lines, m.row(selected, fmt.Sprintf("  %-32s %14s", truncate(p.Name, 32), productPrice(p))))
			idx++
		}
	}
	return lines, cursorLine
}

func (m Model) cartLines() ([]string, int) {
	styles := m.theme.Styles()
	if len(m.snapshot.Cart) == 0 {
		return []string{styles.FaintText.Render("Your cart is empty.")}, 0
	}
	lines := make([]string, 0, len(m.snapshot.Cart))
	for i, item := range m.snapshot.Cart {
		price := formatPrice(item.UnitPrice)
		if s := formatScore(item.UnitScore); s != "" {
			price += " + " + s
		}
		text := fmt.Sprintf("%s %-28s %16s  x%d", checkbox(item.Active), truncate(item.Name, 28), price, item.Quantity)
		lines = append(lines, m.row(i == m.cursor[ViewCart], text))
	}
	return lines, m.cursor[ViewCart]
}

func (m Model) cartSummary() string {
	totals := m.snapshot.CartTotals
	parts := []string{
		checkbox(totals.SelectAll) + " all",
		"Total " + formatPrice(totals.TotalAmount),
	}
	if s := formatScore(totals.TotalScore); s != "" {
		parts = append(parts, "+ "+s)
	}
	parts = append(parts, fmt.Sprintf("%d selected", len(cart.Active(m.snapshot.Cart))))
	return strings.Join(parts, "   ")
}

func (m Model) regionLines() ([]string, int) {
	styles := m.theme.Styles()
	buckets := m.snapshot.RegionBuckets(m.level)
	lines := []string{styles.MutedText.Render(
		strings.ToUpper(m.level.Plural()[:1]) + m.level.Plural()[1:] + "   " + strings.Join(region.Titles(buckets), " "),
	)}
	if len(buckets) == 0 {
		return append(lines, styles.FaintText.Render("  loading…")), 0
	}

	idx, cursorLine := 0, 0
	for _, b := range buckets {
		lines = append(lines, styles.Title.Render(b.Title))
		for _, item := range b.Items {
			selected := idx == m.cursor[ViewRegions]
			if selected {
				cursorLine = len(lines)
			}
			lines = append(lines, m.row(selected, "  "+item.Name))
			idx++
		}
	}
	return lines, cursorLine
}

func (m Model) orderLines() ([]string, int) {
	styles := m.theme.Styles()
	status := mall.OrderQuery{Status: orderStatuses[m.orderIdx]}.StatusKey()
	lines := []string{styles.MutedText.Render("Status: " + status)}

	orders := m.orderItems()
	if len(orders) == 0 {
		return append(lines, styles.FaintText.Render("  no orders")), 0
	}
	cursorLine := 0
	for i, o := range orders {
		selected := i == m.cursor[ViewOrders]
		if selected {
			cursorLine = len(lines)
		}
		badge := styles.OrderStyle(o.Status).Render(o.StatusStr)
		text := fmt.Sprintf("%-20s %12s  %d item(s)", o.OrderNumber, formatPrice(int64(o.AmountReal)), len(o.Goods))
		if added := o.ParsedDateAdd(); !added.IsZero() {
			text += "  " + added.Format("2006-01-02 15:04")
		}
		lines = append(lines, m.row(selected, text)+" "+badge)
		if selected && o.Logistics != nil {
			lines = append(lines, styles.FaintText.Render("    ship to "+o.Logistics.LinkMan+" · "+o.Logistics.Address))
		}
	}
	return lines, cursorLine
}
