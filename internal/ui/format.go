package ui

import (
	"fmt"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/five82/storefront/internal/mall"
)

// formatPrice renders minor units as grouped yuan, e.g. ¥1,234.50.
func formatPrice(fen int64) string {
	p := message.NewPrinter(language.Chinese)
	sign := ""
	if fen < 0 {
		sign = "-"
		fen = -fen
	}
	return sign + "¥" + p.Sprintf("%d", fen/100) + fmt.Sprintf(".%02d", fen%100)
}

// formatScore renders a points amount, or "" when there are none.
func formatScore(score int64) string {
	if score <= 0 {
		return ""
	}
	return message.NewPrinter(language.Chinese).Sprintf("%d pts", score)
}

// productPrice shows money and points together for mixed-payment goods.
func productPrice(p mall.Product) string {
	if p.PaysWithScore() {
		return formatScore(p.MinScore)
	}
	parts := []string{formatPrice(int64(p.MinPrice))}
	if p.MinScore > 0 {
		parts = append(parts, "+ "+formatScore(p.MinScore))
	}
	return strings.Join(parts, " ")
}

func checkbox(on bool) string {
	if on {
		return "[x]"
	}
	return "[ ]"
}

// truncate cuts value to limit runes, marking the cut with an ellipsis.
func truncate(value string, limit int) string {
	runes := []rune(value)
	if limit <= 0 || len(runes) <= limit {
		return value
	}
	if limit == 1 {
		return "…"
	}
	return string(runes[:limit-1]) + "…"
}
