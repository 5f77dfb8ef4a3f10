package ui

import (
	"testing"

	"github.com/charmbracelet/lipgloss"
)

func TestThemeNames(t *testing.T) {
	names := ThemeNames()
	if len(names) != 2 || names[0] != "Dracula" || names[1] != "Slate" {
		t.Fatalf("ThemeNames() = %v, want [Dracula Slate]", names)
	}
}

func TestNextTheme(t *testing.T) {
	if got := NextTheme("Dracula"); got != "Slate" {
		t.Fatalf("NextTheme(Dracula) = %q, want Slate", got)
	}
	if got := NextTheme("Slate"); got != "Dracula" {
		t.Fatalf("NextTheme(Slate) = %q, want Dracula", got)
	}
	if got := NextTheme("Unknown"); got != "Dracula" {
		t.Fatalf("NextTheme(Unknown) = %q, want Dracula", got)
	}
}

func TestGetTheme_FallsBackToDracula(t *testing.T) {
	if got := GetTheme("Slate").Name; got != "Slate" {
		t.Fatalf("GetTheme(Slate).Name = %q", got)
	}
	if got := GetTheme("Unknown").Name; got != "Dracula" {
		t.Fatalf("GetTheme(Unknown).Name = %q, want Dracula", got)
	}
}

func TestOrderStyle_UnknownStatusUsesMuted(t *testing.T) {
	th := GetTheme("Dracula")
	styles := th.Styles()
	if got := styles.OrderStyle(4).GetBackground(); got != lipgloss.Color(th.OrderColors[4]) {
		t.Fatalf("OrderStyle(4) background = %v, want %v", got, th.OrderColors[4])
	}
	if got := styles.OrderStyle(99).GetBackground(); got != lipgloss.Color(th.Muted) {
		t.Fatalf("OrderStyle(99) background = %v, want %v", got, th.Muted)
	}
}
