package tui

import (
	"testing"

	"github.com/charmbracelet/lipgloss"
)

func TestPadMeasuresTerminalCells(t *testing.T) {
	cases := []struct {
		in    string
		width int
	}{
		{"abc", 6},
		{"abcdef", 4},
		{"", 3},
		{"中文名", 4},  // each rune is 2 cells wide
		{"中文", 8},   // wide runes padded, not byte-counted
		{"héllo", 5}, // multi-byte but single-cell runes
	}
	for _, c := range cases {
		got := pad(c.in, c.width)
		if w := lipgloss.Width(got); w != c.width {
			t.Errorf("pad(%q, %d) = %q, width %d", c.in, c.width, got, w)
		}
	}
}

func TestPadKeepsShortTextIntact(t *testing.T) {
	if got := pad("bid", 5); got != "bid  " {
		t.Fatalf("pad: %q", got)
	}
}
