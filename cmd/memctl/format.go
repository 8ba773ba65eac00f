package main

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.English)

var (
	committedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#04B575"))
	reservedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#626262"))
	labelStyle     = lipgloss.NewStyle().Bold(true)
)

// formatCount groups digits: 65536 -> "65,536".
func formatCount(n int) string {
	return printer.Sprintf("%d", n)
}

// formatBytes renders a byte count with a unit.
func formatBytes(n int) string {
	const kib = 1024
	switch {
	case n >= kib*kib:
		return printer.Sprintf("%.1f MiB", float64(n)/(kib*kib))
	case n >= kib:
		return printer.Sprintf("%.1f KiB", float64(n)/kib)
	default:
		return printer.Sprintf("%d B", n)
	}
}

// pageBar draws one cell per reserved page, filled for committed ones.
func pageBar(committed, reserved int) string {
	if reserved <= 0 {
		return "[]"
	}
	committed = min(committed, reserved)
	on := strings.Repeat("#", committed)
	off := strings.Repeat(".", reserved-committed)
	if !noColor {
		on = committedStyle.Render(on)
		off = reservedStyle.Render(off)
	}
	return "[" + on + off + "]"
}

func label(s string) string {
	if noColor {
		return s
	}
	return labelStyle.Render(s)
}
