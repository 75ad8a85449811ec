package ui

import (
	"testing"

	"github.com/charmbracelet/lipgloss"
)

// Theme tests mutate package state and run sequentially.

func TestSetTheme(t *testing.T) {
	saved := GetCurrentTheme()
	t.Cleanup(func() { SetCurrentTheme(saved) })

	tests := []struct {
		name string
		want string
	}{
		{"dark", "dark"},
		{"light", "light"},
		{"none", "none"},
		{"neon", "dark"},
	}
	for _, tt := range tests {
		SetTheme(tt.name)
		if got := GetCurrentTheme().Name; got != tt.want {
			t.Errorf("SetTheme(%q) selected %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestInitTheme(t *testing.T) {
	saved := GetCurrentTheme()
	t.Cleanup(func() { SetCurrentTheme(saved) })

	InitTheme(true)
	if GetCurrentTheme().Name != "none" {
		t.Error("--no-color should disable colours")
	}
	if ColorRed() != "" || ColorReset() != "" || ColorBold() != "" {
		t.Error("no-colour theme must not emit escape sequences")
	}
	if _, ok := GetCurrentTUITheme().Accent.(lipgloss.NoColor); !ok {
		t.Error("TUI palette should follow the no-colour theme")
	}

	t.Setenv("NO_COLOR", "1")
	InitTheme(false)
	if GetCurrentTheme().Name != "none" {
		t.Error("NO_COLOR should disable colours")
	}
}

func TestColorFunctions(t *testing.T) {
	saved := GetCurrentTheme()
	t.Cleanup(func() { SetCurrentTheme(saved) })

	SetCurrentTheme(DarkTheme)
	tests := []struct {
		name string
		fn   func() string
		want string
	}{
		{"reset", ColorReset, DarkTheme.Reset},
		{"red", ColorRed, DarkTheme.Error},
		{"green", ColorGreen, DarkTheme.Success},
		{"yellow", ColorYellow, DarkTheme.Warning},
		{"blue", ColorBlue, DarkTheme.Primary},
		{"magenta", ColorMagenta, DarkTheme.Info},
		{"cyan", ColorCyan, DarkTheme.Secondary},
		{"bold", ColorBold, DarkTheme.Bold},
		{"underline", ColorUnderline, DarkTheme.Underline},
	}
	for _, tt := range tests {
		if got := tt.fn(); got != tt.want {
			t.Errorf("%s = %q, want %q", tt.name, got, tt.want)
		}
	}
	if GetCurrentTUITheme() != DarkTUITheme {
		t.Error("dark theme should map to the dark TUI palette")
	}
}
