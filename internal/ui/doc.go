// Package ui holds the colour themes shared by the CLI report and the
// interactive prompt.
package ui
