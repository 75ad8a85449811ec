// Package tui implements the terminal interfaces built on bubbletea: a form
// that collects simulation parameters and a dashboard that runs a
// simulation with live progress and host load.
package tui
