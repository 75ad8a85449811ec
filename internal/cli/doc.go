// Package cli renders simulation runs on a terminal.
//
// Display* functions write to an [io.Writer]; Format* functions return
// strings and perform no I/O.
package cli
