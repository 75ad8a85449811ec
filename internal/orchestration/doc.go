// Package orchestration splits a simulation into shards, runs them
// concurrently and merges their histograms. It decouples the core from
// presentation through the ProgressReporter interface.
package orchestration
