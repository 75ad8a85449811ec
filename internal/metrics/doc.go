// Package metrics samples process and host resource usage and estimates the
// memory a simulation will need.
package metrics
