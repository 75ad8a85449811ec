// Package analysis fits an occupancy histogram to an exponential decay
// n(level) ~ exp(alpha - beta*level) and computes the energy moments.
package analysis
