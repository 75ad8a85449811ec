// Package batch runs energy sweeps: for every configured total energy it
// repeats the simulation a number of times, analyses each histogram and
// hands one Record per trial to a set of sinks (CSV file, SQLite store).
package batch
