// Package parallel provides the fork/join scheduling layer used by the
// reducer: an Executor capability ("run two computations, possibly at the
// same time, and wait for both"), several implementations of it, and an
// ErrorCollector that keeps the first failure observed by concurrent tasks.
package parallel
