// Package reduce implements a generic parallel reduction over a read-only
// slice by recursive divide and conquer.
//
// A range longer than the threshold is split at its midpoint; the two halves
// are handed to a parallel.Executor, which may run them concurrently, and the
// partial results are merged with the caller's combine function once both
// have finished. Ranges at or below the threshold are folded sequentially,
// left to right.
//
// The decomposition is a pure function of the range bounds and the
// threshold. The order in which partial results of sibling ranges are
// combined is not: combine must be associative and commutative for the
// result to be deterministic.
package reduce
