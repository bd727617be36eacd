// Package calibration finds the fastest splitting threshold for the pool
// strategy on the current machine and caches it in a JSON profile.
package calibration
