// Package orchestration runs reduction strategies over a shared dataset,
// times them and compares their results. It decouples the runs from their
// presentation via the ProgressReporter and ResultPresenter interfaces.
package orchestration
