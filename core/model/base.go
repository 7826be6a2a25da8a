// Package model provides the shared fitted-state tracking embedded by
// estimator types.
package model

// EstimatorState tracks whether an estimator has been fitted.
type EstimatorState int

const (
	// NotFitted is the state before a successful Fit call.
	NotFitted EstimatorState = iota
	// Fitted is the state after a successful Fit call.
	Fitted
)

// BaseEstimator is embedded by estimators to share fitted-state handling.
type BaseEstimator struct {
	state EstimatorState
}

// IsFitted reports whether Fit has completed successfully.
func (e *BaseEstimator) IsFitted() bool {
	return e.state == Fitted
}

// SetFitted marks the estimator as fitted.
func (e *BaseEstimator) SetFitted() {
	e.state = Fitted
}

// Reset returns the estimator to the unfitted state.
func (e *BaseEstimator) Reset() {
	e.state = NotFitted
}
