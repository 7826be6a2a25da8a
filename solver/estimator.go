package solver

import (
	"gonum.org/v1/gonum/mat"

	"github.com/imc-lab/goimc/core/model"
	"github.com/imc-lab/goimc/imc"
	"github.com/imc-lab/goimc/pkg/errors"
)

// Estimator is the fit/predict wrapper around QNSolver. It holds the fitted
// factors so completed matrices and scores can be requested repeatedly
// without re-running the solver.
type Estimator struct {
	model.BaseEstimator

	solver *QNSolver
	rank   int

	problem *imc.Problem
	result  *FitResult
}

// NewEstimator wraps s into an estimator producing rank-k factors.
func NewEstimator(s *QNSolver, rank int) *Estimator {
	if s == nil {
		s = NewQNSolver()
	}
	return &Estimator{solver: s, rank: rank}
}

// Fit runs the solver on p and stores the result. A failed fit leaves the
// estimator unfitted.
func (e *Estimator) Fit(p *imc.Problem) error {
	e.Reset()

	result, err := e.solver.Fit(p, e.rank)
	if err != nil {
		return err
	}

	e.problem = p
	e.result = result
	e.SetFitted()
	return nil
}

// Result returns the raw fit result.
func (e *Estimator) Result() (*FitResult, error) {
	if !e.IsFitted() {
		return nil, errors.NewNotFittedError("Estimator", "Result")
	}
	return e.result, nil
}

// Predict returns the completed n1×n2 matrix implied by the fitted factors.
func (e *Estimator) Predict() (*mat.Dense, error) {
	if !e.IsFitted() {
		return nil, errors.NewNotFittedError("Estimator", "Predict")
	}
	return e.problem.PredictFull(e.result.W, e.result.H)
}

// PredictEntries returns predictions for arbitrary (row, col) pairs against
// the fitted factors.
func (e *Estimator) PredictEntries(rows, cols []int) ([]float64, error) {
	if !e.IsFitted() {
		return nil, errors.NewNotFittedError("Estimator", "PredictEntries")
	}
	if len(rows) != len(cols) {
		return nil, errors.NewDimensionError("Estimator.PredictEntries", len(rows), len(cols), 0)
	}

	full, err := e.problem.PredictFull(e.result.W, e.result.H)
	if err != nil {
		return nil, err
	}

	n1, n2 := full.Dims()
	out := make([]float64, len(rows))
	for i := range rows {
		if rows[i] < 0 || rows[i] >= n1 || cols[i] < 0 || cols[i] >= n2 {
			return nil, errors.Newf("Estimator.PredictEntries: index (%d, %d) out of range %dx%d",
				rows[i], cols[i], n1, n2)
		}
		out[i] = full.At(rows[i], cols[i])
	}
	return out, nil
}

// Score evaluates the fitted factors with the loss family's score on the
// given entries, e.g. a held-out test split; lower is better.
func (e *Estimator) Score(rows, cols []int, vals []float64) (float64, error) {
	if !e.IsFitted() {
		return 0, errors.NewNotFittedError("Estimator", "Score")
	}

	predict, err := e.PredictEntries(rows, cols)
	if err != nil {
		return 0, err
	}
	return e.problem.Loss().Score(predict, vals)
}
