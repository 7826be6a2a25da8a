package solver

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/imc-lab/goimc/imc"
	"github.com/imc-lab/goimc/objective"
	"github.com/imc-lab/goimc/pkg/errors"
)

// syntheticProblem generates a small noise-free low-rank problem and wraps
// 70% of its entries into a Problem with the given loss.
func syntheticProblem(t *testing.T, loss objective.Loss, binarize bool) (*imc.Problem, *imc.SyntheticData) {
	t.Helper()

	opts := []imc.DataOption{imc.WithSeed(21), imc.WithScale(1, 1)}
	if binarize {
		opts = append(opts, imc.WithBinarize())
	}
	data, err := imc.MakeIMCData(12, 4, 10, 3, 2, opts...)
	require.NoError(t, err)

	rows, cols, vals, err := imc.Sparsify(data.RNoisy, 0.7, 33)
	require.NoError(t, err)

	p, err := imc.NewProblem(data.X, data.Y, rows, cols, vals, loss)
	require.NoError(t, err)
	return p, data
}

func TestQNSolverFitsL2Problem(t *testing.T) {
	p, _ := syntheticProblem(t, objective.NewL2Loss(), false)

	s := NewQNSolver(WithMaxIter(50), WithTol(1e-10), WithRidge(1e-3), WithSeed(4))
	result, err := s.Fit(p, 2)
	require.NoError(t, err)
	require.NotEmpty(t, result.History)

	first := result.History[0]
	last := result.History[len(result.History)-1]
	assert.Less(t, last.Objective, first.Objective, "objective should decrease")
	assert.Less(t, last.Score, 0.05, "train MSE should be near zero on noise-free data")

	wr, wk := result.W.Dims()
	assert.Equal(t, 4, wr)
	assert.Equal(t, 2, wk)
	hr, hk := result.H.Dims()
	assert.Equal(t, 3, hr)
	assert.Equal(t, 2, hk)
}

func TestQNSolverFitsHuberProblem(t *testing.T) {
	huber, err := objective.NewHuberLoss(1.0)
	require.NoError(t, err)
	p, _ := syntheticProblem(t, huber, false)

	// the Huber Hessian vanishes in the linear regime; the ridge term must
	// carry the curvature there
	s := NewQNSolver(WithMaxIter(60), WithTol(1e-10), WithRidge(1e-2), WithSeed(4))
	result, err := s.Fit(p, 2)
	require.NoError(t, err)

	last := result.History[len(result.History)-1]
	assert.Less(t, last.Score, 0.1)
}

func TestQNSolverHuberObjectiveNeverIncreases(t *testing.T) {
	// With a tight epsilon every residual of the random initialization sits
	// in Huber's linear regime, where the normal equations reduce to the
	// ridge alone and an unchecked Newton direction is wildly overscaled.
	// The line search must keep the objective finite and monotone anyway.
	huber, err := objective.NewHuberLoss(1e-2)
	require.NoError(t, err)
	p, _ := syntheticProblem(t, huber, false)

	result, err := NewQNSolver(WithMaxIter(60), WithTol(1e-12), WithRidge(1e-2), WithSeed(4)).Fit(p, 2)
	require.NoError(t, err)

	prev := math.Inf(1)
	for _, it := range result.History {
		require.False(t, math.IsInf(it.Objective, 0) || math.IsNaN(it.Objective),
			"objective diverged at iteration %d", it.Iteration)
		assert.LessOrEqual(t, it.Objective, prev,
			"objective increased at iteration %d", it.Iteration)
		prev = it.Objective
	}
}

func TestQNSolverFitsLogisticProblem(t *testing.T) {
	p, _ := syntheticProblem(t, objective.NewLogisticLoss(), true)

	s := NewQNSolver(WithMaxIter(40), WithTol(1e-8), WithRidge(1e-2), WithSeed(4))
	result, err := s.Fit(p, 2)
	require.NoError(t, err)

	first := result.History[0]
	last := result.History[len(result.History)-1]
	assert.LessOrEqual(t, last.Score, first.Score)
	assert.Less(t, last.Score, 0.2, "train misclassification rate")
}

func TestQNSolverDeterministicUnderSeed(t *testing.T) {
	p, _ := syntheticProblem(t, objective.NewL2Loss(), false)

	a, err := NewQNSolver(WithMaxIter(10), WithSeed(7)).Fit(p, 2)
	require.NoError(t, err)
	b, err := NewQNSolver(WithMaxIter(10), WithSeed(7)).Fit(p, 2)
	require.NoError(t, err)

	assert.True(t, mat.Equal(a.W, b.W))
	assert.True(t, mat.Equal(a.H, b.H))
	assert.Equal(t, a.History, b.History)
}

func TestQNSolverTracksFactors(t *testing.T) {
	p, _ := syntheticProblem(t, objective.NewL2Loss(), false)

	result, err := NewQNSolver(WithMaxIter(5), WithTol(1e-15), WithTrackFactors()).Fit(p, 2)
	require.NoError(t, err)

	assert.Len(t, result.TrajectoryW, result.Iterations)
	assert.Len(t, result.TrajectoryH, result.Iterations)
	assert.True(t, mat.Equal(result.TrajectoryW[result.Iterations-1], result.W))
}

func TestQNSolverConvergenceWarning(t *testing.T) {
	var captured error
	errors.SetWarningHandler(func(w error) { captured = w })
	defer errors.SetWarningHandler(nil)

	p, _ := syntheticProblem(t, objective.NewL2Loss(), false)

	result, err := NewQNSolver(WithMaxIter(1), WithTol(1e-15)).Fit(p, 2)
	require.NoError(t, err)
	assert.False(t, result.Converged)

	var warning *errors.ConvergenceWarning
	require.NotNil(t, captured, "expected a convergence warning")
	assert.True(t, errors.As(captured, &warning))
}

func TestQNSolverValidation(t *testing.T) {
	p, _ := syntheticProblem(t, objective.NewL2Loss(), false)

	tests := []struct {
		name string
		s    *QNSolver
		rank int
	}{
		{name: "zero iterations", s: NewQNSolver(WithMaxIter(0)), rank: 2},
		{name: "zero tol", s: NewQNSolver(WithTol(0)), rank: 2},
		{name: "zero ridge", s: NewQNSolver(WithRidge(0)), rank: 2},
		{name: "negative ridge", s: NewQNSolver(WithRidge(-1)), rank: 2},
		{name: "step too large", s: NewQNSolver(WithStepSize(1.5)), rank: 2},
		{name: "zero rank", s: NewQNSolver(), rank: 0},
		{name: "rank above dims", s: NewQNSolver(), rank: 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.s.Fit(p, tt.rank)
			assert.Error(t, err)
		})
	}

	t.Run("nil problem", func(t *testing.T) {
		_, err := NewQNSolver().Fit(nil, 2)
		assert.Error(t, err)
	})
}
