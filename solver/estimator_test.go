package solver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imc-lab/goimc/imc"
	"github.com/imc-lab/goimc/objective"
	"github.com/imc-lab/goimc/pkg/errors"
)

func TestEstimatorLifecycle(t *testing.T) {
	e := NewEstimator(NewQNSolver(WithMaxIter(30), WithRidge(1e-3), WithSeed(8)), 2)

	_, err := e.Predict()
	require.Error(t, err)
	var nf *errors.NotFittedError
	assert.True(t, errors.As(err, &nf))

	p, data := syntheticProblem(t, objective.NewL2Loss(), false)
	require.NoError(t, e.Fit(p))
	assert.True(t, e.IsFitted())

	full, err := e.Predict()
	require.NoError(t, err)
	r, c := full.Dims()
	wantR, wantC := data.R.Dims()
	assert.Equal(t, wantR, r)
	assert.Equal(t, wantC, c)

	result, err := e.Result()
	require.NoError(t, err)
	assert.NotEmpty(t, result.History)
}

func TestEstimatorHoldoutScore(t *testing.T) {
	data, err := imc.MakeIMCData(12, 4, 10, 3, 2, imc.WithSeed(21), imc.WithScale(1, 1))
	require.NoError(t, err)

	rows, cols, vals, err := imc.Sparsify(data.RNoisy, 0.8, 33)
	require.NoError(t, err)
	trR, trC, trV, teR, teC, teV, err := imc.TrainTestSplit(rows, cols, vals, 0.25, 5)
	require.NoError(t, err)

	p, err := imc.NewProblem(data.X, data.Y, trR, trC, trV, objective.NewL2Loss())
	require.NoError(t, err)

	e := NewEstimator(NewQNSolver(WithMaxIter(50), WithTol(1e-10), WithRidge(1e-3), WithSeed(8)), 2)
	require.NoError(t, e.Fit(p))

	score, err := e.Score(teR, teC, teV)
	require.NoError(t, err)
	assert.Less(t, score, 0.1, "held-out MSE on noise-free low-rank data")
}

func TestEstimatorPredictEntries(t *testing.T) {
	p, _ := syntheticProblem(t, objective.NewL2Loss(), false)

	e := NewEstimator(NewQNSolver(WithMaxIter(10), WithSeed(8)), 2)
	require.NoError(t, e.Fit(p))

	got, err := e.PredictEntries([]int{0, 1}, []int{0, 2})
	require.NoError(t, err)
	require.Len(t, got, 2)

	full, err := e.Predict()
	require.NoError(t, err)
	assert.Equal(t, full.At(0, 0), got[0])
	assert.Equal(t, full.At(1, 2), got[1])

	_, err = e.PredictEntries([]int{0}, []int{0, 1})
	assert.Error(t, err)
	_, err = e.PredictEntries([]int{99}, []int{0})
	assert.Error(t, err)
}

func TestEstimatorFailedFitStaysUnfitted(t *testing.T) {
	p, _ := syntheticProblem(t, objective.NewL2Loss(), false)

	e := NewEstimator(NewQNSolver(), 99) // rank out of range
	require.Error(t, e.Fit(p))
	assert.False(t, e.IsFitted())
}
