package objective

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogisticLoss(t *testing.T) {
	l := NewLogisticLoss()

	t.Run("EndToEnd", func(t *testing.T) {
		logit := []float64{0}
		target := []float64{1}

		v, err := l.Value(logit, target)
		require.NoError(t, err)
		assert.InDelta(t, math.Log(2), v[0], 1e-12)

		g, err := l.Gradient(logit, target)
		require.NoError(t, err)
		assert.InDelta(t, -0.5, g[0], 1e-12)

		h, err := l.HessianDiag(logit, target)
		require.NoError(t, err)
		assert.InDelta(t, 0.25, h[0], 1e-12)
	})

	t.Run("MatchesNaiveFormForModerateLogits", func(t *testing.T) {
		for _, logit := range []float64{-8, -2, -0.5, 0.5, 2, 8} {
			for _, target := range []float64{-1, 1} {
				naive := math.Log(1 + math.Exp(-target*logit))
				v, err := l.Value([]float64{logit}, []float64{target})
				require.NoError(t, err)
				assert.InDelta(t, naive, v[0], 1e-12, "logit=%v target=%v", logit, target)
			}
		}
	})

	t.Run("NoOverflowForExtremeLogits", func(t *testing.T) {
		logit := []float64{1e3, -1e3, 1e300, -1e300}
		target := []float64{-1, 1, -1, 1}

		v, err := l.Value(logit, target)
		require.NoError(t, err)
		for i := range v {
			assert.False(t, math.IsNaN(v[i]) || math.IsInf(v[i], 0),
				"Value[%d] = %v", i, v[i])
		}
		// confidently wrong predictions cost about |logit|
		assert.InDelta(t, 1e3, v[0], 1e-9)
		assert.InDelta(t, 1e3, v[1], 1e-9)
	})

	t.Run("Symmetry", func(t *testing.T) {
		for _, logit := range []float64{0, 0.1, 1.5, 30} {
			vPos, err := l.Value([]float64{logit}, []float64{1})
			require.NoError(t, err)
			vNeg, err := l.Value([]float64{-logit}, []float64{-1})
			require.NoError(t, err)
			assert.InDelta(t, vPos[0], vNeg[0], 1e-15, "logit=%v", logit)
		}
	})

	t.Run("VanishesForConfidentCorrect", func(t *testing.T) {
		v, err := l.Value([]float64{50, -50}, []float64{1, -1})
		require.NoError(t, err)
		assert.InDelta(t, 0, v[0], 1e-12)
		assert.InDelta(t, 0, v[1], 1e-12)
	})

	t.Run("HessianUsesRawLogit", func(t *testing.T) {
		// Regression pin: the Hessian is p*(1-p) with p = sigmoid(logit),
		// independent of the target, while the gradient uses logit*target.
		logit := []float64{1.3}

		hPos, err := l.HessianDiag(logit, []float64{1})
		require.NoError(t, err)
		hNeg, err := l.HessianDiag(logit, []float64{-1})
		require.NoError(t, err)
		assert.Equal(t, hPos[0], hNeg[0])

		p := Sigmoid(1.3)
		assert.InDelta(t, p*(1-p), hPos[0], 1e-15)

		gPos, err := l.Gradient(logit, []float64{1})
		require.NoError(t, err)
		gNeg, err := l.Gradient(logit, []float64{-1})
		require.NoError(t, err)
		assert.NotEqual(t, gPos[0], gNeg[0])
	})

	t.Run("ScoreIsMisclassificationRate", func(t *testing.T) {
		logit := []float64{2.5, -0.5, 0.1, -3}
		target := []float64{1, 1, -1, -1}
		// sign(logit) -> {1, -1, 1, -1}: two wrong out of four

		score, err := l.Score(logit, target)
		require.NoError(t, err)
		assert.InDelta(t, 0.5, score, 1e-12)
	})

	t.Run("ZeroLogitScoresAsNegative", func(t *testing.T) {
		score, err := l.Score([]float64{0}, []float64{-1})
		require.NoError(t, err)
		assert.Equal(t, 0.0, score)
	})

	t.Run("LengthMismatch", func(t *testing.T) {
		_, err := l.Value([]float64{1}, []float64{1, -1})
		assert.Error(t, err)
		_, err = l.Gradient(nil, []float64{1})
		assert.Error(t, err)
		_, err = l.Score([]float64{1, 2}, []float64{1})
		assert.Error(t, err)
	})
}
