package objective

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSigmoid(t *testing.T) {
	t.Run("Midpoint", func(t *testing.T) {
		assert.Equal(t, 0.5, Sigmoid(0))
	})

	t.Run("MatchesNaiveFormForModerateInputs", func(t *testing.T) {
		for _, x := range []float64{-20, -5, -1, -0.1, 0.1, 1, 5, 20} {
			naive := 1 / (1 + math.Exp(-x))
			assert.InDelta(t, naive, Sigmoid(x), 1e-15, "x=%v", x)
		}
	})

	t.Run("OpenUnitIntervalForModerateInputs", func(t *testing.T) {
		for _, x := range []float64{-36, -20, -5, 0, 5, 20, 36} {
			s := Sigmoid(x)
			assert.True(t, s > 0 && s < 1, "Sigmoid(%v) = %v out of (0,1)", x, s)
		}
	})

	t.Run("SaturatesWithoutOverflow", func(t *testing.T) {
		// beyond |x| ≈ 36.7 the float64 result rounds to exactly 0 or 1;
		// what matters is that no input overflows to Inf or NaN
		for _, x := range []float64{-1e300, -750, -40, 40, 750, 1e300} {
			s := Sigmoid(x)
			assert.True(t, s >= 0 && s <= 1, "Sigmoid(%v) = %v out of [0,1]", x, s)
			assert.False(t, math.IsNaN(s), "Sigmoid(%v) is NaN", x)
		}
		assert.Equal(t, 1.0, Sigmoid(40))
		assert.Equal(t, 0.0, Sigmoid(-40))
	})

	t.Run("Symmetry", func(t *testing.T) {
		for _, x := range []float64{0.3, 2, 17, 300} {
			assert.InDelta(t, 1-Sigmoid(x), Sigmoid(-x), 1e-15, "x=%v", x)
		}
	})
}
