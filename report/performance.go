// Package report computes per-iteration diagnostics over a solver's factor
// trajectory and renders them as convergence curves.
package report

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/imc-lab/goimc/imc"
	"github.com/imc-lab/goimc/pkg/errors"
)

// RegWeights are the regularizer coefficients used when evaluating the
// penalty value along a trajectory: C_lasso*L1 + C_group*rowL2 + C_ridge*0.5*F².
type RegWeights struct {
	Lasso float64
	Group float64
	Ridge float64
}

// Series is one named diagnostic curve, indexed by iteration.
type Series struct {
	Title  string
	Unit   string
	Values []float64
}

// Summary returns the mean and standard deviation of the series.
func (s Series) Summary() (mean, std float64) {
	return stat.MeanStdDev(s.Values, nil)
}

// zero tolerance for the factor sparsity diagnostic
const sparsityTol = 1e-8

// Performance evaluates the standard diagnostics of a factor trajectory:
// train objective, regularizer value, factor sparsity, and successive
// Frobenius deltas. When rFull is non-nil (synthetic problems where the
// complete matrix is known) the full-matrix loss and score are included.
// trajW and trajH must have equal, non-zero length.
func Performance(p *imc.Problem, trajW, trajH []*mat.Dense, weights RegWeights, rFull *mat.Dense) ([]Series, error) {
	if p == nil {
		return nil, errors.NewValueError("Performance", "problem must not be nil")
	}
	n := len(trajW)
	if n == 0 {
		return nil, errors.Wrap(errors.ErrEmptyData, "Performance: empty trajectory")
	}
	if len(trajH) != n {
		return nil, errors.NewDimensionError("Performance", n, len(trajH), 0)
	}

	trainValue := make([]float64, n)
	regValue := make([]float64, n)
	sparsityW := make([]float64, n)
	sparsityH := make([]float64, n)
	divW := make([]float64, n)
	divH := make([]float64, n)

	var fullValue, fullScore []float64
	if rFull != nil {
		fullValue = make([]float64, n)
		fullScore = make([]float64, n)
	}

	for i := 0; i < n; i++ {
		w, h := trajW[i], trajH[i]

		v, err := p.Value(w, h)
		if err != nil {
			return nil, errors.Wrapf(err, "trajectory step %d", i)
		}
		trainValue[i] = v
		regValue[i] = regularizerValue(w, weights) + regularizerValue(h, weights)
		sparsityW[i] = zeroFraction(w)
		sparsityH[i] = zeroFraction(h)

		if i+1 < n {
			divW[i] = froDiff(trajW[i+1], w)
			divH[i] = froDiff(trajH[i+1], h)
		}

		if rFull != nil {
			fullValue[i], err = p.ValueFull(w, h, rFull)
			if err != nil {
				return nil, errors.Wrapf(err, "trajectory step %d", i)
			}
			fullScore[i], err = p.ScoreFull(w, h, rFull)
			if err != nil {
				return nil, errors.Wrapf(err, "trajectory step %d", i)
			}
		}
	}

	series := []Series{
		{Title: "Observed Elements", Unit: "loss", Values: trainValue},
		{Title: "Regularization", Unit: "penalty", Values: regValue},
		{Title: "Zero Values of W", Unit: "fraction", Values: sparsityW},
		{Title: "Zero Values of H", Unit: "fraction", Values: sparsityH},
		{Title: "L2-Norm Variation W", Unit: "norm", Values: divW},
		{Title: "L2-Norm Variation H", Unit: "norm", Values: divH},
	}
	if rFull != nil {
		series = append(series,
			Series{Title: "Full Matrix", Unit: "loss", Values: fullValue},
			Series{Title: "Score", Unit: "score", Values: fullScore},
		)
	}
	return series, nil
}

// regularizerValue computes C_lasso*||F||_1 + C_group*Σ_u||F[u,:]||_2 +
// C_ridge*0.5*||F||_F² for one factor matrix.
func regularizerValue(f *mat.Dense, weights RegWeights) float64 {
	rows, _ := f.Dims()

	var l1, group float64
	for u := 0; u < rows; u++ {
		row := f.RawRowView(u)
		l1 += floats.Norm(row, 1)
		group += floats.Norm(row, 2)
	}
	fro := mat.Norm(f, 2)

	return weights.Lasso*l1 + weights.Group*group + weights.Ridge*0.5*fro*fro
}

func zeroFraction(f *mat.Dense) float64 {
	rows, cols := f.Dims()
	zeros := 0
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			if math.Abs(f.At(i, j)) <= sparsityTol {
				zeros++
			}
		}
	}
	return float64(zeros) / float64(rows*cols)
}

func froDiff(a, b *mat.Dense) float64 {
	var diff mat.Dense
	diff.Sub(a, b)
	return mat.Norm(&diff, 2)
}
