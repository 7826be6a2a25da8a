package objective

import (
	"github.com/imc-lab/goimc/metrics"
)

// L2Loss is the squared-error loss family. Its quadratic surrogate is exact:
// the Hessian diagonal is constant one and the gradient is the residual.
type L2Loss struct{}

// NewL2Loss creates the L2 loss family.
func NewL2Loss() *L2Loss {
	return &L2Loss{}
}

// Value returns 0.5*(predict-target)^2 per entry.
func (l *L2Loss) Value(predict, target []float64) ([]float64, error) {
	if err := checkLengths("L2Loss.Value", predict, target); err != nil {
		return nil, err
	}

	out := make([]float64, len(predict))
	for i := range predict {
		resid := predict[i] - target[i]
		out[i] = 0.5 * resid * resid
	}
	return out, nil
}

// Gradient returns predict-target per entry.
func (l *L2Loss) Gradient(predict, target []float64) ([]float64, error) {
	if err := checkLengths("L2Loss.Gradient", predict, target); err != nil {
		return nil, err
	}

	out := make([]float64, len(predict))
	for i := range predict {
		out[i] = predict[i] - target[i]
	}
	return out, nil
}

// HessianDiag returns the all-ones vector.
func (l *L2Loss) HessianDiag(predict, target []float64) ([]float64, error) {
	if err := checkLengths("L2Loss.HessianDiag", predict, target); err != nil {
		return nil, err
	}

	out := make([]float64, len(predict))
	for i := range out {
		out[i] = 1
	}
	return out, nil
}

// Score returns the mean squared error; lower is better.
func (l *L2Loss) Score(predict, target []float64) (float64, error) {
	if err := checkLengths("L2Loss.Score", predict, target); err != nil {
		return 0, err
	}
	return metrics.MSE(target, predict)
}

// Name returns "l2".
func (l *L2Loss) Name() string {
	return "l2"
}
