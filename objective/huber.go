package objective

import (
	"math"

	"github.com/imc-lab/goimc/pkg/errors"
)

// DefaultEpsilon is the Huber threshold used when none is given, matching
// the reference experiments.
const DefaultEpsilon = 1e-2

// HuberLoss is the robust loss family: quadratic within epsilon of the
// target, linear outside. As epsilon grows it degenerates to L2; as it
// shrinks the gradient degenerates to the residual sign.
//
// In the linear regime the Hessian diagonal is exactly zero. The surrogate
// there carries no curvature of its own and relies on the solver's ridge
// term, which is why the solver rejects a zero ridge weight for this family.
type HuberLoss struct {
	epsilon float64

	// scoring is shared with L2 on purpose: Huber changes training
	// robustness, not the evaluation metric.
	scorer *L2Loss
}

// NewHuberLoss creates a Huber loss family with the given threshold.
// Non-positive epsilon is rejected.
func NewHuberLoss(epsilon float64) (*HuberLoss, error) {
	if epsilon <= 0 {
		return nil, errors.NewValidationError("epsilon", "must be positive", epsilon)
	}
	return &HuberLoss{epsilon: epsilon, scorer: NewL2Loss()}, nil
}

// Epsilon returns the quadratic/linear threshold.
func (l *HuberLoss) Epsilon() float64 {
	return l.epsilon
}

// Value returns the Huber loss per entry: 0.5*resid^2 for |resid| <= epsilon,
// epsilon*(|resid| - epsilon/2) beyond. Both branches agree at the threshold.
func (l *HuberLoss) Value(predict, target []float64) ([]float64, error) {
	if err := checkLengths("HuberLoss.Value", predict, target); err != nil {
		return nil, err
	}

	out := make([]float64, len(predict))
	for i := range predict {
		resid := math.Abs(predict[i] - target[i])
		if resid > l.epsilon {
			out[i] = l.epsilon * (resid - l.epsilon/2)
		} else {
			out[i] = 0.5 * resid * resid
		}
	}
	return out, nil
}

// Gradient returns the residual clipped to [-epsilon, epsilon].
func (l *HuberLoss) Gradient(predict, target []float64) ([]float64, error) {
	if err := checkLengths("HuberLoss.Gradient", predict, target); err != nil {
		return nil, err
	}

	out := make([]float64, len(predict))
	for i := range predict {
		resid := predict[i] - target[i]
		switch {
		case resid > l.epsilon:
			out[i] = l.epsilon
		case resid < -l.epsilon:
			out[i] = -l.epsilon
		default:
			out[i] = resid
		}
	}
	return out, nil
}

// HessianDiag returns 1 in the quadratic regime and 0 in the linear regime.
func (l *HuberLoss) HessianDiag(predict, target []float64) ([]float64, error) {
	if err := checkLengths("HuberLoss.HessianDiag", predict, target); err != nil {
		return nil, err
	}

	out := make([]float64, len(predict))
	for i := range predict {
		if math.Abs(predict[i]-target[i]) <= l.epsilon {
			out[i] = 1
		}
	}
	return out, nil
}

// Score delegates to the L2 scoring function (mean squared error).
func (l *HuberLoss) Score(predict, target []float64) (float64, error) {
	if err := checkLengths("HuberLoss.Score", predict, target); err != nil {
		return 0, err
	}
	return l.scorer.Score(predict, target)
}

// Name returns "huber".
func (l *HuberLoss) Name() string {
	return "huber"
}
