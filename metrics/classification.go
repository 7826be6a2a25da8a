package metrics

import (
	"github.com/imc-lab/goimc/pkg/errors"
)

// Accuracy computes the fraction of positions where yTrue and yPred hold the
// same label. Labels are compared exactly; callers quantize beforehand.
func Accuracy(yTrue, yPred []float64) (float64, error) {
	n := len(yTrue)
	if n == 0 {
		return 0, errors.NewValueError("Accuracy", "empty input")
	}
	if len(yPred) != n {
		return 0, errors.NewDimensionError("Accuracy", n, len(yPred), 0)
	}

	correct := 0
	for i := 0; i < n; i++ {
		if yTrue[i] == yPred[i] {
			correct++
		}
	}
	return float64(correct) / float64(n), nil
}

// MisclassificationRate computes 1 - Accuracy. Lower is better, matching the
// scoring convention of the regression metrics.
func MisclassificationRate(yTrue, yPred []float64) (float64, error) {
	acc, err := Accuracy(yTrue, yPred)
	if err != nil {
		return 0, err
	}
	return 1 - acc, nil
}

// SignLabel quantizes raw scores into ±1 labels: strictly positive scores map
// to +1, everything else to -1.
func SignLabel(scores []float64) []float64 {
	labels := make([]float64, len(scores))
	for i, s := range scores {
		if s > 0 {
			labels[i] = 1
		} else {
			labels[i] = -1
		}
	}
	return labels
}
