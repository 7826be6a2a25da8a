package objective

import "math"

// Sigmoid computes the logistic function 1/(1+exp(-x)) without overflow.
// The exponent argument is always non-positive, so exp never overflows no
// matter how large |x| gets.
func Sigmoid(x float64) float64 {
	t := 1 / (1 + math.Exp(-math.Abs(x)))
	if x > 0 {
		return t
	}
	return 1 - t
}
