// Package objective implements the quadratic-approximation loss families
// used to fit inductive matrix completion models.
//
// Each loss family exposes matched value / gradient / Hessian-diagonal
// kernels plus a scalar score. Given predictions p0, the triple defines the
// local surrogate
//
//	v(p) ≈ v(p0) + g·(p-p0) + 0.5·h·(p-p0)²
//
// which the outer solver minimizes to update the factor matrices. All
// kernels are pure elementwise transforms: outputs align index-for-index
// with their inputs and repeated calls with identical inputs return
// identical results.
package objective

import (
	"strings"
	"sync"

	"github.com/imc-lab/goimc/core/parallel"
	"github.com/imc-lab/goimc/pkg/errors"
)

// Loss is the capability a loss family exposes to the outer solver.
//
// Value, Gradient and HessianDiag are mutually consistent: for the same
// (predict, target) pair, Gradient and HessianDiag are the first and second
// derivative of Value with respect to predict at each entry. Score is a
// scalar model-selection metric where lower is better; it need not equal the
// mean of Value (the Huber family scores with MSE, the logistic family with
// the misclassification rate).
type Loss interface {
	// Value returns the per-entry loss.
	Value(predict, target []float64) ([]float64, error)

	// Gradient returns the per-entry first derivative of the loss with
	// respect to the prediction.
	Gradient(predict, target []float64) ([]float64, error)

	// HessianDiag returns the per-entry second derivative approximation.
	HessianDiag(predict, target []float64) ([]float64, error)

	// Score returns a scalar evaluation metric; lower is better.
	Score(predict, target []float64) (float64, error)

	// Name returns the canonical loss name.
	Name() string
}

// Stats holds the per-entry quadratic surrogate statistics of a loss at the
// current predictions.
type Stats struct {
	Value    []float64
	Gradient []float64
	Hessian  []float64
}

// checkLengths validates the elementwise kernel precondition: predict and
// target must have equal length. Zero length is allowed and yields empty
// outputs.
func checkLengths(op string, predict, target []float64) error {
	if len(predict) != len(target) {
		return errors.NewDimensionError(op, len(target), len(predict), 0)
	}
	return nil
}

// sequentialThreshold is the entry count below which Evaluate skips the
// worker pool.
const sequentialThreshold = 4096

// Evaluate computes all three surrogate statistics of l in one call,
// splitting large inputs across workers. workers < 1 uses one worker per
// CPU core; the worker count never changes the results, only the speed.
func Evaluate(l Loss, predict, target []float64, workers int) (*Stats, error) {
	if err := checkLengths(l.Name()+".Evaluate", predict, target); err != nil {
		return nil, err
	}

	n := len(predict)
	stats := &Stats{
		Value:    make([]float64, n),
		Gradient: make([]float64, n),
		Hessian:  make([]float64, n),
	}
	if n == 0 {
		return stats, nil
	}

	var (
		errMu    sync.Mutex
		firstErr error
	)
	fail := func(err error) {
		errMu.Lock()
		if firstErr == nil {
			firstErr = err
		}
		errMu.Unlock()
	}

	run := func(start, end int) {
		p, t := predict[start:end], target[start:end]

		v, err := l.Value(p, t)
		if err != nil {
			fail(err)
			return
		}
		g, err := l.Gradient(p, t)
		if err != nil {
			fail(err)
			return
		}
		h, err := l.HessianDiag(p, t)
		if err != nil {
			fail(err)
			return
		}

		copy(stats.Value[start:end], v)
		copy(stats.Gradient[start:end], g)
		copy(stats.Hessian[start:end], h)
	}

	if n <= sequentialThreshold || workers == 1 {
		run(0, n)
	} else {
		parallel.ParallelizeWithWorkers(n, workers, run)
	}
	if firstErr != nil {
		return nil, firstErr
	}

	return stats, nil
}

// Option configures the loss factory.
type Option func(*config)

type config struct {
	epsilon float64
}

// WithEpsilon sets the Huber threshold. It is ignored by the other families.
func WithEpsilon(epsilon float64) Option {
	return func(c *config) {
		c.epsilon = epsilon
	}
}

// New builds a loss family from its name. Recognized names and aliases:
//
//	"l2", "squared", "mse"            -> L2
//	"huber"                           -> Huber (epsilon via WithEpsilon)
//	"logistic", "log", "classification" -> Logistic
func New(name string, opts ...Option) (Loss, error) {
	cfg := config{epsilon: DefaultEpsilon}
	for _, opt := range opts {
		opt(&cfg)
	}

	switch strings.ToLower(name) {
	case "l2", "squared", "mse":
		return NewL2Loss(), nil
	case "huber":
		l, err := NewHuberLoss(cfg.epsilon)
		if err != nil {
			return nil, err
		}
		return l, nil
	case "logistic", "log", "classification":
		return NewLogisticLoss(), nil
	default:
		return nil, errors.Wrapf(errors.ErrUnknownLoss, "loss %q", name)
	}
}
