// Package imc provides the inductive matrix completion problem container
// and synthetic problem generators.
//
// An IMC problem predicts the entries of a partially observed matrix R as a
// bilinear form of known side features: R[i,j] ≈ x_i W H^T y_j^T, with X
// (n1×d1) and Y (n2×d2) fixed and the factors W (d1×k), H (d2×k) learned
// from the observed entries.
package imc

import (
	"github.com/imc-lab/goimc/core/parallel"
	"github.com/imc-lab/goimc/objective"
	"github.com/imc-lab/goimc/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// Problem holds the side features, the observed entry set in coordinate
// form, and the loss family used to fit and score factor candidates. It is
// immutable after construction.
type Problem struct {
	x *mat.Dense // n1×d1
	y *mat.Dense // n2×d2

	rows []int
	cols []int
	vals []float64

	loss    objective.Loss
	workers int
}

// ProblemOption configures a Problem.
type ProblemOption func(*Problem)

// WithWorkers sets how many workers evaluate the loss kernels. The count
// affects throughput only, never results. workers < 1 uses one per core.
func WithWorkers(workers int) ProblemOption {
	return func(p *Problem) {
		p.workers = workers
	}
}

// NewProblem builds a problem from side features, observed entries in
// coordinate form, and a loss family. The triplet slices must have equal
// length and indices must lie within the feature matrices' row counts.
func NewProblem(x, y *mat.Dense, rows, cols []int, vals []float64, loss objective.Loss, opts ...ProblemOption) (*Problem, error) {
	if x == nil || y == nil {
		return nil, errors.NewValueError("NewProblem", "side feature matrices must not be nil")
	}
	if loss == nil {
		return nil, errors.NewValueError("NewProblem", "loss must not be nil")
	}
	if len(rows) != len(vals) {
		return nil, errors.NewDimensionError("NewProblem", len(vals), len(rows), 0)
	}
	if len(cols) != len(vals) {
		return nil, errors.NewDimensionError("NewProblem", len(vals), len(cols), 0)
	}
	if len(vals) == 0 {
		return nil, errors.Wrap(errors.ErrEmptyData, "NewProblem: no observed entries")
	}

	n1, _ := x.Dims()
	n2, _ := y.Dims()
	for e := range vals {
		if rows[e] < 0 || rows[e] >= n1 {
			return nil, errors.Newf("NewProblem: row index %d out of range [0,%d)", rows[e], n1)
		}
		if cols[e] < 0 || cols[e] >= n2 {
			return nil, errors.Newf("NewProblem: column index %d out of range [0,%d)", cols[e], n2)
		}
	}

	p := &Problem{
		x:    x,
		y:    y,
		rows: append([]int(nil), rows...),
		cols: append([]int(nil), cols...),
		vals: append([]float64(nil), vals...),
		loss: loss,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Loss returns the problem's loss family.
func (p *Problem) Loss() objective.Loss {
	return p.loss
}

// NumObserved returns the number of observed entries.
func (p *Problem) NumObserved() int {
	return len(p.vals)
}

// Dims returns (n1, d1, n2, d2): the shapes of the side feature matrices.
func (p *Problem) Dims() (n1, d1, n2, d2 int) {
	n1, d1 = p.x.Dims()
	n2, d2 = p.y.Dims()
	return n1, d1, n2, d2
}

// SideFeatures returns the X and Y feature matrices. Callers must not
// mutate them.
func (p *Problem) SideFeatures() (x, y *mat.Dense) {
	return p.x, p.y
}

// Observed returns copies of the observed entry triplets.
func (p *Problem) Observed() (rows, cols []int, vals []float64) {
	return append([]int(nil), p.rows...),
		append([]int(nil), p.cols...),
		append([]float64(nil), p.vals...)
}

// Targets returns a copy of the observed values, aligned with the
// predictions produced by PredictObserved.
func (p *Problem) Targets() []float64 {
	return append([]float64(nil), p.vals...)
}

// checkFactors validates that w and h are conformable with the side
// features and with each other.
func (p *Problem) checkFactors(op string, w, h *mat.Dense) error {
	_, d1, _, d2 := p.Dims()
	wr, wk := w.Dims()
	hr, hk := h.Dims()
	if wr != d1 {
		return errors.NewDimensionError(op, d1, wr, 0)
	}
	if hr != d2 {
		return errors.NewDimensionError(op, d2, hr, 0)
	}
	if wk != hk {
		return errors.NewDimensionError(op, wk, hk, 1)
	}
	return nil
}

// PredictObserved computes the bilinear prediction x_i W · (y_j H) for
// every observed entry, in entry order.
func (p *Problem) PredictObserved(w, h *mat.Dense) ([]float64, error) {
	if err := p.checkFactors("Problem.PredictObserved", w, h); err != nil {
		return nil, err
	}

	var xw, yh mat.Dense
	xw.Mul(p.x, w) // n1×k
	yh.Mul(p.y, h) // n2×k

	_, k := xw.Dims()
	out := make([]float64, len(p.vals))
	parallel.ParallelizeWithThreshold(len(p.vals), 4096, func(start, end int) {
		for e := start; e < end; e++ {
			xwRow := xw.RawRowView(p.rows[e])
			yhRow := yh.RawRowView(p.cols[e])
			var dot float64
			for c := 0; c < k; c++ {
				dot += xwRow[c] * yhRow[c]
			}
			out[e] = dot
		}
	})
	return out, nil
}

// PredictFull computes the dense n1×n2 prediction matrix X W (Y H)^T.
func (p *Problem) PredictFull(w, h *mat.Dense) (*mat.Dense, error) {
	if err := p.checkFactors("Problem.PredictFull", w, h); err != nil {
		return nil, err
	}

	var xw, yh, r mat.Dense
	xw.Mul(p.x, w)
	yh.Mul(p.y, h)
	r.Mul(&xw, yh.T())
	return &r, nil
}

// Stats evaluates the quadratic surrogate statistics of the loss at the
// predictions implied by (w, h) over the observed entries.
func (p *Problem) Stats(w, h *mat.Dense) (*objective.Stats, error) {
	predict, err := p.PredictObserved(w, h)
	if err != nil {
		return nil, err
	}
	return objective.Evaluate(p.loss, predict, p.vals, p.workers)
}

// Value returns the total loss over the observed entries.
func (p *Problem) Value(w, h *mat.Dense) (float64, error) {
	predict, err := p.PredictObserved(w, h)
	if err != nil {
		return 0, err
	}
	values, err := p.loss.Value(predict, p.vals)
	if err != nil {
		return 0, err
	}

	var total float64
	for _, v := range values {
		total += v
	}
	return total, nil
}

// Score evaluates the loss family's model-selection score on the observed
// entries; lower is better.
func (p *Problem) Score(w, h *mat.Dense) (float64, error) {
	predict, err := p.PredictObserved(w, h)
	if err != nil {
		return 0, err
	}
	return p.loss.Score(predict, p.vals)
}

// ScoreFull evaluates the score of (w, h) against a fully known reference
// matrix, raveled in row-major order. Used for diagnostics on synthetic
// problems where the complete matrix exists.
func (p *Problem) ScoreFull(w, h *mat.Dense, rFull *mat.Dense) (float64, error) {
	predict, target, err := p.ravelAgainst("Problem.ScoreFull", w, h, rFull)
	if err != nil {
		return 0, err
	}
	return p.loss.Score(predict, target)
}

// ValueFull returns the total loss of (w, h) against a fully known
// reference matrix.
func (p *Problem) ValueFull(w, h *mat.Dense, rFull *mat.Dense) (float64, error) {
	predict, target, err := p.ravelAgainst("Problem.ValueFull", w, h, rFull)
	if err != nil {
		return 0, err
	}
	values, err := p.loss.Value(predict, target)
	if err != nil {
		return 0, err
	}

	var total float64
	for _, v := range values {
		total += v
	}
	return total, nil
}

func (p *Problem) ravelAgainst(op string, w, h *mat.Dense, rFull *mat.Dense) (predict, target []float64, err error) {
	n1, _, n2, _ := p.Dims()
	rr, rc := rFull.Dims()
	if rr != n1 {
		return nil, nil, errors.NewDimensionError(op, n1, rr, 0)
	}
	if rc != n2 {
		return nil, nil, errors.NewDimensionError(op, n2, rc, 1)
	}

	full, err := p.PredictFull(w, h)
	if err != nil {
		return nil, nil, err
	}

	predict = make([]float64, 0, n1*n2)
	target = make([]float64, 0, n1*n2)
	for i := 0; i < n1; i++ {
		predict = append(predict, full.RawRowView(i)...)
		target = append(target, rFull.RawRowView(i)...)
	}
	return predict, target, nil
}
