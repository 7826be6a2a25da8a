// Package solver implements the outer optimization loop for inductive
// matrix completion: an alternating quadratic-approximation (Newton/IRLS)
// method over the factor matrices W and H.
//
// Each iteration freezes one factor, evaluates the loss family's per-entry
// gradient and Hessian-diagonal statistics at the current predictions, and
// minimizes the resulting local quadratic model plus a ridge term for the
// other factor by solving regularized normal equations.
package solver

import (
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/imc-lab/goimc/imc"
	"github.com/imc-lab/goimc/pkg/errors"
	"github.com/imc-lab/goimc/pkg/log"
)

// QNSolver is the alternating quasi-Newton solver. Construct it once with
// NewQNSolver; Fit may be called repeatedly on different problems.
type QNSolver struct {
	maxIter      int
	tol          float64
	ridge        float64
	stepSize     float64
	initScale    float64
	seed         uint64
	trackFactors bool
}

// Option configures a QNSolver.
type Option func(*QNSolver)

// WithMaxIter sets the iteration budget.
func WithMaxIter(n int) Option {
	return func(s *QNSolver) { s.maxIter = n }
}

// WithTol sets the relative objective-decrease tolerance used to declare
// convergence.
func WithTol(tol float64) Option {
	return func(s *QNSolver) { s.tol = tol }
}

// WithRidge sets the ridge regularization weight. It must stay positive:
// the Huber family's Hessian vanishes in the linear regime and the ridge
// term is what keeps the normal equations positive definite there.
func WithRidge(ridge float64) Option {
	return func(s *QNSolver) { s.ridge = ridge }
}

// WithStepSize sets the initial step length of each Newton step. The solver
// backtracks from it, halving the step until the objective stops increasing.
func WithStepSize(eta float64) Option {
	return func(s *QNSolver) { s.stepSize = eta }
}

// WithInitScale sets the standard deviation of the random factor
// initialization.
func WithInitScale(scale float64) Option {
	return func(s *QNSolver) { s.initScale = scale }
}

// WithSeed fixes the factor initialization. Same seed, same fit.
func WithSeed(seed uint64) Option {
	return func(s *QNSolver) { s.seed = seed }
}

// WithTrackFactors records a copy of (W, H) after every iteration in the
// fit result, for use with the report package.
func WithTrackFactors() Option {
	return func(s *QNSolver) { s.trackFactors = true }
}

// NewQNSolver creates a solver with the given options applied over the
// defaults (100 iterations, tol 1e-6, ridge 0.1, unit initial step).
func NewQNSolver(opts ...Option) *QNSolver {
	s := &QNSolver{
		maxIter:   100,
		tol:       1e-6,
		ridge:     0.1,
		stepSize:  1.0,
		initScale: 0.1,
		seed:      1,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// IterationStats records the diagnostics of one outer iteration.
type IterationStats struct {
	Iteration int
	Objective float64 // loss total plus ridge term
	LossValue float64 // loss total over observed entries
	Score     float64 // loss family's model-selection score
	StepNormW float64 // Frobenius norm of the W update
	StepNormH float64 // Frobenius norm of the H update
}

// FitResult is the outcome of a Fit call.
type FitResult struct {
	W, H       *mat.Dense
	History    []IterationStats
	Converged  bool
	Iterations int

	// TrajectoryW/H hold per-iteration factor snapshots when the solver
	// was built with WithTrackFactors.
	TrajectoryW []*mat.Dense
	TrajectoryH []*mat.Dense
}

func (s *QNSolver) validate() error {
	if s.maxIter < 1 {
		return errors.NewValidationError("maxIter", "must be at least 1", s.maxIter)
	}
	if s.tol <= 0 {
		return errors.NewValidationError("tol", "must be positive", s.tol)
	}
	if s.ridge <= 0 {
		return errors.NewValidationError("ridge", "must be positive", s.ridge)
	}
	if s.stepSize <= 0 || s.stepSize > 1 {
		return errors.NewValidationError("stepSize", "must be in (0, 1]", s.stepSize)
	}
	if s.initScale <= 0 {
		return errors.NewValidationError("initScale", "must be positive", s.initScale)
	}
	return nil
}

// Fit runs the alternating quadratic-approximation loop on p with factors
// of the given rank. A ConvergenceWarning is emitted (not returned as an
// error) when the iteration budget runs out before the tolerance is met.
func (s *QNSolver) Fit(p *imc.Problem, rank int) (*FitResult, error) {
	if err := s.validate(); err != nil {
		return nil, err
	}
	if p == nil {
		return nil, errors.NewValueError("QNSolver.Fit", "problem must not be nil")
	}
	_, d1, _, d2 := p.Dims()
	if rank < 1 || rank > d1 || rank > d2 {
		return nil, errors.NewValidationError("rank", "must be in [1, min(d1, d2)]", rank)
	}

	logger := log.Logger().With().
		Str("solver", "qn").
		Str("loss", p.Loss().Name()).
		Int("rank", rank).
		Int("observed", p.NumObserved()).
		Logger()

	src := rand.NewPCG(s.seed, s.seed^0x6a09e667f3bcc909)
	w := randFactor(d1, rank, s.initScale, src)
	h := randFactor(d2, rank, s.initScale, src)

	result := &FitResult{W: w, H: h}
	prevObj := math.Inf(1)

	for iter := 0; iter < s.maxIter; iter++ {
		stepW, err := s.updateFactor(p, w, h, true)
		if err != nil {
			return nil, errors.Wrapf(err, "iteration %d: W update", iter)
		}
		stepH, err := s.updateFactor(p, w, h, false)
		if err != nil {
			return nil, errors.Wrapf(err, "iteration %d: H update", iter)
		}

		lossValue, err := p.Value(w, h)
		if err != nil {
			return nil, err
		}
		obj := lossValue + 0.5*s.ridge*(froNormSq(w)+froNormSq(h))
		if err := errors.CheckScalar("objective", obj, iter); err != nil {
			return nil, err
		}
		score, err := p.Score(w, h)
		if err != nil {
			return nil, err
		}

		result.History = append(result.History, IterationStats{
			Iteration: iter,
			Objective: obj,
			LossValue: lossValue,
			Score:     score,
			StepNormW: stepW,
			StepNormH: stepH,
		})
		if s.trackFactors {
			result.TrajectoryW = append(result.TrajectoryW, mat.DenseCopyOf(w))
			result.TrajectoryH = append(result.TrajectoryH, mat.DenseCopyOf(h))
		}
		result.Iterations = iter + 1

		logger.Debug().
			Int("iteration", iter).
			Float64("objective", obj).
			Float64("score", score).
			Float64("step_w", stepW).
			Float64("step_h", stepH).
			Msg("qn step")

		if iter > 0 && math.Abs(prevObj-obj) <= s.tol*math.Max(1, math.Abs(prevObj)) {
			result.Converged = true
			break
		}
		prevObj = obj
	}

	if !result.Converged {
		errors.Warn(errors.NewConvergenceWarning("QNSolver", result.Iterations, ""))
	}

	logger.Info().
		Bool("converged", result.Converged).
		Int("iterations", result.Iterations).
		Float64("objective", result.History[len(result.History)-1].Objective).
		Msg("fit finished")

	return result, nil
}

// maxBacktracks bounds the step halvings of one factor update. 2^-40 of a
// Newton step is numerically zero for any reasonable problem scale.
const maxBacktracks = 40

// updateFactor takes one Newton step on W (updateW true) or H, in place,
// and returns the Frobenius norm of the applied step.
//
// With the other factor frozen, every observed prediction is linear in the
// updated factor: p_e = z_e · vec(F) with z_e the outer product of the
// entry's side-feature row and the frozen factor's projected row. The local
// quadratic model of the objective then has gradient Zᵀg + λ vec(F) and
// Hessian Zᵀ diag(h) Z + λI, both accumulated entry by entry.
//
// The quadratic model can be a poor fit far from the optimum, most visibly
// for the Huber family whose Hessian vanishes in the linear regime and
// leaves only the ridge curvature. The Newton direction is therefore paired
// with a backtracking line search on the true objective: the step is halved
// until it no longer increases the objective, and dropped entirely when
// maxBacktracks halvings are not enough.
func (s *QNSolver) updateFactor(p *imc.Problem, w, h *mat.Dense, updateW bool) (float64, error) {
	stats, err := p.Stats(w, h)
	if err != nil {
		return 0, err
	}

	x, y := p.SideFeatures()
	rows, cols, _ := p.Observed()

	var side *mat.Dense   // feature matrix of the factor being updated
	var frozen mat.Dense  // projection of the other side through its factor
	var target *mat.Dense // the factor being updated
	var entrySide, entryFrozen []int

	if updateW {
		side, target = x, w
		frozen.Mul(y, h)
		entrySide, entryFrozen = rows, cols
	} else {
		side, target = y, h
		frozen.Mul(x, w)
		entrySide, entryFrozen = cols, rows
	}

	d, k := target.Dims()
	dim := d * k

	hess := make([]float64, dim*dim)
	grad := make([]float64, dim)
	z := make([]float64, dim)

	for e := range rows {
		sideRow := side.RawRowView(entrySide[e])
		frozenRow := frozen.RawRowView(entryFrozen[e])

		for u := 0; u < d; u++ {
			for v := 0; v < k; v++ {
				z[u*k+v] = sideRow[u] * frozenRow[v]
			}
		}

		g, hd := stats.Gradient[e], stats.Hessian[e]
		for a := 0; a < dim; a++ {
			grad[a] += g * z[a]
			if hd != 0 {
				za := hd * z[a]
				for b := a; b < dim; b++ {
					hess[a*dim+b] += za * z[b]
				}
			}
		}
	}

	// ridge term and symmetrization of the accumulated upper triangle
	for a := 0; a < dim; a++ {
		grad[a] += s.ridge * target.At(a/k, a%k)
		hess[a*dim+a] += s.ridge
		for b := a + 1; b < dim; b++ {
			hess[b*dim+a] = hess[a*dim+b]
		}
	}

	sym := mat.NewSymDense(dim, hess)
	var chol mat.Cholesky
	if ok := chol.Factorize(sym); !ok {
		return 0, errors.Wrap(errors.ErrSingularMatrix, "normal equations not positive definite")
	}

	negGrad := mat.NewVecDense(dim, grad)
	negGrad.ScaleVec(-1, negGrad)

	var delta mat.VecDense
	if err := chol.SolveVecTo(&delta, negGrad); err != nil {
		return 0, errors.Wrap(errors.ErrSingularMatrix, "normal equations solve failed")
	}

	baseline := floats.Sum(stats.Value) + 0.5*s.ridge*(froNormSq(w)+froNormSq(h))
	orig := mat.DenseCopyOf(target)

	eta := s.stepSize
	for bt := 0; ; bt++ {
		for a := 0; a < dim; a++ {
			target.Set(a/k, a%k, orig.At(a/k, a%k)+eta*delta.AtVec(a))
		}
		lossValue, err := p.Value(w, h)
		if err != nil {
			return 0, err
		}
		// NaN and +Inf candidates fail this comparison and backtrack too.
		if cand := lossValue + 0.5*s.ridge*(froNormSq(w)+froNormSq(h)); cand <= baseline {
			break
		}
		if bt == maxBacktracks {
			target.Copy(orig)
			return 0, nil
		}
		eta /= 2
	}

	var stepNormSq float64
	for a := 0; a < dim; a++ {
		step := eta * delta.AtVec(a)
		stepNormSq += step * step
	}
	return math.Sqrt(stepNormSq), nil
}

func randFactor(rows, cols int, scale float64, src rand.Source) *mat.Dense {
	normal := distuv.Normal{Mu: 0, Sigma: scale, Src: src}
	data := make([]float64, rows*cols)
	for i := range data {
		data[i] = normal.Rand()
	}
	return mat.NewDense(rows, cols, data)
}

func froNormSq(m *mat.Dense) float64 {
	n := mat.Norm(m, 2)
	return n * n
}
