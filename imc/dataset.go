package imc

import (
	"math/rand/v2"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/imc-lab/goimc/pkg/errors"
)

// SyntheticData is a generated low-rank IMC instance. W and H are the
// ground-truth factors, R the clean matrix and RNoisy the observed one
// (equal to R when no noise was requested).
type SyntheticData struct {
	X      *mat.Dense // n1×d1 row side features
	Y      *mat.Dense // n2×d2 column side features
	W      *mat.Dense // d1×k ground-truth row factor
	H      *mat.Dense // d2×k ground-truth column factor
	R      *mat.Dense // n1×n2 clean matrix
	RNoisy *mat.Dense // n1×n2 observed matrix
}

type dataConfig struct {
	xScale   float64
	yScale   float64
	noise    float64
	binarize bool
	seed     uint64
}

// DataOption configures MakeIMCData.
type DataOption func(*dataConfig)

// WithScale sets the standard deviations of the gaussian side features.
func WithScale(xScale, yScale float64) DataOption {
	return func(c *dataConfig) {
		c.xScale = xScale
		c.yScale = yScale
	}
}

// WithNoise adds zero-mean gaussian noise with the given standard deviation
// to the observed matrix.
func WithNoise(sigma float64) DataOption {
	return func(c *dataConfig) {
		c.noise = sigma
	}
}

// WithBinarize thresholds both matrices into ±1 labels (entries >= 0 map to
// +1), producing a classification problem for the logistic family.
func WithBinarize() DataOption {
	return func(c *dataConfig) {
		c.binarize = true
	}
}

// WithSeed fixes the random source. The same seed yields the same data.
func WithSeed(seed uint64) DataOption {
	return func(c *dataConfig) {
		c.seed = seed
	}
}

// MakeIMCData generates a simple synthetic IMC problem: gaussian side
// features, ground-truth factors selecting the first k features of each
// side, and R = X W (Y H)^T with optional noise and binarization.
func MakeIMCData(n1, d1, n2, d2, k int, opts ...DataOption) (*SyntheticData, error) {
	if n1 <= 0 || n2 <= 0 || d1 <= 0 || d2 <= 0 || k <= 0 {
		return nil, errors.NewValidationError("dims", "must be positive", []int{n1, d1, n2, d2, k})
	}
	if d1 < k || d2 < k {
		return nil, errors.NewValidationError("k", "rank must not exceed feature dimensions", k)
	}

	cfg := dataConfig{xScale: 0.05, yScale: 0.05, seed: 1}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.xScale <= 0 || cfg.yScale <= 0 {
		return nil, errors.NewValidationError("scale", "must be positive", [2]float64{cfg.xScale, cfg.yScale})
	}
	if cfg.noise < 0 {
		return nil, errors.NewValidationError("noise", "must be non-negative", cfg.noise)
	}

	src := rand.NewPCG(cfg.seed, cfg.seed+0x9e3779b97f4a7c15)

	x := randNormal(n1, d1, cfg.xScale, src)
	y := randNormal(n2, d2, cfg.yScale, src)

	// ground truth: the first k features of each side are informative
	w := eye(d1, k)
	h := eye(d2, k)

	var xw, yh, r mat.Dense
	xw.Mul(x, w)
	yh.Mul(y, h)
	r.Mul(&xw, yh.T())

	rNoisy := mat.DenseCopyOf(&r)
	if cfg.noise > 0 {
		noise := distuv.Normal{Mu: 0, Sigma: cfg.noise, Src: src}
		n1r, n2c := rNoisy.Dims()
		for i := 0; i < n1r; i++ {
			for j := 0; j < n2c; j++ {
				rNoisy.Set(i, j, rNoisy.At(i, j)+noise.Rand())
			}
		}
	}

	if cfg.binarize {
		binarizeInPlace(&r)
		binarizeInPlace(rNoisy)
	}

	return &SyntheticData{X: x, Y: y, W: w, H: h, R: &r, RNoisy: rNoisy}, nil
}

func randNormal(rows, cols int, sigma float64, src rand.Source) *mat.Dense {
	normal := distuv.Normal{Mu: 0, Sigma: sigma, Src: src}
	data := make([]float64, rows*cols)
	for i := range data {
		data[i] = normal.Rand()
	}
	return mat.NewDense(rows, cols, data)
}

func eye(rows, cols int) *mat.Dense {
	m := mat.NewDense(rows, cols, nil)
	for i := 0; i < rows && i < cols; i++ {
		m.Set(i, i, 1)
	}
	return m
}

func binarizeInPlace(m *mat.Dense) {
	rows, cols := m.Dims()
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			if m.At(i, j) >= 0 {
				m.Set(i, j, 1)
			} else {
				m.Set(i, j, -1)
			}
		}
	}
}

// Sparsify samples an observation mask over r: each entry is observed
// independently with probability density. It returns the observed entries
// in coordinate form, row-major ordered.
func Sparsify(r *mat.Dense, density float64, seed uint64) (rows, cols []int, vals []float64, err error) {
	if density <= 0 || density > 1 {
		return nil, nil, nil, errors.NewValidationError("density", "must be in (0, 1]", density)
	}

	rng := rand.New(rand.NewPCG(seed, seed^0xda3e39cb94b95bdb))
	n1, n2 := r.Dims()
	for i := 0; i < n1; i++ {
		for j := 0; j < n2; j++ {
			if rng.Float64() < density {
				rows = append(rows, i)
				cols = append(cols, j)
				vals = append(vals, r.At(i, j))
			}
		}
	}
	if len(vals) == 0 {
		return nil, nil, nil, errors.Wrap(errors.ErrEmptyData, "Sparsify: mask selected no entries")
	}
	return rows, cols, vals, nil
}

// TrainTestSplit partitions observed entries into train and test sets by a
// uniform permutation. testFraction is the fraction of entries assigned to
// the test set; both sides are guaranteed non-empty.
func TrainTestSplit(rows, cols []int, vals []float64, testFraction float64, seed uint64) (trainRows, trainCols []int, trainVals []float64, testRows, testCols []int, testVals []float64, err error) {
	n := len(vals)
	if len(rows) != n || len(cols) != n {
		err = errors.NewDimensionError("TrainTestSplit", n, len(rows), 0)
		return
	}
	if testFraction <= 0 || testFraction >= 1 {
		err = errors.NewValidationError("testFraction", "must be in (0, 1)", testFraction)
		return
	}

	nTest := int(float64(n) * testFraction)
	if nTest < 1 {
		nTest = 1
	}
	if nTest >= n {
		err = errors.NewValidationError("testFraction", "leaves no training entries", testFraction)
		return
	}

	rng := rand.New(rand.NewPCG(seed, seed+0x2545f4914f6cdd1d))
	perm := rng.Perm(n)

	for idx, e := range perm {
		if idx < nTest {
			testRows = append(testRows, rows[e])
			testCols = append(testCols, cols[e])
			testVals = append(testVals, vals[e])
		} else {
			trainRows = append(trainRows, rows[e])
			trainCols = append(trainCols, cols[e])
			trainVals = append(trainVals, vals[e])
		}
	}
	return
}
