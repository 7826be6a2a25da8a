// Package goimc is a research toolkit for inductive matrix completion:
// predicting the entries of a partially observed matrix as a bilinear
// function of known row and column side features.
//
// The toolkit generates synthetic low-rank problems, fits the bilinear
// factors under several loss families via quadratic (second-order)
// approximation, and reports convergence diagnostics.
//
// # Packages
//
//   - objective: the quadratic-approximation loss families (L2, Huber,
//     Logistic) with matched value/gradient/Hessian-diagonal kernels
//   - imc: the problem container and synthetic data generators
//   - solver: the alternating Newton/IRLS outer loop and its estimator
//     wrapper
//   - report: per-iteration diagnostics and convergence-curve plots
//   - metrics: the evaluation metrics behind the loss families' scores
//
// # Quick start
//
//	data, _ := imc.MakeIMCData(100, 20, 80, 15, 5,
//	    imc.WithSeed(42), imc.WithNoise(0.05))
//	rows, cols, vals, _ := imc.Sparsify(data.RNoisy, 0.1, 42)
//
//	problem, _ := imc.NewProblem(data.X, data.Y, rows, cols, vals,
//	    objective.NewL2Loss())
//
//	est := solver.NewEstimator(solver.NewQNSolver(
//	    solver.WithMaxIter(100), solver.WithRidge(1e-2)), 5)
//	if err := est.Fit(problem); err != nil {
//	    log.Fatal(err)
//	}
//	completed, _ := est.Predict()
package goimc
