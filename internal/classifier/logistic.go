package classifier

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/optimize"
)

// fitResult holds the parameters found by fitLogistic
type fitResult struct {
	weights   []float64
	intercept float64
	status    optimize.Status
	warning   error // Optimizer error tolerated because a location was still returned
}

// fitLogistic minimises 0.5*|w|^2 + c * sum(logloss) over (w, b) with L-BFGS.
// The intercept is not penalized. labels are 0 or 1.
func fitLogistic(features [][]float64, labels []float64, c float64, maxIter int, tol float64) (*fitResult, error) {
	if len(features) == 0 {
		return nil, ErrEmptyTrainingSet
	}
	dims := len(features[0])

	objective := func(x []float64) float64 {
		w, b := x[:dims], x[dims]
		loss := 0.0
		for i, row := range features {
			z := dot(w, row) + b
			loss += logOnePlusExp(z) - labels[i]*z
		}
		return 0.5*dot(w, w) + c*loss
	}

	gradient := func(grad, x []float64) {
		w, b := x[:dims], x[dims]
		copy(grad[:dims], w)
		grad[dims] = 0
		for i, row := range features {
			residual := c * (sigmoid(dot(w, row)+b) - labels[i])
			for j, v := range row {
				grad[j] += residual * v
			}
			grad[dims] += residual
		}
	}

	problem := optimize.Problem{
		Func: objective,
		Grad: gradient,
	}
	settings := &optimize.Settings{
		GradientThreshold: tol,
		MajorIterations:   maxIter,
	}

	result, err := optimize.Minimize(problem, make([]float64, dims+1), settings, &optimize.LBFGS{})
	if result == nil || len(result.X) != dims+1 {
		return nil, fmt.Errorf("logistic fit failed: %w", err)
	}

	for _, v := range result.X {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("logistic fit diverged (status %v)", result.Status)
		}
	}

	weights := make([]float64, dims)
	copy(weights, result.X[:dims])
	return &fitResult{
		weights:   weights,
		intercept: result.X[dims],
		status:    result.Status,
		warning:   err,
	}, nil
}

func dot(a, b []float64) float64 {
	sum := 0.0
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}

func sigmoid(z float64) float64 {
	if z >= 0 {
		return 1 / (1 + math.Exp(-z))
	}
	e := math.Exp(z)
	return e / (1 + e)
}

// logOnePlusExp computes log(1 + e^z) without overflow
func logOnePlusExp(z float64) float64 {
	if z > 0 {
		return z + math.Log1p(math.Exp(-z))
	}
	return math.Log1p(math.Exp(z))
}
