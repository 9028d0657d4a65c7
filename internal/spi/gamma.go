package spi

import (
	"errors"
	"math"
)

// GammaParams holds shape and scale of a two-parameter gamma distribution.
type GammaParams struct {
	Shape float64 // alpha
	Scale float64 // beta
}

// ErrGammaFit is returned when neither MLE nor method of moments produces a
// usable fit (degenerate sample).
var ErrGammaFit = errors.New("gamma fit failed")

// minSamplesForMLE is the nonzero sample count below which the fit falls back
// to method of moments.
const minSamplesForMLE = 10

// GammaCDF is the CDF of the gamma distribution at x (regularized lower
// incomplete gamma).
func GammaCDF(x float64, p GammaParams) float64 {
	if x <= 0 {
		return 0
	}
	return regularizedGammaP(p.Shape, x/p.Scale)
}

// FitGamma fits a gamma distribution to strictly positive samples. It uses
// MLE (Thom initialization, Newton refinement on the digamma equation) and
// falls back to method of moments when the sample is small or MLE fails.
func FitGamma(positive []float64) (GammaParams, error) {
	if len(positive) == 0 {
		return GammaParams{}, ErrGammaFit
	}
	if len(positive) >= minSamplesForMLE {
		if params, err := fitGammaMLE(positive); err == nil {
			return params, nil
		}
	}
	return fitGammaMoments(positive)
}

func fitGammaMLE(x []float64) (GammaParams, error) {
	n := float64(len(x))
	var sum, sumLog float64
	for _, v := range x {
		if v <= 0 {
			return GammaParams{}, ErrGammaFit
		}
		sum += v
		sumLog += math.Log(v)
	}
	mean := sum / n
	// A = ln(mean) - mean(ln x); strictly positive for non-degenerate samples.
	a := math.Log(mean) - sumLog/n
	if a <= 0 || math.IsNaN(a) || math.IsInf(a, 0) {
		return GammaParams{}, ErrGammaFit
	}

	// Thom's closed-form approximation as the starting point.
	alpha := (1 + math.Sqrt(1+4*a/3)) / (4 * a)

	// Newton iterations on f(alpha) = ln(alpha) - psi(alpha) - A.
	for i := 0; i < 50; i++ {
		f := math.Log(alpha) - digamma(alpha) - a
		fp := 1/alpha - trigamma(alpha)
		step := f / fp
		next := alpha - step
		if next <= 0 {
			next = alpha / 2
		}
		if math.Abs(next-alpha) < 1e-10*alpha {
			alpha = next
			break
		}
		alpha = next
	}

	if alpha <= 0 || math.IsNaN(alpha) || math.IsInf(alpha, 0) {
		return GammaParams{}, ErrGammaFit
	}
	return GammaParams{Shape: alpha, Scale: mean / alpha}, nil
}

func fitGammaMoments(x []float64) (GammaParams, error) {
	n := float64(len(x))
	var sum float64
	for _, v := range x {
		sum += v
	}
	mean := sum / n
	var ss float64
	for _, v := range x {
		d := v - mean
		ss += d * d
	}
	variance := ss / n
	if mean <= 0 || variance <= 0 {
		return GammaParams{}, ErrGammaFit
	}
	alpha := mean * mean / variance
	beta := variance / mean
	if alpha <= 0 || math.IsNaN(alpha) || beta <= 0 || math.IsNaN(beta) {
		return GammaParams{}, ErrGammaFit
	}
	return GammaParams{Shape: alpha, Scale: beta}, nil
}

// digamma via the asymptotic expansion after shifting the argument above 6.
func digamma(x float64) float64 {
	var result float64
	for x < 6 {
		result -= 1 / x
		x++
	}
	inv := 1 / x
	inv2 := inv * inv
	result += math.Log(x) - inv/2 -
		inv2*(1.0/12-inv2*(1.0/120-inv2*(1.0/252-inv2/240)))
	return result
}

// trigamma via the asymptotic expansion after shifting the argument above 6.
func trigamma(x float64) float64 {
	var result float64
	for x < 6 {
		result += 1 / (x * x)
		x++
	}
	inv := 1 / x
	inv2 := inv * inv
	result += inv * (1 + inv/2 + inv2*(1.0/6-inv2*(1.0/30-inv2/42)))
	return result
}

// regularizedGammaP computes P(a, x), the regularized lower incomplete gamma
// function, by series expansion for x < a+1 and continued fraction otherwise.
func regularizedGammaP(a, x float64) float64 {
	if x <= 0 {
		return 0
	}
	if x < a+1 {
		return gammaSeries(a, x)
	}
	return 1 - gammaContinuedFraction(a, x)
}

func gammaSeries(a, x float64) float64 {
	const maxIter = 500
	const eps = 1e-14
	lg, _ := math.Lgamma(a)
	ap := a
	sum := 1 / a
	del := sum
	for i := 0; i < maxIter; i++ {
		ap++
		del *= x / ap
		sum += del
		if math.Abs(del) < math.Abs(sum)*eps {
			break
		}
	}
	return sum * math.Exp(-x+a*math.Log(x)-lg)
}

func gammaContinuedFraction(a, x float64) float64 {
	const maxIter = 500
	const eps = 1e-14
	const tiny = 1e-300
	lg, _ := math.Lgamma(a)
	b := x + 1 - a
	c := 1 / tiny
	d := 1 / b
	h := d
	for i := 1; i <= maxIter; i++ {
		an := -float64(i) * (float64(i) - a)
		b += 2
		d = an*d + b
		if math.Abs(d) < tiny {
			d = tiny
		}
		c = b + an/c
		if math.Abs(c) < tiny {
			c = tiny
		}
		d = 1 / d
		del := d * c
		h *= del
		if math.Abs(del-1) < eps {
			break
		}
	}
	return math.Exp(-x+a*math.Log(x)-lg) * h
}
