package metrics

import (
	"math"
	"sort"
)

// nearZero is the smallest denominator Gap will divide by.
const nearZero = 1e-9

// SafeDiv returns a/b, or 0 when b is zero or the result is not finite.
func SafeDiv(a, b float64) float64 {
	if b == 0 {
		return 0
	}
	r := a / b
	if math.IsNaN(r) || math.IsInf(r, 0) {
		return 0
	}
	return r
}

func Sum(xs []float64) float64 {
	s := 0.0
	for _, x := range xs {
		s += x
	}
	return s
}

// Mean is the arithmetic mean, 0 for an empty slice.
func Mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	return Sum(xs) / float64(len(xs))
}

// PositiveMean averages only the values greater than zero, 0 if none qualify.
func PositiveMean(xs []float64) float64 {
	s, n := 0.0, 0
	for _, x := range xs {
		if x > 0 {
			s += x
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return s / float64(n)
}

// StdDev is the sample standard deviation (n-1 denominator); 0 when n < 2.
func StdDev(xs []float64) float64 {
	if len(xs) < 2 {
		return 0
	}
	m := Mean(xs)
	ss := 0.0
	for _, x := range xs {
		d := x - m
		ss += d * d
	}
	return math.Sqrt(ss / float64(len(xs)-1))
}

// Variance is the sample variance; 0 when n < 2.
func Variance(xs []float64) float64 {
	sd := StdDev(xs)
	return sd * sd
}

// CoefficientOfVariation is StdDev/Mean, 0 when the mean is 0.
func CoefficientOfVariation(xs []float64) float64 {
	return SafeDiv(StdDev(xs), Mean(xs))
}

// Quantile returns the q-th quantile (0..1) using linear interpolation
// between the closest ranks of a sorted copy. 0 for an empty slice.
func Quantile(xs []float64, q float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	sorted := make([]float64, len(xs))
	copy(sorted, xs)
	sort.Float64s(sorted)
	if q <= 0 {
		return sorted[0]
	}
	if q >= 1 {
		return sorted[len(sorted)-1]
	}
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	frac := pos - float64(lo)
	return sorted[lo] + (sorted[hi]-sorted[lo])*frac
}

func Max(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	m := xs[0]
	for _, x := range xs[1:] {
		if x > m {
			m = x
		}
	}
	return m
}

func Min(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	m := xs[0]
	for _, x := range xs[1:] {
		if x < m {
			m = x
		}
	}
	return m
}

// Gap is the relative difference (hi/lo - 1) * 100. ok is false when lo is
// zero or close enough to it that the ratio is meaningless.
func Gap(hi, lo float64) (pct float64, ok bool) {
	if math.Abs(lo) < nearZero {
		return 0, false
	}
	r := (hi/lo - 1) * 100
	if math.IsNaN(r) || math.IsInf(r, 0) {
		return 0, false
	}
	return r, true
}
