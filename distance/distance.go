// Package distance provides vector distance calculations.
//
// All functions operate on the internal distance convention (lower is
// better): inner product is negated, squared L2 is used as-is. Public query
// scores (higher is better) are derived via Score.
package distance

import (
	"fmt"

	"github.com/viterin/vek/vek32"
)

// Metric represents the distance metric used for vector comparison.
// It is fixed for the lifetime of an index.
type Metric int

const (
	// MetricInnerProduct ranks by dot product, no normalization. Callers are
	// responsible for normalizing vectors before insertion if desired.
	MetricInnerProduct Metric = iota

	// MetricSquaredL2 ranks by squared Euclidean distance.
	MetricSquaredL2
)

func (m Metric) String() string {
	switch m {
	case MetricInnerProduct:
		return "InnerProduct"
	case MetricSquaredL2:
		return "SquaredL2"
	default:
		return fmt.Sprintf("Unknown(%d)", int(m))
	}
}

// Valid reports whether m is a known metric.
func (m Metric) Valid() bool {
	return m == MetricInnerProduct || m == MetricSquaredL2
}

// Func is a function type for distance calculation (lower is better).
// Assumes vectors are the same length (caller's responsibility).
type Func func(a, b []float32) float32

// Dot calculates the dot product of two vectors.
// Uses SIMD acceleration when available.
func Dot(a, b []float32) float32 {
	return vek32.Dot(a, b)
}

// NegDot is the distance form of the inner product metric.
func NegDot(a, b []float32) float32 {
	return -vek32.Dot(a, b)
}

// SquaredL2 calculates the squared L2 (Euclidean) distance between two vectors.
// Uses SIMD acceleration when available.
func SquaredL2(a, b []float32) float32 {
	d := vek32.Distance(a, b)
	return d * d
}

// Provider returns the distance function for the given metric.
func Provider(m Metric) (Func, error) {
	switch m {
	case MetricInnerProduct:
		return NegDot, nil
	case MetricSquaredL2:
		return SquaredL2, nil
	default:
		return nil, fmt.Errorf("unsupported metric: %v", m)
	}
}

// Score converts an internal distance to a public score (higher is better):
// the raw dot product for MetricInnerProduct, the negative squared distance
// for MetricSquaredL2.
func Score(d float32) float64 {
	return -float64(d)
}
