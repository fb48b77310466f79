package measures

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/h3nok/curriculum-learning-optimization/internal/models"
)

// Evaluator scores a patch under a measure. For pairwise measures the
// reference patch supplies the second distribution; standalone measures
// ignore it. Implementations must be side-effect free so that patch
// scoring can run in parallel.
type Evaluator interface {
	Score(m Measure, patch, reference models.Image) (float64, error)
}

// histEpsilon keeps log terms finite on empty histogram bins.
const histEpsilon = 1e-10

// StatEvaluator computes all supported measures from patch intensity
// data, using histogram estimates for the information-theoretic
// measures and moment statistics for SSIM.
type StatEvaluator struct {
	// Bins is the number of histogram bins used for entropy-family
	// measures. Intensities are assumed to lie in [0, 1].
	Bins int
}

// NewStatEvaluator returns an evaluator with the default 256-bin
// histogram resolution.
func NewStatEvaluator() *StatEvaluator {
	return &StatEvaluator{Bins: 256}
}

// Score computes the scalar value of measure m for the given patch.
func (e *StatEvaluator) Score(m Measure, patch, reference models.Image) (float64, error) {
	p := patch.Data
	r := reference.Data

	if !m.Standalone() && len(p) != len(r) {
		return 0, fmt.Errorf("patch and reference element counts differ: %d vs %d", len(p), len(r))
	}

	switch m {
	case Entropy:
		return entropy(e.histogram(p)), nil
	case JE:
		return jointEntropy(e.jointHistogram(p, r)), nil
	case MI:
		hp := entropy(e.histogram(p))
		hr := entropy(e.histogram(r))
		hpr := jointEntropy(e.jointHistogram(p, r))
		return hp + hr - hpr, nil
	case KL:
		return klDivergence(e.histogram(p), e.histogram(r)), nil
	case CE:
		return crossEntropy(e.histogram(p), e.histogram(r)), nil
	case L1:
		return normDistance(p, r, 1), nil
	case L2:
		return normDistance(p, r, 2), nil
	case MaxNorm:
		return normDistance(p, r, math.Inf(1)), nil
	case SSIM:
		return ssim(p, r), nil
	case PSNR:
		return psnr(p, r), nil
	default:
		return 0, &UnsupportedMeasureError{Measure: m}
	}
}

// histogram builds a normalized intensity histogram over [0, 1].
func (e *StatEvaluator) histogram(data []float64) []float64 {
	hist := make([]float64, e.Bins)
	if len(data) == 0 {
		return hist
	}

	for _, v := range data {
		idx := int(v * float64(e.Bins))
		if idx < 0 {
			idx = 0
		} else if idx >= e.Bins {
			idx = e.Bins - 1
		}
		hist[idx]++
	}

	n := float64(len(data))
	for i := range hist {
		hist[i] /= n
	}
	return hist
}

// jointHistogram builds the normalized joint intensity histogram of two
// equally sized patches, flattened to a Bins*Bins slice.
func (e *StatEvaluator) jointHistogram(a, b []float64) []float64 {
	hist := make([]float64, e.Bins*e.Bins)
	if len(a) == 0 {
		return hist
	}

	bin := func(v float64) int {
		idx := int(v * float64(e.Bins))
		if idx < 0 {
			return 0
		}
		if idx >= e.Bins {
			return e.Bins - 1
		}
		return idx
	}

	for i := range a {
		hist[bin(a[i])*e.Bins+bin(b[i])]++
	}

	n := float64(len(a))
	for i := range hist {
		hist[i] /= n
	}
	return hist
}

// entropy computes the Shannon entropy in bits of a normalized histogram.
func entropy(hist []float64) float64 {
	h := 0.0
	for _, p := range hist {
		if p > 0 {
			h -= p * math.Log2(p)
		}
	}
	return h
}

func jointEntropy(joint []float64) float64 {
	return entropy(joint)
}

// klDivergence computes D(p || q) in bits over smoothed histograms.
func klDivergence(p, q []float64) float64 {
	d := 0.0
	for i := range p {
		if p[i] > 0 {
			d += p[i] * math.Log2(p[i]/(q[i]+histEpsilon))
		}
	}
	return d
}

// crossEntropy computes H(p, q) = -sum p log2 q over smoothed histograms.
func crossEntropy(p, q []float64) float64 {
	h := 0.0
	for i := range p {
		if p[i] > 0 {
			h -= p[i] * math.Log2(q[i]+histEpsilon)
		}
	}
	return h
}

// normDistance computes the L-norm of the elementwise difference.
func normDistance(a, b []float64, l float64) float64 {
	diff := make([]float64, len(a))
	floats.SubTo(diff, a, b)
	return floats.Norm(diff, l)
}

// ssim computes the structural similarity index over the full patch,
// with the standard constants k1=0.01, k2=0.03 and dynamic range L=1.
func ssim(a, b []float64) float64 {
	const (
		l  = 1.0
		k1 = 0.01
		k2 = 0.03
	)

	c1 := (k1 * l) * (k1 * l)
	c2 := (k2 * l) * (k2 * l)

	muX := stat.Mean(a, nil)
	muY := stat.Mean(b, nil)
	sigmaX := stat.Variance(a, nil)
	sigmaY := stat.Variance(b, nil)
	sigmaXY := stat.Covariance(a, b, nil)

	num := (2*muX*muY + c1) * (2*sigmaXY + c2)
	den := (muX*muX + muY*muY + c1) * (sigmaX + sigmaY + c2)

	if den == 0 {
		return 0
	}
	return num / den
}

// psnr computes the peak signal-to-noise ratio in dB for intensities in
// [0, 1]. Identical patches have zero error and yield +Inf.
func psnr(a, b []float64) float64 {
	if len(a) == 0 {
		return 0
	}

	mse := 0.0
	for i := range a {
		d := a[i] - b[i]
		mse += d * d
	}
	mse /= float64(len(a))

	if mse == 0 {
		return math.Inf(1)
	}
	return 10 * math.Log10(1.0/mse)
}
