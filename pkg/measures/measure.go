// Package measures implements the scalar comparison functions used to
// rank patches during reconstruction: information-theoretic measures
// (entropy, KL divergence, mutual information), norm distances and
// image-quality indices (SSIM, PSNR).
package measures

import (
	"fmt"
	"strings"
)

// Measure identifies one of the supported patch scoring functions.
type Measure int

const (
	// KL is the Kullback-Leibler divergence between intensity histograms
	KL Measure = iota

	// MI is the mutual information between patch and reference
	MI

	// CE is the cross entropy of the patch histogram against the reference
	CE

	// L1 is the sum of absolute pixel differences
	L1

	// L2 is the Euclidean distance between pixel vectors
	L2

	// MaxNorm is the largest absolute pixel difference
	MaxNorm

	// JE is the joint entropy of patch and reference
	JE

	// Entropy is the Shannon entropy of the patch alone
	Entropy

	// SSIM is the structural similarity index against the reference
	SSIM

	// PSNR is the peak signal-to-noise ratio against the reference
	PSNR
)

// String returns the canonical identifier for the measure.
func (m Measure) String() string {
	switch m {
	case KL:
		return "KL"
	case MI:
		return "MI"
	case CE:
		return "CE"
	case L1:
		return "L1"
	case L2:
		return "L2"
	case MaxNorm:
		return "MAX_NORM"
	case JE:
		return "JE"
	case Entropy:
		return "ENTROPY"
	case SSIM:
		return "SSIM"
	case PSNR:
		return "PSNR"
	default:
		return fmt.Sprintf("Measure(%d)", int(m))
	}
}

// Standalone reports whether the measure scores a patch on its own.
// Non-standalone measures compare the patch against a reference patch.
func (m Measure) Standalone() bool {
	return m == Entropy
}

// All lists every supported measure in the order the experiment
// driver evaluates them.
func All() []Measure {
	return []Measure{KL, MI, CE, L1, L2, MaxNorm, JE, Entropy, SSIM, PSNR}
}

// UnsupportedMeasureError reports a measure identifier outside the
// supported set.
type UnsupportedMeasureError struct {
	// Name is the textual identifier when parsing failed, empty otherwise
	Name string

	// Measure is the out-of-range value when dispatch failed
	Measure Measure
}

func (e *UnsupportedMeasureError) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("unsupported measure %q", e.Name)
	}
	return fmt.Sprintf("unsupported measure %d", int(e.Measure))
}

// ParseMeasure resolves a textual identifier to a Measure. Matching is
// case-insensitive and accepts the short alias "MAX" for MAX_NORM.
func ParseMeasure(name string) (Measure, error) {
	switch strings.ToUpper(strings.TrimSpace(name)) {
	case "KL":
		return KL, nil
	case "MI":
		return MI, nil
	case "CE":
		return CE, nil
	case "L1":
		return L1, nil
	case "L2":
		return L2, nil
	case "MAX", "MAX_NORM", "MAXNORM":
		return MaxNorm, nil
	case "JE":
		return JE, nil
	case "ENTROPY":
		return Entropy, nil
	case "SSIM":
		return SSIM, nil
	case "PSNR":
		return PSNR, nil
	default:
		return 0, &UnsupportedMeasureError{Name: name}
	}
}
