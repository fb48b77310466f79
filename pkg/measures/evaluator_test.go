package measures

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/h3nok/curriculum-learning-optimization/internal/models"
)

// uniformPatch builds a 2x2x3 patch filled with a single intensity.
func uniformPatch(v float64) models.Image {
	img := models.NewImage(2, 2, 3)
	for i := range img.Data {
		img.Data[i] = v
	}
	return img
}

// valuePatch builds a 2x2x3 patch from explicit intensities.
func valuePatch(values ...float64) models.Image {
	img := models.NewImage(2, 2, 3)
	copy(img.Data, values)
	return img
}

func TestEntropyOfConstantPatch(t *testing.T) {
	e := NewStatEvaluator()

	score, err := e.Score(Entropy, uniformPatch(0.5), models.Image{})
	require.NoError(t, err)
	assert.Equal(t, 0.0, score, "a constant patch carries no information")
}

func TestEntropyOfTwoLevelPatch(t *testing.T) {
	e := NewStatEvaluator()

	// Half the pixels at one intensity, half at another: exactly 1 bit.
	patch := valuePatch(0.1, 0.1, 0.1, 0.1, 0.1, 0.1, 0.9, 0.9, 0.9, 0.9, 0.9, 0.9)
	score, err := e.Score(Entropy, patch, models.Image{})
	require.NoError(t, err)
	assert.InDelta(t, 1.0, score, 1e-12)
}

func TestNormDistances(t *testing.T) {
	e := NewStatEvaluator()
	a := uniformPatch(0.5)
	b := uniformPatch(0.25)

	l1, err := e.Score(L1, a, b)
	require.NoError(t, err)
	assert.InDelta(t, 12*0.25, l1, 1e-12)

	l2, err := e.Score(L2, a, b)
	require.NoError(t, err)
	assert.InDelta(t, math.Sqrt(12*0.0625), l2, 1e-12)

	maxNorm, err := e.Score(MaxNorm, a, b)
	require.NoError(t, err)
	assert.InDelta(t, 0.25, maxNorm, 1e-12)
}

func TestSSIMOfIdenticalPatches(t *testing.T) {
	e := NewStatEvaluator()
	patch := valuePatch(0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 0.15, 0.25, 0.35)

	score, err := e.Score(SSIM, patch, patch.Clone())
	require.NoError(t, err)
	assert.InDelta(t, 1.0, score, 1e-9, "identical patches are perfectly similar")
}

func TestPSNR(t *testing.T) {
	e := NewStatEvaluator()
	a := uniformPatch(0.5)

	score, err := e.Score(PSNR, a, a.Clone())
	require.NoError(t, err)
	assert.True(t, math.IsInf(score, 1), "zero error has infinite PSNR")

	// A uniform 0.1 difference gives MSE 0.01, hence exactly 20 dB.
	score, err = e.Score(PSNR, a, uniformPatch(0.6))
	require.NoError(t, err)
	assert.InDelta(t, 20.0, score, 1e-9)
}

func TestInformationMeasuresOfIdenticalPatches(t *testing.T) {
	e := NewStatEvaluator()
	patch := valuePatch(0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 0.15, 0.25, 0.35)
	ref := patch.Clone()

	h, err := e.Score(Entropy, patch, models.Image{})
	require.NoError(t, err)

	// The joint histogram of a patch with itself is diagonal, so joint
	// entropy equals marginal entropy and MI equals it too.
	je, err := e.Score(JE, patch, ref)
	require.NoError(t, err)
	assert.InDelta(t, h, je, 1e-9)

	mi, err := e.Score(MI, patch, ref)
	require.NoError(t, err)
	assert.InDelta(t, h, mi, 1e-9)

	kl, err := e.Score(KL, patch, ref)
	require.NoError(t, err)
	assert.InDelta(t, 0.0, kl, 1e-6, "identical distributions diverge by zero")

	ce, err := e.Score(CE, patch, ref)
	require.NoError(t, err)
	assert.InDelta(t, h, ce, 1e-6, "cross entropy of identical distributions is the entropy")
}

func TestKLIsAsymmetric(t *testing.T) {
	e := NewStatEvaluator()
	a := valuePatch(0.1, 0.1, 0.1, 0.1, 0.1, 0.1, 0.9, 0.9, 0.9, 0.9, 0.9, 0.9)
	b := valuePatch(0.1, 0.1, 0.1, 0.9, 0.9, 0.9, 0.9, 0.9, 0.9, 0.9, 0.9, 0.9)

	ab, err := e.Score(KL, a, b)
	require.NoError(t, err)
	ba, err := e.Score(KL, b, a)
	require.NoError(t, err)

	assert.Greater(t, ab, 0.0)
	assert.NotEqual(t, ab, ba)
}

func TestPairwiseMeasureSizeMismatch(t *testing.T) {
	e := NewStatEvaluator()

	_, err := e.Score(L2, uniformPatch(0.5), models.NewImage(4, 4, 3))
	require.Error(t, err)
}

func TestStandaloneMeasureIgnoresReference(t *testing.T) {
	e := NewStatEvaluator()

	withRef, err := e.Score(Entropy, uniformPatch(0.5), models.NewImage(4, 4, 3))
	require.NoError(t, err)
	withoutRef, err := e.Score(Entropy, uniformPatch(0.5), models.Image{})
	require.NoError(t, err)
	assert.Equal(t, withoutRef, withRef)
}

func TestUnsupportedMeasureValue(t *testing.T) {
	e := NewStatEvaluator()

	_, err := e.Score(Measure(42), uniformPatch(0.5), uniformPatch(0.5))
	var unsupported *UnsupportedMeasureError
	require.True(t, errors.As(err, &unsupported))
}

func TestCustomBinCount(t *testing.T) {
	e := &StatEvaluator{Bins: 2}

	// With two bins, intensities 0.1 and 0.9 land in different bins.
	patch := valuePatch(0.1, 0.1, 0.1, 0.1, 0.1, 0.1, 0.9, 0.9, 0.9, 0.9, 0.9, 0.9)
	score, err := e.Score(Entropy, patch, models.Image{})
	require.NoError(t, err)
	assert.InDelta(t, 1.0, score, 1e-12)
}
