package patch

import (
	"fmt"
	"runtime"
	"sort"

	"github.com/h3nok/curriculum-learning-optimization/internal/models"
	"github.com/h3nok/curriculum-learning-optimization/pkg/measures"
)

// Ordering selects how the patch sequence is mapped onto grid cells
// during reconstruction.
type Ordering int

const (
	// OrderIdentity places patches in sequence order; applied to an
	// unmodified split output this reproduces the original image.
	OrderIdentity Ordering = iota

	// OrderAscending places patches from lowest to highest measure score.
	OrderAscending

	// OrderDescending places patches from highest to lowest measure score.
	OrderDescending
)

// String returns the textual identifier for the ordering.
func (o Ordering) String() string {
	switch o {
	case OrderIdentity:
		return "identity"
	case OrderAscending:
		return "ascending"
	case OrderDescending:
		return "descending"
	default:
		return fmt.Sprintf("Ordering(%d)", int(o))
	}
}

// ParseOrdering resolves a textual ordering identifier.
func ParseOrdering(name string) (Ordering, error) {
	switch name {
	case "identity", "":
		return OrderIdentity, nil
	case "ascending", "low_to_high":
		return OrderAscending, nil
	case "descending", "high_to_low":
		return OrderDescending, nil
	default:
		return 0, fmt.Errorf("unknown ordering %q", name)
	}
}

// Reconstructor reassembles a patch sequence into a full image, with
// the placement order driven by a measure. The measure evaluator is
// injected at construction time; the reconstructor holds no global
// state.
type Reconstructor struct {
	// evaluator scores patches under the selected measure
	evaluator measures.Evaluator

	// workers bounds the number of goroutines used for patch scoring
	workers int
}

// NewReconstructor creates a reconstructor using the given measure
// evaluator. workers bounds the parallelism of patch scoring; values
// below 1 default to the number of CPUs.
func NewReconstructor(evaluator measures.Evaluator, workers int) *Reconstructor {
	if workers < 1 {
		workers = runtime.NumCPU()
	}
	return &Reconstructor{
		evaluator: evaluator,
		workers:   workers,
	}
}

// Reconstruct places the patch sequence back into a (height, width, 3)
// image. Under OrderIdentity patches fill grid cells in sequence order.
// Under a measure ordering each patch is first scored (pairwise
// measures compare against the sequence's first patch), the sequence
// is permuted by score with a stable tie-break on the original
// row-major index, and the permuted sequence then fills the grid
// row-major.
//
// The returned image is freshly allocated and shares no storage with
// the input patches.
func (r *Reconstructor) Reconstruct(patches []models.Patch, height, width int, m measures.Measure, ordering Ordering) (models.Image, error) {
	if err := validateSequence(patches, height, width); err != nil {
		return models.Image{}, err
	}

	ordered := patches
	if ordering != OrderIdentity {
		scores, err := r.scorePatches(patches, m)
		if err != nil {
			return models.Image{}, err
		}
		ordered = permuteByScore(patches, scores, ordering)
	}

	patchSize := patches[0].Height
	gridCols := width / patchSize

	out := models.NewImage(height, width, 3)
	for k, p := range ordered {
		placePatch(out, p, k/gridCols, k%gridCols)
	}

	return out, nil
}

// validateSequence checks the shape invariants of a patch sequence
// against the target image dimensions.
func validateSequence(patches []models.Patch, height, width int) error {
	if len(patches) == 0 {
		return shapeErrorf("reconstruct", "empty patch sequence")
	}
	if height != width {
		return shapeErrorf("reconstruct", "image must be square, got %dx%d", height, width)
	}

	first := patches[0]
	if first.Height != first.Width {
		return shapeErrorf("reconstruct", "patch must be square, got %dx%d", first.Height, first.Width)
	}
	if first.Height <= 0 || first.Channels != 3 {
		return shapeErrorf("reconstruct", "patch shape %dx%dx%d is not supported",
			first.Height, first.Width, first.Channels)
	}

	for i, p := range patches {
		if p.Height != first.Height || p.Width != first.Width || p.Channels != first.Channels {
			return shapeErrorf("reconstruct", "patch %d has shape %dx%dx%d, want %dx%dx%d",
				i, p.Height, p.Width, p.Channels, first.Height, first.Width, first.Channels)
		}
		if len(p.Data) != p.Height*p.Width*p.Channels {
			return shapeErrorf("reconstruct", "patch %d has %d elements, want %d",
				i, len(p.Data), p.Height*p.Width*p.Channels)
		}
	}

	patchSize := first.Height
	if height%patchSize != 0 || width%patchSize != 0 {
		return shapeErrorf("reconstruct", "image %dx%d not divisible by patch size %d",
			height, width, patchSize)
	}

	want := (height / patchSize) * (width / patchSize)
	if len(patches) != want {
		return shapeErrorf("reconstruct", "got %d patches, want %d for %dx%d grid of %dx%d",
			len(patches), want, height, width, patchSize, patchSize)
	}

	return nil
}

// scoreResult carries one patch score back from a scoring worker.
type scoreResult struct {
	index int
	score float64
	err   error
}

// scorePatches computes the measure score of every patch. Scoring is
// fanned out across the configured number of workers; results land in
// an index-addressed slice so the final ordering is identical to
// sequential execution.
func (r *Reconstructor) scorePatches(patches []models.Patch, m measures.Measure) ([]float64, error) {
	reference := referencePatch(patches)

	workers := r.workers
	if workers > len(patches) {
		workers = len(patches)
	}

	resultChan := make(chan scoreResult)
	chunk := (len(patches) + workers - 1) / workers

	for w := 0; w < workers; w++ {
		start := w * chunk
		end := start + chunk
		if end > len(patches) {
			end = len(patches)
		}

		go func(start, end int) {
			for i := start; i < end; i++ {
				score, err := r.evaluator.Score(m, patches[i].Image, reference)
				resultChan <- scoreResult{index: i, score: score, err: err}
			}
		}(start, end)
	}

	scores := make([]float64, len(patches))
	var firstErr error
	for collected := 0; collected < len(patches); collected++ {
		res := <-resultChan
		if res.err != nil && firstErr == nil {
			firstErr = res.err
		}
		scores[res.index] = res.score
	}

	if firstErr != nil {
		return nil, firstErr
	}
	return scores, nil
}

// referencePatch picks the comparison target for pairwise measures:
// the patch that came first in the original row-major extraction.
func referencePatch(patches []models.Patch) models.Image {
	ref := patches[0]
	for _, p := range patches[1:] {
		if p.Index < ref.Index {
			ref = p
		}
	}
	return ref.Image
}

// permuteByScore reorders the sequence by score, keeping the original
// row-major order among equal scores.
func permuteByScore(patches []models.Patch, scores []float64, ordering Ordering) []models.Patch {
	ordered := make([]models.Patch, len(patches))
	copy(ordered, patches)

	perm := make([]int, len(patches))
	for i := range perm {
		perm[i] = i
	}

	sort.SliceStable(perm, func(a, b int) bool {
		if ordering == OrderDescending {
			return scores[perm[a]] > scores[perm[b]]
		}
		return scores[perm[a]] < scores[perm[b]]
	})

	for k, i := range perm {
		ordered[k] = patches[i]
	}
	return ordered
}

// placePatch copies a patch into the grid cell (row, col) of the
// output image.
func placePatch(out models.Image, p models.Patch, row, col int) {
	for y := 0; y < p.Height; y++ {
		dstRow := row*p.Height + y
		dstOff := (dstRow*out.Width + col*p.Width) * out.Channels
		srcOff := y * p.Width * p.Channels
		copy(out.Data[dstOff:dstOff+p.Width*p.Channels], p.Data[srcOff:srcOff+p.Width*p.Channels])
	}
}

// Conserves reports whether a reconstruction exactly reproduces the
// original image. It holds for identity-ordering reconstructions of an
// unmodified split output and is not expected to hold for
// measure-permuted reconstructions.
func Conserves(original, reconstructed models.Image) bool {
	return original.Equal(reconstructed)
}
