// Package patch implements the patch decomposition and measure-ordered
// reconstruction pipeline: an image is cut into a regular grid of
// non-overlapping square patches, and the patches are placed back into
// a full image in an order chosen by a scalar measure.
package patch

import (
	"github.com/h3nok/curriculum-learning-optimization/internal/models"
)

// Split decomposes an image into non-overlapping square patches in
// row-major grid order (rows outer, columns inner).
//
// The image and the patches must both be square: height == width and
// patchH == patchW. Without padding the image dimensions must be exact
// multiples of the patch size. With pad set, the image is zero-padded
// on the bottom and right edges up to the next multiple of the patch
// size before decomposition.
//
// Split is a pure function: the returned patches own their storage and
// share nothing with the input image.
func Split(img models.Image, height, width, patchH, patchW int, pad bool) ([]models.Patch, error) {
	if height != width {
		return nil, shapeErrorf("split", "image must be square, got %dx%d", height, width)
	}
	if patchH != patchW {
		return nil, shapeErrorf("split", "patch must be square, got %dx%d", patchH, patchW)
	}
	if patchH <= 0 {
		return nil, shapeErrorf("split", "patch size must be positive, got %d", patchH)
	}
	if len(img.Data) != height*width*3 {
		return nil, shapeErrorf("split", "image has %d elements, want %d for %dx%dx3",
			len(img.Data), height*width*3, height, width)
	}

	src := img
	src.Height = height
	src.Width = width
	src.Channels = 3

	if height%patchH != 0 || width%patchW != 0 {
		if !pad {
			return nil, shapeErrorf("split", "image %dx%d not divisible by patch %dx%d",
				height, width, patchH, patchW)
		}
		src = zeroPad(src, nextMultiple(height, patchH), nextMultiple(width, patchW))
	}

	gridRows := src.Height / patchH
	gridCols := src.Width / patchW

	patches := make([]models.Patch, 0, gridRows*gridCols)
	for row := 0; row < gridRows; row++ {
		for col := 0; col < gridCols; col++ {
			p := models.Patch{
				Image: models.NewImage(patchH, patchW, src.Channels),
				Row:   row,
				Col:   col,
				Index: row*gridCols + col,
			}

			for y := 0; y < patchH; y++ {
				srcRow := row*patchH + y
				srcOff := (srcRow*src.Width + col*patchW) * src.Channels
				dstOff := y * patchW * src.Channels
				copy(p.Data[dstOff:dstOff+patchW*src.Channels], src.Data[srcOff:srcOff+patchW*src.Channels])
			}

			patches = append(patches, p)
		}
	}

	return patches, nil
}

// nextMultiple rounds n up to the nearest multiple of step.
func nextMultiple(n, step int) int {
	if rem := n % step; rem != 0 {
		return n + step - rem
	}
	return n
}

// zeroPad grows an image to the given dimensions, filling the new
// bottom and right margins with zeros.
func zeroPad(img models.Image, height, width int) models.Image {
	out := models.NewImage(height, width, img.Channels)
	rowLen := img.Width * img.Channels

	for y := 0; y < img.Height; y++ {
		srcOff := y * rowLen
		dstOff := y * width * img.Channels
		copy(out.Data[dstOff:dstOff+rowLen], img.Data[srcOff:srcOff+rowLen])
	}

	return out
}
