package models

import (
	"image"
	"image/color"
)

// Image is a dense pixel tensor stored as a flat float64 slice in
// row-major (height, width, channels) order, the same layout the
// rest of the pipeline uses for all intermediate data. Intensities
// are kept in the [0, 1] range.
type Image struct {
	// Data holds Height*Width*Channels values in row-major order
	Data []float64

	// Width and Height are the spatial dimensions in pixels
	Width  int
	Height int

	// Channels is the number of color channels per pixel
	Channels int
}

// NewImage allocates a zero-filled image with the given dimensions.
func NewImage(height, width, channels int) Image {
	return Image{
		Data:     make([]float64, height*width*channels),
		Width:    width,
		Height:   height,
		Channels: channels,
	}
}

// FromImage converts a decoded image.Image into the flat float64
// representation. 16-bit color values are scaled into the [0, 1] range.
func FromImage(img image.Image) Image {
	bounds := img.Bounds()
	out := NewImage(bounds.Dy(), bounds.Dx(), 3)

	for y := 0; y < out.Height; y++ {
		for x := 0; x < out.Width; x++ {
			r, g, b, _ := img.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()
			idx := (y*out.Width + x) * out.Channels
			out.Data[idx+0] = float64(r) / 65535.0
			out.Data[idx+1] = float64(g) / 65535.0
			out.Data[idx+2] = float64(b) / 65535.0
		}
	}

	return out
}

// At returns the intensity at (row, col, channel).
func (im Image) At(row, col, ch int) float64 {
	return im.Data[(row*im.Width+col)*im.Channels+ch]
}

// Set writes the intensity at (row, col, channel).
func (im Image) Set(row, col, ch int, v float64) {
	im.Data[(row*im.Width+col)*im.Channels+ch] = v
}

// Clone returns a deep copy of the image; the returned image shares
// no storage with the receiver.
func (im Image) Clone() Image {
	out := Image{
		Data:     make([]float64, len(im.Data)),
		Width:    im.Width,
		Height:   im.Height,
		Channels: im.Channels,
	}
	copy(out.Data, im.Data)
	return out
}

// Equal reports whether two images have identical dimensions and
// exactly equal pixel data.
func (im Image) Equal(other Image) bool {
	if im.Width != other.Width || im.Height != other.Height || im.Channels != other.Channels {
		return false
	}
	if len(im.Data) != len(other.Data) {
		return false
	}
	for i := range im.Data {
		if im.Data[i] != other.Data[i] {
			return false
		}
	}
	return true
}

// ToRGBA converts the tensor back into an 8-bit RGBA image for encoding.
// Values outside [0, 1] are clamped.
func (im Image) ToRGBA() *image.RGBA {
	out := image.NewRGBA(image.Rect(0, 0, im.Width, im.Height))

	for y := 0; y < im.Height; y++ {
		for x := 0; x < im.Width; x++ {
			idx := (y*im.Width + x) * im.Channels
			var rgb [3]float64
			for c := 0; c < 3 && c < im.Channels; c++ {
				rgb[c] = im.Data[idx+c]
			}
			out.Set(x, y, color.RGBA{
				R: floatToByte(rgb[0]),
				G: floatToByte(rgb[1]),
				B: floatToByte(rgb[2]),
				A: 255,
			})
		}
	}

	return out
}

func floatToByte(v float64) uint8 {
	if v <= 0 {
		return 0
	}
	if v >= 1 {
		return 255
	}
	return uint8(v*255.0 + 0.5)
}

// Patch is one cell of the patch grid: a fixed-size sub-image stamped
// with the grid position it was extracted from. Index is the row-major
// position (Row*gridCols + Col) used for stable ordering.
type Patch struct {
	Image

	// Row and Col locate the patch in the extraction grid
	Row int
	Col int

	// Index is the row-major extraction order of this patch
	Index int
}
