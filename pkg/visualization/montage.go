// Package visualization renders reconstruction results for inspection:
// a titled grid montage of the per-measure reconstructions, written as
// a JPEG file.
package visualization

import (
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"os"
	"path/filepath"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/h3nok/curriculum-learning-optimization/internal/models"
)

// Montage lays out a list of images in a fixed-column grid, each tile
// scaled to a common size with its title drawn underneath.
type Montage struct {
	// columns is the number of tiles per row
	columns int

	// tileSize is the square tile edge length in pixels
	tileSize int

	// padding is the gap between tiles and around the border
	padding int

	// labelHeight is the vertical space reserved for each title
	labelHeight int
}

// NewMontage creates a montage layout with the given column count and
// tile size. Invalid values fall back to a 5-column grid of 224px tiles,
// matching the reference experiment.
func NewMontage(columns, tileSize int) *Montage {
	if columns < 1 {
		columns = 5
	}
	if tileSize < 1 {
		tileSize = 224
	}
	return &Montage{
		columns:     columns,
		tileSize:    tileSize,
		padding:     8,
		labelHeight: 16,
	}
}

// Bounds returns the canvas dimensions for n tiles.
func (m *Montage) Bounds(n int) image.Rectangle {
	cols := m.columns
	if n < cols {
		cols = n
	}
	rows := (n + m.columns - 1) / m.columns

	width := cols*m.tileSize + (cols+1)*m.padding
	height := rows*(m.tileSize+m.labelHeight) + (rows+1)*m.padding
	return image.Rect(0, 0, width, height)
}

// Render draws the images into a grid with their titles. titles may be
// nil; otherwise it must have one entry per image.
func (m *Montage) Render(images []models.Image, titles []string) (*image.RGBA, error) {
	if len(images) == 0 {
		return nil, fmt.Errorf("no images to render")
	}
	if titles != nil && len(titles) != len(images) {
		return nil, fmt.Errorf("got %d titles for %d images", len(titles), len(images))
	}

	canvas := image.NewRGBA(m.Bounds(len(images)))
	draw.Draw(canvas, canvas.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)

	for i, img := range images {
		col := i % m.columns
		row := i / m.columns

		x0 := m.padding + col*(m.tileSize+m.padding)
		y0 := m.padding + row*(m.tileSize+m.labelHeight+m.padding)
		tile := image.Rect(x0, y0, x0+m.tileSize, y0+m.tileSize)

		src := img.ToRGBA()
		draw.ApproxBiLinear.Scale(canvas, tile, src, src.Bounds(), draw.Src, nil)

		if titles != nil {
			m.drawTitle(canvas, titles[i], tile)
		}
	}

	return canvas, nil
}

// drawTitle centers a label in the strip below a tile.
func (m *Montage) drawTitle(canvas *image.RGBA, title string, tile image.Rectangle) {
	face := basicfont.Face7x13
	drawer := &font.Drawer{
		Dst:  canvas,
		Src:  image.NewUniform(color.Black),
		Face: face,
	}

	width := drawer.MeasureString(title).Ceil()
	x := tile.Min.X + (tile.Dx()-width)/2
	if x < tile.Min.X {
		x = tile.Min.X
	}
	y := tile.Max.Y + face.Ascent + (m.labelHeight-face.Height)/2

	drawer.Dot = fixed.P(x, y)
	drawer.DrawString(title)
}

// SaveJPEG writes an image as a JPEG file, creating parent directories
// as needed.
func SaveJPEG(path string, img image.Image) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	return jpeg.Encode(file, img, &jpeg.Options{Quality: 90})
}
