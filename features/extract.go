package features

import (
	"image"

	"gocv.io/x/gocv"

	"github.com/dzyswy/TrackerDSST/fhog"
)

// Config selects the feature representation and the geometry of the
// canonical template window.
type Config struct {
	// HOG selects the multi-channel HOG representation; otherwise a raw
	// centered grayscale plane is produced.
	HOG bool
	// ColorAttributes appends the soft-quantized color channels to the
	// HOG representation. Ignored without HOG.
	ColorAttributes bool
	// CellSize is the HOG cell size in pixels (1 for raw features).
	CellSize int
	// Padding is the context area around the target, relative to its size.
	Padding float64
	// TemplateSize is the canonical window size in pixels; values <= 1
	// keep the padded target size instead.
	TemplateSize int
}

// Target is the tracked box the extractor samples around, as a center and a
// size in raw image pixels.
type Target struct {
	Cx, Cy        float64
	Width, Height float64
}

// Extractor produces normalized, spatially windowed feature maps over a
// canonical template-sized window. The template geometry is derived on the
// first extraction and reused until the next re-initialization.
type Extractor struct {
	cfg Config

	tmplW, tmplH int
	baseScale    float64

	hann  []float64
	shape Shape
}

// NewExtractor returns an extractor for the given configuration.
func NewExtractor(cfg Config) *Extractor {
	return &Extractor{cfg: cfg, baseScale: 1}
}

// Shape returns the dimensions of the most recently extracted map.
func (e *Extractor) Shape() Shape { return e.shape }

// BaseScale returns the factor between raw image pixels and template pixels,
// fixed at the first extraction.
func (e *Extractor) BaseScale() float64 { return e.baseScale }

// TemplateSize returns the canonical window size in pixels.
func (e *Extractor) TemplateSize() (w, h int) { return e.tmplW, e.tmplH }

// Extract samples a replicate-padded sub-window around the target, resizes it
// to the canonical template size and computes the configured feature
// representation with the cosine window applied to every channel.
//
// With initTemplate set, the template geometry is (re-)derived from the
// padded target size first. scaleAdjust and scaleFactor multiply the sampled
// window size without changing the template size.
func (e *Extractor) Extract(img gocv.Mat, t Target, initTemplate bool, scaleAdjust, scaleFactor float64) *Map {
	if initTemplate {
		e.deriveTemplate(t)
	}

	w := int(scaleAdjust * e.baseScale * float64(e.tmplW) * scaleFactor)
	h := int(scaleAdjust * e.baseScale * float64(e.tmplH) * scaleFactor)
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}

	patch := SubWindowCentered(img, t.Cx, t.Cy, w, h)
	defer patch.Close()
	if patch.Cols() != e.tmplW || patch.Rows() != e.tmplH {
		resized := gocv.NewMat()
		gocv.Resize(patch, &resized, image.Pt(e.tmplW, e.tmplH), 0, 0, gocv.InterpolationLinear)
		patch.Close()
		patch = resized
	}

	var m *Map
	if e.cfg.HOG {
		m = e.hogFeatures(patch)
	} else {
		m = e.rawFeatures(patch)
	}
	e.shape = m.Shape

	if initTemplate || len(e.hann) != m.Area() {
		e.hann = Hann2D(m.Rows, m.Cols)
	}
	for _, ch := range m.Data {
		for i := range ch {
			ch[i] *= e.hann[i]
		}
	}
	return m
}

// deriveTemplate fixes the template size and the pixel-to-template scale
// from the padded target box.
func (e *Extractor) deriveTemplate(t Target) {
	paddedW := t.Width * e.cfg.Padding
	paddedH := t.Height * e.cfg.Padding

	if e.cfg.TemplateSize > 1 {
		// Fit the larger padded dimension to the template size.
		if paddedW >= paddedH {
			e.baseScale = paddedW / float64(e.cfg.TemplateSize)
		} else {
			e.baseScale = paddedH / float64(e.cfg.TemplateSize)
		}
		e.tmplW = int(paddedW / e.baseScale)
		e.tmplH = int(paddedH / e.baseScale)
	} else {
		e.tmplW = int(paddedW)
		e.tmplH = int(paddedH)
		e.baseScale = 1
	}

	if e.cfg.HOG {
		// Round to a multiple of twice the cell size, plus a border of
		// cells that the HOG cropping removes again.
		k := 2 * e.cfg.CellSize
		e.tmplW = (e.tmplW/k)*k + k
		e.tmplH = (e.tmplH/k)*k + k
	} else {
		e.tmplW = (e.tmplW / 2) * 2
		e.tmplH = (e.tmplH / 2) * 2
	}
}

// hogFeatures computes the HOG map, optionally extended with the
// color-attribute channels, as channel planes.
func (e *Extractor) hogFeatures(patch gocv.Mat) *Map {
	hog := fhog.Extract(patch, e.cfg.CellSize)
	hog.NormalizeTruncate(0.2)
	hog.ReduceDim()

	shape := Shape{Rows: hog.SizeY, Cols: hog.SizeX, Channels: hog.NumFeatures}
	if e.cfg.ColorAttributes {
		shape.Channels += PaletteSize()
	}
	m := NewMap(shape)
	for f := 0; f < hog.NumFeatures; f++ {
		plane := m.Data[f]
		for y := 0; y < hog.SizeY; y++ {
			for x := 0; x < hog.SizeX; x++ {
				plane[y*hog.SizeX+x] = hog.At(x, y, f)
			}
		}
	}
	if e.cfg.ColorAttributes {
		attrs := colorAttributes(patch, e.cfg.CellSize, hog.SizeX, hog.SizeY)
		for i, plane := range attrs {
			copy(m.Data[hog.NumFeatures+i], plane)
		}
	}
	return m
}

// rawFeatures produces the single-channel centered grayscale map.
func (e *Extractor) rawFeatures(patch gocv.Mat) *Map {
	m := &Map{
		Shape: Shape{Rows: patch.Rows(), Cols: patch.Cols(), Channels: 1},
		Data:  [][]float64{grayPlane(patch)},
	}
	return m
}
