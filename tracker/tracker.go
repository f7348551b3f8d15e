package tracker

import (
	"errors"
	"image"
	"math"

	"gocv.io/x/gocv"

	"github.com/dzyswy/TrackerDSST/features"
)

// Rect is a target bounding box in image coordinates.
type Rect struct {
	X, Y          float64
	Width, Height float64
}

// ToImageRect converts the box to an integer rectangle.
func (r Rect) ToImageRect() image.Rectangle {
	return image.Rect(int(r.X), int(r.Y), int(r.X+r.Width), int(r.Y+r.Height))
}

// Tracker tracks a single rectangular target across frames with a kernelized
// correlation filter for translation and an optional 1-D filter for scale.
// It is not safe for concurrent use; one instance owns all of its state.
type Tracker struct {
	p         params
	extractor *features.Extractor
	filter    *corrFilter
	scale     *scaleEstimator

	roi         Rect
	scaleFactor float64
	lastPeak    float64
}

// New creates a tracker with the hyperparameters selected by opts. Init must
// be called before Update.
func New(opts Options) *Tracker {
	p := paramsFor(opts)
	return &Tracker{
		p: p,
		extractor: features.NewExtractor(features.Config{
			HOG:             p.hog,
			ColorAttributes: p.colorAttributes,
			CellSize:        p.cellSize,
			Padding:         p.padding,
			TemplateSize:    p.templateSize,
		}),
		scaleFactor: 1,
	}
}

// Init fixes the target on the first frame: derives the template geometry,
// builds the regression target and the scale filter, and trains both models
// on the initial appearance.
func (t *Tracker) Init(roi Rect, img gocv.Mat) error {
	if roi.Width < 0 || roi.Height < 0 {
		return errors.New("tracker: negative target dimensions")
	}
	t.roi = clipToFrame(roi, img)

	x := t.extractor.Extract(img, t.target(), true, 1, t.scaleFactor)
	t.filter = newCorrFilter(x, t.p.sigma, t.p.lambda, t.p.padding, t.p.outputSigmaFactor)
	if t.p.multiScale {
		t.scale = newScaleEstimator(t.p, t.roi, img)
	}
	t.filter.train(x, 1)
	return nil
}

// InitFromPoints fixes the target from two opposite box corners.
func (t *Tracker) InitFromPoints(p1, p2 image.Point, img gocv.Mat) error {
	roi := Rect{
		X:      math.Min(float64(p1.X), float64(p2.X)),
		Y:      math.Min(float64(p1.Y), float64(p2.Y)),
		Width:  math.Abs(float64(p2.X - p1.X)),
		Height: math.Abs(float64(p2.Y - p1.Y)),
	}
	return t.Init(roi, img)
}

// Update advances the tracker by one frame and returns the new target box.
// It always returns a box; low-confidence detections are accepted as the new
// state.
func (t *Tracker) Update(img gocv.Mat) Rect {
	cols := float64(img.Cols())
	rows := float64(img.Rows())

	// Keep at least one pixel of the box inside the frame.
	if t.roi.X+t.roi.Width <= 0 {
		t.roi.X = -t.roi.Width + 1
	}
	if t.roi.Y+t.roi.Height <= 0 {
		t.roi.Y = -t.roi.Height + 1
	}
	if t.roi.X >= cols-1 {
		t.roi.X = cols - 2
	}
	if t.roi.Y >= rows-1 {
		t.roi.Y = rows - 2
	}

	cx := t.roi.X + t.roi.Width/2
	cy := t.roi.Y + t.roi.Height/2

	x := t.extractor.Extract(img, t.target(), false, 1, t.scaleFactor)
	dx, dy, peak := t.filter.detect(t.filter.tmpl, x)
	t.lastPeak = peak

	// The detected offset is in feature cells of the template window.
	step := float64(t.p.cellSize) * t.extractor.BaseScale() * t.scaleFactor
	t.roi.X = cx - t.roi.Width/2 + dx*step
	t.roi.Y = cy - t.roi.Height/2 + dy*step
	t.reclamp(cols, rows)

	if t.scale != nil {
		idx := t.scale.detect(img, t.roi, t.scaleFactor)
		t.scaleFactor = t.scale.clampFactor(t.scaleFactor * t.scale.factors[idx])
		t.scale.train(img, t.roi, t.scaleFactor, false)
		t.resizeROI()
		t.reclamp(cols, rows)
	}

	x = t.extractor.Extract(img, t.target(), false, 1, t.scaleFactor)
	t.filter.train(x, t.p.interpFactor)

	return t.roi
}

// Box returns the current target box.
func (t *Tracker) Box() Rect { return t.roi }

// PeakValue returns the translation response peak of the last Update, a
// rough confidence signal.
func (t *Tracker) PeakValue() float64 { return t.lastPeak }

// ScaleFactor returns the running scale relative to the initial box.
func (t *Tracker) ScaleFactor() float64 { return t.scaleFactor }

// target is the extractor view of the current box.
func (t *Tracker) target() features.Target {
	return features.Target{
		Cx:     t.roi.X + t.roi.Width/2,
		Cy:     t.roi.Y + t.roi.Height/2,
		Width:  t.roi.Width,
		Height: t.roi.Height,
	}
}

// reclamp pulls a box that drifted past the frame edges back to a sane
// position.
func (t *Tracker) reclamp(cols, rows float64) {
	if t.roi.X >= cols-1 {
		t.roi.X = cols - 1
	}
	if t.roi.Y >= rows-1 {
		t.roi.Y = rows - 1
	}
	if t.roi.X+t.roi.Width <= 0 {
		t.roi.X = -t.roi.Width + 2
	}
	if t.roi.Y+t.roi.Height <= 0 {
		t.roi.Y = -t.roi.Height + 2
	}
}

// resizeROI recomputes the box size from the reference size and the current
// scale factor, keeping the center fixed.
func (t *Tracker) resizeROI() {
	cx := t.roi.X + t.roi.Width/2
	cy := t.roi.Y + t.roi.Height/2
	t.roi.Width = t.scale.baseWidth * t.scaleFactor
	t.roi.Height = t.scale.baseHeight * t.scaleFactor
	t.roi.X = cx - t.roi.Width/2
	t.roi.Y = cy - t.roi.Height/2
}

// clipToFrame intersects a box with the frame bounds.
func clipToFrame(r Rect, img gocv.Mat) Rect {
	x0 := math.Max(r.X, 0)
	y0 := math.Max(r.Y, 0)
	x1 := math.Min(r.X+r.Width, float64(img.Cols()))
	y1 := math.Min(r.Y+r.Height, float64(img.Rows()))
	if x1 < x0 {
		x1 = x0
	}
	if y1 < y0 {
		y1 = y0
	}
	return Rect{X: x0, Y: y0, Width: x1 - x0, Height: y1 - y0}
}
