package tracker

import (
	"image"
	"math"

	"gocv.io/x/gocv"

	"github.com/dzyswy/TrackerDSST/features"
	"github.com/dzyswy/TrackerDSST/fhog"
	"github.com/dzyswy/TrackerDSST/spectral"
)

// scaleEstimator is the 1-D correlation filter over a bank of geometrically
// rescaled target patches. It owns the numerator/denominator accumulators,
// the scale-factor table and the scale window.
type scaleEstimator struct {
	cellSize         int
	scaleStep        float64
	scaleSigmaFactor float64
	scaleLearnRate   float64
	scaleLambda      float64

	// Reference target size at scale-tracking init.
	baseWidth, baseHeight float64

	factors []float64    // geometric scale multipliers, middle entry 1.0
	window  []float64    // cosine taper across the scale axis
	ysf     []complex128 // 1-D Gaussian target, frequency domain

	// Patch model size, capped by the maximum model area.
	modelW, modelH int

	minFactor, maxFactor float64

	num       [][]complex128 // one row per feature element
	den       []float64      // shared across feature rows
	totalSize int
}

// newScaleEstimator builds the factor table, the scale target and window,
// the capped model size and the feasible scale bounds, then trains the filter
// on the initial frame.
func newScaleEstimator(p params, roi Rect, img gocv.Mat) *scaleEstimator {
	s := &scaleEstimator{
		cellSize:         p.cellSize,
		scaleStep:        p.scaleStep,
		scaleSigmaFactor: p.scaleSigmaFactor,
		scaleLearnRate:   p.scaleLearnRate,
		scaleLambda:      p.scaleLambda,
		baseWidth:        roi.Width,
		baseHeight:       roi.Height,
	}

	n := p.numScales
	ceilS := math.Ceil(float64(n) / 2)

	s.factors = make([]float64, n)
	for i := range s.factors {
		s.factors[i] = math.Pow(p.scaleStep, ceilS-float64(i)-1)
	}
	s.window = features.Hann(n)

	scaleSigma := math.Sqrt(float64(n)) * p.scaleSigmaFactor
	g := make([]float64, n)
	for i := range g {
		d := float64(i) + 1 - ceilS
		g[i] = math.Exp(-0.5 * d * d / (scaleSigma * scaleSigma))
	}
	s.ysf = spectral.FFT1Real(g)

	modelFactor := 1.0
	if s.baseWidth*s.baseHeight > p.scaleMaxArea {
		modelFactor = math.Sqrt(p.scaleMaxArea / (s.baseWidth * s.baseHeight))
	}
	s.modelW = int(s.baseWidth * modelFactor)
	s.modelH = int(s.baseHeight * modelFactor)

	// Feasible scale range: the target may shrink to a few pixels and grow
	// to the frame size.
	s.minFactor = math.Pow(p.scaleStep,
		math.Ceil(math.Log(math.Max(5/s.baseWidth, 5/s.baseHeight)*(1+p.scalePadding))/0.0086))
	s.maxFactor = math.Pow(p.scaleStep,
		math.Floor(math.Log(math.Min(float64(img.Rows())/s.baseHeight, float64(img.Cols())/s.baseWidth))/0.0086))

	s.train(img, roi, 1, true)
	return s
}

// midIndex is the table index of the unit scale factor.
func (s *scaleEstimator) midIndex() int {
	return int(math.Ceil(float64(len(s.factors))/2)) - 1
}

// sample builds the N-column feature matrix: one HOG feature vector per
// candidate scale, weighted by the scale window, transformed along the scale
// axis. Degenerate patches leave their column zero; a frame with no valid
// patch at all yields nil.
func (s *scaleEstimator) sample(img gocv.Mat, roi Rect, scaleFactor float64) [][]complex128 {
	cx := roi.X + roi.Width/2
	cy := roi.Y + roi.Height/2
	n := len(s.factors)

	var xs [][]float64
	for i, f := range s.factors {
		pw := int(s.baseWidth * f * scaleFactor)
		ph := int(s.baseHeight * f * scaleFactor)
		if pw <= 0 || ph <= 0 {
			continue
		}

		patch := features.SubWindowCentered(img, cx, cy, pw, ph)
		if patch.Empty() {
			patch.Close()
			continue
		}
		interp := gocv.InterpolationArea
		if s.modelW > patch.Cols() {
			interp = gocv.InterpolationLinear
		}
		resized := gocv.NewMat()
		gocv.Resize(patch, &resized, image.Pt(s.modelW, s.modelH), 0, 0, interp)
		patch.Close()

		m := fhog.Extract(resized, s.cellSize)
		resized.Close()
		m.NormalizeTruncate(0.2)
		m.ReduceDim()

		if xs == nil {
			s.totalSize = m.Total()
			xs = make([][]float64, s.totalSize)
			for r := range xs {
				xs[r] = make([]float64, n)
			}
		}
		w := s.window[i]
		for r, v := range m.Cells {
			if r >= s.totalSize {
				break
			}
			xs[r][i] = v * w
		}
	}
	if xs == nil {
		return nil
	}

	xsf := make([][]complex128, s.totalSize)
	for r := range xs {
		xsf[r] = spectral.FFT1Real(xs[r])
	}
	return xsf
}

// detect returns the index of the best candidate scale: the arg-max of the
// filter response summed across feature rows. Without a usable sample it
// falls back to the unit scale.
func (s *scaleEstimator) detect(img gocv.Mat, roi Rect, scaleFactor float64) int {
	xsf := s.sample(img, roi, scaleFactor)
	if xsf == nil || s.num == nil {
		return s.midIndex()
	}

	n := len(s.factors)
	resp := make([]complex128, n)
	for r := 0; r < s.totalSize && r < len(s.num); r++ {
		num, row := s.num[r], xsf[r]
		for i := 0; i < n; i++ {
			resp[i] += num[i] * row[i]
		}
	}
	response := spectral.IFFT1Real(spectral.DivRealOffset(resp, s.den, s.scaleLambda))
	idx, _ := argmax(response)
	return idx
}

// train recomputes the sample matrix and forms the instantaneous numerator
// (cross-spectrum with the target) and denominator (power spectrum summed
// over feature rows). The first call replaces the filter state, later calls
// blend by the scale learning rate.
func (s *scaleEstimator) train(img gocv.Mat, roi Rect, scaleFactor float64, initial bool) {
	xsf := s.sample(img, roi, scaleFactor)
	if xsf == nil {
		return
	}

	n := len(s.factors)
	newNum := make([][]complex128, s.totalSize)
	newDen := make([]float64, n)
	for r := 0; r < s.totalSize; r++ {
		row := xsf[r]
		nr := make([]complex128, n)
		for i := 0; i < n; i++ {
			cr, ci := real(row[i]), imag(row[i])
			nr[i] = s.ysf[i] * complex(cr, -ci)
			newDen[i] += cr*cr + ci*ci
		}
		newNum[r] = nr
	}

	if initial || s.num == nil || len(s.num) != len(newNum) {
		s.num = newNum
		s.den = newDen
		return
	}
	lr := s.scaleLearnRate
	for r := range s.num {
		for i := 0; i < n; i++ {
			s.num[r][i] = complex(1-lr, 0)*s.num[r][i] + complex(lr, 0)*newNum[r][i]
		}
	}
	for i := 0; i < n; i++ {
		s.den[i] = (1-lr)*s.den[i] + lr*newDen[i]
	}
}

// clampFactor bounds a scale factor to the feasible range.
func (s *scaleEstimator) clampFactor(f float64) float64 {
	if f < s.minFactor {
		return s.minFactor
	}
	if f > s.maxFactor {
		return s.maxFactor
	}
	return f
}
