package tracker

import (
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/dzyswy/TrackerDSST/features"
	"github.com/dzyswy/TrackerDSST/spectral"
)

// corrFilter is the kernelized correlation filter: the exponentially-smoothed
// appearance template, the frequency-domain dual coefficients and the fixed
// Gaussian regression target.
type corrFilter struct {
	sigma  float64
	lambda float64

	shape  features.Shape
	tmpl   *features.Map
	prob   []complex128 // regression target, frequency domain
	alphaf []complex128 // dual coefficients
}

// newCorrFilter builds a filter for the given template map. The target is a
// 2-D Gaussian centered on the template, transformed once; the coefficients
// start at zero and are filled by the first train call.
func newCorrFilter(tmpl *features.Map, sigma, lambda, padding, outputSigmaFactor float64) *corrFilter {
	f := &corrFilter{
		sigma:  sigma,
		lambda: lambda,
		shape:  tmpl.Shape,
		tmpl:   tmpl.Clone(),
		alphaf: make([]complex128, tmpl.Area()),
	}
	f.prob = gaussianPeak(tmpl.Rows, tmpl.Cols, padding, outputSigmaFactor)
	return f
}

// gaussianPeak builds the frequency-domain regression target: a spatial
// Gaussian centered at (cols/2, rows/2), narrower for higher localization
// precision, forward-transformed.
func gaussianPeak(rows, cols int, padding, outputSigmaFactor float64) []complex128 {
	sigma := math.Sqrt(float64(rows*cols)) / padding * outputSigmaFactor
	mult := -0.5 / (sigma * sigma)

	cy, cx := rows/2, cols/2
	g := make([]float64, rows*cols)
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			dy, dx := float64(r-cy), float64(c-cx)
			g[r*cols+c] = math.Exp(mult * (dy*dy + dx*dx))
		}
	}
	return spectral.FFT2Real(g, rows, cols)
}

// train updates the model from a feature map: solves the ridge regression in
// the frequency domain and blends both the template and the coefficients
// toward the new solution by lr. lr == 1 replaces the model.
func (f *corrFilter) train(x *features.Map, lr float64) {
	k := f.gaussianCorrelation(x, x)
	kf := spectral.FFT2Real(k, f.shape.Rows, f.shape.Cols)
	alphaf := spectral.DivOffset(f.prob, kf, f.lambda)

	f.tmpl.Blend(x, lr)
	for i := range f.alphaf {
		f.alphaf[i] = complex(1-lr, 0)*f.alphaf[i] + complex(lr, 0)*alphaf[i]
	}
}

// detect evaluates the filter on a candidate map against the template z and
// returns the sub-pixel peak offset relative to the response center together
// with the peak value.
func (f *corrFilter) detect(z, x *features.Map) (dx, dy, peak float64) {
	rows, cols := f.shape.Rows, f.shape.Cols

	k := f.gaussianCorrelation(x, z)
	kf := spectral.FFT2Real(k, rows, cols)
	res := spectral.Real(spectral.IFFT2(spectral.Mul(f.alphaf, kf), rows, cols))

	pi, pv := argmax(res)
	px, py := pi%cols, pi/cols
	peak = pv

	fx, fy := float64(px), float64(py)
	if px > 0 && px < cols-1 {
		fx += subPixelPeak(res[py*cols+px-1], pv, res[py*cols+px+1])
	}
	if py > 0 && py < rows-1 {
		fy += subPixelPeak(res[(py-1)*cols+px], pv, res[(py+1)*cols+px])
	}
	return fx - float64(cols/2), fy - float64(rows/2), peak
}

// gaussianCorrelation evaluates a Gaussian kernel for all relative cyclic
// shifts between x1 and x2. Per-channel cross-power spectra are accumulated,
// re-centered, converted to a squared-distance proxy clamped at zero and
// mapped through the kernel exponential.
func (f *corrFilter) gaussianCorrelation(x1, x2 *features.Map) []float64 {
	rows, cols := f.shape.Rows, f.shape.Cols
	n := rows * cols

	c := make([]float64, n)
	for ch := range x1.Data {
		a := spectral.FFT2Real(x1.Data[ch], rows, cols)
		b := spectral.FFT2Real(x2.Data[ch], rows, cols)
		corr := spectral.Real(spectral.IFFT2(spectral.MulConj(a, b), rows, cols))
		floats.Add(c, spectral.Recenter(corr, rows, cols))
	}

	norm := x1.SumSquares() + x2.SumSquares()
	total := float64(n * f.shape.Channels)
	inv := -1 / (f.sigma * f.sigma)

	k := make([]float64, n)
	for i, v := range c {
		d := (norm - 2*v) / total
		if d < 0 {
			d = 0
		}
		k[i] = math.Exp(d * inv)
	}
	return k
}

// subPixelPeak refines a discrete peak along one axis by a parabolic fit
// through its two neighbors. A vanishing denominator yields no correction.
func subPixelPeak(left, center, right float64) float64 {
	divisor := 2*center - right - left
	if divisor == 0 {
		return 0
	}
	return 0.5 * (right - left) / divisor
}

// argmax returns the index and value of the largest element.
func argmax(v []float64) (int, float64) {
	best, bestVal := 0, v[0]
	for i, x := range v {
		if x > bestVal {
			best, bestVal = i, x
		}
	}
	return best, bestVal
}
