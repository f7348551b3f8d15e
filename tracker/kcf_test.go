package tracker

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dzyswy/TrackerDSST/features"
	"github.com/dzyswy/TrackerDSST/spectral"
)

func randomFeatureMap(shape features.Shape, seed int64) *features.Map {
	rng := rand.New(rand.NewSource(seed))
	m := features.NewMap(shape)
	for _, ch := range m.Data {
		for i := range ch {
			ch[i] = rng.Float64()
		}
	}
	return m
}

func TestGaussianCorrelationSelfPeakIsOne(t *testing.T) {
	for _, shape := range []features.Shape{
		{Rows: 16, Cols: 16, Channels: 1},
		{Rows: 12, Cols: 20, Channels: 7},
	} {
		m := randomFeatureMap(shape, 42)
		f := newCorrFilter(m, 0.5, 0.0001, 2.5, 0.125)

		k := f.gaussianCorrelation(m, m)
		center := (shape.Rows/2)*shape.Cols + shape.Cols/2
		assert.InDelta(t, 1, k[center], 1e-9, "shape %+v", shape)

		// Self-correlation distance is never negative, so the kernel
		// response stays in (0, 1].
		for _, v := range k {
			assert.Greater(t, v, 0.0)
			assert.LessOrEqual(t, v, 1+1e-12)
		}
	}
}

func TestTrainThenDetectIsCentered(t *testing.T) {
	shape := features.Shape{Rows: 24, Cols: 24, Channels: 3}
	m := randomFeatureMap(shape, 7)

	f := newCorrFilter(m, 0.6, 0.0001, 2.5, 0.125)
	f.train(m, 1)

	dx, dy, peak := f.detect(f.tmpl, m)
	assert.InDelta(t, 0, dx, 0.5)
	assert.InDelta(t, 0, dy, 0.5)
	assert.Greater(t, peak, 0.5)
}

func TestSubPixelPeak(t *testing.T) {
	// Degenerate: flat response yields zero correction.
	assert.Zero(t, subPixelPeak(1, 1, 1))
	assert.Zero(t, subPixelPeak(3, 2, 1)) // 2*2-1-3 == 0

	// Symmetric peak needs no correction.
	assert.Zero(t, subPixelPeak(0.5, 1, 0.5))

	// Skew pulls the peak toward the larger neighbor, never past half a
	// pixel for a true discrete maximum.
	right := subPixelPeak(0.2, 1, 0.8)
	assert.Greater(t, right, 0.0)
	assert.LessOrEqual(t, right, 0.5)

	left := subPixelPeak(0.8, 1, 0.2)
	assert.Less(t, left, 0.0)
	assert.GreaterOrEqual(t, left, -0.5)
}

func TestGaussianPeakCenteredTarget(t *testing.T) {
	const rows, cols = 20, 26
	prob := gaussianPeak(rows, cols, 2.5, 0.125)

	g := spectral.Real(spectral.IFFT2(prob, rows, cols))
	idx, v := argmax(g)
	require.InDelta(t, 1, v, 1e-9)
	assert.Equal(t, (rows/2)*cols+cols/2, idx)
}

func TestArgmax(t *testing.T) {
	idx, v := argmax([]float64{-1, 3, 2, 3})
	assert.Equal(t, 1, idx)
	assert.Equal(t, 3.0, v)
}
