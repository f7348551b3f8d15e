package fhog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"
)

// makePatch builds a CV_8UC3 patch whose gray value at (x, y) is f(x, y),
// replicated across the three channels.
func makePatch(t *testing.T, w, h int, f func(x, y int) uint8) gocv.Mat {
	t.Helper()
	m := gocv.NewMatWithSize(h, w, gocv.MatTypeCV8UC3)
	data, err := m.DataPtrUint8()
	require.NoError(t, err)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v := f(x, y)
			pos := (y*w + x) * 3
			data[pos], data[pos+1], data[pos+2] = v, v, v
		}
	}
	return m
}

func TestExtractDimensions(t *testing.T) {
	patch := makePatch(t, 40, 32, func(x, y int) uint8 { return uint8(x * 3) })
	defer patch.Close()

	m := Extract(patch, 4)
	assert.Equal(t, 10, m.SizeX)
	assert.Equal(t, 8, m.SizeY)
	assert.Equal(t, 27, m.NumFeatures)
	assert.Len(t, m.Cells, 10*8*27)
}

func TestUniformPatchHasNoGradients(t *testing.T) {
	patch := makePatch(t, 32, 32, func(x, y int) uint8 { return 128 })
	defer patch.Close()

	m := Extract(patch, 4)
	for _, v := range m.Cells {
		assert.Zero(t, v)
	}
}

func TestHorizontalGradientVotesOneOrientation(t *testing.T) {
	patch := makePatch(t, 32, 32, func(x, y int) uint8 { return uint8(x * 7) })
	defer patch.Close()

	m := Extract(patch, 4)
	// A purely horizontal gradient concentrates all insensitive energy in
	// the sector aligned with the x axis.
	for y := 1; y < m.SizeY-1; y++ {
		for x := 1; x < m.SizeX-1; x++ {
			assert.Greater(t, m.At(x, y, 0), 0.0)
			for f := 1; f < 9; f++ {
				assert.Zero(t, m.At(x, y, f), "sector %d should be empty", f)
			}
		}
	}
}

func TestNormalizeTruncateShapeAndBound(t *testing.T) {
	patch := makePatch(t, 40, 32, func(x, y int) uint8 { return uint8((x*x + y*y) % 251) })
	defer patch.Close()

	m := Extract(patch, 4)
	m.NormalizeTruncate(0.2)

	assert.Equal(t, 8, m.SizeX)
	assert.Equal(t, 6, m.SizeY)
	assert.Equal(t, 108, m.NumFeatures)
	for _, v := range m.Cells {
		assert.GreaterOrEqual(t, v, 0.0)
		assert.LessOrEqual(t, v, 0.2)
	}
}

func TestReduceDimShape(t *testing.T) {
	patch := makePatch(t, 40, 40, func(x, y int) uint8 { return uint8((3*x + 5*y) % 256) })
	defer patch.Close()

	m := Extract(patch, 4)
	m.NormalizeTruncate(0.2)
	m.ReduceDim()

	assert.Equal(t, ReducedFeatures, m.NumFeatures)
	assert.Equal(t, 8, m.SizeX)
	assert.Equal(t, 8, m.SizeY)
	assert.Len(t, m.Cells, 8*8*ReducedFeatures)
}

func TestTinyPatchDegeneratesGracefully(t *testing.T) {
	patch := makePatch(t, 8, 8, func(x, y int) uint8 { return uint8(x + y) })
	defer patch.Close()

	m := Extract(patch, 4)
	m.NormalizeTruncate(0.2)
	assert.Zero(t, m.Total())
}
