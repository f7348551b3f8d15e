package tracker

import (
	"image"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"
)

// makeFrame builds a CV_8UC3 frame from a gray-value function.
func makeFrame(t *testing.T, w, h int, f func(x, y int) uint8) gocv.Mat {
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

// blobPattern is a textured scene: a bright blob over a gentle gradient.
func blobPattern(cx, cy int) func(x, y int) uint8 {
	return func(x, y int) uint8 {
		dx, dy := float64(x-cx), float64(y-cy)
		blob := 180 * math.Exp(-(dx*dx+dy*dy)/(2*12*12))
		return uint8(blob + float64((x+y)%40))
	}
}

func center(r Rect) (float64, float64) {
	return r.X + r.Width/2, r.Y + r.Height/2
}

func TestInitRejectsNegativeBox(t *testing.T) {
	img := makeFrame(t, 100, 100, func(x, y int) uint8 { return uint8(x) })
	defer img.Close()

	tr := New(Options{})
	err := tr.Init(Rect{X: 10, Y: 10, Width: -5, Height: 20}, img)
	assert.Error(t, err)

	err = tr.Init(Rect{X: 10, Y: 10, Width: 20, Height: -1}, img)
	assert.Error(t, err)
}

func TestUpdateOnIdenticalFrameStaysPut(t *testing.T) {
	img := makeFrame(t, 200, 200, blobPattern(70, 70))
	defer img.Close()

	tr := New(Options{})
	require.NoError(t, tr.Init(Rect{X: 50, Y: 50, Width: 40, Height: 40}, img))

	box := tr.Update(img)
	cx, cy := center(box)
	assert.InDelta(t, 70, cx, 1)
	assert.InDelta(t, 70, cy, 1)
}

func TestRepeatedUpdatesConvergeToFixedPoint(t *testing.T) {
	// Uniform-gradient frame: five updates on the same content must stop
	// moving the box.
	img := makeFrame(t, 200, 200, func(x, y int) uint8 { return uint8(x + y) })
	defer img.Close()

	tr := New(Options{})
	require.NoError(t, tr.Init(Rect{X: 50, Y: 50, Width: 40, Height: 40}, img))

	prevCx, prevCy := center(tr.Box())
	var lastStep float64
	for i := 0; i < 5; i++ {
		box := tr.Update(img)
		cx, cy := center(box)
		lastStep = math.Hypot(cx-prevCx, cy-prevCy)
		prevCx, prevCy = cx, cy
	}
	assert.Less(t, lastStep, 0.5)
}

func TestPureTranslationRoundTrip(t *testing.T) {
	const shift = 4
	img := makeFrame(t, 200, 200, blobPattern(70, 70))
	defer img.Close()
	shifted := makeFrame(t, 200, 200, blobPattern(70+shift, 70))
	defer shifted.Close()

	tr := New(Options{})
	require.NoError(t, tr.Init(Rect{X: 50, Y: 50, Width: 40, Height: 40}, img))

	box := tr.Update(shifted)
	cx, cy := center(box)
	assert.InDelta(t, 70+shift, cx, 2)
	assert.InDelta(t, 70, cy, 2)
}

func TestMultiScaleSameFrameKeepsScale(t *testing.T) {
	img := makeFrame(t, 200, 200, blobPattern(100, 100))
	defer img.Close()

	tr := New(Options{HOG: true, FixedWindow: true, MultiScale: true})
	require.NoError(t, tr.Init(Rect{X: 80, Y: 80, Width: 40, Height: 40}, img))

	for i := 0; i < 3; i++ {
		tr.Update(img)
	}
	// Identical content: the scale must stay within one table step of 1.
	assert.InDelta(t, 1, tr.ScaleFactor(), 0.06)
}

func TestScaleFactorRespectsBounds(t *testing.T) {
	img := makeFrame(t, 200, 200, blobPattern(100, 100))
	defer img.Close()

	tr := New(Options{HOG: true, MultiScale: true})
	require.NoError(t, tr.Init(Rect{X: 80, Y: 80, Width: 40, Height: 40}, img))
	require.NotNil(t, tr.scale)

	noise := makeFrame(t, 200, 200, func(x, y int) uint8 { return uint8((x*31 + y*17) % 256) })
	defer noise.Close()
	for i := 0; i < 8; i++ {
		tr.Update(noise)
		assert.GreaterOrEqual(t, tr.ScaleFactor(), tr.scale.minFactor)
		assert.LessOrEqual(t, tr.ScaleFactor(), tr.scale.maxFactor)
	}
}

func TestPartiallyOffFrameBoxIsClamped(t *testing.T) {
	img := makeFrame(t, 200, 200, blobPattern(30, 70))
	defer img.Close()

	tr := New(Options{})
	require.NoError(t, tr.Init(Rect{X: -5, Y: 50, Width: 40, Height: 40}, img))
	assert.Greater(t, tr.Box().X+tr.Box().Width, 0.0)
	assert.GreaterOrEqual(t, tr.Box().X, 0.0)

	box := tr.Update(img)
	assert.Greater(t, box.X+box.Width, 0.0)
	assert.GreaterOrEqual(t, box.Width, 0.0)
	assert.GreaterOrEqual(t, box.Height, 0.0)
}

func TestInitFromPoints(t *testing.T) {
	img := makeFrame(t, 200, 200, blobPattern(100, 100))
	defer img.Close()

	tr := New(Options{})
	require.NoError(t, tr.InitFromPoints(image.Pt(120, 120), image.Pt(80, 80), img))

	box := tr.Box()
	assert.Equal(t, 80.0, box.X)
	assert.Equal(t, 80.0, box.Y)
	assert.Equal(t, 40.0, box.Width)
	assert.Equal(t, 40.0, box.Height)
}

func TestUpdateAlwaysReturnsBox(t *testing.T) {
	img := makeFrame(t, 200, 200, blobPattern(100, 100))
	defer img.Close()
	blank := makeFrame(t, 200, 200, func(x, y int) uint8 { return 127 })
	defer blank.Close()

	tr := New(Options{HOG: true, MultiScale: true})
	require.NoError(t, tr.Init(Rect{X: 80, Y: 80, Width: 40, Height: 40}, img))

	// A featureless frame gives a low-confidence detection, never a
	// failure.
	box := tr.Update(blank)
	assert.GreaterOrEqual(t, box.Width, 0.0)
	assert.GreaterOrEqual(t, box.Height, 0.0)
}
