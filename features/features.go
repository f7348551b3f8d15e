// Package features turns image sub-windows into the windowed multi-channel
// tensors the correlation filters operate on: raw grayscale, HOG, or
// HOG plus color attributes.
package features

import (
	"math"
)

// Shape describes the dimensions of a feature map: the spatial cell grid and
// the number of channels. It is produced by extraction and threaded to every
// component that must agree with it.
type Shape struct {
	Rows     int
	Cols     int
	Channels int
}

// Area returns the number of values in one channel.
func (s Shape) Area() int { return s.Rows * s.Cols }

// Map is a multi-channel feature tensor. Data holds one dense row-major
// plane per channel.
type Map struct {
	Shape
	Data [][]float64
}

// NewMap allocates a zeroed map with the given shape.
func NewMap(s Shape) *Map {
	m := &Map{Shape: s, Data: make([][]float64, s.Channels)}
	for i := range m.Data {
		m.Data[i] = make([]float64, s.Area())
	}
	return m
}

// Clone returns a deep copy of the map.
func (m *Map) Clone() *Map {
	dst := NewMap(m.Shape)
	for i, ch := range m.Data {
		copy(dst.Data[i], ch)
	}
	return dst
}

// Blend moves the map toward x by factor lr. With lr == 1 the map is fully
// replaced.
func (m *Map) Blend(x *Map, lr float64) {
	for c, ch := range m.Data {
		src := x.Data[c]
		for i := range ch {
			ch[i] = (1-lr)*ch[i] + lr*src[i]
		}
	}
}

// SumSquares returns the total squared energy across all channels.
func (m *Map) SumSquares() float64 {
	var sum float64
	for _, ch := range m.Data {
		for _, v := range ch {
			sum += v * v
		}
	}
	return sum
}

// Hann returns an n-point cosine taper: zero at both ends, one at the center
// index for odd n.
func Hann(n int) []float64 {
	w := make([]float64, n)
	if n == 1 {
		w[0] = 1
		return w
	}
	for i := 0; i < n; i++ {
		w[i] = 0.5 * (1 - math.Cos(2*math.Pi*float64(i)/float64(n-1)))
	}
	return w
}

// Hann2D returns the outer product of two cosine tapers as a row-major
// rows x cols plane.
func Hann2D(rows, cols int) []float64 {
	hr := Hann(rows)
	hc := Hann(cols)
	w := make([]float64, rows*cols)
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			w[r*cols+c] = hr[r] * hc[c]
		}
	}
	return w
}
