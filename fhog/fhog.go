// Package fhog computes Felzenszwalb-style HOG cell features from an image
// patch. The pipeline is Extract -> NormalizeTruncate -> ReduceDim, producing
// the 31-channel cell map the correlation filters train on.
package fhog

import (
	"math"

	"gocv.io/x/gocv"
)

const (
	// sectors is the number of contrast-insensitive orientation bins.
	sectors = 9
	// baseFeatures is the channel count after Extract: 9 insensitive +
	// 18 sensitive orientation bins.
	baseFeatures = 3 * sectors
	// normalizedFeatures is the channel count after NormalizeTruncate.
	normalizedFeatures = 12 * sectors
	// ReducedFeatures is the channel count after ReduceDim.
	ReducedFeatures = 3*sectors + 4

	epsilon = 1e-9
)

// Map is a dense grid of HOG cells, cell-major: the features of cell (x, y)
// are stored contiguously at (y*SizeX+x)*NumFeatures.
type Map struct {
	SizeX, SizeY int
	NumFeatures  int
	Cells        []float64
}

// At returns feature f of cell (x, y).
func (m *Map) At(x, y, f int) float64 {
	return m.Cells[(y*m.SizeX+x)*m.NumFeatures+f]
}

// Total returns the number of values in the map.
func (m *Map) Total() int {
	return m.SizeX * m.SizeY * m.NumFeatures
}

// Extract computes the 27-channel orientation histogram grid for patch with
// the given cell size. The patch must be CV_8UC3 or CV_8UC1. Each pixel votes
// its gradient magnitude into the insensitive and sensitive bins of the four
// surrounding cells with bilinear weights; the gradient is taken from the
// color channel with the largest magnitude.
func Extract(patch gocv.Mat, cellSize int) *Map {
	w := patch.Cols()
	h := patch.Rows()
	ch := patch.Channels()
	data, _ := patch.DataPtrUint8()

	m := &Map{
		SizeX:       w / cellSize,
		SizeY:       h / cellSize,
		NumFeatures: baseFeatures,
	}
	m.Cells = make([]float64, m.Total())

	// Orientation boundary vectors for sector assignment.
	var bx, by [sectors]float64
	for i := 0; i < sectors; i++ {
		bx[i] = math.Cos(float64(i) * math.Pi / sectors)
		by[i] = math.Sin(float64(i) * math.Pi / sectors)
	}

	stride := w * ch
	k := float64(cellSize)
	for y := 1; y < h-1; y++ {
		for x := 1; x < w-1; x++ {
			// Gradient of the strongest channel.
			var dx, dy, mag float64
			base := y*stride + x*ch
			for c := 0; c < ch; c++ {
				gx := float64(data[base+c+ch]) - float64(data[base+c-ch])
				gy := float64(data[base+c+stride]) - float64(data[base+c-stride])
				g := gx*gx + gy*gy
				if g > mag {
					mag, dx, dy = g, gx, gy
				}
			}
			r := math.Sqrt(mag)
			if r == 0 {
				continue
			}

			// Best insensitive sector and its sensitive counterpart.
			best, bestDot := 0, 0.0
			neg := false
			for s := 0; s < sectors; s++ {
				dot := bx[s]*dx + by[s]*dy
				if dot > bestDot {
					best, bestDot, neg = s, dot, false
				} else if -dot > bestDot {
					best, bestDot, neg = s, -dot, true
				}
			}
			sens := best
			if neg {
				sens += sectors
			}

			// Bilinear vote into the surrounding cells.
			cx := (float64(x)+0.5)/k - 0.5
			cy := (float64(y)+0.5)/k - 0.5
			ix := int(math.Floor(cx))
			iy := int(math.Floor(cy))
			wx1 := cx - float64(ix)
			wy1 := cy - float64(iy)
			for _, v := range [4]struct {
				cx, cy int
				w      float64
			}{
				{ix, iy, (1 - wx1) * (1 - wy1)},
				{ix + 1, iy, wx1 * (1 - wy1)},
				{ix, iy + 1, (1 - wx1) * wy1},
				{ix + 1, iy + 1, wx1 * wy1},
			} {
				if v.cx < 0 || v.cx >= m.SizeX || v.cy < 0 || v.cy >= m.SizeY || v.w == 0 {
					continue
				}
				pos := (v.cy*m.SizeX + v.cx) * baseFeatures
				m.Cells[pos+best] += r * v.w
				m.Cells[pos+sectors+sens] += r * v.w
			}
		}
	}
	return m
}

// NormalizeTruncate normalizes every cell against the gradient energy of its
// four diagonal 2x2 neighborhoods and truncates the result at alpha, growing
// the map to 108 channels. The outermost ring of cells is dropped.
func (m *Map) NormalizeTruncate(alpha float64) {
	if m.SizeX < 3 || m.SizeY < 3 {
		*m = Map{NumFeatures: normalizedFeatures}
		return
	}

	// Per-cell energy of the insensitive bins.
	norm := make([]float64, m.SizeX*m.SizeY)
	for i := 0; i < m.SizeX*m.SizeY; i++ {
		pos := i * m.NumFeatures
		for f := 0; f < sectors; f++ {
			norm[i] += m.Cells[pos+f] * m.Cells[pos+f]
		}
	}
	cellNorm := func(x, y int) float64 { return norm[y*m.SizeX+x] }

	out := Map{
		SizeX:       m.SizeX - 2,
		SizeY:       m.SizeY - 2,
		NumFeatures: normalizedFeatures,
	}
	out.Cells = make([]float64, out.Total())

	for oy := 0; oy < out.SizeY; oy++ {
		y := oy + 1
		for ox := 0; ox < out.SizeX; ox++ {
			x := ox + 1
			src := (y*m.SizeX + x) * m.NumFeatures
			dst := (oy*out.SizeX + ox) * normalizedFeatures

			// The four 2x2 neighborhoods around the cell.
			norms := [4]float64{
				cellNorm(x, y) + cellNorm(x+1, y) + cellNorm(x, y+1) + cellNorm(x+1, y+1),
				cellNorm(x, y) + cellNorm(x+1, y) + cellNorm(x, y-1) + cellNorm(x+1, y-1),
				cellNorm(x, y) + cellNorm(x-1, y) + cellNorm(x, y+1) + cellNorm(x-1, y+1),
				cellNorm(x, y) + cellNorm(x-1, y) + cellNorm(x, y-1) + cellNorm(x-1, y-1),
			}
			for b, n := range norms {
				inv := 1 / (math.Sqrt(n) + epsilon)
				block := dst + b*baseFeatures
				// 18 sensitive bins first, then 9 insensitive.
				for f := 0; f < 2*sectors; f++ {
					out.Cells[block+f] = truncate(m.Cells[src+sectors+f]*inv, alpha)
				}
				for f := 0; f < sectors; f++ {
					out.Cells[block+2*sectors+f] = truncate(m.Cells[src+f]*inv, alpha)
				}
			}
		}
	}
	*m = out
}

func truncate(v, alpha float64) float64 {
	if v > alpha {
		return alpha
	}
	return v
}

// ReduceDim projects the 108 normalized channels of every cell down to 31
// using the analytic basis: per-orientation sums across the four
// normalizations plus per-normalization totals.
func (m *Map) ReduceDim() {
	out := Map{
		SizeX:       m.SizeX,
		SizeY:       m.SizeY,
		NumFeatures: ReducedFeatures,
	}
	out.Cells = make([]float64, out.Total())

	ny := 1 / math.Sqrt(4.0)
	nx := 1 / math.Sqrt(2.0*sectors)

	for i := 0; i < m.SizeX*m.SizeY; i++ {
		src := i * m.NumFeatures
		dst := i * ReducedFeatures
		k := 0
		for f := 0; f < 2*sectors; f++ {
			var sum float64
			for b := 0; b < 4; b++ {
				sum += m.Cells[src+b*baseFeatures+f]
			}
			out.Cells[dst+k] = sum * ny
			k++
		}
		for f := 0; f < sectors; f++ {
			var sum float64
			for b := 0; b < 4; b++ {
				sum += m.Cells[src+b*baseFeatures+2*sectors+f]
			}
			out.Cells[dst+k] = sum * ny
			k++
		}
		for b := 0; b < 4; b++ {
			var sum float64
			for f := 0; f < baseFeatures; f++ {
				sum += m.Cells[src+b*baseFeatures+f]
			}
			out.Cells[dst+k] = sum * nx
			k++
		}
	}
	*m = out
}
