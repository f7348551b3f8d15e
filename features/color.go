package features

import (
	colorful "github.com/lucasb-eyer/go-colorful"
	"gocv.io/x/gocv"
)

// referencePalette is the fixed set of reference colors for the
// color-attribute feature: nine hues plus black, white and four grays.
// Quantization happens in Lab space, where Euclidean distance approximates
// perceptual distance.
var referencePalette = []colorful.Color{
	{R: 0.00, G: 0.00, B: 0.00}, // black
	{R: 0.25, G: 0.25, B: 0.25},
	{R: 0.50, G: 0.50, B: 0.50},
	{R: 0.75, G: 0.75, B: 0.75},
	{R: 1.00, G: 1.00, B: 1.00}, // white
	{R: 1.00, G: 0.00, B: 0.00}, // red
	{R: 1.00, G: 0.50, B: 0.00}, // orange
	{R: 1.00, G: 1.00, B: 0.00}, // yellow
	{R: 0.00, G: 1.00, B: 0.00}, // green
	{R: 0.00, G: 1.00, B: 1.00}, // cyan
	{R: 0.00, G: 0.00, B: 1.00}, // blue
	{R: 0.50, G: 0.00, B: 1.00}, // violet
	{R: 1.00, G: 0.00, B: 1.00}, // magenta
	{R: 0.60, G: 0.30, B: 0.10}, // brown
	{R: 1.00, G: 0.60, B: 0.70}, // pink
}

// labCentroids holds the palette in the 8-bit Lab scale produced by
// gocv.ColorBGRToLab (L in 0..255, a and b offset by 128).
var labCentroids = buildLabCentroids()

func buildLabCentroids() [][3]float64 {
	centroids := make([][3]float64, len(referencePalette))
	for i, c := range referencePalette {
		l, a, b := c.Lab()
		centroids[i] = [3]float64{l * 255, a*100 + 128, b*100 + 128}
	}
	return centroids
}

// PaletteSize is the number of channels the color-attribute branch adds.
func PaletteSize() int { return len(referencePalette) }

// colorAttributes soft-quantizes the patch against the reference palette,
// accumulating one fractional vote per pixel into the nearest palette channel
// of its cell. The cell grid matches the cropped HOG grid (cellsX x cellsY
// inner cells of the patch).
func colorAttributes(patch gocv.Mat, cellSize, cellsX, cellsY int) [][]float64 {
	lab := gocv.NewMat()
	defer lab.Close()
	gocv.CvtColor(patch, &lab, gocv.ColorBGRToLab)
	data, _ := lab.DataPtrUint8()
	stride := lab.Cols() * 3

	out := make([][]float64, len(labCentroids))
	for i := range out {
		out[i] = make([]float64, cellsX*cellsY)
	}

	vote := 1.0 / float64(cellSize*cellSize)
	for cy := 0; cy < cellsY; cy++ {
		for cx := 0; cx < cellsX; cx++ {
			y0 := (cy + 1) * cellSize
			x0 := (cx + 1) * cellSize
			for y := y0; y < y0+cellSize; y++ {
				for x := x0; x < x0+cellSize; x++ {
					pos := y*stride + x*3
					l := float64(data[pos])
					a := float64(data[pos+1])
					b := float64(data[pos+2])

					best, bestDist := 0, 0.0
					for k, c := range labCentroids {
						dl, da, db := l-c[0], a-c[1], b-c[2]
						d := dl*dl + da*da + db*db
						if k == 0 || d < bestDist {
							best, bestDist = k, d
						}
					}
					out[best][cy*cellsX+cx] += vote
				}
			}
		}
	}
	return out
}
