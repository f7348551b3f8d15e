package features

import (
	"image"
	"image/color"

	"gocv.io/x/gocv"
)

// SubWindow extracts a w x h patch from img with its top-left corner at
// (x, y). Pixels outside the image are filled by replicating the nearest
// edge. The returned Mat is owned by the caller.
func SubWindow(img gocv.Mat, x, y, w, h int) gocv.Mat {
	if w <= 0 || h <= 0 {
		return gocv.NewMat()
	}

	x0, y0, x1, y1 := x, y, x+w, y+h
	var left, top, right, bottom int
	if x0 < 0 {
		left, x0 = -x0, 0
	}
	if y0 < 0 {
		top, y0 = -y0, 0
	}
	if x1 > img.Cols() {
		right, x1 = x1-img.Cols(), img.Cols()
	}
	if y1 > img.Rows() {
		bottom, y1 = y1-img.Rows(), img.Rows()
	}

	// Fully off-frame along an axis: sample a one-pixel strip at the
	// nearest edge and let replication fill the rest.
	if x0 >= x1 {
		if x0 >= img.Cols() {
			x0 = img.Cols() - 1
		}
		x1 = x0 + 1
		left = w - 1
		right = 0
	}
	if y0 >= y1 {
		if y0 >= img.Rows() {
			y0 = img.Rows() - 1
		}
		y1 = y0 + 1
		top = h - 1
		bottom = 0
	}

	region := img.Region(image.Rect(x0, y0, x1, y1))
	defer region.Close()
	if left == 0 && top == 0 && right == 0 && bottom == 0 {
		return region.Clone()
	}
	dst := gocv.NewMat()
	gocv.CopyMakeBorder(region, &dst, top, bottom, left, right, gocv.BorderReplicate, color.RGBA{})
	return dst
}

// SubWindowCentered extracts a patch of the given size centered on (cx, cy),
// with edge replication outside the frame.
func SubWindowCentered(img gocv.Mat, cx, cy float64, w, h int) gocv.Mat {
	x := int(cx) - w/2
	y := int(cy) - h/2
	return SubWindow(img, x, y, w, h)
}

// grayPlane converts a patch to a centered grayscale plane in [-0.5, 0.5].
func grayPlane(patch gocv.Mat) []float64 {
	var gray gocv.Mat
	if patch.Channels() == 3 {
		gray = gocv.NewMat()
		gocv.CvtColor(patch, &gray, gocv.ColorBGRToGray)
	} else {
		gray = patch.Clone()
	}
	defer gray.Close()
	data, _ := gray.DataPtrUint8()
	out := make([]float64, len(data))
	for i, v := range data {
		out[i] = float64(v)/255.0 - 0.5
	}
	return out
}
