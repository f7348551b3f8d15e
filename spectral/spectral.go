// Package spectral provides the frequency-domain primitives used by the
// correlation filters: 2-D and 1-D discrete Fourier transforms and the
// element-wise spectrum arithmetic that goes with them.
//
// All 2-D data is dense row-major (rows x cols). Forward transforms are
// unnormalized; inverse transforms scale by 1/N so that IFFT(FFT(x)) == x.
package spectral

import (
	"gonum.org/v1/gonum/dsp/fourier"
)

// FFT2 computes the forward 2-D DFT of a complex matrix.
func FFT2(src []complex128, rows, cols int) []complex128 {
	dst := make([]complex128, rows*cols)
	copy(dst, src)
	transform2(dst, rows, cols, false)
	return dst
}

// FFT2Real computes the forward 2-D DFT of a real matrix.
func FFT2Real(src []float64, rows, cols int) []complex128 {
	dst := make([]complex128, rows*cols)
	for i, v := range src {
		dst[i] = complex(v, 0)
	}
	transform2(dst, rows, cols, false)
	return dst
}

// IFFT2 computes the inverse 2-D DFT, scaled by 1/(rows*cols).
func IFFT2(src []complex128, rows, cols int) []complex128 {
	dst := make([]complex128, rows*cols)
	copy(dst, src)
	transform2(dst, rows, cols, true)
	scale := complex(1/float64(rows*cols), 0)
	for i := range dst {
		dst[i] *= scale
	}
	return dst
}

// transform2 applies a row pass followed by a column pass, in place.
func transform2(data []complex128, rows, cols int, inverse bool) {
	rowFFT := fourier.NewCmplxFFT(cols)
	buf := make([]complex128, cols)
	for r := 0; r < rows; r++ {
		row := data[r*cols : (r+1)*cols]
		if inverse {
			rowFFT.Sequence(buf, row)
		} else {
			rowFFT.Coefficients(buf, row)
		}
		copy(row, buf)
	}

	colFFT := fourier.NewCmplxFFT(rows)
	in := make([]complex128, rows)
	out := make([]complex128, rows)
	for c := 0; c < cols; c++ {
		for r := 0; r < rows; r++ {
			in[r] = data[r*cols+c]
		}
		if inverse {
			colFFT.Sequence(out, in)
		} else {
			colFFT.Coefficients(out, in)
		}
		for r := 0; r < rows; r++ {
			data[r*cols+c] = out[r]
		}
	}
}

// FFT1Real computes the forward DFT of a real sequence, returning the full
// complex spectrum.
func FFT1Real(src []float64) []complex128 {
	n := len(src)
	in := make([]complex128, n)
	for i, v := range src {
		in[i] = complex(v, 0)
	}
	out := make([]complex128, n)
	fourier.NewCmplxFFT(n).Coefficients(out, in)
	return out
}

// IFFT1Real computes the inverse DFT of a spectrum and returns the real part,
// scaled by 1/N.
func IFFT1Real(src []complex128) []float64 {
	n := len(src)
	out := make([]complex128, n)
	fourier.NewCmplxFFT(n).Sequence(out, src)
	res := make([]float64, n)
	for i, v := range out {
		res[i] = real(v) / float64(n)
	}
	return res
}

// Mul returns the element-wise product a.*b.
func Mul(a, b []complex128) []complex128 {
	dst := make([]complex128, len(a))
	for i := range a {
		dst[i] = a[i] * b[i]
	}
	return dst
}

// MulConj returns the element-wise product a.*conj(b), the cross-power
// spectrum used for circular cross-correlation.
func MulConj(a, b []complex128) []complex128 {
	dst := make([]complex128, len(a))
	for i := range a {
		br, bi := real(b[i]), imag(b[i])
		dst[i] = a[i] * complex(br, -bi)
	}
	return dst
}

// DivOffset returns the element-wise quotient a ./ (b + offset).
func DivOffset(a, b []complex128, offset float64) []complex128 {
	dst := make([]complex128, len(a))
	off := complex(offset, 0)
	for i := range a {
		dst[i] = a[i] / (b[i] + off)
	}
	return dst
}

// DivRealOffset returns the element-wise quotient a ./ (den + offset) where
// den is real.
func DivRealOffset(a []complex128, den []float64, offset float64) []complex128 {
	dst := make([]complex128, len(a))
	for i := range a {
		dst[i] = a[i] / complex(den[i]+offset, 0)
	}
	return dst
}

// Real extracts the real part of a spectrum.
func Real(src []complex128) []float64 {
	dst := make([]float64, len(src))
	for i, v := range src {
		dst[i] = real(v)
	}
	return dst
}

// Recenter swaps the quadrants of a spatial correlation surface so that the
// zero-shift response moves to the matrix center.
func Recenter(src []float64, rows, cols int) []float64 {
	dst := make([]float64, rows*cols)
	dr, dc := rows/2, cols/2
	for r := 0; r < rows; r++ {
		r2 := (r + dr) % rows
		for c := 0; c < cols; c++ {
			c2 := (c + dc) % cols
			dst[r2*cols+c2] = src[r*cols+c]
		}
	}
	return dst
}
