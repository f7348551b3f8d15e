// Package tracker implements a single-target correlation-filter tracker: a
// kernelized translation filter trained by ridge regression in the frequency
// domain, paired with a decoupled 1-D scale filter over a bank of rescaled
// target patches.
package tracker

// Options are the construction switches. Each combination selects a fixed
// bundle of numeric hyperparameters.
type Options struct {
	// HOG selects multi-channel HOG features; otherwise raw grayscale.
	HOG bool
	// FixedWindow tracks with a fixed template size instead of the padded
	// target size.
	FixedWindow bool
	// MultiScale enables the 1-D scale filter. Implies FixedWindow.
	MultiScale bool
	// ColorAttributes appends color-attribute channels to HOG features.
	ColorAttributes bool
}

// params is the full hyperparameter bundle derived from Options.
type params struct {
	lambda            float64 // ridge regularization
	padding           float64 // context area relative to target size
	outputSigmaFactor float64 // bandwidth of the regression target
	interpFactor      float64 // translation model learning rate
	sigma             float64 // gaussian kernel bandwidth
	cellSize          int
	templateSize      int

	hog             bool
	colorAttributes bool

	// Scale filter parameters, active with multiScale.
	multiScale       bool
	scalePadding     float64
	scaleStep        float64
	scaleSigmaFactor float64
	numScales        int
	scaleLearnRate   float64
	scaleMaxArea     float64
	scaleLambda      float64
}

// paramsFor selects the hyperparameter bundle for the given switches.
func paramsFor(opts Options) params {
	p := params{
		lambda:            0.0001,
		padding:           2.5,
		outputSigmaFactor: 0.125,
	}

	if opts.HOG {
		p.hog = true
		p.interpFactor = 0.012
		p.sigma = 0.6
		p.cellSize = 4
		if opts.ColorAttributes {
			p.colorAttributes = true
			p.interpFactor = 0.005
			p.sigma = 0.4
			p.outputSigmaFactor = 0.1
		}
	} else {
		p.interpFactor = 0.075
		p.sigma = 0.2
		p.cellSize = 1
	}

	fixedWindow := opts.FixedWindow
	if opts.MultiScale {
		// Scale estimation needs a stable template.
		fixedWindow = true
		p.multiScale = true
		p.scalePadding = 1.0
		p.scaleStep = 1.05
		p.scaleSigmaFactor = 0.25
		p.numScales = 33
		p.scaleLearnRate = 0.025
		p.scaleMaxArea = 512
		p.scaleLambda = 0.01
	}

	if fixedWindow {
		p.templateSize = 96
	} else {
		p.templateSize = 1
	}
	return p
}
