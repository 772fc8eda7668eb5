package enhance

import "image"

// StageConfig carries the fixed constants of the filter chain. These are
// process-wide defaults passed into the executor as one immutable value;
// only the CLAHE clip and the stage 4/5 strengths are adaptive, the rest is
// already modulated by the adaptive surrounding stages.
type StageConfig struct {
	CLAHETileGrid image.Point

	BilateralDiameter   int
	BilateralSigmaColor float64
	BilateralSigmaSpace float64

	NLMTemplateWindow int
	NLMSearchWindow   int

	UnsharpKernel image.Point
	UnsharpSigma  float64
}

func DefaultStageConfig() StageConfig {
	return StageConfig{
		CLAHETileGrid:       image.Point{X: 8, Y: 8},
		BilateralDiameter:   9,
		BilateralSigmaColor: 75,
		BilateralSigmaSpace: 75,
		NLMTemplateWindow:   7,
		NLMSearchWindow:     21,
		UnsharpKernel:       image.Point{X: 5, Y: 5},
		UnsharpSigma:        1.2,
	}
}
