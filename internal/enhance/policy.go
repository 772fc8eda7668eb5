package enhance

import "math"

// FilterParameters are the adaptive inputs to the filter chain. CLAHEClip
// stays in [1,3], DenoiseStrength in [5,15]; SharpenStrength takes one of
// the four discrete values 0.7, 1.1, 1.7 or 2.0.
type FilterParameters struct {
	CLAHEClip       float64
	DenoiseStrength float64
	SharpenStrength float64
}

// SelectParameters maps quality metrics to filter parameters. Pure and
// total over all non-negative metric inputs; the three rules apply
// independently of each other.
//
// Lower contrast gets stronger local equalization, bounded so noise is not
// over-amplified. Noisier images get stronger denoising, bounded below to
// preserve detail and above to avoid over-smoothing. Blurrier images get
// more aggressive sharpening; already-sharp or noisy images get gentler or
// inverted sharpening.
func SelectParameters(m QualityMetrics) FilterParameters {
	return FilterParameters{
		CLAHEClip:       clamp(m.Contrast/40.0, 1.0, 3.0),
		DenoiseStrength: clamp(m.NoiseLevel*0.6, 5.0, 15.0),
		SharpenStrength: sharpenStrength(m.Sharpness),
	}
}

// sharpenStrength keeps the hard threshold cascade of the original policy.
// Sharpness in [80,300] falls through to the 1.1 default, both endpoints
// included.
func sharpenStrength(sharpness float64) float64 {
	switch {
	case sharpness < 20:
		return 2.0
	case sharpness < 80:
		return 1.7
	case sharpness > 300:
		return 0.7
	default:
		return 1.1
	}
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(math.Max(v, lo), hi)
}
