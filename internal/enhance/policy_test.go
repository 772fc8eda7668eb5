package enhance

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSelectParametersClamps(t *testing.T) {
	t.Parallel()

	t.Run("flat contrast floors clahe clip", func(t *testing.T) {
		t.Parallel()
		params := SelectParameters(QualityMetrics{Contrast: 0})
		assert.InDelta(t, 1.0, params.CLAHEClip, 1e-12)
	})

	t.Run("extreme contrast ceils clahe clip", func(t *testing.T) {
		t.Parallel()
		params := SelectParameters(QualityMetrics{Contrast: 1000})
		assert.InDelta(t, 3.0, params.CLAHEClip, 1e-12)
	})

	t.Run("mid contrast scales linearly", func(t *testing.T) {
		t.Parallel()
		params := SelectParameters(QualityMetrics{Contrast: 80})
		assert.InDelta(t, 2.0, params.CLAHEClip, 1e-12)
	})

	t.Run("zero noise floors denoise strength", func(t *testing.T) {
		t.Parallel()
		params := SelectParameters(QualityMetrics{NoiseLevel: 0})
		assert.InDelta(t, 5.0, params.DenoiseStrength, 1e-12)
	})

	t.Run("heavy noise ceils denoise strength", func(t *testing.T) {
		t.Parallel()
		params := SelectParameters(QualityMetrics{NoiseLevel: 100})
		assert.InDelta(t, 15.0, params.DenoiseStrength, 1e-12)
	})

	t.Run("mid noise scales linearly", func(t *testing.T) {
		t.Parallel()
		params := SelectParameters(QualityMetrics{NoiseLevel: 20})
		assert.InDelta(t, 12.0, params.DenoiseStrength, 1e-12)
	})
}

func TestSharpenStrengthBoundaries(t *testing.T) {
	t.Parallel()

	cases := []struct {
		sharpness float64
		want      float64
	}{
		{19.99, 2.0},
		{20.0, 1.7},
		{79.99, 1.7},
		{80.0, 1.1},
		{300.0, 1.1},
		{300.01, 0.7},
	}

	for _, tc := range cases {
		params := SelectParameters(QualityMetrics{Sharpness: tc.sharpness})
		assert.InDelta(t, tc.want, params.SharpenStrength, 1e-12,
			"sharpness %v", tc.sharpness)
	}
}

func TestSelectParametersWithinRanges(t *testing.T) {
	t.Parallel()

	discrete := map[float64]bool{0.7: true, 1.1: true, 1.7: true, 2.0: true}

	for _, contrast := range []float64{0, 0.5, 39.99, 40, 120, 1e6} {
		for _, sharpness := range []float64{0, 19, 21, 80, 299, 301, 1e6} {
			for _, noise := range []float64{0, 4, 8.34, 25, 1e6} {
				params := SelectParameters(QualityMetrics{
					Contrast:   contrast,
					Sharpness:  sharpness,
					NoiseLevel: noise,
				})
				assert.GreaterOrEqual(t, params.CLAHEClip, 1.0)
				assert.LessOrEqual(t, params.CLAHEClip, 3.0)
				assert.GreaterOrEqual(t, params.DenoiseStrength, 5.0)
				assert.LessOrEqual(t, params.DenoiseStrength, 15.0)
				assert.True(t, discrete[params.SharpenStrength],
					"sharpen strength %v not in the discrete set", params.SharpenStrength)
			}
		}
	}
}

func TestSelectParametersIsPure(t *testing.T) {
	t.Parallel()

	metrics := QualityMetrics{Contrast: 73.2, Sharpness: 154.8, NoiseLevel: 11.6}
	first := SelectParameters(metrics)
	second := SelectParameters(metrics)
	assert.Equal(t, first, second)
}
