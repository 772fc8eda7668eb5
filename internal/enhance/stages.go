package enhance

import (
	"fmt"

	"gocv.io/x/gocv"

	"rvg-enhance/internal/opencv/safe"
)

// stage is one step of the fixed filter chain. Every stage consumes its
// input and returns a freshly allocated Mat of identical dimensions.
type stage interface {
	Name() string
	Apply(input *safe.Mat, params FilterParameters, cfg StageConfig) (*safe.Mat, error)
}

// chainStages returns the adaptive tail of the executor in its fixed,
// non-reorderable order. The range clamp runs before metric estimation and
// is held separately by the Enhancer.
func chainStages() []stage {
	return []stage{
		claheStage{},
		bilateralStage{},
		denoiseStage{},
		sharpenStage{},
	}
}

// rangeClampStage clips every sample to [0,255] with a saturating 8-bit
// cast and reduces multi-channel frames to grayscale, guaranteeing the
// estimator and the downstream filters a valid single-channel input even
// if upstream normalization overshot.
type rangeClampStage struct{}

func (rangeClampStage) Name() string { return "range_clamp" }

func (rangeClampStage) Apply(input *safe.Mat, _ FilterParameters, _ StageConfig) (*safe.Mat, error) {
	if err := safe.ValidateMatForOperation(input, "range_clamp"); err != nil {
		return nil, err
	}

	src := input.GetMat()

	gray := gocv.NewMat()
	defer gray.Close()

	switch input.Channels() {
	case 1:
		src.CopyTo(&gray)
	case 3:
		gocv.CvtColor(src, &gray, gocv.ColorBGRToGray)
	case 4:
		gocv.CvtColor(src, &gray, gocv.ColorBGRAToGray)
	default:
		return nil, fmt.Errorf("unsupported channel count for grayscale reduction: %d", input.Channels())
	}

	clamped := gocv.NewMat()
	gray.ConvertTo(&clamped, gocv.MatTypeCV8UC1)

	return safe.WrapMat(clamped)
}

// claheStage applies contrast-limited adaptive histogram equalization with
// the adaptive clip limit and the fixed tile grid.
type claheStage struct{}

func (claheStage) Name() string { return "clahe" }

func (claheStage) Apply(input *safe.Mat, params FilterParameters, cfg StageConfig) (*safe.Mat, error) {
	if err := safe.ValidateGrayscale(input, "clahe"); err != nil {
		return nil, err
	}

	clahe := gocv.NewCLAHEWithParams(params.CLAHEClip, cfg.CLAHETileGrid)
	defer clahe.Close()

	src := input.GetMat()
	dst := gocv.NewMat()
	clahe.Apply(src, &dst)

	return safe.WrapMat(dst)
}

// bilateralStage smooths while preserving edges. Diameter and sigmas are
// fixed constants from the StageConfig.
type bilateralStage struct{}

func (bilateralStage) Name() string { return "bilateral" }

func (bilateralStage) Apply(input *safe.Mat, _ FilterParameters, cfg StageConfig) (*safe.Mat, error) {
	if err := safe.ValidateGrayscale(input, "bilateral"); err != nil {
		return nil, err
	}

	src := input.GetMat()
	dst := gocv.NewMat()
	gocv.BilateralFilter(src, &dst, cfg.BilateralDiameter, cfg.BilateralSigmaColor, cfg.BilateralSigmaSpace)

	return safe.WrapMat(dst)
}

// denoiseStage runs non-local-means denoising with the adaptive strength
// and the fixed template/search windows.
type denoiseStage struct{}

func (denoiseStage) Name() string { return "nl_means_denoise" }

func (denoiseStage) Apply(input *safe.Mat, params FilterParameters, cfg StageConfig) (*safe.Mat, error) {
	if err := safe.ValidateGrayscale(input, "nl_means_denoise"); err != nil {
		return nil, err
	}

	src := input.GetMat()
	dst := gocv.NewMat()
	gocv.FastNlMeansDenoisingWithParams(src, &dst,
		float32(params.DenoiseStrength), cfg.NLMTemplateWindow, cfg.NLMSearchWindow)

	return safe.WrapMat(dst)
}

// sharpenStage blends the denoised image against its Gaussian blur:
// out = denoised*strength + blurred*(1-strength). Strength above 1
// amplifies detail, below 1 softens it.
type sharpenStage struct{}

func (sharpenStage) Name() string { return "adaptive_sharpen" }

func (sharpenStage) Apply(input *safe.Mat, params FilterParameters, cfg StageConfig) (*safe.Mat, error) {
	if err := safe.ValidateGrayscale(input, "adaptive_sharpen"); err != nil {
		return nil, err
	}

	src := input.GetMat()

	blurred := gocv.NewMat()
	defer blurred.Close()
	gocv.GaussianBlur(src, &blurred, cfg.UnsharpKernel, cfg.UnsharpSigma, cfg.UnsharpSigma, gocv.BorderDefault)

	strength := params.SharpenStrength
	dst := gocv.NewMat()
	gocv.AddWeighted(src, strength, blurred, -(strength - 1.0), 0, &dst)

	return safe.WrapMat(dst)
}
