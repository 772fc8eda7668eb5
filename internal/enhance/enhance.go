package enhance

import (
	"context"

	"rvg-enhance/internal/logger"
	"rvg-enhance/internal/opencv/safe"
)

// Enhancer runs the metric-driven pipeline on one image at a time:
// estimate quality, select parameters, execute the fixed filter chain.
// It holds no per-image state, so a single Enhancer serves a whole batch
// with one image per goroutine.
type Enhancer struct {
	estimator *Estimator
	clamp     stage
	stages    []stage
	config    StageConfig
	log       logger.Logger
}

// Result is the outcome of enhancing one image. The caller owns Output and
// must Close it.
type Result struct {
	Metrics    QualityMetrics
	Parameters FilterParameters
	Output     *safe.Mat
}

func NewEnhancer(cfg StageConfig, log logger.Logger) *Enhancer {
	if log == nil {
		log = logger.Nop{}
	}

	return &Enhancer{
		estimator: NewEstimator(),
		clamp:     rangeClampStage{},
		stages:    chainStages(),
		config:    cfg,
		log:       log,
	}
}

// Enhance transforms one image. The range clamp doubles as the stage-0
// normalization: the estimator needs the clamped single-channel frame, and
// it is also the first stage of the executor chain, so it runs exactly once.
func (e *Enhancer) Enhance(ctx context.Context, img *safe.Mat) (*Result, error) {
	normalized, err := e.clamp.Apply(img, FilterParameters{}, e.config)
	if err != nil {
		return nil, &StageError{Stage: e.clamp.Name(), Err: err}
	}

	metrics, err := e.estimator.Estimate(normalized)
	if err != nil {
		normalized.Close()
		return nil, err
	}

	params := SelectParameters(metrics)
	e.log.Debug("Enhancer", "parameters selected", map[string]interface{}{
		"contrast":         metrics.Contrast,
		"sharpness":        metrics.Sharpness,
		"noise_level":      metrics.NoiseLevel,
		"clahe_clip":       params.CLAHEClip,
		"denoise_strength": params.DenoiseStrength,
		"sharpen_strength": params.SharpenStrength,
	})

	output, err := runChain(ctx, e.stages, normalized, params, e.config)
	normalized.Close()
	if err != nil {
		return nil, err
	}

	return &Result{
		Metrics:    metrics,
		Parameters: params,
		Output:     output,
	}, nil
}
