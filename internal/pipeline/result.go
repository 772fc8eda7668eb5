package pipeline

import "rvg-enhance/internal/enhance"

// Result is the per-file outcome of a batch run. Err is nil on success.
// Errors are image-scoped: a failed file never affects the rest of the
// batch, and the caller decides whether to log, skip or retry.
type Result struct {
	Path       string
	OutputPath string
	Metrics    enhance.QualityMetrics
	Parameters enhance.FilterParameters
	Err        error
}

// Succeeded reports whether the file produced an output image.
func (r Result) Succeeded() bool {
	return r.Err == nil
}
