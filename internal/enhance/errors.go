package enhance

import "fmt"

// DimensionError reports an image too small for patch-based noise sampling.
// The estimator refuses such images instead of truncating patches.
type DimensionError struct {
	Width  int
	Height int
	Min    int
}

func (e *DimensionError) Error() string {
	return fmt.Sprintf("image %dx%d is below the %dx%d minimum for metric estimation",
		e.Width, e.Height, e.Min, e.Min)
}

// StageError reports a filter-stage failure. It aborts the remaining stages
// for that image only; other images in a batch are unaffected.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("stage %s failed: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}
