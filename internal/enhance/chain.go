package enhance

import (
	"context"

	"rvg-enhance/internal/opencv/safe"
)

// runChain executes the stages strictly in order: each stage's output is
// the next stage's only input, no stage is skipped or reordered. The
// context is checked between stages, never mid-filter-call. Intermediate
// Mats are closed as soon as the next stage has produced its output; the
// caller keeps ownership of the input and receives ownership of the result.
func runChain(ctx context.Context, stages []stage, input *safe.Mat, params FilterParameters, cfg StageConfig) (*safe.Mat, error) {
	current := input

	for _, s := range stages {
		select {
		case <-ctx.Done():
			if current != input {
				current.Close()
			}
			return nil, ctx.Err()
		default:
		}

		result, err := s.Apply(current, params, cfg)
		if current != input {
			current.Close()
		}
		if err != nil {
			return nil, &StageError{Stage: s.Name(), Err: err}
		}

		current = result
	}

	return current, nil
}
