package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"rvg-enhance/internal/dicomio"
	"rvg-enhance/internal/enhance"
	"rvg-enhance/internal/logger"
	"rvg-enhance/internal/pipeline"
)

func main() {
	in := flag.String("in", "", "input directory containing .dcm/.rvg files")
	out := flag.String("out", "", "output directory (default: next to each source file)")
	workers := flag.Int("workers", runtime.NumCPU(), "parallel image workers")
	logLevel := flag.String("log-level", "", "debug|info|warn|error (default from LOG_LEVEL)")
	flag.Parse()

	log := logger.NewConsole(logger.LevelFromEnv(*logLevel))

	if *in == "" {
		log.Error("Main", fmt.Errorf("missing -in directory"), nil)
		flag.Usage()
		os.Exit(2)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	setupGracefulShutdown(cancel, log)

	runner := pipeline.NewRunner(pipeline.Config{
		Workers: *workers,
		OutDir:  *out,
	}, log)

	results, err := runner.Run(ctx, *in)
	if err != nil {
		log.Error("Main", err, map[string]interface{}{"dir": *in})
		os.Exit(1)
	}

	succeeded := 0
	for _, res := range results {
		if res.Succeeded() {
			succeeded++
			log.Info("Main", "image processed", map[string]interface{}{
				"path":             res.Path,
				"output":           res.OutputPath,
				"contrast":         res.Metrics.Contrast,
				"sharpness":        res.Metrics.Sharpness,
				"noise_level":      res.Metrics.NoiseLevel,
				"clahe_clip":       res.Parameters.CLAHEClip,
				"denoise_strength": res.Parameters.DenoiseStrength,
				"sharpen_strength": res.Parameters.SharpenStrength,
			})
			continue
		}

		log.Error("Main", res.Err, map[string]interface{}{
			"path": res.Path,
			"kind": errorKind(res.Err),
		})
	}

	log.Info("Main", "batch finished", map[string]interface{}{
		"total":     len(results),
		"succeeded": succeeded,
		"failed":    len(results) - succeeded,
	})
}

// errorKind classifies a per-file failure for reporting. Per-file failures
// are reported, never fatal: one bad file must not abort the batch.
func errorKind(err error) string {
	var decodeErr *dicomio.DecodeError
	var dimErr *enhance.DimensionError
	var stageErr *enhance.StageError
	var writeErr *pipeline.WriteError

	switch {
	case errors.As(err, &decodeErr):
		return "decode"
	case errors.As(err, &dimErr):
		return "dimension"
	case errors.As(err, &stageErr):
		return "filter_stage"
	case errors.As(err, &writeErr):
		return "write"
	case errors.Is(err, context.Canceled):
		return "cancelled"
	default:
		return "unknown"
	}
}

func setupGracefulShutdown(cancel context.CancelFunc, log logger.Logger) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM, syscall.SIGINT)

	go func() {
		sig := <-sigChan
		log.Warning("Main", "signal received, cancelling batch", map[string]interface{}{
			"signal": sig.String(),
		})
		cancel()
	}()
}
