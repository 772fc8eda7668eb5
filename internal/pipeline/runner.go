package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"

	"rvg-enhance/internal/dicomio"
	"rvg-enhance/internal/enhance"
	"rvg-enhance/internal/logger"
	"rvg-enhance/internal/opencv/safe"
)

// Loader decodes one source file into a normalized single-channel Mat.
type Loader interface {
	Load(path string) (*safe.Mat, error)
}

// Config carries the batch settings. Zero values fall back to defaults:
// one worker per CPU, outputs written next to their source files.
type Config struct {
	Workers int
	OutDir  string
}

// Runner processes a directory of DICOM/RVG files through the adaptive
// enhancement pipeline. Images share no state, so the batch fans out to a
// worker pool with one image per task; per-file results come back in input
// order regardless of completion order.
type Runner struct {
	enhancer *enhance.Enhancer
	loader   Loader
	saver    *Saver
	workers  int
	outDir   string
	log      logger.Logger
}

func NewRunner(cfg Config, log logger.Logger) *Runner {
	if log == nil {
		log = logger.Nop{}
	}

	workers := cfg.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	return &Runner{
		enhancer: enhance.NewEnhancer(enhance.DefaultStageConfig(), log),
		loader:   dicomio.NewLoader(log),
		saver:    NewSaver(log),
		workers:  workers,
		outDir:   cfg.OutDir,
		log:      log,
	}
}

// SetLoader swaps the source decoder. Exists so alternative container
// formats (and tests) can feed the same pipeline.
func (r *Runner) SetLoader(l Loader) {
	r.loader = l
}

// Run enhances every DICOM/RVG file directly under dir. The returned error
// covers only batch-level failures such as an unreadable directory; file
// failures are reported inside the per-file results.
func (r *Runner) Run(ctx context.Context, dir string) ([]Result, error) {
	files, err := listSourceFiles(dir)
	if err != nil {
		return nil, err
	}

	r.log.Info("Runner", "batch started", map[string]interface{}{
		"dir":     dir,
		"files":   len(files),
		"workers": r.workers,
	})

	results := make([]Result, len(files))
	jobs := make(chan int)

	var wg sync.WaitGroup
	for i := 0; i < r.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				results[idx] = r.processFile(ctx, files[idx])
			}
		}()
	}

	for idx := range files {
		jobs <- idx
	}
	close(jobs)
	wg.Wait()

	return results, nil
}

// processFile runs one image through decode, enhance and write. Every
// failure is captured in the result; nothing escapes to abort the batch.
func (r *Runner) processFile(ctx context.Context, path string) Result {
	res := Result{Path: path}

	if err := ctx.Err(); err != nil {
		res.Err = err
		return res
	}

	img, err := r.loader.Load(path)
	if err != nil {
		res.Err = err
		return res
	}
	defer img.Close()

	enhanced, err := r.enhancer.Enhance(ctx, img)
	if err != nil {
		res.Err = err
		return res
	}
	defer enhanced.Output.Close()

	res.Metrics = enhanced.Metrics
	res.Parameters = enhanced.Parameters
	res.OutputPath = r.outputPath(path)

	if err := r.saver.Save(res.OutputPath, enhanced.Output); err != nil {
		res.Err = err
		return res
	}

	r.log.Info("Runner", "image enhanced", map[string]interface{}{
		"path":   path,
		"output": res.OutputPath,
	})

	return res
}

// outputPath derives the target file name: source base plus a _processed
// suffix, PNG encoded, in the configured output directory or next to the
// source when none is set.
func (r *Runner) outputPath(src string) string {
	base := strings.TrimSuffix(filepath.Base(src), filepath.Ext(src)) + "_processed.png"

	dir := r.outDir
	if dir == "" {
		dir = filepath.Dir(src)
	}
	return filepath.Join(dir, base)
}

// listSourceFiles enumerates .dcm and .rvg files (case-insensitive)
// directly under dir, sorted for deterministic result order.
func listSourceFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read input directory: %w", err)
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".dcm", ".rvg":
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}

	sort.Strings(files)
	return files, nil
}
