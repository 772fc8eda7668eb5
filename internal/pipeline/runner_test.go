package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"

	"rvg-enhance/internal/dicomio"
	"rvg-enhance/internal/logger"
	"rvg-enhance/internal/opencv/safe"
)

// stubLoader stands in for the DICOM decoder: files named bad* fail with a
// DecodeError, everything else decodes to a synthetic radiograph-like frame.
type stubLoader struct{}

func (stubLoader) Load(path string) (*safe.Mat, error) {
	if strings.HasPrefix(filepath.Base(path), "bad") {
		return nil, &dicomio.DecodeError{Path: path, Err: errors.New("truncated file")}
	}
	return syntheticFrame()
}

func syntheticFrame() (*safe.Mat, error) {
	mat, err := safe.NewMat(100, 100, gocv.MatTypeCV8UC1)
	if err != nil {
		return nil, err
	}

	for y := 0; y < 100; y++ {
		for x := 0; x < 100; x++ {
			value := uint8(128)
			if y == 49 || y == 50 || x == 49 || x == 50 {
				value = 255
			}
			if err := mat.SetUCharAt(y, x, value); err != nil {
				mat.Close()
				return nil, err
			}
		}
	}
	return mat, nil
}

func writeFiles(t *testing.T, dir string, names ...string) {
	t.Helper()
	for _, name := range names {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("stub"), 0o644))
	}
}

func TestRunContinuesPastDecodeFailure(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	outDir := t.TempDir()
	writeFiles(t, dir, "bad.dcm", "good1.dcm", "good2.rvg")

	runner := NewRunner(Config{Workers: 2, OutDir: outDir}, logger.Nop{})
	runner.SetLoader(stubLoader{})

	results, err := runner.Run(context.Background(), dir)
	require.NoError(t, err)
	require.Len(t, results, 3)

	byBase := map[string]Result{}
	for _, res := range results {
		byBase[filepath.Base(res.Path)] = res
	}

	bad := byBase["bad.dcm"]
	require.Error(t, bad.Err)
	var decodeErr *dicomio.DecodeError
	assert.ErrorAs(t, bad.Err, &decodeErr)
	assert.Empty(t, bad.OutputPath)

	for _, name := range []string{"good1.dcm", "good2.rvg"} {
		res := byBase[name]
		require.NoError(t, res.Err, "file %s", name)
		assert.FileExists(t, res.OutputPath)
		assert.Greater(t, res.Metrics.Contrast, 0.0)
	}
}

func TestRunCancelledContext(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFiles(t, dir, "a.dcm", "b.dcm")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	runner := NewRunner(Config{Workers: 1, OutDir: t.TempDir()}, logger.Nop{})
	runner.SetLoader(stubLoader{})

	results, err := runner.Run(ctx, dir)
	require.NoError(t, err)
	require.Len(t, results, 2)
	for _, res := range results {
		assert.ErrorIs(t, res.Err, context.Canceled)
	}
}

func TestListSourceFiles(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFiles(t, dir, "z.dcm", "a.RVG", "notes.txt", "image.png")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested.dcm"), 0o755))

	files, err := listSourceFiles(dir)
	require.NoError(t, err)

	require.Len(t, files, 2)
	assert.Equal(t, filepath.Join(dir, "a.RVG"), files[0])
	assert.Equal(t, filepath.Join(dir, "z.dcm"), files[1])
}

func TestListSourceFilesMissingDir(t *testing.T) {
	t.Parallel()

	_, err := listSourceFiles(filepath.Join(t.TempDir(), "absent"))
	assert.Error(t, err)
}

func TestOutputPath(t *testing.T) {
	t.Parallel()

	t.Run("defaults next to the source file", func(t *testing.T) {
		t.Parallel()
		runner := NewRunner(Config{}, logger.Nop{})
		got := runner.outputPath(filepath.Join("scans", "tooth14.dcm"))
		assert.Equal(t, filepath.Join("scans", "tooth14_processed.png"), got)
	})

	t.Run("honors the output directory", func(t *testing.T) {
		t.Parallel()
		runner := NewRunner(Config{OutDir: "out"}, logger.Nop{})
		got := runner.outputPath(filepath.Join("scans", "tooth14.rvg"))
		assert.Equal(t, filepath.Join("out", "tooth14_processed.png"), got)
	})
}
