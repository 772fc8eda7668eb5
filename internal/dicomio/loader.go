package dicomio

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/suyashkumar/dicom"
	"github.com/suyashkumar/dicom/pkg/tag"
	"gocv.io/x/gocv"

	"rvg-enhance/internal/logger"
	"rvg-enhance/internal/opencv/safe"
)

// DecodeError reports a malformed or unreadable source file. The file is
// skipped; the batch continues.
type DecodeError struct {
	Path string
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %s: %v", e.Path, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// Loader decodes DICOM and RVG container files into normalized 8-bit
// single-channel Mats: first frame, rescale slope/intercept applied,
// MONOCHROME1 inverted, intensities min-max normalized to [0,255].
type Loader struct {
	log logger.Logger
}

func NewLoader(log logger.Logger) *Loader {
	if log == nil {
		log = logger.Nop{}
	}
	return &Loader{log: log}
}

func (l *Loader) Load(path string) (*safe.Mat, error) {
	dataset, err := dicom.ParseFile(path, nil)
	if err != nil {
		return nil, &DecodeError{Path: path, Err: err}
	}

	pixelData, err := dataset.FindElementByTag(tag.PixelData)
	if err != nil {
		return nil, &DecodeError{Path: path, Err: fmt.Errorf("no pixel data element: %w", err)}
	}

	info := dicom.MustGetPixelDataInfo(pixelData.Value)
	if len(info.Frames) == 0 {
		return nil, &DecodeError{Path: path, Err: fmt.Errorf("pixel data holds no frames")}
	}

	native, err := info.Frames[0].GetNativeFrame()
	if err != nil {
		return nil, &DecodeError{Path: path, Err: fmt.Errorf("native frame unavailable: %w", err)}
	}

	rows := native.Rows
	cols := native.Cols
	if err := safe.ValidateDimensions(cols, rows, "dicom decode"); err != nil {
		return nil, &DecodeError{Path: path, Err: err}
	}
	if len(native.Data) != rows*cols {
		return nil, &DecodeError{Path: path, Err: fmt.Errorf("frame geometry %dx%d does not match %d samples",
			cols, rows, len(native.Data))}
	}

	samples := make([]float64, len(native.Data))
	for i, px := range native.Data {
		samples[i] = float64(px[0])
	}

	slope, intercept := rescaleAttributes(&dataset)
	applyRescale(samples, slope, intercept)

	inverted := false
	if photometricInterpretation(&dataset) == "MONOCHROME1" {
		invertMonochrome1(samples)
		inverted = true
	}

	normalized := normalizeTo8Bit(samples)

	mat := gocv.NewMatWithSize(rows, cols, gocv.MatTypeCV8UC1)
	for y := 0; y < rows; y++ {
		for x := 0; x < cols; x++ {
			mat.SetUCharAt(y, x, normalized[y*cols+x])
		}
	}

	img, err := safe.WrapMat(mat)
	if err != nil {
		return nil, &DecodeError{Path: path, Err: err}
	}

	l.log.Debug("DicomLoader", "frame decoded", map[string]interface{}{
		"path":      path,
		"width":     cols,
		"height":    rows,
		"slope":     slope,
		"intercept": intercept,
		"inverted":  inverted,
	})

	return img, nil
}

// rescaleAttributes reads RescaleSlope and RescaleIntercept, defaulting to
// the identity mapping when the tags are absent or unparseable.
func rescaleAttributes(ds *dicom.Dataset) (slope, intercept float64) {
	slope, intercept = 1, 0

	if s, ok := stringAttribute(ds, tag.RescaleSlope); ok {
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			slope = f
		}
	}
	if s, ok := stringAttribute(ds, tag.RescaleIntercept); ok {
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			intercept = f
		}
	}
	return slope, intercept
}

func photometricInterpretation(ds *dicom.Dataset) string {
	s, _ := stringAttribute(ds, tag.PhotometricInterpretation)
	return s
}

func stringAttribute(ds *dicom.Dataset, t tag.Tag) (string, bool) {
	el, err := ds.FindElementByTag(t)
	if err != nil {
		return "", false
	}

	vals, ok := el.Value.GetValue().([]string)
	if !ok || len(vals) == 0 {
		return "", false
	}
	return strings.TrimSpace(vals[0]), true
}
