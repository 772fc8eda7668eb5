package enhance

import (
	"fmt"
	"image"
	"sort"

	"gocv.io/x/gocv"
	"gonum.org/v1/gonum/stat"

	"rvg-enhance/internal/opencv/safe"
)

// patchSize is the fixed side length of the noise-sampling patches. Images
// smaller than this in either dimension cannot be estimated.
const patchSize = 40

// QualityMetrics are the intrinsic quality attributes of one image. They
// are a pure function of the image: same pixels, same metrics.
type QualityMetrics struct {
	Contrast   float64
	Sharpness  float64
	NoiseLevel float64
}

// Estimator measures contrast spread, sharpness and local noise of a
// normalized single-channel 8-bit image.
type Estimator struct{}

func NewEstimator() *Estimator {
	return &Estimator{}
}

func (e *Estimator) Estimate(img *safe.Mat) (QualityMetrics, error) {
	if err := safe.ValidateGrayscale(img, "metric estimation"); err != nil {
		return QualityMetrics{}, err
	}

	height := img.Rows()
	width := img.Cols()
	if height < patchSize || width < patchSize {
		return QualityMetrics{}, &DimensionError{Width: width, Height: height, Min: patchSize}
	}

	contrast := percentileSpread(img)

	sharpness, err := laplacianVariance(img)
	if err != nil {
		return QualityMetrics{}, fmt.Errorf("sharpness estimation: %w", err)
	}

	noise, err := patchNoise(img)
	if err != nil {
		return QualityMetrics{}, fmt.Errorf("noise estimation: %w", err)
	}

	return QualityMetrics{
		Contrast:   contrast,
		Sharpness:  sharpness,
		NoiseLevel: noise,
	}, nil
}

// percentileSpread is the dynamic range between the 1st and 99th intensity
// percentiles, ignoring extreme outlier pixels.
func percentileSpread(img *safe.Mat) float64 {
	height := img.Rows()
	width := img.Cols()

	values := make([]float64, 0, height*width)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			v, _ := img.GetUCharAt(y, x)
			values = append(values, float64(v))
		}
	}
	sort.Float64s(values)

	low := stat.Quantile(0.01, stat.Empirical, values, nil)
	high := stat.Quantile(0.99, stat.Empirical, values, nil)
	return high - low
}

// laplacianVariance computes the variance of the 64-bit float Laplacian
// over the whole image. Low values indicate blur, high values strong edges
// or high-frequency noise.
func laplacianVariance(img *safe.Mat) (float64, error) {
	lap := gocv.NewMat()
	defer lap.Close()

	src := img.GetMat()
	gocv.Laplacian(src, &lap, gocv.MatTypeCV64F, 1, 1, 0, gocv.BorderDefault)

	data, err := lap.DataPtrFloat64()
	if err != nil {
		return 0, fmt.Errorf("laplacian response not readable: %w", err)
	}

	return stat.Variance(data, nil), nil
}

// patchNoise is the mean of the intensity standard deviations of the eight
// fixed sampling patches.
func patchNoise(img *safe.Mat) (float64, error) {
	height := img.Rows()
	width := img.Cols()

	stddevs := make([]float64, 0, 8)
	for _, r := range noisePatches(height, width) {
		sd, err := regionStdDev(img, r)
		if err != nil {
			return 0, err
		}
		stddevs = append(stddevs, sd)
	}

	return stat.Mean(stddevs, nil), nil
}

// noisePatches returns the eight fixed sampling rectangles: the four
// corners, the vertical midpoints of the left and right edges, and the
// horizontal midpoints of the top and bottom edges. The layout avoids the
// anatomical center of the frame while still sampling representative
// background noise. Centering uses integer floor division; when a dimension
// is exactly patchSize the edge patches degenerate to the full dimension.
func noisePatches(height, width int) []image.Rectangle {
	const ps = patchSize
	const hp = ps / 2

	return []image.Rectangle{
		image.Rect(0, 0, ps, ps),
		image.Rect(width-ps, 0, width, ps),
		image.Rect(0, height-ps, ps, height),
		image.Rect(width-ps, height-ps, width, height),
		image.Rect(0, height/2-hp, ps, height/2+hp),
		image.Rect(width-ps, height/2-hp, width, height/2+hp),
		image.Rect(width/2-hp, 0, width/2+hp, ps),
		image.Rect(width/2-hp, height-ps, width/2+hp, height),
	}
}

func regionStdDev(img *safe.Mat, r image.Rectangle) (float64, error) {
	if r.Min.X < 0 || r.Min.Y < 0 || r.Max.X > img.Cols() || r.Max.Y > img.Rows() {
		return 0, fmt.Errorf("noise patch %v outside image bounds %dx%d",
			r, img.Cols(), img.Rows())
	}

	values := make([]float64, 0, r.Dx()*r.Dy())
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			v, err := img.GetUCharAt(y, x)
			if err != nil {
				return 0, err
			}
			values = append(values, float64(v))
		}
	}

	return stat.StdDev(values, nil), nil
}
