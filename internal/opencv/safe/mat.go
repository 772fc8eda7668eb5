package safe

import (
	"fmt"
	"runtime"
	"sync/atomic"

	"gocv.io/x/gocv"
)

// Mat wraps gocv.Mat with validity tracking so use-after-close fails with a
// Go error instead of crashing inside OpenCV. Every Mat has a single owner;
// the pipeline hands full ownership from stage to stage and never shares an
// in-flight image between goroutines.
type Mat struct {
	mat     gocv.Mat
	isValid int32
}

func NewMat(rows, cols int, matType gocv.MatType) (*Mat, error) {
	if rows <= 0 || cols <= 0 {
		return nil, fmt.Errorf("invalid dimensions: %dx%d", cols, rows)
	}

	mat := gocv.NewMatWithSize(rows, cols, matType)
	if mat.Empty() {
		mat.Close()
		return nil, fmt.Errorf("failed to create Mat with size %dx%d", cols, rows)
	}

	return wrap(mat), nil
}

// WrapMat takes ownership of an existing gocv.Mat without copying. The
// caller must not touch the source Mat afterwards.
func WrapMat(mat gocv.Mat) (*Mat, error) {
	if mat.Empty() {
		mat.Close()
		return nil, fmt.Errorf("cannot wrap empty Mat")
	}

	return wrap(mat), nil
}

// NewMatFromMat clones the source into a freshly owned Mat.
func NewMatFromMat(src gocv.Mat) (*Mat, error) {
	if src.Empty() {
		return nil, fmt.Errorf("source Mat is empty")
	}

	cloned := src.Clone()
	if cloned.Empty() {
		cloned.Close()
		return nil, fmt.Errorf("failed to clone Mat")
	}

	return wrap(cloned), nil
}

func wrap(mat gocv.Mat) *Mat {
	sm := &Mat{mat: mat, isValid: 1}

	// Last-resort cleanup if Close() is never called.
	runtime.SetFinalizer(sm, (*Mat).finalize)

	return sm
}

func (sm *Mat) IsValid() bool {
	return atomic.LoadInt32(&sm.isValid) == 1
}

func (sm *Mat) Empty() bool {
	if !sm.IsValid() {
		return true
	}
	return sm.mat.Empty()
}

func (sm *Mat) Rows() int {
	if !sm.IsValid() {
		return 0
	}
	return sm.mat.Rows()
}

func (sm *Mat) Cols() int {
	if !sm.IsValid() {
		return 0
	}
	return sm.mat.Cols()
}

func (sm *Mat) Channels() int {
	if !sm.IsValid() {
		return 0
	}
	return sm.mat.Channels()
}

func (sm *Mat) Type() gocv.MatType {
	if !sm.IsValid() {
		return gocv.MatTypeCV8UC1
	}
	return sm.mat.Type()
}

func (sm *Mat) Clone() (*Mat, error) {
	if !sm.IsValid() {
		return nil, fmt.Errorf("cannot clone invalid Mat")
	}
	return NewMatFromMat(sm.mat)
}

func (sm *Mat) GetUCharAt(row, col int) (uint8, error) {
	if !sm.IsValid() {
		return 0, fmt.Errorf("Mat is invalid")
	}

	if row < 0 || row >= sm.mat.Rows() || col < 0 || col >= sm.mat.Cols() {
		return 0, fmt.Errorf("coordinates out of bounds: (%d,%d) for size %dx%d",
			col, row, sm.mat.Cols(), sm.mat.Rows())
	}

	return sm.mat.GetUCharAt(row, col), nil
}

func (sm *Mat) SetUCharAt(row, col int, value uint8) error {
	if !sm.IsValid() {
		return fmt.Errorf("Mat is invalid")
	}

	if row < 0 || row >= sm.mat.Rows() || col < 0 || col >= sm.mat.Cols() {
		return fmt.Errorf("coordinates out of bounds: (%d,%d) for size %dx%d",
			col, row, sm.mat.Cols(), sm.mat.Rows())
	}

	sm.mat.SetUCharAt(row, col, value)
	return nil
}

// GetMat exposes the underlying gocv.Mat for OpenCV calls. Ownership stays
// with the wrapper.
func (sm *Mat) GetMat() gocv.Mat {
	return sm.mat
}

func (sm *Mat) Close() {
	if atomic.CompareAndSwapInt32(&sm.isValid, 1, 0) {
		if !sm.mat.Empty() {
			sm.mat.Close()
		}
		runtime.SetFinalizer(sm, nil)
	}
}

func (sm *Mat) finalize() {
	if atomic.LoadInt32(&sm.isValid) == 1 {
		sm.Close()
	}
}
