package pipeline

import (
	"fmt"

	"gocv.io/x/gocv"

	"rvg-enhance/internal/logger"
	"rvg-enhance/internal/opencv/safe"
)

// WriteError reports an enhanced image that could not be persisted.
type WriteError struct {
	Path string
	Err  error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("write %s: %v", e.Path, e.Err)
}

func (e *WriteError) Unwrap() error {
	return e.Err
}

// Saver encodes enhanced images to disk. The output format follows the
// target path extension; the batch runner always hands it a .png path.
type Saver struct {
	log logger.Logger
}

func NewSaver(log logger.Logger) *Saver {
	if log == nil {
		log = logger.Nop{}
	}
	return &Saver{log: log}
}

func (s *Saver) Save(path string, img *safe.Mat) error {
	if err := safe.ValidateMatForOperation(img, "save"); err != nil {
		return &WriteError{Path: path, Err: err}
	}

	if ok := gocv.IMWrite(path, img.GetMat()); !ok {
		return &WriteError{Path: path, Err: fmt.Errorf("image encode failed")}
	}

	s.log.Debug("Saver", "image written", map[string]interface{}{
		"path":   path,
		"width":  img.Cols(),
		"height": img.Rows(),
	})

	return nil
}
