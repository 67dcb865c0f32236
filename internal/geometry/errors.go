package geometry

import (
	"fmt"

	"github.com/roach88/geometrix/internal/symbolic"
)

// ErrShape is the code carried by every ShapeError.
const ErrShape = "E410"

// ShapeError reports operands with the wrong dimensions.
type ShapeError struct {
	Op      string
	Message string
}

func (e *ShapeError) Error() string {
	return fmt.Sprintf("[%s] %s: %s", ErrShape, e.Op, e.Message)
}

func checkMetric(op string, metric *symbolic.Matrix, coords []string) error {
	if !metric.IsSquare() {
		return &ShapeError{Op: op, Message: fmt.Sprintf("metric must be square, got %dx%d", metric.Rows(), metric.Cols())}
	}
	if metric.Rows() != len(coords) {
		return &ShapeError{Op: op, Message: fmt.Sprintf("metric is %dx%d but %d coordinates were given", metric.Rows(), metric.Cols(), len(coords))}
	}
	return nil
}

func inverse(op string, metric *symbolic.Matrix) (*symbolic.Matrix, error) {
	inv, err := metric.Inverse()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return inv, nil
}
