package patch

import "fmt"

// ShapeError reports a dimension precondition violation: non-square
// input, indivisible patch size, element count mismatch or an
// inconsistent patch sequence. The pipeline never proceeds past a shape
// mismatch since placement arithmetic would silently corrupt the grid.
type ShapeError struct {
	// Op names the operation that detected the violation
	Op string

	// Detail describes the violated constraint
	Detail string
}

func (e *ShapeError) Error() string {
	return fmt.Sprintf("%s: %s", e.Op, e.Detail)
}

func shapeErrorf(op, format string, args ...interface{}) *ShapeError {
	return &ShapeError{Op: op, Detail: fmt.Sprintf(format, args...)}
}
