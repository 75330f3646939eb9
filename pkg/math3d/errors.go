package math3d

import "fmt"

// DegenerateError reports a numeric operation that has no meaningful result,
// such as normalizing a zero-length vector. Operations in this package panic
// with a *DegenerateError; callers that need to survive bad geometry recover
// it and turn it into an ordinary error.
type DegenerateError struct {
	Op     string
	Detail string
}

func (e *DegenerateError) Error() string {
	return fmt.Sprintf("math3d: degenerate %s: %s", e.Op, e.Detail)
}

func degenerate(op, format string, args ...any) {
	panic(&DegenerateError{Op: op, Detail: fmt.Sprintf(format, args...)})
}
