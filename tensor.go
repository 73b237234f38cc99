package detparse

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrShape is returned when a tensor does not have the rank or dimensions
	// a parser requires.  The shape of a model output is a hard contract with
	// the inference stage, so a mismatch aborts the decode call
	ErrShape = errors.New("unexpected tensor shape")
	// ErrParams is returned when parser parameters are out of range
	ErrParams = errors.New("invalid parameters")
)

// Tensor is a read only view of a float32 model output buffer and its shape.
// The buffer is owned by the caller and is never modified by the parsers
type Tensor struct {
	// Data is the flat buffer of values in row major order
	Data []float32
	// Shape is the ordered list of dimension sizes
	Shape []int
}

// NewTensor returns a Tensor wrapping data with the given shape.  An error is
// returned if the number of elements described by shape does not match the
// length of data or any dimension is negative
func NewTensor(data []float32, shape ...int) (*Tensor, error) {

	if err := checkDims(shape, 0); err != nil {
		return nil, err
	}

	t := &Tensor{
		Data:  data,
		Shape: append([]int(nil), shape...),
	}

	if n := t.Elems(); n != len(data) {
		return nil, fmt.Errorf("%w: shape %v describes %d elements, buffer has %d",
			ErrShape, shape, n, len(data))
	}

	return t, nil
}

// Rank returns the number of dimensions of the tensor
func (t *Tensor) Rank() int {
	return len(t.Shape)
}

// Dim returns the size of dimension i, or 0 if the tensor has fewer
// dimensions
func (t *Tensor) Dim(i int) int {

	if i < 0 || i >= len(t.Shape) {
		return 0
	}

	return t.Shape[i]
}

// Elems returns the number of elements described by the shape
func (t *Tensor) Elems() int {

	if len(t.Shape) == 0 {
		return 0
	}

	n := 1

	for _, d := range t.Shape {
		n *= d
	}

	return n
}

// ExpectRank checks the tensor has exactly rank dimensions and that its
// buffer holds at least the number of elements its shape describes.  Every
// dimension must be at least 1
func (t *Tensor) ExpectRank(rank int) error {

	if t == nil {
		return fmt.Errorf("%w: missing tensor", ErrShape)
	}

	if len(t.Shape) != rank {
		return fmt.Errorf("%w: expected rank %d, got %s", ErrShape, rank, t.ShapeString())
	}

	if err := checkDims(t.Shape, 1); err != nil {
		return err
	}

	if len(t.Data) < t.Elems() {
		return fmt.Errorf("%w: shape %s needs %d elements, buffer has %d",
			ErrShape, t.ShapeString(), t.Elems(), len(t.Data))
	}

	return nil
}

// checkDims returns ErrShape if any dimension is smaller than least
func checkDims(shape []int, least int) error {

	for i, d := range shape {
		if d < least {
			return fmt.Errorf("%w: dimension %d of %v is %d, must be at least %d",
				ErrShape, i, shape, d, least)
		}
	}

	return nil
}

// ShapeString returns the shape formatted as [d0 x d1 x ...]
func (t *Tensor) ShapeString() string {

	dims := make([]string, len(t.Shape))

	for i, d := range t.Shape {
		dims[i] = fmt.Sprintf("%d", d)
	}

	return "[" + strings.Join(dims, " x ") + "]"
}

// String returns the Tensor's attributes formatted as a string
func (t *Tensor) String() string {
	return fmt.Sprintf("shape=%s, n_elems=%d, len=%d", t.ShapeString(),
		t.Elems(), len(t.Data))
}
