// Package tensor provides the dense numeric payload type carried by
// instrumentation messages, together with the handful of reductions the
// built-in subscribers need (L2 norm, variance, row-wise argmax).
//
// The messaging core itself never looks inside a Tensor; payloads are
// opaque until they reach a subscriber's metric computation or the
// exporter's weight-delta bookkeeping.
package tensor

import (
	"fmt"
	"math"
)

// Tensor is a dense row-major float64 array. Shape is immutable after
// construction; Data is aliased, not copied, by FromSlice.
type Tensor struct {
	Shape []int
	Data  []float64
}

// New creates a zero-filled tensor with the given shape.
func New(shape ...int) *Tensor {
	return &Tensor{Shape: append([]int(nil), shape...), Data: make([]float64, volume(shape))}
}

// FromSlice wraps data as a 1-D tensor without copying.
func FromSlice(data []float64) *Tensor {
	return &Tensor{Shape: []int{len(data)}, Data: data}
}

// FromRows builds a 2-D tensor from equally sized rows.
func FromRows(rows ...[]float64) (*Tensor, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("tensor: FromRows requires at least one row")
	}
	width := len(rows[0])
	t := New(len(rows), width)
	for i, row := range rows {
		if len(row) != width {
			return nil, fmt.Errorf("tensor: row %d has length %d, want %d", i, len(row), width)
		}
		copy(t.Data[i*width:], row)
	}
	return t, nil
}

// ZerosLike creates a zero-filled tensor with the same shape as t.
func ZerosLike(t *Tensor) *Tensor {
	return New(t.Shape...)
}

// Clone returns a deep copy. Used by the exporter to snapshot weights
// without aliasing the live parameter buffers.
func (t *Tensor) Clone() *Tensor {
	c := &Tensor{Shape: append([]int(nil), t.Shape...), Data: make([]float64, len(t.Data))}
	copy(c.Data, t.Data)
	return c
}

// Len returns the number of elements.
func (t *Tensor) Len() int {
	return len(t.Data)
}

// SameShape reports whether t and other have identical shapes.
func (t *Tensor) SameShape(other *Tensor) bool {
	if len(t.Shape) != len(other.Shape) {
		return false
	}
	for i, d := range t.Shape {
		if d != other.Shape[i] {
			return false
		}
	}
	return true
}

// Sub returns t - other as a new tensor.
func (t *Tensor) Sub(other *Tensor) (*Tensor, error) {
	if !t.SameShape(other) {
		return nil, fmt.Errorf("tensor: shape mismatch %v vs %v", t.Shape, other.Shape)
	}
	out := ZerosLike(t)
	for i := range t.Data {
		out.Data[i] = t.Data[i] - other.Data[i]
	}
	return out, nil
}

// Norm returns the L2 norm of all elements.
func (t *Tensor) Norm() float64 {
	var sum float64
	for _, v := range t.Data {
		sum += v * v
	}
	return math.Sqrt(sum)
}

// Variance returns the unbiased sample variance of all elements (n-1
// denominator). Tensors with fewer than two elements have variance 0.
func (t *Tensor) Variance() float64 {
	n := len(t.Data)
	if n < 2 {
		return 0
	}
	var mean float64
	for _, v := range t.Data {
		mean += v
	}
	mean /= float64(n)
	var sum float64
	for _, v := range t.Data {
		d := v - mean
		sum += d * d
	}
	return sum / float64(n-1)
}

// ArgmaxRows treats t as a 2-D matrix and returns the column index of the
// maximum element in each row. Ties resolve to the lowest index.
func (t *Tensor) ArgmaxRows() ([]int, error) {
	if len(t.Shape) != 2 {
		return nil, fmt.Errorf("tensor: ArgmaxRows needs a 2-D tensor, got shape %v", t.Shape)
	}
	rows, cols := t.Shape[0], t.Shape[1]
	if cols == 0 {
		return nil, fmt.Errorf("tensor: ArgmaxRows on zero-width tensor")
	}
	out := make([]int, rows)
	for r := 0; r < rows; r++ {
		out[r] = argmax(t.Data[r*cols : (r+1)*cols])
	}
	return out, nil
}

func argmax(row []float64) int {
	best := 0
	for i := 1; i < len(row); i++ {
		if row[i] > row[best] {
			best = i
		}
	}
	return best
}

func volume(shape []int) int {
	n := 1
	for _, d := range shape {
		n *= d
	}
	return n
}
