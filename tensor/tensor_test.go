package tensor_test

import (
	"math"
	"testing"

	"github.com/modeltap/modeltap/tensor"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestSub(t *testing.T) {
	a := tensor.FromSlice([]float64{1.5, 2})
	b := tensor.FromSlice([]float64{1, 2})

	diff, err := a.Sub(b)
	if err != nil {
		t.Fatalf("Sub failed: %v", err)
	}
	want := []float64{0.5, 0}
	for i, v := range diff.Data {
		if !almostEqual(v, want[i]) {
			t.Errorf("Data[%d] = %v, want %v", i, v, want[i])
		}
	}
}

func TestSub_ShapeMismatch(t *testing.T) {
	a := tensor.FromSlice([]float64{1, 2, 3})
	b := tensor.FromSlice([]float64{1, 2})

	if _, err := a.Sub(b); err == nil {
		t.Error("Sub with mismatched shapes should fail")
	}
}

func TestNorm(t *testing.T) {
	tests := []struct {
		name string
		data []float64
		want float64
	}{
		{name: "3-4-5 triangle", data: []float64{3, 4}, want: 5},
		{name: "single element", data: []float64{-2}, want: 2},
		{name: "zeros", data: []float64{0, 0, 0}, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tensor.FromSlice(tt.data).Norm()
			if !almostEqual(got, tt.want) {
				t.Errorf("Norm() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestVariance(t *testing.T) {
	// Unbiased sample variance of {1, 2, 3, 4} is 5/3.
	got := tensor.FromSlice([]float64{1, 2, 3, 4}).Variance()
	if !almostEqual(got, 5.0/3.0) {
		t.Errorf("Variance() = %v, want 5/3", got)
	}
}

func TestVariance_DegenerateSizes(t *testing.T) {
	if v := tensor.New().Variance(); v != 0 {
		t.Errorf("Variance() of empty tensor = %v, want 0", v)
	}
	if v := tensor.FromSlice([]float64{7}).Variance(); v != 0 {
		t.Errorf("Variance() of single element = %v, want 0", v)
	}
}

func TestArgmaxRows(t *testing.T) {
	m, err := tensor.FromRows(
		[]float64{0.1, 0.7, 0.2},
		[]float64{0.9, 0.05, 0.05},
		[]float64{0.3, 0.3, 0.4},
	)
	if err != nil {
		t.Fatalf("FromRows failed: %v", err)
	}

	got, err := m.ArgmaxRows()
	if err != nil {
		t.Fatalf("ArgmaxRows failed: %v", err)
	}
	want := []int{1, 0, 2}
	for i, v := range got {
		if v != want[i] {
			t.Errorf("row %d argmax = %d, want %d", i, v, want[i])
		}
	}
}

func TestArgmaxRows_Requires2D(t *testing.T) {
	if _, err := tensor.FromSlice([]float64{1, 2}).ArgmaxRows(); err == nil {
		t.Error("ArgmaxRows on 1-D tensor should fail")
	}
}

func TestClone_Independent(t *testing.T) {
	a := tensor.FromSlice([]float64{1, 2})
	b := a.Clone()
	b.Data[0] = 99

	if a.Data[0] != 1 {
		t.Error("Clone should not alias the original data")
	}
}

func TestZerosLike(t *testing.T) {
	a := tensor.New(2, 3)
	z := tensor.ZerosLike(a)

	if !z.SameShape(a) {
		t.Errorf("ZerosLike shape = %v, want %v", z.Shape, a.Shape)
	}
	for i, v := range z.Data {
		if v != 0 {
			t.Errorf("Data[%d] = %v, want 0", i, v)
		}
	}
}
