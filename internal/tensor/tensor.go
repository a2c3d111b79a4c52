// Package tensor provides the dense float64 state representation used by the
// ODE solver and the neural modules. A Tensor has a fixed shape for its
// lifetime; arithmetic methods allocate fresh tensors rather than mutating
// the receiver, so solver states are never aliased across steps.
package tensor

import (
	"fmt"
	"math"
	"math/rand"
)

type Tensor struct {
	shape []int
	data  []float64
}

// New creates a zero-filled tensor with the given shape.
func New(shape ...int) *Tensor {
	n := 1
	for _, d := range shape {
		if d <= 0 {
			panic(fmt.Sprintf("tensor: invalid dimension %d in shape %v", d, shape))
		}
		n *= d
	}
	s := make([]int, len(shape))
	copy(s, shape)
	return &Tensor{shape: s, data: make([]float64, n)}
}

// Full creates a tensor filled with value.
func Full(value float64, shape ...int) *Tensor {
	t := New(shape...)
	for i := range t.data {
		t.data[i] = value
	}
	return t
}

// FromSlice creates a tensor backed by a copy of data.
func FromSlice(data []float64, shape ...int) (*Tensor, error) {
	t := New(shape...)
	if len(data) != len(t.data) {
		return nil, fmt.Errorf("tensor: %d values do not fit shape %v", len(data), shape)
	}
	copy(t.data, data)
	return t, nil
}

// Randn creates a tensor with values drawn from N(0, 1) using rng.
func Randn(rng *rand.Rand, shape ...int) *Tensor {
	t := New(shape...)
	for i := range t.data {
		t.data[i] = rng.NormFloat64()
	}
	return t
}

// Shape returns a copy of the tensor's dimensions.
func (t *Tensor) Shape() []int {
	s := make([]int, len(t.shape))
	copy(s, t.shape)
	return s
}

func (t *Tensor) Dims() int     { return len(t.shape) }
func (t *Tensor) Dim(i int) int { return t.shape[i] }
func (t *Tensor) Len() int      { return len(t.data) }

// Data exposes the underlying buffer. Layer arithmetic indexes it directly;
// callers must not resize it.
func (t *Tensor) Data() []float64 { return t.data }

func (t *Tensor) Clone() *Tensor {
	c := &Tensor{shape: make([]int, len(t.shape)), data: make([]float64, len(t.data))}
	copy(c.shape, t.shape)
	copy(c.data, t.data)
	return c
}

// Reshape returns a view-copy of the tensor with a new shape of equal length.
func (t *Tensor) Reshape(shape ...int) *Tensor {
	r := New(shape...)
	if len(r.data) != len(t.data) {
		panic(fmt.Sprintf("tensor: cannot reshape %v to %v", t.shape, shape))
	}
	copy(r.data, t.data)
	return r
}

func (t *Tensor) SameShape(o *Tensor) bool {
	if len(t.shape) != len(o.shape) {
		return false
	}
	for i := range t.shape {
		if t.shape[i] != o.shape[i] {
			return false
		}
	}
	return true
}

// IsFinite reports whether every element is neither NaN nor Inf. It is the
// single per-step reduction the stepper uses to detect a diverged state.
func (t *Tensor) IsFinite() bool {
	for _, v := range t.data {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

func (t *Tensor) Norm() float64 {
	sum := 0.0
	for _, v := range t.data {
		sum += v * v
	}
	return math.Sqrt(sum)
}

func (t *Tensor) MaxAbs() float64 {
	m := 0.0
	for _, v := range t.data {
		m = math.Max(m, math.Abs(v))
	}
	return m
}

func (t *Tensor) Add(o *Tensor) *Tensor {
	t.mustMatch(o)
	r := t.Clone()
	for i := range r.data {
		r.data[i] += o.data[i]
	}
	return r
}

func (t *Tensor) Sub(o *Tensor) *Tensor {
	t.mustMatch(o)
	r := t.Clone()
	for i := range r.data {
		r.data[i] -= o.data[i]
	}
	return r
}

func (t *Tensor) Scale(factor float64) *Tensor {
	r := t.Clone()
	for i := range r.data {
		r.data[i] *= factor
	}
	return r
}

// AddScaled returns t + factor*o.
func (t *Tensor) AddScaled(o *Tensor, factor float64) *Tensor {
	t.mustMatch(o)
	r := t.Clone()
	for i := range r.data {
		r.data[i] += factor * o.data[i]
	}
	return r
}

func (t *Tensor) mustMatch(o *Tensor) {
	if !t.SameShape(o) {
		panic(fmt.Sprintf("tensor: shape mismatch %v vs %v", t.shape, o.shape))
	}
}
