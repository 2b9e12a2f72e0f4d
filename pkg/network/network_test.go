package network

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubAndFlip(t *testing.T) {
	n := New([]float64{1, 2}, 2)
	n.Name = "thru"
	for f := 0; f < 2; f++ {
		n.Set(f, 0, 0, complex(11, float64(f)))
		n.Set(f, 1, 0, complex(21, float64(f)))
		n.Set(f, 0, 1, complex(12, float64(f)))
		n.Set(f, 1, 1, complex(22, float64(f)))
	}

	assert.Equal(t, []complex128{21, 21 + 1i}, n.S21().Param(0, 0))
	assert.Equal(t, []complex128{12, 12 + 1i}, n.S12().Param(0, 0))
	assert.Equal(t, 1, n.S22().Ports)

	fl, err := n.Flipped()
	require.NoError(t, err)
	assert.Equal(t, n.Param(1, 1), fl.Param(0, 0))
	assert.Equal(t, n.Param(0, 1), fl.Param(1, 0))

	_, err = n.S11().Flipped()
	assert.Error(t, err)
}

func TestReflection(t *testing.T) {
	one, err := NewOnePort("open", []float64{1}, []complex128{1})
	require.NoError(t, err)
	g, err := one.Reflection(1)
	require.NoError(t, err)
	assert.Equal(t, []complex128{1}, g)

	two := New([]float64{1}, 2)
	two.Set(0, 1, 1, -1)
	g, err = two.Reflection(1)
	require.NoError(t, err)
	assert.Equal(t, []complex128{-1}, g)

	_, err = two.Reflection(2)
	assert.Error(t, err)
}

func TestNewOnePortLengthMismatch(t *testing.T) {
	_, err := NewOnePort("x", []float64{1, 2}, []complex128{1})
	assert.Error(t, err)
}

func TestCheckFrequency(t *testing.T) {
	a := New([]float64{1e9, 2e9}, 1)
	b := New([]float64{1e9, 2e9}, 2)
	c := New([]float64{1e9, 2.1e9}, 1)
	c.Name = "c"
	assert.NoError(t, CheckFrequency(a, b))
	assert.Error(t, CheckFrequency(a, b, c))
	assert.NoError(t, CheckFrequency())
}
