// Package network holds scattering-parameter data sampled on a frequency grid.
package network

import (
	"fmt"
	"math"

	pkgerrors "github.com/pkg/errors"
)

// DefaultZ0 is the reference impedance used when none is given.
const DefaultZ0 = 50.0

// Network is an N-port scattering matrix per frequency point.
//
// S is indexed [frequency][row*Ports+col].
type Network struct {
	Name  string
	Ports int
	Z0    float64
	Freqs []float64 // Hz, ascending
	S     [][]complex128
}

// New allocates a zeroed network on the given frequency grid.
func New(freqs []float64, ports int) *Network {
	f := make([]float64, len(freqs))
	copy(f, freqs)
	s := make([][]complex128, len(freqs))
	for i := range s {
		s[i] = make([]complex128, ports*ports)
	}
	return &Network{Ports: ports, Z0: DefaultZ0, Freqs: f, S: s}
}

// NewOnePort builds a one-port network from one complex value per frequency.
func NewOnePort(name string, freqs []float64, values []complex128) (*Network, error) {
	if len(freqs) != len(values) {
		return nil, pkgerrors.Errorf("%s: %d frequencies but %d values", name, len(freqs), len(values))
	}
	n := New(freqs, 1)
	n.Name = name
	for i, v := range values {
		n.S[i][0] = v
	}
	return n, nil
}

// NewOnePortReal is NewOnePort for real-valued quantities.
func NewOnePortReal(name string, freqs []float64, values []float64) (*Network, error) {
	c := make([]complex128, len(values))
	for i, v := range values {
		c[i] = complex(v, 0)
	}
	return NewOnePort(name, freqs, c)
}

// Len returns the number of frequency points.
func (n *Network) Len() int {
	return len(n.Freqs)
}

// At returns S(i,j) at frequency index f. Ports are zero-based.
func (n *Network) At(f, i, j int) complex128 {
	return n.S[f][i*n.Ports+j]
}

// Set stores S(i,j) at frequency index f.
func (n *Network) Set(f, i, j int, v complex128) {
	n.S[f][i*n.Ports+j] = v
}

// Param returns S(i,j) across all frequencies.
func (n *Network) Param(i, j int) []complex128 {
	out := make([]complex128, n.Len())
	for f := range out {
		out[f] = n.At(f, i, j)
	}
	return out
}

// Sub returns S(i,j) as a one-port network.
func (n *Network) Sub(i, j int) *Network {
	sub, _ := NewOnePort(fmt.Sprintf("%s s%d%d", n.Name, i+1, j+1), n.Freqs, n.Param(i, j))
	sub.Z0 = n.Z0
	return sub
}

func (n *Network) S11() *Network { return n.Sub(0, 0) }
func (n *Network) S21() *Network { return n.Sub(1, 0) }
func (n *Network) S12() *Network { return n.Sub(0, 1) }
func (n *Network) S22() *Network { return n.Sub(1, 1) }

// Flipped returns a two-port with its ports swapped.
func (n *Network) Flipped() (*Network, error) {
	if n.Ports != 2 {
		return nil, pkgerrors.Errorf("%s: cannot flip a %d-port network", n.Name, n.Ports)
	}
	out := New(n.Freqs, 2)
	out.Name, out.Z0 = n.Name, n.Z0
	for f := range n.S {
		out.Set(f, 0, 0, n.At(f, 1, 1))
		out.Set(f, 0, 1, n.At(f, 1, 0))
		out.Set(f, 1, 0, n.At(f, 0, 1))
		out.Set(f, 1, 1, n.At(f, 0, 0))
	}
	return out, nil
}

// Reflection returns the reflection coefficient seen at port p. One-port
// networks return S11 for any port.
func (n *Network) Reflection(p int) ([]complex128, error) {
	switch {
	case n.Ports == 1:
		return n.Param(0, 0), nil
	case p < n.Ports:
		return n.Param(p, p), nil
	}
	return nil, pkgerrors.Errorf("%s: no port %d in a %d-port network", n.Name, p+1, n.Ports)
}

// SameFrequency reports whether a and b are sampled on the same grid.
func SameFrequency(a, b *Network) bool {
	if a.Len() != b.Len() {
		return false
	}
	for i := range a.Freqs {
		tol := 1e-9 * math.Max(math.Abs(a.Freqs[i]), 1)
		if math.Abs(a.Freqs[i]-b.Freqs[i]) > tol {
			return false
		}
	}
	return true
}

// CheckFrequency returns an error naming the first network whose grid
// differs from the first one.
func CheckFrequency(ntwks ...*Network) error {
	if len(ntwks) == 0 {
		return nil
	}
	for _, n := range ntwks[1:] {
		if !SameFrequency(ntwks[0], n) {
			return pkgerrors.Errorf("frequency grid of %q (%d points) differs from %q (%d points)",
				n.Name, n.Len(), ntwks[0].Name, ntwks[0].Len())
		}
	}
	return nil
}
