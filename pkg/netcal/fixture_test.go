package netcal

import (
	"math/cmplx"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/charlie0129/vnacal/pkg/network"
)

const tol = 1e-9

// errorBox is a synthetic 8-term error model at one frequency.
type errorBox struct {
	e00, e11, e01, e10 complex128
	e33, e22, e23, e32 complex128
}

func boxAt(i int) errorBox {
	k := float64(i) / 10
	return errorBox{
		e00: complex(0.05, 0.01*k), e11: complex(0.1, -0.05), e01: complex(0.9, 0.1), e10: complex(0.85, -0.2*k),
		e33: complex(-0.04, 0.03), e22: complex(0.08, 0.07*k), e23: complex(0.8, 0.3), e32: complex(0.95, -0.05),
	}
}

func (b errorBox) port1() m2 { return m2{{b.e00, b.e01}, {b.e10, b.e11}} }
func (b errorBox) port2() m2 { return m2{{b.e22, b.e23}, {b.e32, b.e33}} }

// measure cascades port 1, dut and port 2. dut must transmit.
func (b errorBox) measure(t *testing.T, dut m2) m2 {
	ta, ok := s2t(b.port1())
	require.True(t, ok)
	td, ok := s2t(dut)
	require.True(t, ok)
	tb, ok := s2t(b.port2())
	require.True(t, ok)
	s, ok := t2s(ta.mul(td).mul(tb))
	require.True(t, ok)
	return s
}

// measureReflects returns the raw two-port of reflections g1 and g2 on
// ports 1 and 2.
func (b errorBox) measureReflects(g1, g2 complex128) m2 {
	return m2{
		{reflect(b.e00, b.e11, b.e01*b.e10, g1), 0},
		{0, reflect(b.e33, b.e22, b.e23*b.e32, g2)},
	}
}

// rawSwitch adds switch terms to an 8-term measurement.
func rawSwitch(s m2, gf, gr complex128) m2 {
	s11, s12, s21, s22 := s[0][0], s[0][1], s[1][0], s[1][1]
	return m2{
		{s11 + s12*s21*gf/(1-s22*gf), s12 / (1 - s11*gr)},
		{s21 / (1 - s22*gf), s22 + s21*s12*gr/(1-s11*gr)},
	}
}

func testFreqs() []float64 {
	freqs := make([]float64, 10)
	for i := range freqs {
		freqs[i] = float64(i+1) * 1e9
	}
	return freqs
}

func twoPort(name string, freqs []float64, fn func(f int) m2) *network.Network {
	n := network.New(freqs, 2)
	n.Name = name
	for f := range freqs {
		s := fn(f)
		for i := 0; i < 2; i++ {
			for j := 0; j < 2; j++ {
				n.Set(f, i, j, s[i][j])
			}
		}
	}
	return n
}

func onePort(t *testing.T, name string, freqs []float64, fn func(f int) complex128) *network.Network {
	v := make([]complex128, len(freqs))
	for f := range v {
		v[f] = fn(f)
	}
	n, err := network.NewOnePort(name, freqs, v)
	require.NoError(t, err)
	return n
}

func constant(v complex128) func(int) complex128 {
	return func(int) complex128 { return v }
}

var flushThru = m2{{0, 1}, {1, 0}}

func requireCoef(t *testing.T, coefs map[string]*network.Network, name string, want func(f int) complex128) {
	t.Helper()
	n, ok := coefs[name]
	require.True(t, ok, "missing coefficient %q", name)
	for f := range n.S {
		got, exp := n.At(f, 0, 0), want(f)
		require.Less(t, cmplx.Abs(got-exp), tol, "%s at point %d: got %v, want %v", name, f, got, exp)
	}
}
