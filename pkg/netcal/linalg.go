package netcal

import (
	"math/cmplx"

	pkgerrors "github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// solveComplex solves a (m x n, m >= n) complex linear system in the least
// squares sense by embedding it into a real 2m x 2n system.
func solveComplex(a [][]complex128, b []complex128) ([]complex128, error) {
	m := len(a)
	if m == 0 || len(b) != m {
		return nil, pkgerrors.New("empty or mismatched system")
	}
	n := len(a[0])
	if m < n {
		return nil, pkgerrors.Errorf("underdetermined system: %d equations, %d unknowns", m, n)
	}

	A := mat.NewDense(2*m, 2*n, nil)
	B := mat.NewVecDense(2*m, nil)
	for i := 0; i < m; i++ {
		for j := 0; j < n; j++ {
			re, im := real(a[i][j]), imag(a[i][j])
			A.Set(i, j, re)
			A.Set(i, j+n, -im)
			A.Set(i+m, j, im)
			A.Set(i+m, j+n, re)
		}
		B.SetVec(i, real(b[i]))
		B.SetVec(i+m, imag(b[i]))
	}

	var x mat.VecDense
	if err := x.SolveVec(A, B); err != nil {
		return nil, pkgerrors.Wrap(ErrSingular, err.Error())
	}
	out := make([]complex128, n)
	for j := range out {
		out[j] = complex(x.AtVec(j), x.AtVec(j+n))
	}
	return out, nil
}

// m2 is a 2x2 complex matrix.
type m2 [2][2]complex128

func (a m2) mul(b m2) m2 {
	return m2{
		{a[0][0]*b[0][0] + a[0][1]*b[1][0], a[0][0]*b[0][1] + a[0][1]*b[1][1]},
		{a[1][0]*b[0][0] + a[1][1]*b[1][0], a[1][0]*b[0][1] + a[1][1]*b[1][1]},
	}
}

func (a m2) det() complex128 {
	return a[0][0]*a[1][1] - a[0][1]*a[1][0]
}

func (a m2) inv() (m2, bool) {
	d := a.det()
	if d == 0 {
		return m2{}, false
	}
	return m2{
		{a[1][1] / d, -a[0][1] / d},
		{-a[1][0] / d, a[0][0] / d},
	}, true
}

// eig returns both eigenvalues of a and an eigenvector for each.
func (a m2) eig() ([2]complex128, [2][2]complex128) {
	tr := a[0][0] + a[1][1]
	disc := cmplx.Sqrt(tr*tr - 4*a.det())
	l := [2]complex128{(tr - disc) / 2, (tr + disc) / 2}
	var v [2][2]complex128
	for i, lam := range l {
		// (a - lam I) v = 0; take the better conditioned of the two rows
		r0 := [2]complex128{a[0][1], lam - a[0][0]}
		r1 := [2]complex128{lam - a[1][1], a[1][0]}
		if cmplx.Abs(r0[0])+cmplx.Abs(r0[1]) >= cmplx.Abs(r1[0])+cmplx.Abs(r1[1]) {
			v[i] = r0
		} else {
			v[i] = r1
		}
	}
	return l, v
}

// s2t converts two-port S parameters to cascading T parameters with
// [b1 a1]^T = T [a2 b2]^T.
func s2t(s m2) (m2, bool) {
	s21 := s[1][0]
	if s21 == 0 {
		return m2{}, false
	}
	return m2{
		{-s.det() / s21, s[0][0] / s21},
		{-s[1][1] / s21, 1 / s21},
	}, true
}

// t2s is the inverse of s2t.
func t2s(t m2) (m2, bool) {
	t22 := t[1][1]
	if t22 == 0 {
		return m2{}, false
	}
	return m2{
		{t[0][1] / t22, t.det() / t22},
		{1 / t22, -t[1][0] / t22},
	}, true
}

// sAt views one frequency row of a two-port as a matrix.
func sAt(s []complex128) m2 {
	return m2{{s[0], s[1]}, {s[2], s[3]}}
}

// correctSwitch removes the switch terms gf (forward, a2/b2) and gr
// (reverse, a1/b1) from a raw two-port measurement.
func correctSwitch(s m2, gf, gr complex128) m2 {
	s11, s12, s21, s22 := s[0][0], s[0][1], s[1][0], s[1][1]
	d := 1 - s12*s21*gf*gr
	return m2{
		{(s11 - s12*s21*gf) / d, (s12 - s11*s12*gr) / d},
		{(s21 - s22*s21*gf) / d, (s22 - s12*s21*gr) / d},
	}
}

// reflect maps an actual reflection g through a one-port error box.
func reflect(ed, es, er, g complex128) complex128 {
	return ed + er*g/(1-es*g)
}

// unreflect recovers the actual reflection behind a measured one m.
func unreflect(ed, es, er, m complex128) complex128 {
	return (m - ed) / (er + es*(m-ed))
}
