package netcal

import (
	"math"
	"math/cmplx"

	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/optimize"

	"github.com/charlie0129/vnacal/pkg/network"
)

// MatchFit selects how the LRRM match standard is modelled.
type MatchFit string

const (
	// MatchFitNone uses the match model as given.
	MatchFitNone MatchFit = "none"
	// MatchFitL keeps the model's resistance and solves a series inductance.
	MatchFitL MatchFit = "l"
	// MatchFitLC additionally solves a shunt capacitance.
	MatchFitLC MatchFit = "lc"
)

// ParseMatchFit parses a match fit name.
func ParseMatchFit(s string) (MatchFit, error) {
	switch f := MatchFit(s); f {
	case MatchFitNone, MatchFitL, MatchFitLC:
		return f, nil
	}
	return "", pkgerrors.Errorf("unknown match fit %q, expected one of l, lc, none", s)
}

const lrmMaxIter = 100

// LRRM is the line-reflect-reflect-match calibration. The ordered standards
// are thru, open, short and load. The thru is treated as flush. The short is
// the unknown reflect that drives the solution; the open only feeds the
// solved capacitance and, when fitting, the match model.
type LRRM struct {
	ideals   []*network.Network
	measured []*network.Network
	gf, gr   []complex128
	fit      MatchFit

	coefs    map[string]*network.Network
	solvedL  []float64
	solvedC  []float64
	solvedM  *network.Network
	solvedR1 *network.Network
	solvedR2 *network.Network
	matchL   float64
	matchC   float64
}

// lrrm standard positions
const (
	lrrmThru = iota
	lrrmOpen
	lrrmShort
	lrrmLoad
)

// NewLRRM creates an LRRM calibration. switchTerms holds the forward and
// reverse switch terms as one-ports; an empty slice means none.
func NewLRRM(ideals, measured, switchTerms []*network.Network, fit MatchFit) (*LRRM, error) {
	if len(ideals) != 4 || len(measured) != 4 {
		return nil, pkgerrors.Errorf("LRRM needs thru, open, short and load, got %d ideals and %d measurements",
			len(ideals), len(measured))
	}
	if _, err := ParseMatchFit(string(fit)); err != nil {
		return nil, err
	}
	for _, n := range measured {
		if n.Ports != 2 {
			return nil, pkgerrors.Errorf("measured %s has %d ports, LRRM needs two-port measurements", n.Name, n.Ports)
		}
	}
	if ideals[lrrmThru].Ports != 2 {
		return nil, pkgerrors.Errorf("thru model %s has %d ports", ideals[lrrmThru].Name, ideals[lrrmThru].Ports)
	}
	all := append(append([]*network.Network{}, ideals...), measured...)
	for _, n := range switchTerms {
		if n != nil {
			all = append(all, n)
		}
	}
	if err := network.CheckFrequency(all...); err != nil {
		return nil, err
	}

	c := &LRRM{ideals: ideals, measured: measured, fit: fit}
	c.gf, c.gr = splitSwitchTerms(measured[0].Len(), switchTerms)

	thru := ideals[lrrmThru]
	for f := range thru.S {
		if cmplx.Abs(thru.At(f, 1, 0)-1) > 1e-6 || cmplx.Abs(thru.At(f, 0, 0)) > 1e-6 {
			logrus.WithField("thru", thru.Name).Warn("LRRM treats the thru as flush, ignoring its model")
			break
		}
	}
	return c, nil
}

func splitSwitchTerms(points int, switchTerms []*network.Network) (gf, gr []complex128) {
	gf = make([]complex128, points)
	gr = make([]complex128, points)
	if len(switchTerms) > 0 && switchTerms[0] != nil {
		copy(gf, switchTerms[0].Param(0, 0))
	}
	if len(switchTerms) > 1 && switchTerms[1] != nil {
		copy(gr, switchTerms[1].Param(0, 0))
	}
	return gf, gr
}

// lrmBox is the 8-term solution at one frequency plus the solved reflect.
type lrmBox struct {
	ed1, es1, er1 complex128
	ed2, es2, er2 complex128
	tf, tr        complex128
	refl          complex128
}

// solveLRM solves the 8-term model from a switch corrected thru t, the
// match and reflect measured on both ports, the known match reflections gl
// and an estimate of the reflect.
func solveLRM(t m2, ml, mr, gl [2]complex128, est complex128) (lrmBox, error) {
	s11, s12, s21, s22 := t[0][0], t[0][1], t[1][0], t[1][1]
	if s21*s12 == 0 {
		return lrmBox{}, pkgerrors.Wrap(ErrSingular, "thru has no transmission")
	}

	e00, e33 := ml[0], ml[1]
	var b lrmBox
	for i := 0; i < lrmMaxIter; i++ {
		p := (s11 - e00) * (s22 - e33) / (s21 * s12)
		if p == 0 || p == 1 {
			return lrmBox{}, pkgerrors.Wrap(ErrSingular, "degenerate thru")
		}
		a1 := s11 - (s11-e00)/p
		a2 := s22 - (s22-e33)/p
		w1 := (mr[0] - e00) / (mr[0] - a1)
		w2 := (mr[1] - e33) / (mr[1] - a2)
		g := cmplx.Sqrt(w1 * w2 / p)
		if g == 0 {
			return lrmBox{}, pkgerrors.Wrap(ErrSingular, "reflect indistinguishable from match")
		}
		if cmplx.Abs(-g-est) < cmplx.Abs(g-est) {
			g = -g
		}
		e11, e22 := w1/g, w2/g
		b = lrmBox{
			ed1: e00, es1: e11, er1: (e00 - a1) * e11,
			ed2: e33, es2: e22, er2: (e33 - a2) * e22,
			tf: s21 * (1 - p), tr: s12 * (1 - p),
			refl: g,
		}

		n00 := ml[0] - e11*gl[0]*(ml[0]-a1)
		n33 := ml[1] - e22*gl[1]*(ml[1]-a2)
		delta := cmplx.Abs(n00-e00) + cmplx.Abs(n33-e33)
		e00, e33 = n00, n33
		if delta < 1e-14 {
			break
		}
	}
	return b, nil
}

// lrrmPoint is the corrected raw data of one frequency.
type lrrmPoint struct {
	thru        m2
	open, short [2]complex128
	load        [2]complex128
	shortEst    complex128
}

func (c *LRRM) points() ([]lrrmPoint, error) {
	freqs := c.measured[0].Freqs
	shortEst, err := c.ideals[lrrmShort].Reflection(0)
	if err != nil {
		return nil, err
	}
	pts := make([]lrrmPoint, len(freqs))
	for f := range freqs {
		corr := func(k int) m2 {
			return correctSwitch(sAt(c.measured[k].S[f]), c.gf[f], c.gr[f])
		}
		o, s, l := corr(lrrmOpen), corr(lrrmShort), corr(lrrmLoad)
		pts[f] = lrrmPoint{
			thru:     corr(lrrmThru),
			open:     [2]complex128{o[0][0], o[1][1]},
			short:    [2]complex128{s[0][0], s[1][1]},
			load:     [2]complex128{l[0][0], l[1][1]},
			shortEst: shortEst[f],
		}
	}
	return pts, nil
}

// matchModel returns the match reflection per port and frequency for a
// series inductance l and shunt capacitance cp on top of the model's
// resistance. With MatchFitNone the model is returned unchanged.
func (c *LRRM) matchModel(l, cp float64) ([2][]complex128, [2][]float64, error) {
	load := c.ideals[lrrmLoad]
	z0 := load.Z0
	var gl [2][]complex128
	var r [2][]float64
	for p := 0; p < 2; p++ {
		g, err := load.Reflection(p)
		if err != nil {
			return gl, r, err
		}
		gl[p] = make([]complex128, len(g))
		r[p] = make([]float64, len(g))
		for f, gm := range g {
			z := complex(z0, 0) * (1 + gm) / (1 - gm)
			r[p][f] = real(z)
			if c.fit == MatchFitNone {
				gl[p][f] = gm
				continue
			}
			w := 2 * math.Pi * load.Freqs[f]
			zf := complex(real(z), w*l)
			if cp != 0 {
				zf = 1 / (1/zf + complex(0, w*cp))
			}
			gl[p][f] = (zf - complex(z0, 0)) / (zf + complex(z0, 0))
		}
	}
	return gl, r, nil
}

func (c *LRRM) solveAll(pts []lrrmPoint, gl [2][]complex128) ([]lrmBox, error) {
	boxes := make([]lrmBox, len(pts))
	for f, pt := range pts {
		b, err := solveLRM(pt.thru, pt.load, pt.short, [2]complex128{gl[0][f], gl[1][f]}, pt.shortEst)
		if err != nil {
			return nil, pkgerrors.Wrapf(err, "at %g Hz", c.measured[0].Freqs[f])
		}
		boxes[f] = b
	}
	return boxes, nil
}

// lossless measures how far the corrected open and short are from the unit
// circle.
func lossless(pts []lrrmPoint, boxes []lrmBox) float64 {
	var sum float64
	sq := func(g complex128) float64 {
		d := real(g)*real(g) + imag(g)*imag(g) - 1
		return d * d
	}
	for f, b := range boxes {
		sum += sq(unreflect(b.ed1, b.es1, b.er1, pts[f].open[0]))
		sum += sq(unreflect(b.ed2, b.es2, b.er2, pts[f].open[1]))
		sum += sq(b.refl)
	}
	return sum
}

// fitMatch finds the match parasitics, in henry and farad.
func (c *LRRM) fitMatch(pts []lrrmPoint) (float64, float64, error) {
	const (
		nH = 1e-9
		fF = 1e-15
	)
	dim := 1
	if c.fit == MatchFitLC {
		dim = 2
	}
	params := func(x []float64) (float64, float64) {
		if dim == 2 {
			return x[0] * nH, x[1] * fF
		}
		return x[0] * nH, 0
	}

	var solveErr error
	problem := optimize.Problem{
		Func: func(x []float64) float64 {
			l, cp := params(x)
			gl, _, err := c.matchModel(l, cp)
			if err != nil {
				solveErr = err
				return math.Inf(1)
			}
			boxes, err := c.solveAll(pts, gl)
			if err != nil {
				return math.Inf(1)
			}
			return lossless(pts, boxes)
		},
	}
	settings := &optimize.Settings{
		Converger:       &optimize.FunctionConverge{Absolute: 1e-16, Iterations: 200},
		MajorIterations: 2000,
	}
	result, err := optimize.Minimize(problem, make([]float64, dim), settings, &optimize.NelderMead{})
	if solveErr != nil {
		return 0, 0, solveErr
	}
	if result == nil {
		return 0, 0, pkgerrors.Wrap(err, "match fit")
	}
	if err != nil {
		logrus.WithError(err).Warn("match fit did not converge cleanly")
	}
	l, cp := params(result.X)
	logrus.WithFields(logrus.Fields{
		"fit":      c.fit,
		"l":        l,
		"c":        cp,
		"residual": result.F,
	}).Debug("match fitted")
	return l, cp, nil
}

// Run solves the calibration.
func (c *LRRM) Run() error {
	pts, err := c.points()
	if err != nil {
		return err
	}

	if c.fit != MatchFitNone {
		c.matchL, c.matchC, err = c.fitMatch(pts)
		if err != nil {
			return err
		}
	}
	gl, r, err := c.matchModel(c.matchL, c.matchC)
	if err != nil {
		return err
	}
	boxes, err := c.solveAll(pts, gl)
	if err != nil {
		return err
	}

	freqs := c.measured[0].Freqs
	tt := twelveTerm{gf: c.gf, gr: c.gr}
	for _, v := range []*[]complex128{&tt.ed1, &tt.es1, &tt.er1, &tt.ed2, &tt.es2, &tt.er2, &tt.tf, &tt.tr} {
		*v = make([]complex128, len(freqs))
	}
	z0 := c.ideals[lrrmLoad].Z0
	c.solvedL = make([]float64, len(freqs))
	c.solvedC = make([]float64, len(freqs))
	for f, b := range boxes {
		tt.ed1[f], tt.es1[f], tt.er1[f] = b.ed1, b.es1, b.er1
		tt.ed2[f], tt.es2[f], tt.er2[f] = b.ed2, b.es2, b.er2
		tt.tf[f], tt.tr[f] = b.tf, b.tr

		w := 2 * math.Pi * freqs[f]
		if w == 0 {
			continue
		}
		zs := complex(z0, 0) * (1 + b.refl) / (1 - b.refl)
		c.solvedL[f] = imag(zs) / w
		open := (unreflect(b.ed1, b.es1, b.er1, pts[f].open[0]) + unreflect(b.ed2, b.es2, b.er2, pts[f].open[1])) / 2
		yo := (1 - open) / (complex(z0, 0) * (1 + open))
		c.solvedC[f] = imag(yo) / w
	}

	terms := map[string][]complex128{}
	for code, v := range tt.coefs() {
		terms[longNames[code]] = v
	}
	if c.coefs, err = coefNetworks(freqs, terms); err != nil {
		return err
	}
	if c.solvedM, err = network.NewOnePort("solved_m", freqs, gl[0]); err != nil {
		return err
	}
	if c.solvedR1, err = network.NewOnePortReal("solved_r1", freqs, r[0]); err != nil {
		return err
	}
	if c.solvedR2, err = network.NewOnePortReal("solved_r2", freqs, r[1]); err != nil {
		return err
	}

	logrus.WithFields(logrus.Fields{
		"points":   len(freqs),
		"matchFit": c.fit,
	}).Debug("LRRM calibration solved")
	return nil
}

// Coefs returns the solved coefficients keyed by name. It is nil before Run.
func (c *LRRM) Coefs() map[string]*network.Network { return c.coefs }

// SolvedL is the inductance of the short per frequency, in henry.
func (c *LRRM) SolvedL() []float64 { return c.solvedL }

// SolvedC is the capacitance of the open per frequency, in farad.
func (c *LRRM) SolvedC() []float64 { return c.solvedC }

// SolvedM is the match reflection used on port 1.
func (c *LRRM) SolvedM() *network.Network { return c.solvedM }

// SolvedR1 is the match resistance on port 1.
func (c *LRRM) SolvedR1() *network.Network { return c.solvedR1 }

// SolvedR2 is the match resistance on port 2.
func (c *LRRM) SolvedR2() *network.Network { return c.solvedR2 }

// MatchL returns the fitted match inductance, zero without a fit.
func (c *LRRM) MatchL() float64 { return c.matchL }

// MatchC returns the fitted match capacitance, zero unless fitting lc.
func (c *LRRM) MatchC() float64 { return c.matchC }
