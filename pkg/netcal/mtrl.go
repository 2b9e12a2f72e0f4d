package netcal

import (
	"math"
	"math/cmplx"

	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/charlie0129/vnacal/pkg/network"
)

// SpeedOfLight in vacuum, m/s.
const SpeedOfLight = 299792458.0

// Switch term coefficient names reported by MultilineTRL.
const (
	CoefForwardSwitch = "GF"
	CoefReverseSwitch = "GR"
)

// MultilineTRLOptions configures a multiline TRL calibration.
type MultilineTRLOptions struct {
	// LineLengths are the physical lengths of the lines in metres, in the
	// same order as the lines. The first line is the thru.
	LineLengths []float64
	// ReflectEst is the expected sign of the reflect, 1 for an open and -1
	// for a short.
	ReflectEst int
	// ReflectOffset is the offset of the reflect from the thru center, in
	// metres.
	ReflectOffset float64
	// EreffEst is the estimated effective permittivity of the lines.
	EreffEst complex128
	// SwitchTerms holds the forward and reverse switch terms; empty means
	// none.
	SwitchTerms []*network.Network
}

// MultilineTRL is the thru-reflect-line calibration over several lines. At
// every frequency it uses the line pair with the best phase separation. The
// reference planes sit at the center of the thru.
type MultilineTRL struct {
	lines   []*network.Network
	reflect *network.Network
	opts    MultilineTRLOptions
	gf, gr  []complex128

	boxes []lrmBox
	gamma []complex128
	coefs map[string]*network.Network
}

// NewMultilineTRL creates a multiline TRL calibration from the measured
// lines, thru first, and the measured reflect.
func NewMultilineTRL(lines []*network.Network, reflect *network.Network, opts MultilineTRLOptions) (*MultilineTRL, error) {
	if len(lines) < 2 {
		return nil, pkgerrors.Errorf("multiline TRL needs a thru and at least one line, got %d networks", len(lines))
	}
	if len(opts.LineLengths) != len(lines) {
		return nil, pkgerrors.Errorf("got %d lines but %d line lengths", len(lines), len(opts.LineLengths))
	}
	if reflect == nil {
		return nil, pkgerrors.New("multiline TRL needs a reflect")
	}
	if opts.ReflectEst == 0 {
		return nil, pkgerrors.New("reflect estimate must be non-zero")
	}
	if opts.EreffEst == 0 {
		return nil, pkgerrors.New("ereff estimate must be non-zero")
	}
	all := append(append([]*network.Network{}, lines...), reflect)
	for _, n := range all {
		if n.Ports != 2 {
			return nil, pkgerrors.Errorf("measured %s has %d ports, multiline TRL needs two-ports", n.Name, n.Ports)
		}
	}
	for _, n := range opts.SwitchTerms {
		if n != nil {
			all = append(all, n)
		}
	}
	if err := network.CheckFrequency(all...); err != nil {
		return nil, err
	}
	for _, f := range lines[0].Freqs {
		if f <= 0 {
			return nil, pkgerrors.Errorf("multiline TRL cannot solve at %g Hz", f)
		}
	}

	c := &MultilineTRL{lines: lines, reflect: reflect, opts: opts}
	c.gf, c.gr = splitSwitchTerms(lines[0].Len(), opts.SwitchTerms)
	return c, nil
}

// bestLine picks the line whose phase difference to the thru is furthest
// from a multiple of pi.
func (c *MultilineTRL) bestLine(beta float64) (int, error) {
	best, score := -1, -1.0
	l0 := c.opts.LineLengths[0]
	for i := 1; i < len(c.lines); i++ {
		dl := c.opts.LineLengths[i] - l0
		if dl == 0 {
			continue
		}
		if s := math.Abs(math.Sin(beta * dl)); s > score {
			best, score = i, s
		}
	}
	if best < 0 {
		return 0, pkgerrors.New("every line has the thru's length")
	}
	return best, nil
}

// eigenBox returns (directivity, directivity - tracking/match) of the port
// whose error box leads the cascade, plus the propagation constant.
func eigenBox(thru, line m2, dl float64, gammaEst complex128) (complex128, complex128, complex128, error) {
	tt, ok1 := s2t(thru)
	tl, ok2 := s2t(line)
	if !ok1 || !ok2 {
		return 0, 0, 0, pkgerrors.Wrap(ErrSingular, "line without transmission")
	}
	ti, ok := tt.inv()
	if !ok {
		return 0, 0, 0, pkgerrors.Wrap(ErrSingular, "thru T matrix")
	}
	lam, vec := tl.mul(ti).eig()

	var gam [2]complex128
	var dist [2]float64
	for k, l := range lam {
		if l == 0 {
			dist[k] = math.Inf(1)
			continue
		}
		g := -cmplx.Log(l) / complex(dl, 0)
		n := math.Round((imag(gammaEst) - imag(g)) * dl / (2 * math.Pi))
		g += complex(0, 2*math.Pi*n/dl)
		gam[k], dist[k] = g, cmplx.Abs(g-gammaEst)
	}
	fwd, bwd := 0, 1
	if dist[1] < dist[0] {
		fwd, bwd = 1, 0
	}
	if vec[fwd][1] == 0 || vec[bwd][1] == 0 {
		return 0, 0, 0, pkgerrors.Wrap(ErrSingular, "degenerate eigenvectors")
	}
	ed := vec[bwd][0] / vec[bwd][1]
	a := vec[fwd][0] / vec[fwd][1]
	return ed, a, gam[fwd], nil
}

// Run solves the error boxes and the propagation constant.
func (c *MultilineTRL) Run() error {
	freqs := c.lines[0].Freqs
	c.boxes = make([]lrmBox, len(freqs))
	c.gamma = make([]complex128, len(freqs))
	c.coefs = nil

	sqrtEr := cmplx.Sqrt(c.opts.EreffEst)
	for f, freq := range freqs {
		w := 2 * math.Pi * freq
		gammaEst := complex(0, w) * sqrtEr / SpeedOfLight

		corr := func(n *network.Network) m2 {
			return correctSwitch(sAt(n.S[f]), c.gf[f], c.gr[f])
		}
		i, err := c.bestLine(imag(gammaEst))
		if err != nil {
			return err
		}
		dl := c.opts.LineLengths[i] - c.opts.LineLengths[0]
		thru, line := corr(c.lines[0]), corr(c.lines[i])

		e00, a1, gamma, err := eigenBox(thru, line, dl, gammaEst)
		if err != nil {
			return pkgerrors.Wrapf(err, "port 1 at %g Hz", freq)
		}
		e33, a2, _, err := eigenBox(flip(thru), flip(line), dl, gammaEst)
		if err != nil {
			return pkgerrors.Wrapf(err, "port 2 at %g Hz", freq)
		}

		s11, s12, s21 := thru[0][0], thru[0][1], thru[1][0]
		p := (s11 - e00) / (s11 - a1)
		r := corr(c.reflect)
		w1 := (r[0][0] - e00) / (r[0][0] - a1)
		w2 := (r[1][1] - e33) / (r[1][1] - a2)
		if w2 == 0 {
			return pkgerrors.Wrapf(ErrSingular, "reflect at %g Hz", freq)
		}
		e11 := cmplx.Sqrt(p * w1 / w2)
		if e11 == 0 {
			return pkgerrors.Wrapf(ErrSingular, "reflect at %g Hz", freq)
		}
		est := complex(float64(c.opts.ReflectEst), 0) * cmplx.Exp(-2*gamma*complex(c.opts.ReflectOffset, 0))
		if cmplx.Abs(-w1/e11-est) < cmplx.Abs(w1/e11-est) {
			e11 = -e11
		}
		e22 := p / e11

		c.gamma[f] = gamma
		c.boxes[f] = lrmBox{
			ed1: e00, es1: e11, er1: (e00 - a1) * e11,
			ed2: e33, es2: e22, er2: (e33 - a2) * e22,
			tf: s21 * (1 - p), tr: s12 * (1 - p),
			refl: w1 / e11,
		}
	}

	logrus.WithFields(logrus.Fields{
		"lines":  len(c.lines),
		"points": len(freqs),
	}).Debug("multiline TRL solved")
	return nil
}

// ShiftPlane moves both reference planes by d metres along the line, away
// from the ports for positive d.
func (c *MultilineTRL) ShiftPlane(d float64) error {
	if c.boxes == nil {
		return ErrNotRun
	}
	for f := range c.boxes {
		k := cmplx.Exp(-2 * c.gamma[f] * complex(d, 0))
		b := &c.boxes[f]
		b.es1 *= k
		b.er1 *= k
		b.es2 *= k
		b.er2 *= k
		b.tf *= k
		b.tr *= k
	}
	c.coefs = nil
	return nil
}

// ErrorCoef builds the 12-term coefficients and the switch terms from the
// solved error boxes.
func (c *MultilineTRL) ErrorCoef() (map[string]*network.Network, error) {
	if c.boxes == nil {
		return nil, ErrNotRun
	}
	n := len(c.boxes)
	tt := twelveTerm{gf: c.gf, gr: c.gr}
	for _, v := range []*[]complex128{&tt.ed1, &tt.es1, &tt.er1, &tt.ed2, &tt.es2, &tt.er2, &tt.tf, &tt.tr} {
		*v = make([]complex128, n)
	}
	for f, b := range c.boxes {
		tt.ed1[f], tt.es1[f], tt.er1[f] = b.ed1, b.es1, b.er1
		tt.ed2[f], tt.es2[f], tt.er2[f] = b.ed2, b.es2, b.er2
		tt.tf[f], tt.tr[f] = b.tf, b.tr
	}
	terms := tt.coefs()
	terms[CoefForwardSwitch] = c.gf
	terms[CoefReverseSwitch] = c.gr

	coefs, err := coefNetworks(c.lines[0].Freqs, terms)
	if err != nil {
		return nil, err
	}
	c.coefs = coefs
	return coefs, nil
}

// Coefs returns the coefficients of the last ErrorCoef call.
func (c *MultilineTRL) Coefs() map[string]*network.Network { return c.coefs }

// Gamma returns the solved propagation constant per frequency.
func (c *MultilineTRL) Gamma() []complex128 { return c.gamma }

// Ereff returns the effective permittivity derived from Gamma.
func (c *MultilineTRL) Ereff() []complex128 {
	out := make([]complex128, len(c.gamma))
	for f, g := range c.gamma {
		w := 2 * math.Pi * c.lines[0].Freqs[f]
		x := g * SpeedOfLight / complex(w, 0)
		out[f] = -x * x
	}
	return out
}

// Freqs returns the frequency grid of the calibration.
func (c *MultilineTRL) Freqs() []float64 { return c.lines[0].Freqs }
