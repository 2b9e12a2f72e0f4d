package netcal

import (
	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/charlie0129/vnacal/pkg/network"
)

// Two-port (12-term) coefficient names.
const (
	CoefForwardDirectivity          = "forward directivity"
	CoefForwardSourceMatch          = "forward source match"
	CoefForwardReflectionTracking   = "forward reflection tracking"
	CoefForwardTransmissionTracking = "forward transmission tracking"
	CoefForwardLoadMatch            = "forward load match"
	CoefForwardIsolation            = "forward isolation"
	CoefReverseDirectivity          = "reverse directivity"
	CoefReverseSourceMatch          = "reverse source match"
	CoefReverseReflectionTracking   = "reverse reflection tracking"
	CoefReverseTransmissionTracking = "reverse transmission tracking"
	CoefReverseLoadMatch            = "reverse load match"
	CoefReverseIsolation            = "reverse isolation"
)

// SOLT is the 12-term two-port calibration from reflect standards measured
// on both ports and one known thru. The thru must be the last network of
// each list. Reflect standards may be one-ports, in which case the same
// reflection is used on both ports.
type SOLT struct {
	ideals   []*network.Network
	measured []*network.Network

	coefs map[string]*network.Network
}

// NewSOLT creates a SOLT calibration.
func NewSOLT(ideals, measured []*network.Network) (*SOLT, error) {
	if len(ideals) != len(measured) {
		return nil, pkgerrors.Errorf("got %d ideals but %d measurements", len(ideals), len(measured))
	}
	if len(ideals) < 4 {
		return nil, pkgerrors.Errorf("SOLT needs at least 3 reflects and a thru, got %d standards", len(ideals))
	}
	last := len(ideals) - 1
	for _, n := range []*network.Network{ideals[last], measured[last]} {
		if n.Ports != 2 {
			return nil, pkgerrors.Errorf("thru %s has %d ports", n.Name, n.Ports)
		}
	}
	all := append(append([]*network.Network{}, ideals...), measured...)
	if err := network.CheckFrequency(all...); err != nil {
		return nil, err
	}
	return &SOLT{ideals: ideals, measured: measured}, nil
}

// Run solves both error boxes and the transmission terms.
func (c *SOLT) Run() error {
	last := len(c.ideals) - 1
	freqs := c.measured[0].Freqs

	terms := make(map[string][]complex128, 12)
	for port, dir := range []string{"forward", "reverse"} {
		ideal, err := reflections(c.ideals[:last], port)
		if err != nil {
			return err
		}
		meas, err := reflections(c.measured[:last], port)
		if err != nil {
			return err
		}
		ed, es, er, err := solveOnePort(freqs, ideal, meas)
		if err != nil {
			return pkgerrors.Wrapf(err, "%s reflect terms", dir)
		}
		terms[dir+" directivity"] = ed
		terms[dir+" source match"] = es
		terms[dir+" reflection tracking"] = er
	}

	thruIdeal, thruMeas := c.ideals[last], c.measured[last]
	for _, dir := range []string{"forward", "reverse"} {
		el := make([]complex128, len(freqs))
		et := make([]complex128, len(freqs))
		ed, es, er := terms[dir+" directivity"], terms[dir+" source match"], terms[dir+" reflection tracking"]
		for f := range freqs {
			t, m := sAt(thruIdeal.S[f]), sAt(thruMeas.S[f])
			if dir == "reverse" {
				t, m = flip(t), flip(m)
			}
			load, track, err := thruTerms(t, m, ed[f], es[f], er[f])
			if err != nil {
				return pkgerrors.Wrapf(err, "%s thru at %g Hz", dir, freqs[f])
			}
			el[f], et[f] = load, track
		}
		terms[dir+" load match"] = el
		terms[dir+" transmission tracking"] = et
		terms[dir+" isolation"] = make([]complex128, len(freqs))
	}

	coefs, err := coefNetworks(freqs, terms)
	if err != nil {
		return err
	}
	c.coefs = coefs

	logrus.WithFields(logrus.Fields{
		"standards": len(c.ideals),
		"points":    len(freqs),
	}).Debug("SOLT calibration solved")
	return nil
}

// Coefs returns the solved coefficients keyed by name. It is nil before Run.
func (c *SOLT) Coefs() map[string]*network.Network {
	return c.coefs
}

// thruTerms derives load match and transmission tracking of one direction
// from a known thru t, its raw measurement m and the driving port's
// one-port terms.
func thruTerms(t, m m2, ed, es, er complex128) (el, et complex128, err error) {
	t11, t12, t21, t22 := t[0][0], t[0][1], t[1][0], t[1][1]
	if t21 == 0 {
		return 0, 0, pkgerrors.Wrap(ErrSingular, "thru has no transmission")
	}
	g1 := unreflect(ed, es, er, m[0][0])
	el = (g1 - t11) / (t12*t21 + t22*(g1-t11))
	d := (1-es*t11)*(1-el*t22) - es*el*t12*t21
	et = m[1][0] * d / t21
	return el, et, nil
}

func flip(s m2) m2 {
	return m2{{s[1][1], s[1][0]}, {s[0][1], s[0][0]}}
}

func coefNetworks(freqs []float64, terms map[string][]complex128) (map[string]*network.Network, error) {
	out := make(map[string]*network.Network, len(terms))
	for name, v := range terms {
		n, err := network.NewOnePort(name, freqs, v)
		if err != nil {
			return nil, err
		}
		out[name] = n
	}
	return out, nil
}

// twelveTerm expands 8-term error boxes plus switch terms into the 12-term
// coefficient set.
type twelveTerm struct {
	// port 1: e00, e11, e10e01
	ed1, es1, er1 []complex128
	// port 2: e33, e22, e23e32
	ed2, es2, er2 []complex128
	// e10e32 and e23e01
	tf, tr []complex128
	gf, gr []complex128
}

func (t twelveTerm) coefs() map[string][]complex128 {
	n := len(t.ed1)
	elf := make([]complex128, n)
	etf := make([]complex128, n)
	elr := make([]complex128, n)
	etr := make([]complex128, n)
	for f := 0; f < n; f++ {
		elf[f] = t.es2[f] + t.er2[f]*t.gf[f]/(1-t.ed2[f]*t.gf[f])
		etf[f] = t.tf[f] / (1 - t.ed2[f]*t.gf[f])
		elr[f] = t.es1[f] + t.er1[f]*t.gr[f]/(1-t.ed1[f]*t.gr[f])
		etr[f] = t.tr[f] / (1 - t.ed1[f]*t.gr[f])
	}
	return map[string][]complex128{
		"EDF": t.ed1, "ESF": t.es1, "ERF": t.er1,
		"EXF": make([]complex128, n), "ELF": elf, "ETF": etf,
		"EDR": t.ed2, "ESR": t.es2, "ERR": t.er2,
		"EXR": make([]complex128, n), "ELR": elr, "ETR": etr,
	}
}

// longNames maps 12-term codes to the spelled-out coefficient names.
var longNames = map[string]string{
	"EDF": CoefForwardDirectivity,
	"ESF": CoefForwardSourceMatch,
	"ERF": CoefForwardReflectionTracking,
	"ETF": CoefForwardTransmissionTracking,
	"ELF": CoefForwardLoadMatch,
	"EXF": CoefForwardIsolation,
	"EDR": CoefReverseDirectivity,
	"ESR": CoefReverseSourceMatch,
	"ERR": CoefReverseReflectionTracking,
	"ETR": CoefReverseTransmissionTracking,
	"ELR": CoefReverseLoadMatch,
	"EXR": CoefReverseIsolation,
}
