package netcal

import (
	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/charlie0129/vnacal/pkg/network"
)

// One-port coefficient names.
const (
	CoefDirectivity        = "directivity"
	CoefSourceMatch        = "source match"
	CoefReflectionTracking = "reflection tracking"
)

// OnePort is the three-term one-port calibration solved in the least squares
// sense from three or more known reflect standards.
type OnePort struct {
	ideals   []*network.Network
	measured []*network.Network

	coefs map[string]*network.Network
}

// NewOnePort creates a one-port calibration. ideals and measured are paired
// by position; only port 1 of each network is used.
func NewOnePort(ideals, measured []*network.Network) (*OnePort, error) {
	if len(ideals) != len(measured) {
		return nil, pkgerrors.Errorf("got %d ideals but %d measurements", len(ideals), len(measured))
	}
	if len(ideals) < 3 {
		return nil, pkgerrors.Errorf("one-port calibration needs at least 3 standards, got %d", len(ideals))
	}
	all := append(append([]*network.Network{}, ideals...), measured...)
	if err := network.CheckFrequency(all...); err != nil {
		return nil, err
	}
	return &OnePort{ideals: ideals, measured: measured}, nil
}

// Run solves the error terms at every frequency.
func (c *OnePort) Run() error {
	ideal, err := reflections(c.ideals, 0)
	if err != nil {
		return err
	}
	meas, err := reflections(c.measured, 0)
	if err != nil {
		return err
	}

	ed, es, er, err := solveOnePort(c.measured[0].Freqs, ideal, meas)
	if err != nil {
		return err
	}

	freqs := c.measured[0].Freqs
	c.coefs = map[string]*network.Network{}
	for name, v := range map[string][]complex128{
		CoefDirectivity:        ed,
		CoefSourceMatch:        es,
		CoefReflectionTracking: er,
	} {
		n, err := network.NewOnePort(name, freqs, v)
		if err != nil {
			return err
		}
		c.coefs[name] = n
	}

	logrus.WithFields(logrus.Fields{
		"standards": len(c.ideals),
		"points":    len(freqs),
	}).Debug("one-port calibration solved")
	return nil
}

// Coefs returns the solved coefficients keyed by name. It is nil before Run.
func (c *OnePort) Coefs() map[string]*network.Network {
	return c.coefs
}

// reflections collects port p's reflection of every network, indexed
// [standard][frequency].
func reflections(ns []*network.Network, p int) ([][]complex128, error) {
	out := make([][]complex128, len(ns))
	for i, n := range ns {
		r, err := n.Reflection(p)
		if err != nil {
			return nil, pkgerrors.Wrapf(err, "standard %d (%s)", i, n.Name)
		}
		out[i] = r
	}
	return out, nil
}

// solveOnePort returns directivity, source match and reflection tracking.
//
// Per frequency it solves m = e00 + g*d + g*m*e11 for x = (e00, d, e11),
// where d = e10e01 - e00*e11.
func solveOnePort(freqs []float64, ideal, meas [][]complex128) (ed, es, er []complex128, err error) {
	ed = make([]complex128, len(freqs))
	es = make([]complex128, len(freqs))
	er = make([]complex128, len(freqs))

	a := make([][]complex128, len(ideal))
	b := make([]complex128, len(ideal))
	for f := range freqs {
		for k := range ideal {
			g, m := ideal[k][f], meas[k][f]
			a[k] = []complex128{1, g, g * m}
			b[k] = m
		}
		x, err := solveComplex(a, b)
		if err != nil {
			return nil, nil, nil, pkgerrors.Wrapf(err, "at %g Hz", freqs[f])
		}
		ed[f] = x[0]
		es[f] = x[2]
		er[f] = x[1] + x[0]*x[2]
	}
	return ed, es, er, nil
}
