package calibration

import (
	"github.com/charlie0129/vnacal/pkg/config"
	"github.com/charlie0129/vnacal/pkg/netcal"
	"github.com/charlie0129/vnacal/pkg/standard"
)

// MethodSOL is the one-port short-open-load method.
const MethodSOL = "sk_sol"

// OnePort calibrates a single port from short, open and load.
type OnePort struct {
	core
	coefs resultSet
}

// NewOnePort declares Short, Open and Load and validates them.
func NewOnePort(in Inputs) *OnePort {
	m := &OnePort{core: newCore(MethodSOL, in)}
	kinds := []standard.Kind{standard.Short, standard.Open, standard.Load}
	m.declare(standardsValidator{required: kinds, model: kinds})
	return m
}

// Run solves the one-port error terms. The method takes no settings.
func (m *OnePort) Run(_ config.Settings) error {
	if err := m.runnable(); err != nil {
		return err
	}
	measured, model, err := loadPairs(m.in, m.validator.required)
	if err != nil {
		return m.algorithmError(err)
	}
	cal, err := netcal.NewOnePort(model, measured)
	if err != nil {
		return m.algorithmError(err)
	}
	if err := cal.Run(); err != nil {
		return m.algorithmError(err)
	}
	m.coefs = cal.Coefs()
	m.setPhase(PhaseSolved)
	return nil
}

// SaveErrorTerms writes directivity, source match and reflection tracking
// as the forward terms.
func (m *OnePort) SaveErrorTerms(dst config.ErrorTermFiles) (*Report, error) {
	if err := m.published(); err != nil {
		return nil, err
	}
	r := publishErrorTerms(m.name, m.coefs, standard.ErrorTermFromLabel, dst)
	m.setPhase(PhasePublished)
	return r, nil
}
