package calibration

import (
	"github.com/charlie0129/vnacal/pkg/config"
	"github.com/charlie0129/vnacal/pkg/netcal"
	"github.com/charlie0129/vnacal/pkg/standard"
)

// MethodSOLT is the two-port short-open-load-thru method.
const MethodSOLT = "sk_solt"

// SOLT calibrates two ports from short, open, load and a known thru.
type SOLT struct {
	core
	coefs resultSet
}

// NewSOLT declares Short, Open, Load and Thru and validates them.
func NewSOLT(in Inputs) *SOLT {
	m := &SOLT{core: newCore(MethodSOLT, in)}
	kinds := []standard.Kind{standard.Short, standard.Open, standard.Load, standard.Thru}
	m.declare(standardsValidator{required: kinds, model: kinds})
	return m
}

// Run solves the 12-term model. The method takes no settings.
func (m *SOLT) Run(_ config.Settings) error {
	if err := m.runnable(); err != nil {
		return err
	}
	measured, model, err := loadPairs(m.in, m.validator.required)
	if err != nil {
		return m.algorithmError(err)
	}
	cal, err := netcal.NewSOLT(model, measured)
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

// SaveErrorTerms writes the 12 error terms.
func (m *SOLT) SaveErrorTerms(dst config.ErrorTermFiles) (*Report, error) {
	if err := m.published(); err != nil {
		return nil, err
	}
	r := publishErrorTerms(m.name, m.coefs, standard.ErrorTermFromLabel, dst)
	m.setPhase(PhasePublished)
	return r, nil
}
