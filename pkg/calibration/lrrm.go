package calibration

import (
	"github.com/sirupsen/logrus"

	"github.com/charlie0129/vnacal/pkg/config"
	"github.com/charlie0129/vnacal/pkg/netcal"
	"github.com/charlie0129/vnacal/pkg/network"
	"github.com/charlie0129/vnacal/pkg/standard"
	"github.com/charlie0129/vnacal/pkg/utils/ptr"
)

// MethodLRRM is the line-reflect-reflect-match method.
const MethodLRRM = "sk_lrrm"

// Solved parameter destination keys.
const (
	ParamSolvedL  = "solved_l"
	ParamSolvedC  = "solved_c"
	ParamSolvedM  = "solved_m"
	ParamSolvedR1 = "solved_r1"
	ParamSolvedR2 = "solved_r2"
)

// LRRM settings.
const (
	SettingMatchFit  = "match_fit"
	SettingMatchPort = "match_port"
)

var lrrmSettings = []config.SettingSpec{
	{Key: SettingMatchFit, Type: config.SettingEnum, Allowed: []string{
		string(netcal.MatchFitL), string(netcal.MatchFitLC), string(netcal.MatchFitNone),
	}},
	// accepted for compatibility, the match is always measured on both ports
	{Key: SettingMatchPort, Type: config.SettingInt, Default: ptr.To("1")},
}

// LRRM calibrates two ports from thru, open, short and load, using the
// thru's switch terms.
type LRRM struct {
	core
	cal *netcal.LRRM
}

// NewLRRM declares Thru, Open, Short and Load plus the thru switch term and
// validates them.
func NewLRRM(in Inputs) *LRRM {
	m := &LRRM{core: newCore(MethodLRRM, in)}
	kinds := []standard.Kind{standard.Thru, standard.Open, standard.Short, standard.Load}
	m.declare(standardsValidator{required: kinds, model: kinds, switchKind: standard.Thru})
	return m
}

// Run reads match_fit (l, lc or none) and solves the calibration.
func (m *LRRM) Run(settings config.Settings) error {
	if err := m.runnable(); err != nil {
		return err
	}
	r, err := settings.Resolve(lrrmSettings...)
	if err != nil {
		return err
	}
	fit := netcal.MatchFit(r.String(SettingMatchFit))
	logrus.WithFields(logrus.Fields{
		"method":    m.name,
		"matchFit":  fit,
		"matchPort": r.Int(SettingMatchPort),
	}).Debug("LRRM settings")

	measured, model, err := loadPairs(m.in, m.validator.required)
	if err != nil {
		return m.algorithmError(err)
	}
	sw, err := loadSwitchTerms(m.in.MeasuredSwitch, m.validator.switchKind)
	if err != nil {
		return m.algorithmError(err)
	}
	cal, err := netcal.NewLRRM(model, measured, sw, fit)
	if err != nil {
		return m.algorithmError(err)
	}
	if err := cal.Run(); err != nil {
		return m.algorithmError(err)
	}
	m.cal = cal
	m.setPhase(PhaseSolved)
	return nil
}

// SaveErrorTerms writes the 12 error terms.
func (m *LRRM) SaveErrorTerms(dst config.ErrorTermFiles) (*Report, error) {
	if err := m.published(); err != nil {
		return nil, err
	}
	r := publishErrorTerms(m.name, m.cal.Coefs(), standard.ErrorTermFromLabel, dst)
	m.setPhase(PhasePublished)
	return r, nil
}

// SaveSolvedParameters writes the solved open capacitance, short
// inductance, match network and match resistances. Unknown keys are skipped.
func (m *LRRM) SaveSolvedParameters(dst config.ParameterFiles) (*Report, error) {
	if err := m.published(); err != nil {
		return nil, err
	}
	results, err := m.solvedParameters()
	if err != nil {
		return nil, err
	}
	r := publishNamed(m.name, results, dst)
	m.setPhase(PhasePublished)
	return r, nil
}

func (m *LRRM) solvedParameters() (resultSet, error) {
	freqs := m.cal.SolvedM().Freqs
	l, err := network.NewOnePortReal(ParamSolvedL, freqs, m.cal.SolvedL())
	if err != nil {
		return nil, err
	}
	c, err := network.NewOnePortReal(ParamSolvedC, freqs, m.cal.SolvedC())
	if err != nil {
		return nil, err
	}
	return resultSet{
		ParamSolvedL:  l,
		ParamSolvedC:  c,
		ParamSolvedM:  m.cal.SolvedM(),
		ParamSolvedR1: m.cal.SolvedR1(),
		ParamSolvedR2: m.cal.SolvedR2(),
	}, nil
}
