package calibration

import (
	"fmt"
	"path/filepath"

	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/charlie0129/vnacal/pkg/config"
	"github.com/charlie0129/vnacal/pkg/netcal"
	"github.com/charlie0129/vnacal/pkg/network"
	"github.com/charlie0129/vnacal/pkg/standard"
	"github.com/charlie0129/vnacal/pkg/utils/ptr"
)

// MethodMTRL is the multiline TRL method.
const MethodMTRL = "umtrl"

// Multiline TRL settings. Line lengths and the reflect offset are read from
// keys derived from the measurement file names, see LengthKey and OffsetKey.
const (
	SettingReflectEst = "reflect_est"
	SettingEreffEst   = "ereff_est"
	SettingRefPlane   = "ref_plane"
)

// Auxiliary outputs written next to the forward directivity file.
const (
	GammaFile = "gamma.s1p"
	EreffFile = "ereff.s1p"
)

var mtrlSettings = []config.SettingSpec{
	{Key: SettingReflectEst, Type: config.SettingInt},
	{Key: SettingEreffEst, Type: config.SettingComplex},
	{Key: SettingRefPlane, Type: config.SettingFloat, Default: ptr.To("0")},
}

// LengthKey is the setting holding the length, in metres, of the line
// measured in path.
func LengthKey(path string) string { return "length_" + fileStem(path) }

// OffsetKey is the setting holding the offset, in metres, of the reflect
// measured in path.
func OffsetKey(path string) string { return "offset_" + fileStem(path) }

// MultilineTRL calibrates two ports from a thru, one or more lines and one
// reflect. Its standards come from what was measured: the first thru, every
// line and the single open or short.
type MultilineTRL struct {
	core
	thru    standard.Kind
	lines   []standard.Kind
	reflect standard.Kind
	cal     *netcal.MultilineTRL
}

// NewMultilineTRL derives the standards from in.Measured and validates them.
func NewMultilineTRL(in Inputs) *MultilineTRL {
	m := &MultilineTRL{core: newCore(MethodMTRL, in)}
	m.declare(m.declareStandards())
	return m
}

func (m *MultilineTRL) declareStandards() standardsValidator {
	var reflects []standard.Kind
	for _, k := range m.in.Measured.Keys() {
		switch {
		case standard.IsThru(k):
			if m.thru == standard.Unknown {
				m.thru = k
				continue
			}
			logrus.WithFields(logrus.Fields{"method": m.name, "standard": k, "thru": m.thru}).
				Info("ignoring additional thru")
		case standard.IsLine(k):
			m.lines = append(m.lines, k)
		case standard.IsReflect(k):
			reflects = append(reflects, k)
		default:
			logrus.WithFields(logrus.Fields{"method": m.name, "standard": k}).
				Debug("standard not used by multiline TRL")
		}
	}

	v := standardsValidator{switchKind: m.thru}
	if m.thru != standard.Unknown {
		v.required = append(v.required, m.thru)
	}
	v.required = append(v.required, m.lines...)
	v.required = append(v.required, reflects...)
	if len(reflects) == 1 {
		m.reflect = reflects[0]
		if m.in.Model.Has(m.reflect) {
			v.model = []standard.Kind{m.reflect}
		}
	}

	switch {
	case m.thru == standard.Unknown:
		v.problem = &ValidationError{Kind: standard.Thru, Side: SideMeasured}
	case len(m.lines) == 0:
		v.problem = &ValidationError{Kind: standard.Line1, Side: SideMeasured,
			Msg: "multiline TRL needs at least one line standard"}
	case len(reflects) != 1:
		v.problem = &ValidationError{Kind: standard.Unknown, Side: SideMeasured,
			Msg: fmt.Sprintf("multiline TRL needs exactly one reflect standard, got %d", len(reflects))}
	}
	return v
}

func (m *MultilineTRL) path(k standard.Kind) string {
	p, _ := m.in.Measured.Get(k)
	return p
}

// settingSpecs adds the per-file length and offset keys. The thru length
// defaults to zero; every other line needs an explicit length.
func (m *MultilineTRL) settingSpecs() []config.SettingSpec {
	specs := append([]config.SettingSpec{}, mtrlSettings...)
	specs = append(specs, config.SettingSpec{Key: LengthKey(m.path(m.thru)), Type: config.SettingFloat, Default: ptr.To("0")})
	for _, k := range m.lines {
		specs = append(specs, config.SettingSpec{Key: LengthKey(m.path(k)), Type: config.SettingFloat})
	}
	specs = append(specs, config.SettingSpec{Key: OffsetKey(m.path(m.reflect)), Type: config.SettingFloat, Default: ptr.To("0")})
	return specs
}

// Run solves the calibration, then shifts the reference planes by
// ref_plane metres.
func (m *MultilineTRL) Run(settings config.Settings) error {
	if err := m.runnable(); err != nil {
		return err
	}
	r, err := settings.Resolve(m.settingSpecs()...)
	if err != nil {
		return err
	}

	lineKinds := append([]standard.Kind{m.thru}, m.lines...)
	lengths := make([]float64, len(lineKinds))
	for i, k := range lineKinds {
		lengths[i] = r.Float(LengthKey(m.path(k)))
	}
	opts := netcal.MultilineTRLOptions{
		LineLengths:   lengths,
		ReflectEst:    r.Int(SettingReflectEst),
		ReflectOffset: r.Float(OffsetKey(m.path(m.reflect))),
		EreffEst:      r.Complex(SettingEreffEst),
	}
	logrus.WithFields(logrus.Fields{
		"method":        m.name,
		"lines":         lineKinds,
		"lengths":       lengths,
		"reflect":       m.reflect,
		"reflectEst":    opts.ReflectEst,
		"reflectOffset": opts.ReflectOffset,
		"ereffEst":      opts.EreffEst,
	}).Debug("multiline TRL settings")

	lines, err := load(m.in.Measured, lineKinds)
	if err != nil {
		return m.algorithmError(err)
	}
	reflect, err := load(m.in.Measured, []standard.Kind{m.reflect})
	if err != nil {
		return m.algorithmError(err)
	}
	if opts.SwitchTerms, err = loadSwitchTerms(m.in.MeasuredSwitch, m.thru); err != nil {
		return m.algorithmError(err)
	}

	cal, err := netcal.NewMultilineTRL(lines, reflect[0], opts)
	if err != nil {
		return m.algorithmError(err)
	}
	if err := cal.Run(); err != nil {
		return m.algorithmError(err)
	}
	if err := cal.ShiftPlane(r.Float(SettingRefPlane)); err != nil {
		return m.algorithmError(err)
	}
	if _, err := cal.ErrorCoef(); err != nil {
		return m.algorithmError(err)
	}
	m.cal = cal
	m.setPhase(PhaseSolved)
	return nil
}

// SaveErrorTerms writes gamma and ereff next to the forward directivity
// destination, then the 12 error terms. The switch terms are not published.
func (m *MultilineTRL) SaveErrorTerms(dst config.ErrorTermFiles) (*Report, error) {
	if err := m.published(); err != nil {
		return nil, err
	}

	report := m.saveAuxiliary(dst)

	results := resultSet{}
	for key, n := range m.cal.Coefs() {
		if key == netcal.CoefForwardSwitch || key == netcal.CoefReverseSwitch {
			logrus.WithFields(logrus.Fields{"method": m.name, "key": key}).Debug("switch term is not an error term, dropping")
			continue
		}
		results[key] = n
	}
	report.merge(publishErrorTerms(m.name, results, standard.ErrorTermFromCode, dst))
	m.setPhase(PhasePublished)
	return report, nil
}

// auxDir is the directory of the FwdEd destination, or of the first
// destination when FwdEd has none.
func auxDir(dst config.ErrorTermFiles) (string, bool) {
	path, ok := dst.Get(standard.FwdEd)
	if !ok {
		keys := dst.Keys()
		if len(keys) == 0 {
			return "", false
		}
		path, _ = dst.Get(keys[0])
	}
	dir, _ := splitPath(path)
	return dir, true
}

func (m *MultilineTRL) saveAuxiliary(dst config.ErrorTermFiles) *Report {
	report := &Report{}
	dir, ok := auxDir(dst)
	if !ok {
		for _, key := range []string{"gamma", "ereff"} {
			w := &PublishWarning{Key: key, Err: pkgerrors.New("no error term destination to write next to")}
			logrus.WithField("method", m.name).Warn(w.Error())
			report.Warnings = append(report.Warnings, w)
		}
		return report
	}

	freqs := m.cal.Freqs()
	for _, aux := range []struct {
		key, file string
		values    []complex128
	}{
		{"gamma", GammaFile, m.cal.Gamma()},
		{"ereff", EreffFile, m.cal.Ereff()},
	} {
		n, err := network.NewOnePort(aux.key, freqs, aux.values)
		if err != nil {
			report.Warnings = append(report.Warnings, &PublishWarning{Key: aux.key, Err: err})
			continue
		}
		path := filepath.Join(dir, aux.file)
		if w := writeOne(report, aux.key, standard.UnknownErrorTerm, path, n); w != nil {
			logrus.WithFields(logrus.Fields{"method": m.name, "path": path}).Warn(w.Error())
		}
	}
	return report
}
