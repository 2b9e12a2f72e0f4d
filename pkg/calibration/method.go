package calibration

import (
	"os"
	"slices"

	"github.com/sirupsen/logrus"

	"github.com/charlie0129/vnacal/pkg/config"
	"github.com/charlie0129/vnacal/pkg/network"
	"github.com/charlie0129/vnacal/pkg/standard"
	"github.com/charlie0129/vnacal/pkg/touchstone"
)

// Method is a calibration strategy.
//
// A method declares its standards and validates once when constructed.
// Validate may be called again and gives the same answer for the same files.
// Run refuses to start unless the last validation passed.
type Method interface {
	Name() string
	Standards() []standard.Kind
	Phase() Phase
	Validate() (bool, string)
	Run(settings config.Settings) error
	SaveErrorTerms(dst config.ErrorTermFiles) (*Report, error)
}

// ParameterSaver is implemented by methods that also solve equivalent
// circuit parameters.
type ParameterSaver interface {
	SaveSolvedParameters(dst config.ParameterFiles) (*Report, error)
}

// Factory constructs a method from its inputs.
type Factory func(in Inputs) Method

var (
	readNetwork  = touchstone.ReadFile
	writeNetwork = touchstone.WriteFile
	fileExists   = func(path string) bool {
		if path == "" {
			return false
		}
		info, err := os.Stat(path)
		return err == nil && !info.IsDir()
	}
)

// core carries the state shared by every variant.
type core struct {
	name      string
	in        Inputs
	validator standardsValidator

	phase Phase
	ok    bool
	msg   string
	err   *ValidationError
}

func newCore(name string, in Inputs) core {
	return core{name: name, in: in, phase: PhaseConstructed}
}

// declare stores the required standards and validates them once.
func (c *core) declare(v standardsValidator) {
	c.validator = v
	c.setPhase(PhaseStandardsDeclared)
	c.Validate()
}

func (c *core) Name() string { return c.name }

func (c *core) Phase() Phase { return c.phase }

func (c *core) Standards() []standard.Kind {
	return slices.Clone(c.validator.required)
}

// Validate checks that every required file exists.
func (c *core) Validate() (bool, string) {
	c.err = c.validator.check(c.in)
	if c.err != nil {
		c.ok, c.msg = false, c.err.Error()
		logrus.WithFields(logrus.Fields{
			"method":   c.name,
			"standard": c.err.Kind,
			"side":     c.err.Side,
		}).Warn(c.msg)
		c.setPhase(PhaseRejected)
		return c.ok, c.msg
	}
	c.ok, c.msg = true, ""
	if c.phase == PhaseStandardsDeclared || c.phase == PhaseRejected {
		c.setPhase(PhaseValidated)
	}
	return c.ok, c.msg
}

// runnable returns the cached validation failure, if any.
func (c *core) runnable() error {
	if !c.ok {
		return c.err
	}
	return nil
}

func (c *core) rejection() *ValidationError { return c.err }

// Rejection turns a failed validation of m into a *ValidationError. It
// returns nil if msg is empty and m carries no cached failure.
func Rejection(m Method, msg string) error {
	if r, ok := m.(interface{ rejection() *ValidationError }); ok {
		if err := r.rejection(); err != nil {
			return err
		}
	}
	if msg == "" {
		return nil
	}
	return &ValidationError{Msg: msg}
}

func (c *core) published() error {
	if c.phase != PhaseSolved && c.phase != PhasePublished {
		return ErrNotRun
	}
	return nil
}

func (c *core) setPhase(p Phase) {
	if c.phase == p {
		return
	}
	logrus.WithFields(logrus.Fields{
		"method": c.name,
		"from":   c.phase,
		"to":     p,
	}).Debug("method phase changed")
	c.phase = p
}

func (c *core) algorithmError(err error) error {
	return &AlgorithmError{Method: c.name, Err: err}
}

// resultSet is an algorithm's native output keyed by its own vocabulary.
type resultSet = map[string]*network.Network

// loadPairs reads the measured and model files of kinds, in order.
func loadPairs(in Inputs, kinds []standard.Kind) (measured, model []*network.Network, err error) {
	if measured, err = load(in.Measured, kinds); err != nil {
		return nil, nil, err
	}
	if model, err = load(in.Model, kinds); err != nil {
		return nil, nil, err
	}
	return measured, model, nil
}

// load reads the files of kinds from files, in order.
func load(files config.StandardFiles, kinds []standard.Kind) ([]*network.Network, error) {
	out := make([]*network.Network, 0, len(kinds))
	for _, k := range kinds {
		path, _ := files.Get(k)
		n, err := readNetwork(path)
		if err != nil {
			return nil, err
		}
		logrus.WithFields(logrus.Fields{
			"standard": k,
			"path":     path,
			"ports":    n.Ports,
			"points":   n.Len(),
		}).Debug("loaded standard")
		out = append(out, n)
	}
	return out, nil
}

// loadSwitchTerms reads the switch-term file of kind and splits it into the
// forward (S21) and reverse (S12) terms.
func loadSwitchTerms(files config.StandardFiles, kind standard.Kind) ([]*network.Network, error) {
	ns, err := load(files, []standard.Kind{kind})
	if err != nil {
		return nil, err
	}
	sw := ns[0]
	if sw.Ports != 2 {
		return nil, &ValidationError{Kind: kind, Side: SideSwitch, Msg: "switch term file must be a two-port"}
	}
	return []*network.Network{sw.S21(), sw.S12()}, nil
}
