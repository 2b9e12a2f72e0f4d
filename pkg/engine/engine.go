// Package engine drives a calibration description through loading, method
// resolution, validation, solving and publishing.
package engine

import (
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/charlie0129/vnacal/pkg/calibration"
	"github.com/charlie0129/vnacal/pkg/config"
	"github.com/charlie0129/vnacal/pkg/events"
	"github.com/charlie0129/vnacal/pkg/metrics"
)

// Stages timed by the engine.
const (
	StageLoad     = "load"
	StageValidate = "validate"
	StageRun      = "run"
	StagePublish  = "publish"
)

// Engine runs calibration descriptions. The zero value is not usable, see New.
type Engine struct {
	registry *Registry
	hub      *events.EventHub
	recorder *metrics.Recorder
	now      func() time.Time
}

type Option func(*Engine)

// WithRegistry replaces the default method registry.
func WithRegistry(r *Registry) Option { return func(e *Engine) { e.registry = r } }

// WithEventHub publishes phase and publish events to h.
func WithEventHub(h *events.EventHub) Option { return func(e *Engine) { e.hub = h } }

// WithRecorder records run metrics into r.
func WithRecorder(r *metrics.Recorder) Option { return func(e *Engine) { e.recorder = r } }

func New(opts ...Option) *Engine {
	e := &Engine{registry: DefaultRegistry(), now: time.Now}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Result describes a finished or failed run.
type Result struct {
	RunID      string
	Method     string
	Phase      calibration.Phase
	ErrorTerms *calibration.Report
	Parameters *calibration.Report
}

// run is the state of one Run call.
type run struct {
	*Engine
	res   *Result
	log   *logrus.Entry
	phase calibration.Phase
}

// Run executes the description at path. Publish warnings do not fail a run;
// they are logged and returned in the result.
func (e *Engine) Run(path string) (*Result, error) {
	r := &run{
		Engine: e,
		res:    &Result{RunID: uuid.New().String()},
		phase:  calibration.PhaseConstructed,
	}
	r.log = logrus.WithFields(logrus.Fields{"runID": r.res.RunID, "path": path})
	r.log.Info("calibration started")

	err := r.execute(path)
	e.recorder.RunFinished(r.res.Method, err, e.now())
	if err != nil {
		r.log.WithError(err).Error("calibration failed")
		return r.res, err
	}
	r.log.Info("calibration finished")
	return r.res, nil
}

func (r *run) execute(path string) error {
	var d *config.Description
	err := r.stage(StageLoad, func() (err error) {
		d, err = config.Load(path)
		return err
	})
	if err != nil {
		return err
	}
	r.log.WithFields(d.LogrusFields()).Info("description loaded")

	name, factory, err := r.registry.Resolve(d.Method())
	if err != nil {
		return err
	}
	r.res.Method = name
	r.log = r.log.WithField("method", name)

	var m calibration.Method
	err = r.stage(StageValidate, func() error {
		m = factory(calibration.InputsFrom(d))
		ok, msg := m.Validate()
		r.observe(m, msg)
		if !ok {
			return calibration.Rejection(m, msg)
		}
		return nil
	})
	if err != nil {
		return err
	}
	r.log.WithField("standards", m.Standards()).Debug("standards validated")

	err = r.stage(StageRun, func() error {
		defer r.observe(m, "")
		return m.Run(d.Settings())
	})
	if err != nil {
		return err
	}

	return r.stage(StagePublish, func() error {
		return r.publish(m, d)
	})
}

func (r *run) publish(m calibration.Method, d *config.Description) error {
	report, err := m.SaveErrorTerms(d.ErrorTerms())
	if err != nil {
		return err
	}
	r.res.ErrorTerms = report
	r.report(report)

	ps, ok := m.(calibration.ParameterSaver)
	if !ok {
		if d.OutputParameters().Len() > 0 {
			r.log.WithField("outputParameters", d.OutputParameters().Keys()).
				Warn("method solves no parameters, ignoring output parameters")
		}
		r.observe(m, "")
		return nil
	}
	report, err = ps.SaveSolvedParameters(d.OutputParameters())
	if err != nil {
		return err
	}
	r.res.Parameters = report
	r.report(report)
	r.observe(m, "")
	return nil
}

// stage times fn.
func (r *run) stage(name string, fn func() error) error {
	start := r.now()
	err := fn()
	r.recorder.ObserveStage(name, r.now().Sub(start))
	return err
}

// observe publishes a phase event if the method moved since the last call.
func (r *run) observe(m calibration.Method, msg string) {
	to := m.Phase()
	r.res.Phase = to
	if to == r.phase {
		return
	}
	r.hub.Publish(events.CalibrationPhase, events.CalibrationPhaseEvent{
		RunID:   r.res.RunID,
		Method:  r.res.Method,
		From:    string(r.phase),
		To:      string(to),
		Message: msg,
		Ts:      r.now().Unix(),
	})
	r.log.WithFields(logrus.Fields{
		"event": events.CalibrationPhase,
		"from":  r.phase,
		"to":    to,
	}).Debug("new event")
	r.phase = to
}

func (r *run) report(report *calibration.Report) {
	for _, o := range report.Written {
		r.hub.Publish(events.CalibrationPublish, events.CalibrationPublishEvent{
			RunID:  r.res.RunID,
			Method: r.res.Method,
			Key:    o.Key,
			Path:   o.Path,
			Ts:     r.now().Unix(),
		})
	}
	for _, w := range report.Warnings {
		r.hub.Publish(events.CalibrationPublish, events.CalibrationPublishEvent{
			RunID:   r.res.RunID,
			Method:  r.res.Method,
			Key:     w.Key,
			Path:    w.Path,
			Warning: w.Err.Error(),
			Ts:      r.now().Unix(),
		})
	}
	r.recorder.Published(r.res.Method, len(report.Written), len(report.Skipped), len(report.Warnings))
	r.log.WithFields(logrus.Fields{
		"written":  len(report.Written),
		"skipped":  len(report.Skipped),
		"warnings": len(report.Warnings),
	}).Info("results published")
}
