package calibration

import (
	"github.com/charlie0129/vnacal/pkg/config"
	"github.com/charlie0129/vnacal/pkg/standard"
)

// Phase defines the life cycle of a calibration method.
type Phase string

const (
	PhaseConstructed       Phase = "Constructed"
	PhaseStandardsDeclared Phase = "StandardsDeclared"
	PhaseValidated         Phase = "Validated"
	PhaseRejected          Phase = "Rejected"
	PhaseSolved            Phase = "Solved"
	PhasePublished         Phase = "Published"
)

// Side tells which input map a required file comes from.
type Side string

const (
	SideMeasured Side = "measured"
	SideModel    Side = "model"
	SideSwitch   Side = "measured switch term"
)

// Inputs are the three standard maps a method is constructed from.
type Inputs struct {
	Measured       config.StandardFiles
	Model          config.StandardFiles
	MeasuredSwitch config.StandardFiles
}

// InputsFrom takes the standard maps of a loaded description.
func InputsFrom(d *config.Description) Inputs {
	return Inputs{
		Measured:       d.Measured(),
		Model:          d.Model(),
		MeasuredSwitch: d.MeasuredSwitch(),
	}
}

// Output is one file written while publishing.
type Output struct {
	Key  string             `json:"key"`
	Term standard.ErrorTerm `json:"-"`
	Path string             `json:"path"`
}

// Report summarizes a publish step. Skipped holds result keys that had no
// destination; they are not failures.
type Report struct {
	Written  []Output
	Skipped  []string
	Warnings []*PublishWarning
}

func (r *Report) merge(o *Report) {
	r.Written = append(r.Written, o.Written...)
	r.Skipped = append(r.Skipped, o.Skipped...)
	r.Warnings = append(r.Warnings, o.Warnings...)
}
