package calibration

import (
	"github.com/charlie0129/vnacal/pkg/config"
	"github.com/charlie0129/vnacal/pkg/standard"
)

// standardsValidator checks the files a method needs before it runs.
type standardsValidator struct {
	// required standards, in the method's fixed order
	required []standard.Kind
	// model lists the kinds that also need a model file
	model []standard.Kind
	// switchKind is the standard whose switch-term file is needed, Unknown
	// for methods without switch terms
	switchKind standard.Kind
	// problem is a structural failure found while declaring standards
	problem *ValidationError
}

// check returns the first missing file. Measured and model files are checked
// per standard, in order, then the switch-term file.
func (v standardsValidator) check(in Inputs) *ValidationError {
	if v.problem != nil {
		return v.problem
	}
	needModel := make(map[standard.Kind]bool, len(v.model))
	for _, k := range v.model {
		needModel[k] = true
	}
	for _, k := range v.required {
		if !exists(in.Measured, k) {
			return &ValidationError{Kind: k, Side: SideMeasured}
		}
		if needModel[k] && !exists(in.Model, k) {
			return &ValidationError{Kind: k, Side: SideModel}
		}
	}
	if v.switchKind != standard.Unknown && !exists(in.MeasuredSwitch, v.switchKind) {
		return &ValidationError{Kind: v.switchKind, Side: SideSwitch}
	}
	return nil
}

func exists(files config.StandardFiles, k standard.Kind) bool {
	path, _ := files.Get(k)
	return fileExists(path)
}
