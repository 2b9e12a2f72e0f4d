package netcal

import "errors"

var (
	// ErrNotRun is returned when results are requested before Run succeeded.
	ErrNotRun = errors.New("calibration has not been run")

	// ErrSingular is returned when a frequency point cannot be solved.
	ErrSingular = errors.New("singular calibration system")
)
