package events

import "encoding/json"

// Event name constants
const (
	CalibrationPhase   = "calibration.phase"
	CalibrationPublish = "calibration.publish"
)

// Event is a named JSON payload.
type Event struct {
	Name string          `json:"name"`
	Data json.RawMessage `json:"data"`
}

// CalibrationPhaseEvent is the typed payload for calibration.phase.
type CalibrationPhaseEvent struct {
	RunID   string `json:"runID"`
	Method  string `json:"method,omitempty"`
	From    string `json:"from"`
	To      string `json:"to"`
	Message string `json:"message,omitempty"`
	Ts      int64  `json:"ts"`
}

// CalibrationPublishEvent is the typed payload for calibration.publish. One is
// sent per result written, or per result that could not be published, in
// which case Warning is set.
type CalibrationPublishEvent struct {
	RunID   string `json:"runID"`
	Method  string `json:"method"`
	Key     string `json:"key"`
	Path    string `json:"path,omitempty"`
	Warning string `json:"warning,omitempty"`
	Ts      int64  `json:"ts"`
}

// DecodeAs decodes the event payload into the caller-specified generic type T.
// It ignores the event name and simply unmarshals Data into T. If Data is empty,
// it returns the zero value of T with a nil error.
//
// Example:
//
//	payload, err := events.DecodeAs[events.CalibrationPhaseEvent](ev)
//	if err != nil { /* handle */ }
//	fmt.Println(payload.From, payload.To)
func DecodeAs[T any](e Event) (T, error) {
	var zero T
	if len(e.Data) == 0 {
		return zero, nil
	}
	var v T
	if err := json.Unmarshal(e.Data, &v); err != nil {
		return zero, err
	}
	return v, nil
}
