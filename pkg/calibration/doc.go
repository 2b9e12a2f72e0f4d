// Package calibration defines the calibration method contract and its four
// variants. It contains:
//
//   - Method: the strategy every variant satisfies (declare standards,
//     validate inputs, run the solver, publish error terms)
//   - Phase: the discrete steps of a method's life cycle
//   - Report: what a publish step wrote, skipped or failed to write
//   - the error taxonomy surfaced to the process boundary
//
// Variants share a standardsValidator for file checks and a publisher that
// maps each algorithm's native result keys onto standard.ErrorTerm.
package calibration
