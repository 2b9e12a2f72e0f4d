// Package netcal solves VNA error models from measured and ideal
// calibration standards.
//
// Each algorithm follows the same contract: construct it from ordered lists
// of ideal and measured networks plus algorithm options, call Run, then read
// the solved coefficients from Coefs. Coefficient names are the algorithm's
// own vocabulary:
//
//   - OnePort: "directivity", "source match", "reflection tracking"
//   - SOLT and LRRM: "forward directivity" ... "reverse transmission tracking"
//   - MultilineTRL: "EDF", "ESF", "ERF", "EDR", "ESR", "ERR", "EXF", "ELF",
//     "ETF", "EXR", "ELR", "ETR", plus the switch terms "GF" and "GR"
//
// All networks handed to one calibration must share a frequency grid.
package netcal
