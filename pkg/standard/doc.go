// Package standard is the catalog of calibration standards and error terms.
//
// It contains:
//
//   - Kind: the physical calibration standards a description file may declare
//   - ErrorTerm: the canonical 12-term error model written back to disk
//   - lookups between those identities and the textual tags, labels and codes
//     used by description files and calibration algorithms
//
// Everything here is a pure function of its input. Lookups never fail; an
// unrecognized input yields Unknown (or UnknownErrorTerm) and the caller
// decides whether that is fatal.
package standard
