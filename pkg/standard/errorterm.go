package standard

import (
	"fmt"
	"strings"
)

// ErrorTerm identifies one coefficient of the 12-term error model.
type ErrorTerm int

const (
	UnknownErrorTerm ErrorTerm = iota
	FwdEd                      // forward directivity
	FwdEs                      // forward source match
	FwdErt                     // forward reflection tracking
	RevEd                      // reverse directivity
	RevEs                      // reverse source match
	RevErt                     // reverse reflection tracking
	FwdEx                      // forward isolation
	FwdEl                      // forward load match
	FwdEtt                     // forward transmission tracking
	RevEx                      // reverse isolation
	RevEl                      // reverse load match
	RevEtt                     // reverse transmission tracking
)

type errorTermInfo struct {
	name   string
	code   string
	native string
	labels []string
}

var errorTermTable = map[ErrorTerm]errorTermInfo{
	FwdEd:  {"FwdEd", "fwd_ed", "EDF", []string{"forward directivity", "directivity"}},
	FwdEs:  {"FwdEs", "fwd_es", "ESF", []string{"forward source match", "source match"}},
	FwdErt: {"FwdErt", "fwd_ert", "ERF", []string{"forward reflection tracking", "reflection tracking"}},
	RevEd:  {"RevEd", "rev_ed", "EDR", []string{"reverse directivity"}},
	RevEs:  {"RevEs", "rev_es", "ESR", []string{"reverse source match"}},
	RevErt: {"RevErt", "rev_ert", "ERR", []string{"reverse reflection tracking"}},
	FwdEx:  {"FwdEx", "fwd_ex", "EXF", []string{"forward isolation"}},
	FwdEl:  {"FwdEl", "fwd_el", "ELF", []string{"forward load match"}},
	FwdEtt: {"FwdEtt", "fwd_ett", "ETF", []string{"forward transmission tracking"}},
	RevEx:  {"RevEx", "rev_ex", "EXR", []string{"reverse isolation"}},
	RevEl:  {"RevEl", "rev_el", "ELR", []string{"reverse load match"}},
	RevEtt: {"RevEtt", "rev_ett", "ETR", []string{"reverse transmission tracking"}},
}

var (
	labelTerms = map[string]ErrorTerm{}
	codeTerms  = map[string]ErrorTerm{}
)

func init() {
	for et, info := range errorTermTable {
		for _, l := range info.labels {
			labelTerms[l] = et
		}
		codeTerms[info.code] = et
		codeTerms[strings.ToLower(info.native)] = et
	}
}

func (e ErrorTerm) String() string {
	if info, ok := errorTermTable[e]; ok {
		return info.name
	}
	if e == UnknownErrorTerm {
		return "Unknown"
	}
	return fmt.Sprintf("ErrorTerm(%d)", int(e))
}

// Code returns the description file code of e (e.g. "fwd_ed"), or "".
func (e ErrorTerm) Code() string {
	return errorTermTable[e].code
}

// ErrorTerms returns the twelve error terms in canonical order.
func ErrorTerms() []ErrorTerm {
	terms := make([]ErrorTerm, 0, 12)
	for e := FwdEd; e <= RevEtt; e++ {
		terms = append(terms, e)
	}
	return terms
}

// ErrorTermFromLabel maps a free-text algorithm label such as
// "Forward  Directivity" to an ErrorTerm. Case, surrounding space, and the
// separators ' ', '_' and '-' are ignored.
func ErrorTermFromLabel(text string) ErrorTerm {
	if et, ok := labelTerms[normalizeLabel(text)]; ok {
		return et
	}
	return UnknownErrorTerm
}

// ErrorTermFromCode maps a short code, either a description file code
// ("fwd_ed") or an algorithm-native one ("EDF"), to an ErrorTerm.
func ErrorTermFromCode(code string) ErrorTerm {
	if et, ok := codeTerms[strings.ToLower(strings.TrimSpace(code))]; ok {
		return et
	}
	return UnknownErrorTerm
}

func normalizeLabel(text string) string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return r == ' ' || r == '_' || r == '-' || r == '\t'
	})
	return strings.Join(fields, " ")
}
