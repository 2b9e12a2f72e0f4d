package standard

import (
	"fmt"
	"strings"
)

// Kind identifies a physical calibration standard.
type Kind int

const (
	Unknown Kind = iota
	Open
	Short
	Load
	// Thru is the single-ended probe thru.
	Thru
	// ThruStraight connects port 1-3 and port 2-4 of a dual probe.
	ThruStraight
	// ThruLoopBackLeft connects port 1-2 of a dual probe.
	ThruLoopBackLeft
	// ThruLoopBackRight connects port 3-4 of a dual probe.
	ThruLoopBackRight
	// ThruLoopBack connects port 1-2 and port 3-4 of a dual probe.
	ThruLoopBack
	// ThruNwSe connects port 1-4 of a dual probe.
	ThruNwSe
	// ThruSwNe connects port 2-3 of a dual probe.
	ThruSwNe
	Line1
	Line2
	Line3
	Line4
	Line5
	Line6
	Line7
	Line8
	Line9
	Line10
	Line11
	Line12
	Line13
	Line14
	Line15
	Line16
	Line17
	Line18
	Line19
	Line20
	// Align is used for probe alignment only.
	Align
	// Ruler is used for measuring the distance between probes only.
	Ruler
)

// SwitchTermPrefix marks a description tag as the switch-term measurement of
// the standard named by the rest of the tag, e.g. "gthru".
const SwitchTermPrefix = "g"

var kindNames = map[Kind]string{
	Unknown:           "Unknown",
	Open:              "Open",
	Short:             "Short",
	Load:              "Load",
	Thru:              "Thru",
	ThruStraight:      "ThruStraight",
	ThruLoopBackLeft:  "ThruLoopBackLeft",
	ThruLoopBackRight: "ThruLoopBackRight",
	ThruLoopBack:      "ThruLoopBack",
	ThruNwSe:          "ThruNwSe",
	ThruSwNe:          "ThruSwNe",
	Align:             "Align",
	Ruler:             "Ruler",
}

// kindTags holds the kinds that have a canonical short tag in description
// files. Lines beyond Line5 have no tag.
var kindTags = map[Kind]string{
	Thru:              "thru",
	ThruStraight:      "thru_straight",
	ThruLoopBackLeft:  "thru_loopbackleft",
	ThruLoopBackRight: "thru_loopbackright",
	ThruLoopBack:      "thru_loopback",
	ThruNwSe:          "thru_nwse",
	ThruSwNe:          "thru_swne",
	Line1:             "line1",
	Line2:             "line2",
	Line3:             "line3",
	Line4:             "line4",
	Line5:             "line5",
	Open:              "open",
	Short:             "short",
	Load:              "load",
}

var tagKinds = func() map[string]Kind {
	m := make(map[string]Kind, len(kindTags))
	for k, t := range kindTags {
		m[t] = k
	}
	return m
}()

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	if IsLine(k) {
		return fmt.Sprintf("Line%d", int(k-Line1)+1)
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// KindFromTag maps a description file tag to a Kind. A tag carrying the
// switch-term prefix maps to the same Kind as the bare tag.
func KindFromTag(tag string) Kind {
	if k, ok := tagKinds[tag]; ok {
		return k
	}
	if strings.HasPrefix(tag, SwitchTermPrefix) {
		if k, ok := tagKinds[strings.TrimPrefix(tag, SwitchTermPrefix)]; ok {
			return k
		}
	}
	return Unknown
}

// TagFromKind returns the canonical tag of k, or "" if k has none.
func TagFromKind(k Kind) string {
	return kindTags[k]
}

// SwitchTermTag returns the tag under which the switch-term measurement of k
// is declared, or "" if k has no canonical tag.
func SwitchTermTag(k Kind) string {
	t := TagFromKind(k)
	if t == "" {
		return ""
	}
	return SwitchTermPrefix + t
}

// IsThru reports whether k is any of the thru variants.
func IsThru(k Kind) bool {
	return k >= Thru && k <= ThruSwNe
}

// IsLine reports whether k is one of Line1..Line20.
func IsLine(k Kind) bool {
	return k >= Line1 && k <= Line20
}

// IsReflect reports whether k can act as the reflect standard.
func IsReflect(k Kind) bool {
	return k == Open || k == Short
}

// Kinds returns every known Kind except Unknown, in declaration order.
func Kinds() []Kind {
	kinds := make([]Kind, 0, int(Ruler))
	for k := Open; k <= Ruler; k++ {
		kinds = append(kinds, k)
	}
	return kinds
}
