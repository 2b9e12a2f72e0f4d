package config

import (
	"fmt"
	"strings"
)

// Error reports an unreadable or malformed calibration description, or a
// missing or unparsable setting.
type Error struct {
	Path string // description file, empty for setting errors
	Key  string // offending attribute, node or setting
	Err  error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString("config")
	if e.Path != "" {
		b.WriteString(" ")
		b.WriteString(e.Path)
	}
	if e.Key != "" {
		fmt.Fprintf(&b, " [%s]", e.Key)
	}
	b.WriteString(": ")
	b.WriteString(e.Err.Error())
	return b.String()
}

func (e *Error) Unwrap() error { return e.Err }
