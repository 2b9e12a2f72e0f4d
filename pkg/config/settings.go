package config

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	pkgerrors "github.com/pkg/errors"
)

// NameKey is the synthetic setting holding the selected method name.
const NameKey = "name"

// SettingType is the value type a method expects for a setting.
type SettingType int

const (
	SettingString SettingType = iota
	SettingFloat
	SettingInt
	SettingComplex
	SettingEnum
)

func (t SettingType) String() string {
	switch t {
	case SettingFloat:
		return "float"
	case SettingInt:
		return "int"
	case SettingComplex:
		return "complex"
	case SettingEnum:
		return "enum"
	}
	return "string"
}

// SettingSpec declares one setting a calibration method consumes. A nil
// Default makes the setting required.
type SettingSpec struct {
	Key     string
	Type    SettingType
	Default *string
	Allowed []string // SettingEnum only
}

// Settings is the free-form parameter bag of the selected method. Values are
// raw text until resolved against the specs of the consuming method.
type Settings struct {
	Frozen[string, string]
}

// NewSettings freezes m into a Settings bag.
func NewSettings(m map[string]string) Settings {
	return Settings{Freeze(m)}
}

// Name returns the method name the settings were collected for.
func (s Settings) Name() string {
	v, _ := s.Get(NameKey)
	return v
}

// Resolve parses every declared setting. The first absent required key or
// unparsable value is returned as an *Error.
func (s Settings) Resolve(specs ...SettingSpec) (Resolved, error) {
	r := Resolved{values: make(map[string]any, len(specs))}
	for _, spec := range specs {
		raw, ok := s.Get(spec.Key)
		if !ok {
			if spec.Default == nil {
				return Resolved{}, &Error{Key: spec.Key, Err: pkgerrors.Errorf("required %s setting is missing", spec.Type)}
			}
			raw = *spec.Default
		}
		v, err := parseSetting(spec, raw)
		if err != nil {
			return Resolved{}, &Error{Key: spec.Key, Err: err}
		}
		r.values[spec.Key] = v
	}
	return r, nil
}

func parseSetting(spec SettingSpec, raw string) (any, error) {
	raw = strings.TrimSpace(raw)
	switch spec.Type {
	case SettingFloat:
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, pkgerrors.Errorf("invalid float %q", raw)
		}
		return v, nil
	case SettingInt:
		v, err := strconv.Atoi(raw)
		if err != nil {
			return nil, pkgerrors.Errorf("invalid int %q", raw)
		}
		return v, nil
	case SettingComplex:
		return ParseComplex(raw)
	case SettingEnum:
		if !slices.Contains(spec.Allowed, raw) {
			return nil, pkgerrors.Errorf("invalid value %q, must be one of %s", raw, strings.Join(spec.Allowed, ", "))
		}
		return raw, nil
	}
	return raw, nil
}

// ParseComplex accepts Go ("1+2i") and Python ("1+2j", "(1+2j)") notation,
// as well as plain real numbers.
func ParseComplex(raw string) (complex128, error) {
	s := strings.TrimSpace(raw)
	s = strings.TrimSuffix(strings.TrimPrefix(s, "("), ")")
	s = strings.ReplaceAll(s, "j", "i")
	s = strings.ReplaceAll(s, "J", "i")
	v, err := strconv.ParseComplex(s, 128)
	if err != nil {
		return 0, pkgerrors.Errorf("invalid complex %q", raw)
	}
	return v, nil
}

// Resolved holds parsed setting values. Reading a key that was not declared,
// or reading it with the wrong type, is a programming error and panics.
type Resolved struct {
	values map[string]any
}

func (r Resolved) get(key string) any {
	v, ok := r.values[key]
	if !ok {
		panic(fmt.Sprintf("setting %q was not declared", key))
	}
	return v
}

func (r Resolved) String(key string) string { return r.get(key).(string) }
func (r Resolved) Float(key string) float64 { return r.get(key).(float64) }
func (r Resolved) Int(key string) int { return r.get(key).(int) }
func (r Resolved) Complex(key string) complex128 { return r.get(key).(complex128) }

// Has reports whether key was declared.
func (r Resolved) Has(key string) bool {
	_, ok := r.values[key]
	return ok
}
