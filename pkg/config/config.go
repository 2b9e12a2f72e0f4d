package config

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/charlie0129/vnacal/pkg/standard"
)

// Section names of <snp name="..."> blocks.
const (
	SectionMeasured        = "measured"
	SectionModel           = "model"
	SectionErrorTerm       = "error_term"
	SectionOutputParameter = "output_parameter"
)

// StandardFiles maps a calibration standard to its .sNp file.
type StandardFiles = Frozen[standard.Kind, string]

// ErrorTermFiles maps an error term to its destination file.
type ErrorTermFiles = Frozen[standard.ErrorTerm, string]

// ParameterFiles maps a solved-parameter key (e.g. "solved_r1") to its
// destination file.
type ParameterFiles = Frozen[string, string]

// NewStandardFiles freezes m.
func NewStandardFiles(m map[standard.Kind]string) StandardFiles { return Freeze(m) }

// NewErrorTermFiles freezes m.
func NewErrorTermFiles(m map[standard.ErrorTerm]string) ErrorTermFiles { return Freeze(m) }

// NewParameterFiles freezes m.
func NewParameterFiles(m map[string]string) ParameterFiles { return Freeze(m) }

// Description is a loaded calibration description. It is read-only once
// Load returns.
type Description struct {
	path             string
	method           string
	settings         Settings
	measured         StandardFiles
	model            StandardFiles
	measuredSwitch   StandardFiles
	errorTerms       ErrorTermFiles
	outputParameters ParameterFiles
}

func (d *Description) Path() string { return d.path }
func (d *Description) Method() string { return d.method }
func (d *Description) Settings() Settings { return d.settings }
func (d *Description) Measured() StandardFiles { return d.measured }
func (d *Description) Model() StandardFiles { return d.model }
func (d *Description) MeasuredSwitch() StandardFiles { return d.measuredSwitch }
func (d *Description) ErrorTerms() ErrorTermFiles { return d.errorTerms }
func (d *Description) OutputParameters() ParameterFiles { return d.outputParameters }

// Load reads a calibration description. Files ending in .yaml or .yml are
// read as YAML, anything else as XML.
func Load(path string) (*Description, error) {
	fp, err := os.Open(path)
	if err != nil {
		return nil, &Error{Path: path, Err: pkgerrors.Wrapf(err, "failed to open file %s", path)}
	}
	defer func(fp *os.File) {
		err := fp.Close()
		if err != nil {
			logrus.Warnf("failed to close file %s", path)
		}
	}(fp)

	b, err := io.ReadAll(fp)
	if err != nil {
		return nil, &Error{Path: path, Err: pkgerrors.Wrapf(err, "failed to read file %s", path)}
	}
	if strings.TrimSpace(string(b)) == "" {
		return nil, &Error{Path: path, Err: pkgerrors.New("file is empty")}
	}

	var root *node
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		root, err = parseYAML(b)
	default:
		root, err = parseXML(b)
	}
	if err != nil {
		return nil, &Error{Path: path, Err: err}
	}

	d, err := fromNode(root)
	if err != nil {
		var cerr *Error
		if pkgerrors.As(err, &cerr) {
			cerr.Path = path
			return nil, cerr
		}
		return nil, &Error{Path: path, Err: err}
	}
	d.path = path
	return d, nil
}

func fromNode(root *node) (*Description, error) {
	logrus.WithFields(logrus.Fields{
		"tag":       root.Tag,
		"attribute": attrString(root.Attrs),
	}).Debug("description root")

	method, ok := root.attr("method")
	if !ok {
		return nil, &Error{Key: "method", Err: pkgerrors.Errorf("root node <%s> has no method attribute", root.Tag)}
	}
	method = strings.TrimSpace(method)

	settings := map[string]string{NameKey: method}
	measured := map[standard.Kind]string{}
	measuredSwitch := map[standard.Kind]string{}
	model := map[standard.Kind]string{}
	errorTerms := map[standard.ErrorTerm]string{}
	outputParameters := map[string]string{}

	for _, child := range root.Children {
		logrus.WithFields(logrus.Fields{
			"tag":       child.Tag,
			"attribute": attrString(child.Attrs),
		}).Debug("description child")

		switch child.Tag {
		case "settings":
			collectSettings(child, method, settings)
		case "snp":
			name, ok := child.attr("name")
			if !ok {
				return nil, &Error{Key: "snp", Err: pkgerrors.New("snp node has no name attribute")}
			}
			switch name {
			case SectionMeasured:
				for _, leaf := range child.Children {
					kind := kindOf(name, leaf)
					if kind == standard.Unknown {
						continue
					}
					if leaf.Tag == standard.SwitchTermTag(kind) {
						measuredSwitch[kind] = leaf.Text
					} else {
						measured[kind] = leaf.Text
					}
				}
			case SectionModel:
				for _, leaf := range child.Children {
					kind := kindOf(name, leaf)
					if kind == standard.Unknown {
						continue
					}
					model[kind] = leaf.Text
				}
			case SectionErrorTerm:
				for _, leaf := range child.Children {
					logLeaf(name, leaf)
					et := standard.ErrorTermFromCode(leaf.Tag)
					if et == standard.UnknownErrorTerm {
						logrus.WithField("tag", leaf.Tag).Warn("ignoring unknown error term")
						continue
					}
					errorTerms[et] = leaf.Text
				}
			case SectionOutputParameter:
				for _, leaf := range child.Children {
					logLeaf(name, leaf)
					outputParameters[leaf.Tag] = leaf.Text
				}
			default:
				logrus.WithField("name", name).Debug("ignoring unknown snp section")
			}
		default:
			logrus.WithField("tag", child.Tag).Debug("ignoring unknown node")
		}
	}

	return &Description{
		method:           method,
		settings:         NewSettings(settings),
		measured:         Freeze(measured),
		model:            Freeze(model),
		measuredSwitch:   Freeze(measuredSwitch),
		errorTerms:       Freeze(errorTerms),
		outputParameters: Freeze(outputParameters),
	}, nil
}

// collectSettings copies the leaves of every <method name="..."> block that
// matches the selected method. Later blocks overwrite earlier keys.
func collectSettings(n *node, method string, into map[string]string) {
	for _, c := range n.Children {
		if c.Tag != "method" {
			continue
		}
		name, ok := c.attr("name")
		if !ok {
			logrus.Warn("ignoring settings method block without name attribute")
			continue
		}
		logrus.WithField("method", name).Debug("settings method")
		if name != method {
			continue
		}
		for _, cc := range c.Children {
			into[cc.Tag] = cc.Text
			logrus.WithFields(logrus.Fields{
				"parameter": cc.Tag,
				"value":     cc.Text,
			}).Debug("setting")
		}
		into[NameKey] = method
	}
}

func kindOf(section string, leaf *node) standard.Kind {
	logLeaf(section, leaf)
	kind := standard.KindFromTag(leaf.Tag)
	if kind == standard.Unknown {
		logrus.WithFields(logrus.Fields{
			"section": section,
			"tag":     leaf.Tag,
		}).Warn("ignoring unknown standard")
	}
	return kind
}

func logLeaf(section string, leaf *node) {
	logrus.WithFields(logrus.Fields{
		"section": section,
		"tag":     leaf.Tag,
		"snp":     leaf.Text,
	}).Debug("description entry")
}

// LogrusFields summarizes the description for logging.
func (d *Description) LogrusFields() logrus.Fields {
	return logrus.Fields{
		"method":           d.method,
		"settings":         d.settings.Len(),
		"measured":         d.measured.Len(),
		"measuredSwitch":   d.measuredSwitch.Len(),
		"model":            d.model.Len(),
		"errorTerms":       d.errorTerms.Len(),
		"outputParameters": d.outputParameters.Len(),
	}
}
