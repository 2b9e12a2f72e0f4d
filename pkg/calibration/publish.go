package calibration

import (
	"slices"

	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/charlie0129/vnacal/pkg/config"
	"github.com/charlie0129/vnacal/pkg/network"
	"github.com/charlie0129/vnacal/pkg/standard"
)

// resolver maps a native result key to an error term.
type resolver func(key string) standard.ErrorTerm

// publishErrorTerms writes every result whose key resolves to an error term
// with a destination. Each write is independent.
func publishErrorTerms(method string, results map[string]*network.Network, resolve resolver, dst config.ErrorTermFiles) *Report {
	report := &Report{}
	keys := make([]string, 0, len(results))
	for k := range results {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	for _, key := range keys {
		fields := logrus.Fields{"method": method, "key": key}
		term := resolve(key)
		if term == standard.UnknownErrorTerm {
			w := &PublishWarning{Key: key, Err: ErrUnmappedKey}
			logrus.WithFields(fields).Warn(w.Error())
			report.Warnings = append(report.Warnings, w)
			continue
		}
		fields["errorTerm"] = term
		path, ok := dst.Get(term)
		if !ok {
			logrus.WithFields(fields).Debug("no destination for error term, skipping")
			report.Skipped = append(report.Skipped, key)
			continue
		}
		n := *results[key]
		n.Name = term.String()
		if w := writeOne(report, key, term, path, &n); w != nil {
			logrus.WithFields(fields).WithField("path", path).Warn(w.Error())
		}
	}
	return report
}

// publishNamed writes results to destinations keyed by the same name.
// Destinations with no result are skipped.
func publishNamed(method string, results map[string]*network.Network, dst config.ParameterFiles) *Report {
	report := &Report{}
	for _, key := range dst.Keys() {
		path, _ := dst.Get(key)
		fields := logrus.Fields{"method": method, "key": key, "path": path}
		n, ok := results[key]
		if !ok {
			logrus.WithFields(fields).Debug("unrecognized output parameter, skipping")
			report.Skipped = append(report.Skipped, key)
			continue
		}
		if w := writeOne(report, key, standard.UnknownErrorTerm, path, n); w != nil {
			logrus.WithFields(fields).Warn(w.Error())
		}
	}
	return report
}

func writeOne(report *Report, key string, term standard.ErrorTerm, path string, n *network.Network) *PublishWarning {
	written, err := writeNetwork(path, n)
	if err != nil {
		w := &PublishWarning{Key: key, Path: path, Err: pkgerrors.Wrap(err, "write failed")}
		report.Warnings = append(report.Warnings, w)
		return w
	}
	logrus.WithFields(logrus.Fields{
		"key":  key,
		"path": written,
	}).Debug("result written")
	report.Written = append(report.Written, Output{Key: key, Term: term, Path: written})
	return nil
}
