package calibration

import (
	"math"
	"math/cmplx"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/charlie0129/vnacal/pkg/config"
	"github.com/charlie0129/vnacal/pkg/netcal"
	"github.com/charlie0129/vnacal/pkg/network"
	"github.com/charlie0129/vnacal/pkg/standard"
	"github.com/charlie0129/vnacal/pkg/touchstone"
)

// box is a frequency independent 8-term error model.
type box struct {
	e00, e11, er1 complex128
	e33, e22, er2 complex128
	tf, tr        complex128
}

var testBox = box{
	e00: 0.05 + 0.01i, e11: 0.1 - 0.05i, er1: (0.9 + 0.1i) * (0.85 - 0.2i),
	e33: -0.04 + 0.03i, e22: 0.08 + 0.07i, er2: (0.8 + 0.3i) * (0.95 - 0.05i),
	tf: (0.85 - 0.2i) * (0.95 - 0.05i), tr: (0.8 + 0.3i) * (0.9 + 0.1i),
}

func (b box) port1(g complex128) complex128 { return b.e00 + b.er1*g/(1-b.e11*g) }
func (b box) port2(g complex128) complex128 { return b.e33 + b.er2*g/(1-b.e22*g) }

// line is the raw measurement of a matched line with transmission s21.
func (b box) line(s21 complex128) [4]complex128 {
	l2 := s21 * s21
	d := 1 - b.e11*b.e22*l2
	return [4]complex128{
		b.e00 + b.er1*b.e22*l2/d, b.tr * s21 / d,
		b.tf * s21 / d, b.e33 + b.er2*b.e11*l2/d,
	}
}

func (b box) reflects(g1, g2 complex128) [4]complex128 {
	return [4]complex128{b.port1(g1), 0, 0, b.port2(g2)}
}

var testFreqs = []float64{1e9, 2e9, 3e9, 4e9, 5e9}

func writeOnePort(t *testing.T, dir, name string, fn func(f int) complex128) string {
	t.Helper()
	v := make([]complex128, len(testFreqs))
	for f := range v {
		v[f] = fn(f)
	}
	n, err := network.NewOnePort(name, testFreqs, v)
	require.NoError(t, err)
	path, err := touchstone.WriteFile(filepath.Join(dir, name+".s1p"), n)
	require.NoError(t, err)
	return path
}

func writeTwoPort(t *testing.T, dir, name string, fn func(f int) [4]complex128) string {
	t.Helper()
	n := network.New(testFreqs, 2)
	n.Name = name
	for f := range testFreqs {
		s := fn(f)
		n.Set(f, 0, 0, s[0])
		n.Set(f, 0, 1, s[1])
		n.Set(f, 1, 0, s[2])
		n.Set(f, 1, 1, s[3])
	}
	path, err := touchstone.WriteFile(filepath.Join(dir, name+".s2p"), n)
	require.NoError(t, err)
	return path
}

func touch(t *testing.T, path string) string {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, nil, 0644))
	return path
}

func openAt(f int) complex128  { return cmplx.Exp(complex(0, -0.1*float64(f+1))) }
func shortAt(f int) complex128 { return -cmplx.Exp(complex(0, -0.05*float64(f+1))) }

const loadGamma = 0.02 + 0.01i

func constant(v complex128) func(int) complex128 { return func(int) complex128 { return v } }

// solFixture writes short, open and load measured on port 1 and their models.
func solFixture(t *testing.T, dir string) Inputs {
	measured := map[standard.Kind]string{}
	model := map[standard.Kind]string{}
	for k, g := range map[standard.Kind]complex128{standard.Short: -1, standard.Open: 1, standard.Load: 0} {
		measured[k] = writeOnePort(t, filepath.Join(dir, "measured"), standard.TagFromKind(k), constant(testBox.port1(g)))
		model[k] = writeOnePort(t, filepath.Join(dir, "model"), standard.TagFromKind(k), constant(g))
	}
	return Inputs{
		Measured:       config.NewStandardFiles(measured),
		Model:          config.NewStandardFiles(model),
		MeasuredSwitch: config.NewStandardFiles(nil),
	}
}

func zeroSwitch(int) [4]complex128 { return [4]complex128{} }

// lrrmFixture writes a flush thru, open, short and load measured on both
// ports, their models and a zero switch-term file.
func lrrmFixture(t *testing.T, dir string) Inputs {
	md, mo := filepath.Join(dir, "measured"), filepath.Join(dir, "model")
	measured := map[standard.Kind]string{
		standard.Thru:  writeTwoPort(t, md, "thru", func(int) [4]complex128 { return testBox.line(1) }),
		standard.Open:  writeTwoPort(t, md, "open", func(f int) [4]complex128 { return testBox.reflects(openAt(f), openAt(f)) }),
		standard.Short: writeTwoPort(t, md, "short", func(f int) [4]complex128 { return testBox.reflects(shortAt(f), shortAt(f)) }),
		standard.Load:  writeTwoPort(t, md, "load", func(int) [4]complex128 { return testBox.reflects(loadGamma, loadGamma) }),
	}
	model := map[standard.Kind]string{
		standard.Thru:  writeTwoPort(t, mo, "thru", func(int) [4]complex128 { return [4]complex128{0, 1, 1, 0} }),
		standard.Open:  writeOnePort(t, mo, "open", constant(1)),
		standard.Short: writeOnePort(t, mo, "short", constant(-1)),
		standard.Load:  writeOnePort(t, mo, "load", constant(loadGamma)),
	}
	sw := map[standard.Kind]string{
		standard.Thru: writeTwoPort(t, md, "gthru", zeroSwitch),
	}
	return Inputs{
		Measured:       config.NewStandardFiles(measured),
		Model:          config.NewStandardFiles(model),
		MeasuredSwitch: config.NewStandardFiles(sw),
	}
}

const ereff = 4.0

func lineS21(f int, length float64) complex128 {
	gamma := complex(0, 2*math.Pi*testFreqs[f]*math.Sqrt(ereff)/netcal.SpeedOfLight)
	return cmplx.Exp(-gamma * complex(length, 0))
}

// mtrlFixture writes a flush thru, line1 (2 mm), line2 (8 mm), a short and
// a zero switch-term file.
func mtrlFixture(t *testing.T, dir string) Inputs {
	md := filepath.Join(dir, "measured")
	measured := map[standard.Kind]string{
		standard.Thru:  writeTwoPort(t, md, "thru", func(int) [4]complex128 { return testBox.line(1) }),
		standard.Line1: writeTwoPort(t, md, "line1", func(f int) [4]complex128 { return testBox.line(lineS21(f, 0.002)) }),
		standard.Line2: writeTwoPort(t, md, "Line2", func(f int) [4]complex128 { return testBox.line(lineS21(f, 0.008)) }),
		standard.Short: writeTwoPort(t, md, "short", func(int) [4]complex128 { return testBox.reflects(-1, -1) }),
	}
	sw := map[standard.Kind]string{
		standard.Thru: writeTwoPort(t, md, "gthru", zeroSwitch),
	}
	return Inputs{
		Measured:       config.NewStandardFiles(measured),
		Model:          config.NewStandardFiles(nil),
		MeasuredSwitch: config.NewStandardFiles(sw),
	}
}

func mtrlSettingsMap() map[string]string {
	return map[string]string{
		config.NameKey:    MethodMTRL,
		"length_line1":    "0.002",
		"length_line2":    "0.008",
		SettingReflectEst: "-1",
		SettingEreffEst:   "4",
	}
}

// replace swaps one entry of a frozen map.
func replace(files config.StandardFiles, k standard.Kind, path string) config.StandardFiles {
	m := files.Map()
	if path == "" {
		delete(m, k)
	} else {
		m[k] = path
	}
	return config.NewStandardFiles(m)
}

func readOnePort(t *testing.T, path string) *network.Network {
	t.Helper()
	n, err := touchstone.ReadFile(path)
	require.NoError(t, err)
	return n
}
