// Package touchstone reads and writes version 1 Touchstone (.sNp) files.
package touchstone

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"math/cmplx"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/charlie0129/vnacal/pkg/network"
)

// Format is the complex number notation of the data section.
type Format string

const (
	FormatRI Format = "RI" // real-imaginary
	FormatMA Format = "MA" // linear magnitude-angle (degrees)
	FormatDB Format = "DB" // dB magnitude-angle (degrees)
)

var unitScale = map[string]float64{
	"HZ":  1,
	"KHZ": 1e3,
	"MHZ": 1e6,
	"GHZ": 1e9,
}

var extRegexp = regexp.MustCompile(`(?i)^\.s(\d+)p$`)

// ErrUnsupported is returned for valid Touchstone content this package does
// not handle, such as non-S parameters or version 2 keywords.
var ErrUnsupported = pkgerrors.New("unsupported touchstone content")

// PortsFromPath infers the port count from a .sNp extension.
func PortsFromPath(path string) (int, error) {
	m := extRegexp.FindStringSubmatch(filepath.Ext(path))
	if m == nil {
		return 0, pkgerrors.Errorf("%s: not a .sNp file", path)
	}
	n, err := strconv.Atoi(m[1])
	if err != nil || n < 1 {
		return 0, pkgerrors.Errorf("%s: invalid port count %q", path, m[1])
	}
	return n, nil
}

// ReadFile reads the network stored at path.
func ReadFile(path string) (*network.Network, error) {
	ports, err := PortsFromPath(path)
	if err != nil {
		return nil, err
	}

	fp, err := os.Open(path)
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to open file %s", path)
	}
	defer func(fp *os.File) {
		err := fp.Close()
		if err != nil {
			logrus.Warnf("failed to close file %s", path)
		}
	}(fp)

	n, err := Read(fp, ports)
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to read touchstone file %s", path)
	}
	n.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return n, nil
}

// Read decodes an N-port Touchstone stream.
func Read(r io.Reader, ports int) (*network.Network, error) {
	scale := unitScale["GHZ"]
	format := FormatMA
	z0 := network.DefaultZ0
	seenOptions := false

	var values []float64
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := sc.Text()
		if i := strings.Index(line, "!"); i >= 0 {
			line = line[:i]
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "[") {
			return nil, pkgerrors.Wrapf(ErrUnsupported, "line %d: keyword %s", lineNo, line)
		}
		if strings.HasPrefix(line, "#") {
			if seenOptions {
				continue
			}
			seenOptions = true
			var err error
			scale, format, z0, err = parseOptions(strings.Fields(line[1:]))
			if err != nil {
				return nil, pkgerrors.Wrapf(err, "line %d", lineNo)
			}
			continue
		}
		for _, tok := range strings.Fields(line) {
			v, err := strconv.ParseFloat(tok, 64)
			if err != nil {
				return nil, pkgerrors.Wrapf(err, "line %d", lineNo)
			}
			values = append(values, v)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, pkgerrors.Wrap(err, "failed to scan")
	}

	record := 1 + 2*ports*ports
	if len(values) == 0 || len(values)%record != 0 {
		return nil, pkgerrors.Errorf("got %d values, not a multiple of %d for a %d-port network", len(values), record, ports)
	}

	count := len(values) / record
	freqs := make([]float64, count)
	for i := range freqs {
		freqs[i] = values[i*record] * scale
	}
	n := network.New(freqs, ports)
	n.Z0 = z0
	for f := 0; f < count; f++ {
		data := values[f*record+1 : (f+1)*record]
		for k := 0; k < ports*ports; k++ {
			row, col := k/ports, k%ports
			if ports == 2 {
				// two-port data is ordered S11 S21 S12 S22
				row, col = col, row
			}
			n.Set(f, row, col, toComplex(format, data[2*k], data[2*k+1]))
		}
	}
	return n, nil
}

func parseOptions(fields []string) (float64, Format, float64, error) {
	scale := unitScale["GHZ"]
	format := FormatMA
	z0 := network.DefaultZ0
	for i := 0; i < len(fields); i++ {
		tok := strings.ToUpper(fields[i])
		if s, ok := unitScale[tok]; ok {
			scale = s
			continue
		}
		switch tok {
		case "S":
		case "Y", "Z", "H", "G":
			return 0, "", 0, pkgerrors.Wrapf(ErrUnsupported, "parameter type %s", tok)
		case string(FormatRI), string(FormatMA), string(FormatDB):
			format = Format(tok)
		case "R":
			if i+1 >= len(fields) {
				return 0, "", 0, pkgerrors.New("missing reference resistance after R")
			}
			r, err := strconv.ParseFloat(fields[i+1], 64)
			if err != nil {
				return 0, "", 0, pkgerrors.Wrap(err, "invalid reference resistance")
			}
			z0 = r
			i++
		default:
			return 0, "", 0, pkgerrors.Errorf("unknown option %q", fields[i])
		}
	}
	return scale, format, z0, nil
}

func toComplex(format Format, a, b float64) complex128 {
	switch format {
	case FormatRI:
		return complex(a, b)
	case FormatDB:
		return cmplx.Rect(math.Pow(10, a/20), b*math.Pi/180)
	default:
		return cmplx.Rect(a, b*math.Pi/180)
	}
}

// OutputPath returns path with the .sNp extension matching ports. An
// existing .sNp extension is replaced, anything else gets one appended.
func OutputPath(path string, ports int) string {
	ext := filepath.Ext(path)
	want := fmt.Sprintf(".s%dp", ports)
	if extRegexp.MatchString(ext) {
		return strings.TrimSuffix(path, ext) + want
	}
	return path + want
}

// WriteFile writes n in RI format and returns the path actually written.
func WriteFile(path string, n *network.Network) (string, error) {
	path = OutputPath(path, n.Ports)
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return "", pkgerrors.Wrapf(err, "failed to create directory %s", dir)
		}
	}

	fp, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return "", pkgerrors.Wrapf(err, "failed to open file %s", path)
	}
	defer func(fp *os.File) {
		err := fp.Close()
		if err != nil {
			logrus.Warnf("failed to close file %s", path)
		}
	}(fp)

	w := bufio.NewWriter(fp)
	if err := Write(w, n); err != nil {
		return "", pkgerrors.Wrapf(err, "failed to write touchstone file %s", path)
	}
	if err := w.Flush(); err != nil {
		return "", pkgerrors.Wrapf(err, "failed to flush file %s", path)
	}
	return path, nil
}

// Write encodes n as Touchstone v1 data in Hz and RI format.
func Write(w io.Writer, n *network.Network) error {
	z0 := n.Z0
	if z0 == 0 {
		z0 = network.DefaultZ0
	}
	if _, err := fmt.Fprintf(w, "! Created with vnacal\n"); err != nil {
		return err
	}
	if n.Name != "" {
		if _, err := fmt.Fprintf(w, "! %s\n", n.Name); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintf(w, "# Hz S RI R %s\n", strconv.FormatFloat(z0, 'g', -1, 64)); err != nil {
		return err
	}

	var b strings.Builder
	for f := range n.Freqs {
		b.Reset()
		b.WriteString(strconv.FormatFloat(n.Freqs[f], 'f', -1, 64))
		if n.Ports <= 2 {
			for k := 0; k < n.Ports*n.Ports; k++ {
				row, col := k/n.Ports, k%n.Ports
				if n.Ports == 2 {
					row, col = col, row
				}
				writePair(&b, n.At(f, row, col))
			}
			b.WriteByte('\n')
		} else {
			for row := 0; row < n.Ports; row++ {
				for col := 0; col < n.Ports; col++ {
					if col > 0 && col%4 == 0 {
						b.WriteByte('\n')
					}
					writePair(&b, n.At(f, row, col))
				}
				b.WriteByte('\n')
			}
		}
		if _, err := io.WriteString(w, b.String()); err != nil {
			return err
		}
	}
	return nil
}

func writePair(b *strings.Builder, v complex128) {
	b.WriteByte(' ')
	b.WriteString(strconv.FormatFloat(real(v), 'e', 15, 64))
	b.WriteByte(' ')
	b.WriteString(strconv.FormatFloat(imag(v), 'e', 15, 64))
}
