package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/charlie0129/vnacal/pkg/standard"
)

const lrrmXML = `<?xml version="1.0" encoding="utf-8"?>
<calibration method="sk_lrrm">
  <settings>
    <method name="sk_solt">
      <match_fit>ignored</match_fit>
    </method>
    <method name="sk_lrrm">
      <match_fit> none </match_fit>
      <match_port>1</match_port>
    </method>
  </settings>
  <snp name="measured">
    <thru>C:/cal/thru.s2p</thru>
    <gthru>C:/cal/gthru.s2p</gthru>
    <open>C:/cal/open.s2p</open>
    <short>C:/cal/short.s2p</short>
    <load>C:/cal/load.s2p</load>
    <mystery>C:/cal/mystery.s2p</mystery>
  </snp>
  <snp name="model">
    <thru>m/thru.s2p</thru>
    <open>m/open.s2p</open>
  </snp>
  <snp name="error_term">
    <fwd_ed>out/ed.s1p</fwd_ed>
    <rev_ett>out/ett.s1p</rev_ett>
    <bogus>out/bogus.s1p</bogus>
  </snp>
  <snp name="output_parameter">
    <solved_r1>out/r1.s1p</solved_r1>
  </snp>
  <comment>ignored</comment>
</calibration>
`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0644))
	return p
}

func TestLoadXML(t *testing.T) {
	d, err := Load(writeFile(t, "cal_settings.xml", lrrmXML))
	require.NoError(t, err)

	assert.Equal(t, "sk_lrrm", d.Method())
	assert.Equal(t, "sk_lrrm", d.Settings().Name())
	mf, _ := d.Settings().Get("match_fit")
	assert.Equal(t, "none", mf)
	assert.Equal(t, 3, d.Settings().Len())

	assert.Equal(t, []standard.Kind{standard.Open, standard.Short, standard.Load, standard.Thru}, d.Measured().Keys())
	sw, ok := d.MeasuredSwitch().Get(standard.Thru)
	require.True(t, ok)
	assert.Equal(t, "C:/cal/gthru.s2p", sw)
	thru, _ := d.Measured().Get(standard.Thru)
	assert.Equal(t, "C:/cal/thru.s2p", thru)
	assert.False(t, d.Measured().Has(standard.Unknown))

	assert.Equal(t, 2, d.Model().Len())
	assert.Equal(t, []standard.ErrorTerm{standard.FwdEd, standard.RevEtt}, d.ErrorTerms().Keys())
	r1, _ := d.OutputParameters().Get("solved_r1")
	assert.Equal(t, "out/r1.s1p", r1)
}

func TestLoadYAML(t *testing.T) {
	src := `method: umtrl
settings:
  - name: umtrl
    reflect_est: -1
    ereff_est: 5.5
  - name: sk_sol
    foo: bar
snp:
  measured:
    thru_straight: a/thru.s2p
    gthru_straight: a/sw.s2p
    line1: a/line1.s2p
    short: a/short.s2p
  error_term:
    EDF: out/ed.s1p
`
	d, err := Load(writeFile(t, "cal.yaml", src))
	require.NoError(t, err)
	assert.Equal(t, "umtrl", d.Method())
	v, _ := d.Settings().Get("reflect_est")
	assert.Equal(t, "-1", v)
	assert.False(t, d.Settings().Has("foo"))
	assert.Equal(t, []standard.Kind{standard.Short, standard.ThruStraight, standard.Line1}, d.Measured().Keys())
	assert.True(t, d.MeasuredSwitch().Has(standard.ThruStraight))
	assert.True(t, d.ErrorTerms().Has(standard.FwdEd))
	assert.Equal(t, 0, d.Model().Len())
}

func TestLoadYAMLSettingsMapping(t *testing.T) {
	src := `method: sk_lrrm
settings:
  sk_lrrm:
    match_fit: l
`
	d, err := Load(writeFile(t, "cal.yml", src))
	require.NoError(t, err)
	v, _ := d.Settings().Get("match_fit")
	assert.Equal(t, "l", v)
}

func TestLoadWithoutMatchingSettings(t *testing.T) {
	d, err := Load(writeFile(t, "cal.xml", `<root method="sk_sol"><settings><method name="x"><a>1</a></method></settings></root>`))
	require.NoError(t, err)
	assert.Equal(t, "sk_sol", d.Settings().Name())
	assert.Equal(t, 1, d.Settings().Len())
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
		key     string
	}{
		{"missing method", "a.xml", `<root><snp name="measured"/></root>`, "method"},
		{"snp without name", "b.xml", `<root method="sk_sol"><snp><open>x</open></snp></root>`, "snp"},
		{"malformed xml", "c.xml", `<root method="sk_sol"><snp>`, ""},
		{"empty", "d.xml", "  \n", ""},
		{"yaml not mapping", "e.yaml", "- a\n- b\n", ""},
		{"yaml snp scalar", "f.yaml", "method: x\nsnp:\n  measured: nope\n", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := writeFile(t, tt.file, tt.content)
			_, err := Load(p)
			require.Error(t, err)
			var cerr *Error
			require.True(t, errors.As(err, &cerr))
			assert.Equal(t, p, cerr.Path)
			assert.Equal(t, tt.key, cerr.Key)
		})
	}

	_, err := Load(filepath.Join(t.TempDir(), "missing.xml"))
	var cerr *Error
	assert.True(t, errors.As(err, &cerr))
}

func TestFrozenIsCopied(t *testing.T) {
	m := map[standard.Kind]string{standard.Open: "a"}
	f := NewStandardFiles(m)
	m[standard.Short] = "b"
	assert.Equal(t, 1, f.Len())

	c := f.Map()
	c[standard.Load] = "c"
	assert.False(t, f.Has(standard.Load))

	var zero StandardFiles
	assert.Equal(t, 0, zero.Len())
	_, ok := zero.Get(standard.Open)
	assert.False(t, ok)
}
