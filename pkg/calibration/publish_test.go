package calibration

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/charlie0129/vnacal/pkg/config"
	"github.com/charlie0129/vnacal/pkg/network"
	"github.com/charlie0129/vnacal/pkg/standard"
)

func TestPublishUnmappedKey(t *testing.T) {
	dir := t.TempDir()
	n, err := network.NewOnePort("x", testFreqs, make([]complex128, len(testFreqs)))
	require.NoError(t, err)

	report := publishErrorTerms("test", resultSet{"bogus": n, "EDF": n}, standard.ErrorTermFromCode,
		config.NewErrorTermFiles(map[standard.ErrorTerm]string{standard.FwdEd: filepath.Join(dir, "ed.s1p")}))

	require.Len(t, report.Warnings, 1)
	assert.Equal(t, "bogus", report.Warnings[0].Key)
	assert.ErrorIs(t, report.Warnings[0], ErrUnmappedKey)
	require.Len(t, report.Written, 1)
	assert.Equal(t, standard.FwdEd, report.Written[0].Term)

	written := readOnePort(t, report.Written[0].Path)
	assert.Equal(t, len(testFreqs), written.Len())
	assert.Equal(t, "x", n.Name)
}

func TestPublishContinuesAfterWriteFailure(t *testing.T) {
	dir := t.TempDir()
	m := NewOnePort(solFixture(t, dir))
	require.NoError(t, m.Run(config.Settings{}))

	errDisk := errors.New("disk full")
	orig := writeNetwork
	writeNetwork = func(path string, n *network.Network) (string, error) {
		if strings.HasSuffix(path, "es.s1p") {
			return "", errDisk
		}
		return orig(path, n)
	}
	defer func() { writeNetwork = orig }()

	out := filepath.Join(dir, "out")
	report, err := m.SaveErrorTerms(config.NewErrorTermFiles(map[standard.ErrorTerm]string{
		standard.FwdEd:  filepath.Join(out, "ed.s1p"),
		standard.FwdEs:  filepath.Join(out, "es.s1p"),
		standard.FwdErt: filepath.Join(out, "ert.s1p"),
	}))
	require.NoError(t, err)
	require.Len(t, report.Warnings, 1)
	assert.Equal(t, "source match", report.Warnings[0].Key)
	assert.ErrorIs(t, report.Warnings[0], errDisk)
	assert.Len(t, report.Written, 2)
	assert.FileExists(t, filepath.Join(out, "ed.s1p"))
	assert.FileExists(t, filepath.Join(out, "ert.s1p"))
}

func TestSplitPath(t *testing.T) {
	tests := []struct {
		path, dir, file string
	}{
		{"/a/b/c.s2p", "/a/b", "c.s2p"},
		{`C:\cal\thru.s2p`, `C:\cal`, "thru.s2p"},
		{"thru.s2p", ".", "thru.s2p"},
		{"/thru.s2p", "/", "thru.s2p"},
		{`d/mixed\line1.s2p`, `d/mixed`, "line1.s2p"},
	}
	for _, tt := range tests {
		dir, file := splitPath(tt.path)
		assert.Equal(t, tt.dir, dir, tt.path)
		assert.Equal(t, tt.file, file, tt.path)
	}
	assert.Equal(t, "line1", fileStem(`x\LINE1.S2P`))
}
