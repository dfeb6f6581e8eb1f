package main

import (
	"embed"
	"io/fs"
	"path"
	"strings"
	"testing"

	"github.com/cottand/symdag/backend"
	"github.com/cottand/symdag/symdag"
	"github.com/janpfeifer/must"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// embeds the test folder
//
//go:embed testdata
var testSet embed.FS

// wants reads the expected canonical forms of a file, one per line as in
//
//	//symdag:want name = canonical
func wants(t *testing.T, src string) map[string]string {
	res := map[string]string{}
	for _, line := range strings.Split(src, "\n") {
		rest, ok := strings.CutPrefix(line, "//symdag:want ")
		if !ok {
			continue
		}
		name, canonical, found := strings.Cut(rest, " = ")
		if !found {
			t.Fatalf("could not parse want comment: '%v'", line)
		}
		res[name] = canonical
	}
	return res
}

func TestEndToEnd(t *testing.T) {
	err := fs.WalkDir(testSet, "testdata", func(p string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || !strings.HasSuffix(p, ".sym") {
			return err
		}
		testFile(t, p)
		return nil
	})
	require.NoError(t, err)
}

func testFile(t *testing.T, p string) bool {
	return t.Run(strings.TrimPrefix(p, "testdata/"), func(t *testing.T) {
		content := must.M1(testSet.ReadFile(p))
		expected := wants(t, string(content))
		require.NotEmpty(t, expected)

		settings := symdag.DefaultSettings()
		settings.Check.Enabled = true
		res, err := symdag.ProcessFile(testSet, p, settings)
		require.NoError(t, err)

		prog, err := backend.Interpret(settings.Package, res.GoSource)
		require.NoError(t, err, "go program:\n-------\n%v---------", res.GoSource)

		require.Len(t, res.Definitions, len(expected))
		for _, d := range res.Definitions {
			assert.Equal(t, expected[d.Name], d.Canonical, "%s in %s", d.Name, path.Base(p))

			args := make([]float64, len(d.Params))
			for i := range args {
				args[i] = 1.5
			}
			_, err := prog.Call(d.Name, args...)
			assert.NoError(t, err)
		}
	})
}
