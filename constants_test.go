package fcheck

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConstants_Set(t *testing.T) {
	cs := make(Constants)
	require.NoError(t, cs.Set("a=b=c"))
	require.NoError(t, cs.Set("empty="))
	assert.Equal(t, Constants{"a": "b=c", "empty": ""}, cs)
	assert.Error(t, cs.Set("noeq"))
	assert.Error(t, cs.Set("=x"))
	assert.Equal(t, []string{"a", "empty"}, cs.Names())
}

func TestLoadConstants(t *testing.T) {
	file := filepath.Join(t.TempDir(), "consts.yaml")
	require.NoError(t, os.WriteFile(file, []byte(`# build constants
ver: 1.2
name: foo bar
n: 3
`), 0666))
	cs := Constants{"ver": "0.1", "keep": "me"}
	require.NoError(t, LoadConstants(cs, file))
	assert.Equal(t, Constants{
		"ver":  "1.2",
		"name": "foo bar",
		"n":    "3",
		"keep": "me",
	}, cs)

	assert.Error(t, LoadConstants(cs, filepath.Join(t.TempDir(), "missing.yaml")))
	assert.Error(t, cs.Load([]byte("- not\n- a mapping\n")))
}
