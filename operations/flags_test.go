package operations

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli"
)

func TestFlagHelpers(t *testing.T) {
	assert.Equal(t, "project, p", joinFlagNames(projectRootFlag, "p"))

	merged := mergeFlags(projectFlags(), cacheFlags(), serviceFlags())
	assert.Equal(t, len(projectFlags())+len(cacheFlags())+len(serviceFlags()), len(merged))

	names := map[string]bool{}
	for _, flag := range merged {
		names[flag.GetName()] = true
	}
	assert.True(t, names[portFlag])
	assert.True(t, names[socketFlag])
	assert.True(t, names[cacheCapacityFlag])
}

func TestParseSocketMode(t *testing.T) {
	mode, err := parseSocketMode("666")
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0666), mode)

	mode, err = parseSocketMode("0644")
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0644), mode)

	_, err = parseSocketMode("rw-rw-rw-")
	assert.Error(t, err)

	_, err = parseSocketMode("999")
	assert.Error(t, err)
}

func TestCommandConstruction(t *testing.T) {
	for _, cmd := range []cli.Command{Service(), Setup(), Admin()} {
		assert.NotEmpty(t, cmd.Name)
		assert.NotEmpty(t, cmd.Usage)
	}

	assert.Len(t, Admin().Subcommands, 1)
	assert.Len(t, Admin().Subcommands[0].Subcommands, 2)
}
