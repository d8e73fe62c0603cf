package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompileInsensitive(t *testing.T) {
	res, err := CompileInsensitive([]string{`датчик.*давлен`, `hammer`})
	require.NoError(t, err)
	require.Len(t, res, 2)

	assert.True(t, res[0].MatchString("ДАТЧИК ДАВЛЕНИЯ"))
	assert.True(t, res[1].MatchString("Claw HAMMER"))

	_, err = CompileInsensitive([]string{`(unclosed`})
	assert.Error(t, err)

	assert.Panics(t, func() { MustCompileInsensitive([]string{`[`}) })
}
