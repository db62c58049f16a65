package daemon

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDaemonizeIsNoopWhenAlreadyDaemonized(t *testing.T) {
	cwd, err := os.Getwd()
	require.NoError(t, err)
	t.Cleanup(func() { _ = os.Chdir(cwd) })

	require.NoError(t, os.Setenv(reexecEnvVar, "1"))
	defer os.Unsetenv(reexecEnvVar)

	spawned, err := Daemonize()
	require.NoError(t, err)
	assert.False(t, spawned)
}
