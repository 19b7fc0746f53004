package main

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/user-auth-service/internal/logging"
)

func TestFail_FlushesLogBeforeExit(t *testing.T) {
	file := filepath.Join(t.TempDir(), "app.log")
	logger, closeLog, err := logging.New("prod", "info", file)
	require.NoError(t, err)

	var order []string
	code := fail(logger, errors.New("listen tcp :8080: address already in use"),
		func() { order = append(order, "stop") },
		func() {
			order = append(order, "close")
			require.NoError(t, closeLog.Close())
		},
	)

	assert.Equal(t, 1, code)
	assert.Equal(t, []string{"stop", "close"}, order)

	b, err := os.ReadFile(file)
	require.NoError(t, err)
	assert.Contains(t, string(b), "server stopped")
	assert.Contains(t, string(b), "address already in use")
}
