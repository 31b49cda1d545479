package cli

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSyncCmd_Use(t *testing.T) {
	assert.Equal(t, "sync [module-id...]", syncCmd.Use)
}

func TestSyncCmd_Long(t *testing.T) {
	assert.Contains(t, syncCmd.Long, "module IDs")
	assert.Contains(t, syncCmd.Long, "all modules")
}

func TestSyncCmd_ExecutesWithoutArgs(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()

	out, err := execute("sync")

	require.NoError(t, err)
	assert.Contains(t, out, "Synchronising all modules...")
	assert.Contains(t, out, "All modules synchronised successfully.")
	assert.Equal(t, 1, ts.content.syncAll)
}

func TestSyncCmd_ExecutesWithModuleIDs(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()

	out, err := execute("sync", "algo", "ana")

	require.NoError(t, err)
	assert.Contains(t, out, "Synchronising module: algo")
	assert.Contains(t, out, "Module ana synchronised successfully.")
	assert.Equal(t, []string{"algo", "ana"}, ts.content.synced)
	assert.Zero(t, ts.content.syncAll)
}

func TestSyncCmd_ReportsFailures(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	ts.content.err = errors.New("offline")

	out, err := execute("sync", "algo")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "offline")
	assert.Contains(t, out, "Module algo failed")
}

func TestSyncCmd_ServiceNotConfigured(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()
	contentEngine = nil

	_, err := execute("sync")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "content engine not configured")
}

func TestDetectCmd_Executes(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()

	out, err := execute("detect")

	require.NoError(t, err)
	assert.Contains(t, out, "Detection complete.")
	assert.Equal(t, 1, ts.content.detected)
}

func TestDetectCmd_Failure(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	ts.content.err = errors.New("invalid token")

	_, err := execute("detect")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "detection failed: invalid token")
}

func TestDetectCmd_RejectsArgs(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()

	_, err := execute("detect", "extra")

	assert.Error(t, err)
}
