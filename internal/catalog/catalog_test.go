// SPDX-License-Identifier: MIT

package catalog_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ecuscope/ecuscope/internal/catalog"
)

func TestDescribe_Known(t *testing.T) {
	c := catalog.New()

	d, err := c.Describe("EMS")
	require.NoError(t, err)
	assert.Equal(t, "EMS", d.ID)
	assert.Equal(t, catalog.PriorityCritical, d.Priority)
	assert.True(t, d.Capabilities.LiveData)
	assert.True(t, d.Capabilities.ActuatorTesting)
	assert.True(t, d.Capabilities.DiagnosticRoutines)
}

func TestDescribe_Unknown(t *testing.T) {
	c := catalog.New()

	_, err := c.Describe("NOPE")
	require.Error(t, err)

	var unknown *catalog.ErrUnknownModule
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, "NOPE", unknown.ModuleID)
}

func TestSVSCapabilities(t *testing.T) {
	c := catalog.New()

	d, err := c.Describe("SVS")
	require.NoError(t, err)
	assert.True(t, d.Capabilities.LiveData)
	assert.False(t, d.Capabilities.ActuatorTesting)
	assert.False(t, d.Capabilities.DiagnosticRoutines)
}

func TestList_SortedByID(t *testing.T) {
	c := catalog.New()

	list := c.List()
	require.NotEmpty(t, list)
	for i := 1; i < len(list); i++ {
		assert.Less(t, list[i-1].ID, list[i].ID)
	}
}

func TestLoadOverlay(t *testing.T) {
	overlay := `
modules:
  - id: EPS
    name: Electric Power Steering
    category: Chassis
    priority: HIGH
    capabilities:
      dtcAnalysis: true
      ecuIdentification: true
      liveData: true
`
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte(overlay), 0o600))

	c := catalog.New()
	require.NoError(t, c.LoadOverlay(path))

	d, err := c.Describe("EPS")
	require.NoError(t, err)
	assert.Equal(t, catalog.PriorityHigh, d.Priority)

	// Built-in entries survive an overlay load.
	_, err = c.Describe("EMS")
	require.NoError(t, err)
}

func TestLoadOverlay_InvalidKeepsTable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte("modules:\n  - id: X\n    priority: BOGUS\n"), 0o600))

	c := catalog.New()
	require.Error(t, c.LoadOverlay(path))

	_, err := c.Describe("EMS")
	require.NoError(t, err)
	_, err = c.Describe("X")
	require.Error(t, err)
}
