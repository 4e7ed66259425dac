// SPDX-License-Identifier: MIT

package unlock_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ecuscope/ecuscope/internal/catalog"
	"github.com/ecuscope/ecuscope/internal/progress"
	"github.com/ecuscope/ecuscope/internal/storage"
	"github.com/ecuscope/ecuscope/internal/unlock"
)

func newMachine(t *testing.T) *unlock.Machine {
	t.Helper()
	gw := storage.NewMemory()
	return unlock.NewMachine(catalog.New(), progress.NewStore(gw), gw)
}

func boolPtr(b bool) *bool { return &b }

func TestDTCUnlockedByDefault(t *testing.T) {
	ctx := context.Background()
	m := newMachine(t)

	for _, id := range []string{"EMS", "ABS", "SVS", "HVAC"} {
		open, err := m.IsUnlocked(ctx, id, unlock.TabDTC)
		require.NoError(t, err)
		assert.True(t, open, "DTC must be open for %s before any progress", id)

		for _, tab := range []unlock.Tab{unlock.TabECUID, unlock.TabLiveData, unlock.TabActuators, unlock.TabRoutines} {
			open, err := m.IsUnlocked(ctx, id, tab)
			require.NoError(t, err)
			assert.False(t, open, "%s/%s must start locked", id, tab)
		}
	}
}

func TestReportProgress_UnknownModule(t *testing.T) {
	m := newMachine(t)

	_, err := m.ReportProgress(context.Background(), "NOPE", progress.Update{})
	var unknown *catalog.ErrUnknownModule
	require.ErrorAs(t, err, &unknown)
}

// Full-capability module: DTC analysis plus a viewed category opens ECU-Id;
// ECU-Id access then opens every capability-backed tab.
func TestEMSUnlockSequence(t *testing.T) {
	ctx := context.Background()
	m := newMachine(t)

	gates, err := m.ReportProgress(ctx, "EMS", progress.Update{
		DTCAnalyzed: boolPtr(true),
		Categories:  []string{"Fuel System"},
	})
	require.NoError(t, err)
	assert.True(t, gates[unlock.TabECUID])
	assert.False(t, gates[unlock.TabLiveData])
	assert.False(t, gates[unlock.TabActuators])
	assert.False(t, gates[unlock.TabRoutines])

	gates, err = m.ReportProgress(ctx, "EMS", progress.Update{
		ECUIDAccessed: boolPtr(true),
	})
	require.NoError(t, err)
	assert.True(t, gates[unlock.TabLiveData])
	assert.True(t, gates[unlock.TabActuators])
	assert.True(t, gates[unlock.TabRoutines])
}

// Capability-limited module: ECU-Id access opens only the tabs the
// descriptor actually supports.
func TestSVSCapabilityGating(t *testing.T) {
	ctx := context.Background()
	m := newMachine(t)

	_, err := m.ReportProgress(ctx, "SVS", progress.Update{
		DTCAnalyzed: boolPtr(true),
		Categories:  []string{"Stability"},
	})
	require.NoError(t, err)

	gates, err := m.ReportProgress(ctx, "SVS", progress.Update{
		ECUIDAccessed: boolPtr(true),
	})
	require.NoError(t, err)
	assert.True(t, gates[unlock.TabLiveData])
	assert.False(t, gates[unlock.TabActuators], "SVS has no actuator capability")
	assert.False(t, gates[unlock.TabRoutines], "SVS has no routine capability")
}

func TestMonotonicity_NoRelock(t *testing.T) {
	ctx := context.Background()
	m := newMachine(t)

	_, err := m.ReportProgress(ctx, "EMS", progress.Update{
		DTCAnalyzed: boolPtr(true),
		Categories:  []string{"Fuel System"},
	})
	require.NoError(t, err)

	// A later report that rescinds DTC analysis must not re-lock ECU-Id.
	gates, err := m.ReportProgress(ctx, "EMS", progress.Update{
		DTCAnalyzed: boolPtr(false),
	})
	require.NoError(t, err)
	assert.True(t, gates[unlock.TabECUID], "unlocked tab must never re-lock")
}

func TestReportProgress_Idempotent(t *testing.T) {
	ctx := context.Background()
	m := newMachine(t)

	upd := progress.Update{
		DTCAnalyzed: boolPtr(true),
		Categories:  []string{"Fuel System"},
	}
	first, err := m.ReportProgress(ctx, "EMS", upd)
	require.NoError(t, err)
	second, err := m.ReportProgress(ctx, "EMS", upd)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestGatesSurviveRestart(t *testing.T) {
	ctx := context.Background()
	gw := storage.NewMemory()
	store := progress.NewStore(gw)

	m := unlock.NewMachine(catalog.New(), store, gw)
	_, err := m.ReportProgress(ctx, "EMS", progress.Update{
		DTCAnalyzed: boolPtr(true),
		Categories:  []string{"Fuel System"},
	})
	require.NoError(t, err)

	// A fresh machine over the same gateway sees the persisted gates.
	m2 := unlock.NewMachine(catalog.New(), store, gw)
	open, err := m2.IsUnlocked(ctx, "EMS", unlock.TabECUID)
	require.NoError(t, err)
	assert.True(t, open)
}

func TestReset(t *testing.T) {
	ctx := context.Background()
	m := newMachine(t)

	_, err := m.ReportProgress(ctx, "EMS", progress.Update{
		DTCAnalyzed: boolPtr(true),
		Categories:  []string{"Fuel System"},
	})
	require.NoError(t, err)
	require.NoError(t, m.Reset(ctx, "EMS"))

	open, err := m.IsUnlocked(ctx, "EMS", unlock.TabECUID)
	require.NoError(t, err)
	assert.False(t, open, "reset returns the module to its initial gate state")
}

func TestCorruptGateRecordFallsBackToDefault(t *testing.T) {
	ctx := context.Background()
	gw := storage.NewMemory()
	require.NoError(t, gw.Write(ctx, "gates:EMS", []byte("{broken")))

	m := unlock.NewMachine(catalog.New(), progress.NewStore(gw), gw)
	gates, err := m.Gates(ctx, "EMS")
	require.NoError(t, err)
	assert.True(t, gates[unlock.TabDTC])
	assert.False(t, gates[unlock.TabECUID])
}

func TestSelect_CountsRepeatedSelections(t *testing.T) {
	ctx := context.Background()
	gw := storage.NewMemory()
	store := progress.NewStore(gw)
	m := unlock.NewMachine(catalog.New(), store, gw)

	for i := 0; i < 3; i++ {
		_, err := m.Select(ctx, "EMS")
		require.NoError(t, err)
	}

	p, err := store.Get(ctx, "EMS")
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, 3, p.SessionCount)
	assert.False(t, p.LastUpdated.IsZero())

	// Progress reports must not disturb the selection counter.
	_, err = m.ReportProgress(ctx, "EMS", progress.Update{DTCAnalyzed: boolPtr(true)})
	require.NoError(t, err)
	p, err = store.Get(ctx, "EMS")
	require.NoError(t, err)
	assert.Equal(t, 3, p.SessionCount)
}
