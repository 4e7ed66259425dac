// SPDX-License-Identifier: MIT

package storage_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ecuscope/ecuscope/internal/storage"
)

func gateways(t *testing.T) map[string]storage.Gateway {
	t.Helper()

	badger, err := storage.OpenBadger(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = badger.Close() })

	return map[string]storage.Gateway{
		"badger": badger,
		"memory": storage.NewMemory(),
	}
}

func TestGateway_ReadAbsent(t *testing.T) {
	ctx := context.Background()
	for name, gw := range gateways(t) {
		t.Run(name, func(t *testing.T) {
			_, ok, err := gw.Read(ctx, "progress:EMS")
			require.NoError(t, err)
			assert.False(t, ok, "absent key must read as empty state, not error")
		})
	}
}

func TestGateway_WriteReadDelete(t *testing.T) {
	ctx := context.Background()
	for name, gw := range gateways(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, gw.Write(ctx, "progress:EMS", []byte(`{"dtcAnalyzed":true}`)))

			val, ok, err := gw.Read(ctx, "progress:EMS")
			require.NoError(t, err)
			require.True(t, ok)
			assert.JSONEq(t, `{"dtcAnalyzed":true}`, string(val))

			require.NoError(t, gw.Delete(ctx, "progress:EMS"))
			_, ok, err = gw.Read(ctx, "progress:EMS")
			require.NoError(t, err)
			assert.False(t, ok)

			// Deleting again is a no-op.
			require.NoError(t, gw.Delete(ctx, "progress:EMS"))
		})
	}
}

func TestGateway_ListPrefix(t *testing.T) {
	ctx := context.Background()
	for name, gw := range gateways(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, gw.Write(ctx, "progress:EMS", []byte("{}")))
			require.NoError(t, gw.Write(ctx, "progress:ABS", []byte("{}")))
			require.NoError(t, gw.Write(ctx, "gates:EMS", []byte("{}")))

			keys, err := gw.List(ctx, "progress:")
			require.NoError(t, err)
			assert.ElementsMatch(t, []string{"progress:EMS", "progress:ABS"}, keys)
		})
	}
}

func TestBadger_SurvivesReopen(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	gw, err := storage.OpenBadger(dir)
	require.NoError(t, err)
	require.NoError(t, gw.Write(ctx, "gates:EMS", []byte(`{"dtc":true}`)))
	require.NoError(t, gw.Close())

	gw2, err := storage.OpenBadger(dir)
	require.NoError(t, err)
	defer func() { _ = gw2.Close() }()

	val, ok, err := gw2.Read(ctx, "gates:EMS")
	require.NoError(t, err)
	require.True(t, ok)
	assert.JSONEq(t, `{"dtc":true}`, string(val))
}
