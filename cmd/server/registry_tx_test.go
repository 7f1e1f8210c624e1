package main

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"secureupdate/internal/updates/models"
	"secureupdate/internal/updates/store"
	dErrors "secureupdate/pkg/domain-errors"
	"secureupdate/pkg/platform/sentinel"
)

func TestSQLRegistryTx(t *testing.T) {
	lite, err := store.OpenSQLite(filepath.Join(t.TempDir(), "tx.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = lite.Close() })
	tx := newSQLRegistryTx(lite.DB())
	ctx := context.Background()

	t.Run("commits on success", func(t *testing.T) {
		err := tx.RunInTx(ctx, func(ctx context.Context) error {
			return lite.Put(ctx, "kept", &models.Update{ModelID: "kept", Encryption: "AES256"})
		})
		require.NoError(t, err)
		got, err := lite.Get(ctx, "kept")
		require.NoError(t, err)
		assert.Equal(t, "AES256", got.Encryption)
	})

	t.Run("rolls back on error", func(t *testing.T) {
		boom := errors.New("boom")
		err := tx.RunInTx(ctx, func(ctx context.Context) error {
			if err := lite.Put(ctx, "dropped", &models.Update{ModelID: "dropped"}); err != nil {
				return err
			}
			return boom
		})
		require.ErrorIs(t, err, boom)
		_, err = lite.Get(ctx, "dropped")
		assert.ErrorIs(t, err, sentinel.ErrNotFound)
	})

	t.Run("refuses a cancelled context", func(t *testing.T) {
		cancelled, cancel := context.WithCancel(ctx)
		cancel()
		err := tx.RunInTx(cancelled, func(context.Context) error { return nil })
		assert.True(t, dErrors.HasCode(err, dErrors.CodeTimeout))
	})
}
