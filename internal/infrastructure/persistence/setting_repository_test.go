package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/Mugunth140/medical-billing/internal/domain/printing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGormSettingRepository_GetSetDelete(t *testing.T) {
	db := newTestDatabase(t)
	repo := NewGormSettingRepository(db.DB)
	ctx := context.Background()

	value, err := repo.Get(ctx, "receipt.footer")
	require.NoError(t, err)
	assert.Empty(t, value)

	require.NoError(t, repo.Set(ctx, "receipt.footer", "Get well soon"))
	value, err = repo.Get(ctx, "receipt.footer")
	require.NoError(t, err)
	assert.Equal(t, "Get well soon", value)

	require.NoError(t, repo.Set(ctx, "receipt.footer", "Thank you"))
	value, err = repo.Get(ctx, "receipt.footer")
	require.NoError(t, err)
	assert.Equal(t, "Thank you", value)

	require.NoError(t, repo.Delete(ctx, "receipt.footer"))
	value, err = repo.Get(ctx, "receipt.footer")
	require.NoError(t, err)
	assert.Empty(t, value)

	// deleting an absent key is fine
	assert.NoError(t, repo.Delete(ctx, "receipt.footer"))
}

func TestGormSettingRepository_SetUpdatesTimestamp(t *testing.T) {
	db := newTestDatabase(t)
	repo := NewGormSettingRepository(db.DB)
	ctx := context.Background()

	first := time.Date(2026, 1, 2, 8, 0, 0, 0, time.UTC)
	second := first.Add(time.Hour)

	repo.now = func() time.Time { return first }
	require.NoError(t, repo.Set(ctx, "k", "v1"))

	repo.now = func() time.Time { return second }
	require.NoError(t, repo.Set(ctx, "k", "v2"))

	var count int64
	require.NoError(t, db.DB.Table("app_settings").Count(&count).Error)
	assert.Equal(t, int64(1), count)

	var updatedAt time.Time
	require.NoError(t, db.DB.Table("app_settings").Select("updated_at").Where("key = ?", "k").Row().Scan(&updatedAt))
	assert.True(t, second.Equal(updatedAt), "updated_at = %v", updatedAt)
}

func TestGormSettingRepository_PreferredPrinter(t *testing.T) {
	db := newTestDatabase(t)
	repo := NewGormSettingRepository(db.DB)
	ctx := context.Background()

	name, err := repo.GetPreferredPrinter(ctx)
	require.NoError(t, err)
	assert.Empty(t, name)

	require.NoError(t, repo.SetPreferredPrinter(ctx, "EPSON TM-T82"))
	name, err = repo.GetPreferredPrinter(ctx)
	require.NoError(t, err)
	assert.Equal(t, "EPSON TM-T82", name)

	stored, err := repo.Get(ctx, printing.PreferredPrinterKey)
	require.NoError(t, err)
	assert.Equal(t, "EPSON TM-T82", stored)

	require.NoError(t, repo.SetPreferredPrinter(ctx, ""))
	name, err = repo.GetPreferredPrinter(ctx)
	require.NoError(t, err)
	assert.Empty(t, name)
}
