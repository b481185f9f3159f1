package service

import (
	"context"
	"testing"

	"delivery-service/internal/localcache"
	"delivery-service/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSettings_RoundTripWithRemoteDown(t *testing.T) {
	st := &fakeSettingsStore{err: errStoreDown}
	cache := localcache.NewMemoryCache()
	repo := NewSettingsRepository(st, cache)
	ctx := context.Background()

	fee := decimal.NewFromFloat(7.5)
	updated, err := repo.UpdateSettings(ctx, models.SettingsPatch{DeliveryFee: &fee})
	require.NoError(t, err, "local write succeeded so the update succeeds")
	assert.True(t, updated.DeliveryFee.Equal(fee))

	fetched := repo.FetchSettings(ctx)
	assert.True(t, fetched.DeliveryFee.Equal(fee))
	assert.Equal(t, updated.ID, fetched.ID)

	var delivery models.DeliverySettings
	require.True(t, localcache.LoadJSON(ctx, cache, localcache.KeyDeliverySettings, &delivery))
	assert.True(t, delivery.DeliveryFee.Equal(fee))
}

func TestSettings_DefaultsMaterialized(t *testing.T) {
	cache := localcache.NewMemoryCache()
	repo := NewSettingsRepository(&fakeSettingsStore{}, cache)
	ctx := context.Background()

	settings := repo.FetchSettings(ctx)
	assert.Equal(t, models.Settings{}, settings)

	_, ok, err := cache.GetItem(ctx, localcache.KeySettings)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestSettings_MalformedCacheTreatedAsEmpty(t *testing.T) {
	cache := localcache.NewMemoryCache()
	ctx := context.Background()
	require.NoError(t, cache.SetItem(ctx, localcache.KeySettings, "{not json"))

	repo := NewSettingsRepository(&fakeSettingsStore{err: errStoreDown}, cache)
	assert.Equal(t, models.Settings{}, repo.FetchSettings(ctx))
}

func TestSettings_RemoteMergedOverLocalOnlyFields(t *testing.T) {
	cache := localcache.NewMemoryCache()
	ctx := context.Background()
	require.NoError(t, localcache.StoreJSON(ctx, cache, localcache.KeySettings, models.Settings{
		CompanyName:   "Stale Name",
		EstimatedTime: "50",
		DeliveryTime:  "20-30",
	}))

	st := &fakeSettingsStore{row: &models.Settings{ID: "s-1", CompanyName: "Pizzaria Bella", PixEnabled: true, PixKey: "pix@bella.com"}}
	repo := NewSettingsRepository(st, cache)

	settings := repo.FetchSettings(ctx)
	assert.Equal(t, "Pizzaria Bella", settings.CompanyName)
	assert.Equal(t, "50", settings.EstimatedTime)
	assert.Equal(t, "20-30", settings.DeliveryTime)
	assert.True(t, settings.PixReady())
}

func TestSettings_InsertThenUpdate(t *testing.T) {
	st := &fakeSettingsStore{}
	repo := NewSettingsRepository(st, localcache.NewMemoryCache())
	ctx := context.Background()

	name := "Pizzaria Bella"
	first, err := repo.UpdateSettings(ctx, models.SettingsPatch{CompanyName: &name})
	require.NoError(t, err)
	assert.NotEmpty(t, first.ID)
	assert.Equal(t, 1, st.inserts)

	prep := "20-25"
	second, err := repo.UpdateSettings(ctx, models.SettingsPatch{PreparationTime: &prep})
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "Pizzaria Bella", second.CompanyName)
	assert.Equal(t, "20-25", second.PreparationTime)
	assert.Equal(t, 1, st.updates)
}

func TestSettings_RemoteRowVanishedIsReinserted(t *testing.T) {
	cache := localcache.NewMemoryCache()
	ctx := context.Background()
	require.NoError(t, localcache.StoreJSON(ctx, cache, localcache.KeySettings, models.Settings{ID: "gone"}))

	st := &fakeSettingsStore{}
	repo := NewSettingsRepository(st, cache)

	name := "Nova"
	_, err := repo.UpdateSettings(ctx, models.SettingsPatch{CompanyName: &name})
	require.NoError(t, err)
	assert.Equal(t, 1, st.inserts)
	assert.Equal(t, "gone", st.row.ID)
}

func TestSettings_EditMadeWhileRemoteDownSurvivesRecovery(t *testing.T) {
	st := &fakeSettingsStore{}
	cache := localcache.NewMemoryCache()
	repo := NewSettingsRepository(st, cache)
	ctx := context.Background()

	five := decimal.NewFromInt(5)
	_, err := repo.UpdateSettings(ctx, models.SettingsPatch{DeliveryFee: &five})
	require.NoError(t, err)

	st.err = errStoreDown
	sevenHalf := decimal.NewFromFloat(7.5)
	_, err = repo.UpdateSettings(ctx, models.SettingsPatch{DeliveryFee: &sevenHalf})
	require.NoError(t, err)

	st.err = nil
	fetched := repo.FetchSettings(ctx)
	assert.True(t, fetched.DeliveryFee.Equal(sevenHalf), "got %s", fetched.DeliveryFee)
	assert.True(t, st.row.DeliveryFee.Equal(sevenHalf), "pending edit pushed to the database")
	assert.Equal(t, 1, st.inserts)
	assert.Equal(t, 1, st.updates)

	assert.False(t, repo.pendingSync(ctx))
	again := repo.FetchSettings(ctx)
	assert.True(t, again.DeliveryFee.Equal(sevenHalf))
	assert.Equal(t, 1, st.updates, "nothing left to push")
}

func TestSettings_PendingEditKeptWhilePushFails(t *testing.T) {
	st := &fakeSettingsStore{err: errStoreDown}
	repo := NewSettingsRepository(st, localcache.NewMemoryCache())
	ctx := context.Background()

	name := "Pizzaria Bella"
	_, err := repo.UpdateSettings(ctx, models.SettingsPatch{CompanyName: &name})
	require.NoError(t, err)
	assert.True(t, repo.pendingSync(ctx))

	assert.Equal(t, name, repo.FetchSettings(ctx).CompanyName)
	assert.True(t, repo.pendingSync(ctx))

	st.err = nil
	assert.Equal(t, name, repo.FetchSettings(ctx).CompanyName)
	assert.False(t, repo.pendingSync(ctx))
	require.NotNil(t, st.row)
	assert.Equal(t, name, st.row.CompanyName)
}
