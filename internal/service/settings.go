package service

import (
	"context"
	"errors"
	"fmt"

	"delivery-service/internal/localcache"
	"delivery-service/internal/models"
	"delivery-service/internal/store"
	"delivery-service/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SettingsRepository keeps business settings local-first: the local cache is
// written before the database and stays authoritative when the database
// write fails.
type SettingsRepository struct {
	store  SettingsStore
	cache  localcache.Cache
	logger *zap.Logger
}

// NewSettingsRepository creates a new settings repository
func NewSettingsRepository(store SettingsStore, cache localcache.Cache) *SettingsRepository {
	return &SettingsRepository{
		store:  store,
		cache:  cache,
		logger: util.GetLogger(),
	}
}

// FetchSettings returns the database record merged over the cached one. A
// cached record whose database write failed is pushed instead of being
// overwritten. When the database fails or has no row it serves the cache,
// and when the cache is empty too it materializes a zero-valued record. It
// never fails.
func (r *SettingsRepository) FetchSettings(ctx context.Context) models.Settings {
	ctx, span := util.StartSpan(ctx, "SettingsRepository.FetchSettings")
	defer span.End()

	var cached models.Settings
	hasCached := localcache.LoadJSON(ctx, r.cache, localcache.KeySettings, &cached)

	remote, err := r.store.GetSettings(ctx)
	if err != nil {
		r.logger.Warn("Settings read failed, using local cache", zap.Error(err))
	}
	if err == nil && hasCached && r.pendingSync(ctx) {
		return r.pushPending(ctx, cached, remote)
	}
	if err == nil && remote != nil {
		merged := mergeRemoteSettings(cached, *remote)
		r.storeLocal(ctx, merged)
		return merged
	}

	util.LocalCacheFallbacksTotal.WithLabelValues(localcache.KeySettings).Inc()
	if hasCached {
		return cached
	}

	defaults := models.Settings{}
	r.storeLocal(ctx, defaults)
	return defaults
}

// UpdateSettings applies patch and saves the result locally, then to the
// database. Only a failed local write is reported; database failures are
// logged and the record is marked for a later push.
func (r *SettingsRepository) UpdateSettings(ctx context.Context, patch models.SettingsPatch) (models.Settings, error) {
	ctx, span := util.StartSpan(ctx, "SettingsRepository.UpdateSettings")
	defer span.End()

	next := patch.Apply(r.FetchSettings(ctx))
	insert := next.ID == ""
	if insert {
		next.ID = uuid.New().String()
	}

	if err := localcache.StoreJSON(ctx, r.cache, localcache.KeySettings, next); err != nil {
		return models.Settings{}, fmt.Errorf("failed to save settings locally: %w", err)
	}
	r.storeDelivery(ctx, next)

	if err := r.syncRemote(ctx, next, insert); err != nil {
		util.SettingsRemoteSyncFailures.Inc()
		r.logger.Error("Settings saved locally but not remotely",
			zap.String("settings_id", next.ID), zap.Error(err))
		r.setPendingSync(ctx, true)
		return next, nil
	}
	r.setPendingSync(ctx, false)
	return next, nil
}

// pushPending writes the locally edited record to a reachable database. The
// record keeps the database row's id when one exists.
func (r *SettingsRepository) pushPending(ctx context.Context, local models.Settings, remote *models.Settings) models.Settings {
	insert := false
	switch {
	case remote != nil && remote.ID != "":
		local.ID = remote.ID
	case local.ID == "":
		local.ID = uuid.New().String()
		insert = true
	}
	if err := r.syncRemote(ctx, local, insert); err != nil {
		util.SettingsRemoteSyncFailures.Inc()
		r.logger.Error("Pending settings still not synced",
			zap.String("settings_id", local.ID), zap.Error(err))
		return local
	}

	r.logger.Info("Pending settings synced", zap.String("settings_id", local.ID))
	r.storeLocal(ctx, local)
	r.setPendingSync(ctx, false)
	return local
}

func (r *SettingsRepository) pendingSync(ctx context.Context) bool {
	var pending bool
	return localcache.LoadJSON(ctx, r.cache, localcache.KeySettingsPending, &pending) && pending
}

func (r *SettingsRepository) setPendingSync(ctx context.Context, pending bool) {
	if err := localcache.StoreJSON(ctx, r.cache, localcache.KeySettingsPending, pending); err != nil {
		r.logger.Error("Failed to record settings sync state", zap.Bool("pending", pending), zap.Error(err))
	}
}

// FetchDeliverySettings returns the delivery subset
func (r *SettingsRepository) FetchDeliverySettings(ctx context.Context) models.DeliverySettings {
	return r.FetchSettings(ctx).Delivery()
}

func (r *SettingsRepository) syncRemote(ctx context.Context, s models.Settings, insert bool) error {
	if insert {
		return r.store.InsertSettings(ctx, s)
	}
	err := r.store.UpdateSettings(ctx, s)
	if errors.Is(err, store.ErrNotFound) {
		return r.store.InsertSettings(ctx, s)
	}
	return err
}

func (r *SettingsRepository) storeLocal(ctx context.Context, s models.Settings) {
	if err := localcache.StoreJSON(ctx, r.cache, localcache.KeySettings, s); err != nil {
		r.logger.Error("Failed to cache settings", zap.Error(err))
	}
	r.storeDelivery(ctx, s)
}

func (r *SettingsRepository) storeDelivery(ctx context.Context, s models.Settings) {
	if err := localcache.StoreJSON(ctx, r.cache, localcache.KeyDeliverySettings, s.Delivery()); err != nil {
		r.logger.Error("Failed to cache delivery settings", zap.Error(err))
	}
}

// mergeRemoteSettings overlays the persisted columns on the cached record so
// fields kept only locally survive a database read.
func mergeRemoteSettings(local, remote models.Settings) models.Settings {
	merged := remote
	merged.DeliveryRadius = local.DeliveryRadius
	merged.EstimatedTime = local.EstimatedTime
	merged.PreparationTime = local.PreparationTime
	merged.DeliveryTime = local.DeliveryTime
	return merged
}
