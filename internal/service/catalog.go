package service

import (
	"context"
	"fmt"

	"delivery-service/internal/localcache"
	"delivery-service/internal/models"
	"delivery-service/internal/store"
	"delivery-service/internal/util"
	"delivery-service/internal/validation"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Catalog serves the menu from the database, mirrored into the local cache
// so it can still be listed while the database is down.
type Catalog struct {
	store   ProductStore
	changes ChangeSubscriber
	cache   localcache.Cache
	logger  *zap.Logger
}

// NewCatalog creates a new catalog. changes may be nil.
func NewCatalog(store ProductStore, changes ChangeSubscriber, cache localcache.Cache) *Catalog {
	return &Catalog{
		store:   store,
		changes: changes,
		cache:   cache,
		logger:  util.GetLogger(),
	}
}

// List returns the menu, falling back to the cached copy when the database
// read fails.
func (c *Catalog) List(ctx context.Context) ([]models.Product, error) {
	ctx, span := util.StartSpan(ctx, "Catalog.List")
	defer span.End()

	products, err := c.store.ListProducts(ctx)
	if err == nil {
		if err := localcache.StoreJSON(ctx, c.cache, localcache.KeyProducts, products); err != nil {
			c.logger.Error("Failed to cache products", zap.Error(err))
		}
		return products, nil
	}

	c.logger.Warn("Product read failed, using local cache", zap.Error(err))
	util.LocalCacheFallbacksTotal.WithLabelValues(localcache.KeyProducts).Inc()

	var cached []models.Product
	if localcache.LoadJSON(ctx, c.cache, localcache.KeyProducts, &cached) {
		return cached, nil
	}
	return nil, fmt.Errorf("failed to list products: %w", err)
}

// Create adds a product
func (c *Catalog) Create(ctx context.Context, in validation.ProductInput) (*models.Product, error) {
	product, err := validation.ValidateProduct(in)
	if err != nil {
		return nil, err
	}
	product.ID = uuid.New().String()

	if err := c.store.InsertProduct(ctx, &product); err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}
	c.refreshCache(ctx)
	return &product, nil
}

// Update overwrites product id
func (c *Catalog) Update(ctx context.Context, id string, in validation.ProductInput) (*models.Product, error) {
	product, err := validation.ValidateProduct(in)
	if err != nil {
		return nil, err
	}
	product.ID = id

	if err := c.store.UpdateProduct(ctx, &product); err != nil {
		return nil, fmt.Errorf("failed to update product: %w", err)
	}
	c.refreshCache(ctx)
	return &product, nil
}

// Delete removes product id
func (c *Catalog) Delete(ctx context.Context, id string) error {
	if err := c.store.DeleteProduct(ctx, id); err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}
	c.refreshCache(ctx)
	return nil
}

// Watch publishes the menu now and after every change to the products table
func (c *Catalog) Watch(ctx context.Context, onChange func([]models.Product)) func() {
	reload := func(operation string) {
		if ctx.Err() != nil {
			return
		}
		products, err := c.List(ctx)
		if err != nil {
			util.OrderListRefetchTotal.WithLabelValues(store.TableProducts, "error").Inc()
			return
		}
		util.OrderListRefetchTotal.WithLabelValues(store.TableProducts, "ok").Inc()
		onChange(products)
	}

	reload(store.OperationResync)
	if c.changes == nil {
		return func() {}
	}
	return c.changes.Subscribe(store.TableProducts, func(ev store.ChangeEvent) {
		reload(ev.Operation)
	})
}

func (c *Catalog) refreshCache(ctx context.Context) {
	if _, err := c.List(ctx); err != nil {
		c.logger.Warn("Failed to refresh product cache", zap.Error(err))
	}
}
