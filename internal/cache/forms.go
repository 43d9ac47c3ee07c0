// Package cache keeps published form definitions in Redis so navigation and
// submission do not hit Postgres for every respondent request.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"formrelay/backend/internal/repository"
	"formrelay/backend/pkg/models"
)

const keyPrefix = "form:"

// Logger is the subset of the application logger used by the cache.
type Logger interface {
	Warn(msg string, keyvals ...any)
}

// FormCache is a read-through repository.FormStore backed by Redis. Cache
// failures are logged and fall through to the underlying store.
type FormCache struct {
	next   repository.FormStore
	client redis.Cmdable
	ttl    time.Duration
	logger Logger
}

var _ repository.FormStore = (*FormCache)(nil)

// NewFormCache wraps next with a Redis cache whose entries expire after ttl.
func NewFormCache(next repository.FormStore, client redis.Cmdable, ttl time.Duration, logger Logger) *FormCache {
	return &FormCache{next: next, client: client, ttl: ttl, logger: logger}
}

func key(id string) string {
	return keyPrefix + id
}

// GetForm returns the cached form or loads and caches it.
func (c *FormCache) GetForm(ctx context.Context, id string) (*models.Form, error) {
	data, err := c.client.Get(ctx, key(id)).Bytes()
	switch {
	case err == nil:
		var form models.Form
		if err := json.Unmarshal(data, &form); err == nil {
			return &form, nil
		}
		c.logger.Warn("discarding undecodable cached form", "form_id", id)
	case !errors.Is(err, redis.Nil):
		c.logger.Warn("form cache read failed", "form_id", id, "error", err)
	}

	form, err := c.next.GetForm(ctx, id)
	if err != nil {
		return nil, err
	}
	c.store(ctx, form)
	return form, nil
}

// SaveForm writes through to the store and drops the cached copy.
func (c *FormCache) SaveForm(ctx context.Context, form *models.Form) error {
	if err := c.next.SaveForm(ctx, form); err != nil {
		return err
	}
	c.Invalidate(ctx, form.ID)
	return nil
}

// Invalidate removes a form from the cache.
func (c *FormCache) Invalidate(ctx context.Context, id string) {
	if err := c.client.Del(ctx, key(id)).Err(); err != nil {
		c.logger.Warn("form cache invalidation failed", "form_id", id, "error", err)
	}
}

func (c *FormCache) store(ctx context.Context, form *models.Form) {
	data, err := json.Marshal(form)
	if err != nil {
		c.logger.Warn("form cache encode failed", "form_id", form.ID, "error", err)
		return
	}
	if err := c.client.Set(ctx, key(form.ID), data, c.ttl).Err(); err != nil {
		c.logger.Warn("form cache write failed", "form_id", form.ID, "error", err)
	}
}
