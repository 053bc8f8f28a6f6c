// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package editor runs editorial changes to the page tree. Every change
// drops the cached listings it can affect and records the invalidation
// in the cache log.
package editor

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"catalogcms/internal/cache"
	"catalogcms/internal/models"
	"catalogcms/internal/store"
)

// ErrNotPublished is returned when unpublishing a page that never had a
// public revision.
var ErrNotPublished = errors.New("page is not published")

// Editor groups the stores touched by editorial changes.
type Editor struct {
	pages      *store.PageStore
	plugins    *store.PluginStore
	categories *store.CategoryStore
	cacheLog   *store.CacheLogStore
	listings   *cache.ListingCache
}

// New creates an Editor. listings may be nil when Valkey is not
// configured.
func New(db *sql.DB, categories *store.CategoryStore, listings *cache.ListingCache) *Editor {
	return &Editor{
		pages:      store.NewPageStore(db),
		plugins:    store.NewPluginStore(db),
		categories: categories,
		cacheLog:   store.NewCacheLogStore(db),
		listings:   listings,
	}
}

// Publish publishes one language of a page and returns its public
// revision.
func (e *Editor) Publish(ctx context.Context, pageID uuid.UUID, language string) (*models.Page, error) {
	public, err := e.pages.Publish(ctx, pageID, language)
	if err != nil {
		return nil, err
	}
	e.invalidatePage(ctx, pageID, store.ActionPublish)
	return public, nil
}

// Unpublish withdraws one language of a page from the public site.
func (e *Editor) Unpublish(ctx context.Context, pageID uuid.UUID, language string) error {
	page, err := e.pages.FindByID(ctx, pageID)
	if err != nil {
		return err
	}
	if page == nil {
		return fmt.Errorf("unpublish page %s: %w", pageID, store.ErrNotFound)
	}
	if !page.IsPublished() {
		return fmt.Errorf("unpublish page %s: %w", pageID, ErrNotPublished)
	}
	if err := e.pages.Unpublish(ctx, pageID, language); err != nil {
		return err
	}
	e.invalidatePage(ctx, pageID, store.ActionUnpublish)
	return nil
}

// Tag adds cat to the categories placeholder of the draft revision of
// pageID. Only draft listings change: those of the draft category and of
// its category ancestors, which list descendants.
func (e *Editor) Tag(ctx context.Context, pageID uuid.UUID, language string, cat *models.Category) (*models.CategoryPlugin, error) {
	draft, err := e.categories.InRevision(ctx, cat, models.RevisionDraft)
	if err != nil {
		return nil, fmt.Errorf("tag page: %w", err)
	}
	if draft == nil {
		return nil, fmt.Errorf("tag page: draft of category %s: %w", cat.ID, store.ErrNotFound)
	}

	plugin, err := e.plugins.TagPage(ctx, pageID, language, draft.PageID)
	if err != nil {
		return nil, err
	}

	if e.listings != nil {
		ancestors, err := e.categories.Ancestors(ctx, draft)
		if err != nil {
			return nil, fmt.Errorf("tag page: %w", err)
		}
		for _, a := range ancestors {
			e.listings.InvalidateCategory(ctx, a.ID)
		}
		e.listings.InvalidateCategory(ctx, draft.ID)
	}
	e.cacheLog.Log(ctx, "category", draft.ID, store.ActionTag)

	slog.Info("page tagged", "page_id", pageID, "category_id", draft.ID, "language", language)
	return plugin, nil
}

// Snapshot copies the draft of a page into a new draft child page.
// Snapshots never appear in listings, so nothing is invalidated; the
// event is still logged.
func (e *Editor) Snapshot(ctx context.Context, pageID uuid.UUID) (*models.Page, error) {
	snap, err := e.pages.Snapshot(ctx, pageID)
	if err != nil {
		return nil, err
	}
	e.cacheLog.Log(ctx, "page", pageID, store.ActionSnapshot)
	return snap, nil
}

// invalidatePage clears every listing since a page can be tagged with any
// number of categories, then logs the event.
func (e *Editor) invalidatePage(ctx context.Context, pageID uuid.UUID, action string) {
	e.listings.InvalidateAll(ctx)
	e.cacheLog.Log(ctx, "page", pageID, action)
}
