// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"catalogcms/internal/models"
)

// ExtensionStore manages the page extensions that turn a page into a
// category, course, blog post or person.
type ExtensionStore struct {
	db *sql.DB
}

// NewExtensionStore returns a new ExtensionStore.
func NewExtensionStore(db *sql.DB) *ExtensionStore {
	return &ExtensionStore{db: db}
}

// extensionColumns lists the page_extensions columns, qualified with alias e.
const extensionColumns = `e.id, e.kind, e.page_id, e.is_draft, e.public_extension_id, e.created_at`

func scanExtension(row scanner) (*models.Extension, error) {
	var e models.Extension
	err := row.Scan(&e.ID, &e.Kind, &e.PageID, &e.IsDraft, &e.PublicExtensionID, &e.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// Create extends a draft page with the given kind. Public extensions are
// only created by PageStore.Publish.
func (s *ExtensionStore) Create(ctx context.Context, kind models.ExtensionKind, pageID uuid.UUID) (*models.Extension, error) {
	row := s.db.QueryRowContext(ctx, `
		INSERT INTO page_extensions AS e (kind, page_id, is_draft)
		SELECT $1, id, TRUE FROM pages WHERE id = $2 AND is_draft
		RETURNING `+extensionColumns,
		kind, pageID,
	)
	e, err := scanExtension(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("create %s extension: draft page %s: %w", kind, pageID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("create %s extension: %w", kind, err)
	}
	return e, nil
}

// FindByID retrieves an extension by ID. Returns nil if not found.
func (s *ExtensionStore) FindByID(ctx context.Context, id uuid.UUID) (*models.Extension, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+extensionColumns+` FROM page_extensions e WHERE e.id = $1`, id)
	e, err := scanExtension(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find extension by id: %w", err)
	}
	return e, nil
}

// FindByPageID retrieves the extension of a page. Returns nil if the page
// is not extended.
func (s *ExtensionStore) FindByPageID(ctx context.Context, pageID uuid.UUID) (*models.Extension, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+extensionColumns+` FROM page_extensions e WHERE e.page_id = $1`, pageID)
	e, err := scanExtension(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find extension by page: %w", err)
	}
	return e, nil
}

// PublicExtension returns the public counterpart of an extension, the
// extension itself if it is already public, or nil if never published.
func (s *ExtensionStore) PublicExtension(ctx context.Context, e *models.Extension) (*models.Extension, error) {
	if !e.IsDraft {
		return e, nil
	}
	if e.PublicExtensionID == nil {
		return nil, nil
	}
	return s.FindByID(ctx, *e.PublicExtensionID)
}

// DraftExtension returns the draft counterpart of an extension.
func (s *ExtensionStore) DraftExtension(ctx context.Context, e *models.Extension) (*models.Extension, error) {
	if e.IsDraft {
		return e, nil
	}
	row := s.db.QueryRowContext(ctx, `
		SELECT `+extensionColumns+` FROM page_extensions e WHERE e.public_extension_id = $1
	`, e.ID)
	d, err := scanExtension(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find draft extension: %w", err)
	}
	return d, nil
}

// Count returns the number of extension rows of a kind, draft and public
// revisions included.
func (s *ExtensionStore) Count(ctx context.Context, kind models.ExtensionKind) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM page_extensions WHERE kind = $1`, kind).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count extensions: %w", err)
	}
	return count, nil
}
