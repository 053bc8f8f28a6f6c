// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"catalogcms/internal/models"
)

// PluginStore manages category plugins, the tags placed in a page's
// categories placeholder.
type PluginStore struct {
	db *sql.DB
}

// NewPluginStore returns a new PluginStore.
func NewPluginStore(db *sql.DB) *PluginStore {
	return &PluginStore{db: db}
}

const pluginColumns = `id, placeholder_id, language, category_page_id, position, created_at`

func scanPlugin(row scanner) (*models.CategoryPlugin, error) {
	var p models.CategoryPlugin
	err := row.Scan(&p.ID, &p.PlaceholderID, &p.Language, &p.CategoryPageID, &p.Position, &p.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// AddCategoryPlugin appends a tag for a category to a placeholder in one
// language. categoryPageID may be either revision of the category page;
// the plugin always references the draft. The change stays on the
// placeholder's page until that page is published.
func (s *PluginStore) AddCategoryPlugin(ctx context.Context, placeholderID uuid.UUID, language string, categoryPageID uuid.UUID) (*models.CategoryPlugin, error) {
	row := s.db.QueryRowContext(ctx, `
		INSERT INTO category_plugins (placeholder_id, language, category_page_id, position)
		SELECT $1, $2, d.id, COALESCE((
			SELECT MAX(position) + 1 FROM category_plugins
			WHERE placeholder_id = $1 AND language = $2
		), 0)
		FROM pages c
		JOIN pages d ON d.node_id = c.node_id AND d.is_draft
		JOIN page_extensions e ON e.page_id = d.id AND e.kind = 'category'
		WHERE c.id = $3
		RETURNING `+pluginColumns,
		placeholderID, language, categoryPageID,
	)
	p, err := scanPlugin(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("add category plugin: category page %s: %w", categoryPageID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("add category plugin: %w", err)
	}
	slog.Debug("category plugin added",
		"placeholder_id", placeholderID,
		"language", language,
		"category_page_id", p.CategoryPageID,
	)
	return p, nil
}

// TagPage adds a category plugin to the categories placeholder of the
// draft revision of pageID.
func (s *PluginStore) TagPage(ctx context.Context, pageID uuid.UUID, language string, categoryPageID uuid.UUID) (*models.CategoryPlugin, error) {
	var placeholderID uuid.UUID
	err := s.db.QueryRowContext(ctx, `
		SELECT ph.id
		FROM pages src
		JOIN pages d ON d.node_id = src.node_id AND d.is_draft
		JOIN placeholders ph ON ph.page_id = d.id AND ph.slot = $2
		WHERE src.id = $1
	`, pageID, models.SlotCategories).Scan(&placeholderID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("tag page %s: %w", pageID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("tag page: find placeholder: %w", err)
	}
	return s.AddCategoryPlugin(ctx, placeholderID, language, categoryPageID)
}

// ListByPlaceholder returns the plugins of a placeholder in one language,
// in position order.
func (s *PluginStore) ListByPlaceholder(ctx context.Context, placeholderID uuid.UUID, language string) ([]models.CategoryPlugin, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+pluginColumns+`
		FROM category_plugins
		WHERE placeholder_id = $1 AND language = $2
		ORDER BY position
	`, placeholderID, language)
	if err != nil {
		return nil, fmt.Errorf("list category plugins: %w", err)
	}
	defer rows.Close()

	var plugins []models.CategoryPlugin
	for rows.Next() {
		p, err := scanPlugin(rows)
		if err != nil {
			return nil, fmt.Errorf("scan category plugin: %w", err)
		}
		plugins = append(plugins, *p)
	}
	return plugins, rows.Err()
}

// Delete removes a plugin by ID.
func (s *PluginStore) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM category_plugins WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete category plugin: %w", err)
	}
	return nil
}
