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
	"sort"

	"github.com/google/uuid"

	"catalogcms/internal/models"
	"catalogcms/internal/slug"
)

// PageStore manages the page tree: nodes, their draft and public pages,
// titles and placeholders, and the publish workflow.
type PageStore struct {
	db *sql.DB
}

// NewPageStore returns a new PageStore.
func NewPageStore(db *sql.DB) *PageStore {
	return &PageStore{db: db}
}

// pageColumns lists the pages columns, qualified with alias p.
const pageColumns = `p.id, p.node_id, p.is_draft, p.public_page_id, p.template, p.created_at, p.updated_at`

// nodeColumns lists the tree_nodes columns, qualified with alias n.
const nodeColumns = `n.id, n.parent_id, n.path, n.depth`

// defaultSlots are created on every new page.
var defaultSlots = []string{models.SlotCategories, models.SlotMain}

// scanPageWithNode scans pageColumns followed by nodeColumns.
func scanPageWithNode(row scanner) (*models.Page, error) {
	var p models.Page
	var n models.TreeNode
	err := row.Scan(
		&p.ID, &p.NodeID, &p.IsDraft, &p.PublicPageID, &p.Template, &p.CreatedAt, &p.UpdatedAt,
		&n.ID, &n.ParentID, &n.Path, &n.Depth,
	)
	if err != nil {
		return nil, err
	}
	p.Node = &n
	return &p, nil
}

// CreatePageParams describes a new draft page.
type CreatePageParams struct {
	// Titles maps a language code to the page title in that language.
	Titles   map[string]string
	Template string
	// ParentID is any revision of the parent page; nil creates a root.
	ParentID *uuid.UUID
}

// sortedLanguages returns the keys of a title map in a stable order.
func sortedLanguages(titles map[string]string) []string {
	langs := make([]string, 0, len(titles))
	for lang := range titles {
		langs = append(langs, lang)
	}
	sort.Strings(langs)
	return langs
}

// Create inserts a new node and its draft page with titles and the
// default placeholders, all in one transaction.
func (s *PageStore) Create(ctx context.Context, params CreatePageParams) (*models.Page, error) {
	if len(params.Titles) == 0 {
		return nil, fmt.Errorf("create page: %w", ErrNoTitle)
	}

	node := models.TreeNode{ID: uuid.New(), Depth: 1}
	var page *models.Page

	err := withTx(ctx, s.db, func(tx *sql.Tx) error {
		if params.ParentID != nil {
			var parent models.TreeNode
			err := tx.QueryRowContext(ctx, `
				SELECT n.id, n.path, n.depth
				FROM pages p JOIN tree_nodes n ON n.id = p.node_id
				WHERE p.id = $1
			`, *params.ParentID).Scan(&parent.ID, &parent.Path, &parent.Depth)
			if errors.Is(err, sql.ErrNoRows) {
				return fmt.Errorf("create page: parent %s: %w", *params.ParentID, ErrNotFound)
			}
			if err != nil {
				return fmt.Errorf("create page: find parent: %w", err)
			}
			node.ParentID = &parent.ID
			node.Path = models.ChildPath(parent.Path, node.ID)
			node.Depth = parent.Depth + 1
		} else {
			node.Path = models.ChildPath("", node.ID)
		}

		if _, err := tx.ExecContext(ctx, `
			INSERT INTO tree_nodes (id, parent_id, path, depth) VALUES ($1, $2, $3, $4)
		`, node.ID, node.ParentID, node.Path, node.Depth); err != nil {
			return fmt.Errorf("create page: insert node: %w", err)
		}

		p := &models.Page{Node: &node}
		err := tx.QueryRowContext(ctx, `
			INSERT INTO pages AS p (node_id, is_draft, template)
			VALUES ($1, TRUE, $2)
			RETURNING `+pageColumns,
			node.ID, params.Template,
		).Scan(&p.ID, &p.NodeID, &p.IsDraft, &p.PublicPageID, &p.Template, &p.CreatedAt, &p.UpdatedAt)
		if err != nil {
			return fmt.Errorf("create page: insert page: %w", err)
		}

		for _, lang := range sortedLanguages(params.Titles) {
			title := params.Titles[lang]
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO page_titles (page_id, language, title, slug) VALUES ($1, $2, $3, $4)
			`, p.ID, lang, title, slug.Generate(title)); err != nil {
				return fmt.Errorf("create page: insert title %s: %w", lang, err)
			}
		}

		for _, slot := range defaultSlots {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO placeholders (page_id, slot) VALUES ($1, $2)
			`, p.ID, slot); err != nil {
				return fmt.Errorf("create page: insert placeholder %s: %w", slot, err)
			}
		}

		page = p
		return nil
	})
	if err != nil {
		return nil, err
	}

	slog.Debug("page created", "page_id", page.ID, "path", node.Path)
	return page, nil
}

// FindByID retrieves a page and its tree node. Returns nil if not found.
func (s *PageStore) FindByID(ctx context.Context, id uuid.UUID) (*models.Page, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+pageColumns+`, `+nodeColumns+`
		FROM pages p JOIN tree_nodes n ON n.id = p.node_id
		WHERE p.id = $1
	`, id)
	p, err := scanPageWithNode(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find page by id: %w", err)
	}
	return p, nil
}

// FindRevision returns the draft or public page sharing a node with the
// page id. Returns nil if the page or that revision does not exist.
func (s *PageStore) FindRevision(ctx context.Context, id uuid.UUID, rev models.Revision) (*models.Page, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+pageColumns+`, `+nodeColumns+`
		FROM pages src
		JOIN pages p ON p.node_id = src.node_id AND p.is_draft = $2
		JOIN tree_nodes n ON n.id = p.node_id
		WHERE src.id = $1
	`, id, rev == models.RevisionDraft)
	p, err := scanPageWithNode(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find page revision: %w", err)
	}
	return p, nil
}

// Titles returns every title of a page, ordered by language.
func (s *PageStore) Titles(ctx context.Context, pageID uuid.UUID) ([]models.Title, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, page_id, language, title, slug, published
		FROM page_titles
		WHERE page_id = $1
		ORDER BY language
	`, pageID)
	if err != nil {
		return nil, fmt.Errorf("list page titles: %w", err)
	}
	defer rows.Close()

	var titles []models.Title
	for rows.Next() {
		t, err := scanTitle(rows)
		if err != nil {
			return nil, fmt.Errorf("scan page title: %w", err)
		}
		titles = append(titles, *t)
	}
	return titles, rows.Err()
}

func scanTitle(row scanner) (*models.Title, error) {
	var t models.Title
	if err := row.Scan(&t.ID, &t.PageID, &t.Language, &t.Title, &t.Slug, &t.Published); err != nil {
		return nil, err
	}
	return &t, nil
}

// Placeholder returns the placeholder with the given slot on a page.
// Returns nil if not found.
func (s *PageStore) Placeholder(ctx context.Context, pageID uuid.UUID, slot string) (*models.Placeholder, error) {
	var ph models.Placeholder
	err := s.db.QueryRowContext(ctx, `
		SELECT id, page_id, slot FROM placeholders WHERE page_id = $1 AND slot = $2
	`, pageID, slot).Scan(&ph.ID, &ph.PageID, &ph.Slot)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find placeholder: %w", err)
	}
	return &ph, nil
}

// Publish copies the draft revision of a page into its public revision
// for one language: the title, the placeholders and the category plugins
// of that language, and the page extension. The public page is created on
// first publish. pageID may be either revision. Returns the public page.
func (s *PageStore) Publish(ctx context.Context, pageID uuid.UUID, language string) (*models.Page, error) {
	var publicID uuid.UUID

	err := withTx(ctx, s.db, func(tx *sql.Tx) error {
		var draftID uuid.UUID
		var nodeID uuid.UUID
		var template string
		var existingPublic *uuid.UUID
		err := tx.QueryRowContext(ctx, `
			SELECT d.id, d.node_id, d.template, d.public_page_id
			FROM pages src
			JOIN pages d ON d.node_id = src.node_id AND d.is_draft
			WHERE src.id = $1
		`, pageID).Scan(&draftID, &nodeID, &template, &existingPublic)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("publish page %s: %w", pageID, ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("publish page: find draft: %w", err)
		}

		var title, titleSlug string
		err = tx.QueryRowContext(ctx, `
			SELECT title, slug FROM page_titles WHERE page_id = $1 AND language = $2
		`, draftID, language).Scan(&title, &titleSlug)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("publish page %s (%s): %w", pageID, language, ErrNoTitle)
		}
		if err != nil {
			return fmt.Errorf("publish page: find title: %w", err)
		}

		if existingPublic == nil {
			if err := tx.QueryRowContext(ctx, `
				INSERT INTO pages (node_id, is_draft, template) VALUES ($1, FALSE, $2)
				RETURNING id
			`, nodeID, template).Scan(&publicID); err != nil {
				return fmt.Errorf("publish page: insert public page: %w", err)
			}
			if _, err := tx.ExecContext(ctx, `
				UPDATE pages SET public_page_id = $1, updated_at = NOW() WHERE id = $2
			`, publicID, draftID); err != nil {
				return fmt.Errorf("publish page: link public page: %w", err)
			}
		} else {
			publicID = *existingPublic
			if _, err := tx.ExecContext(ctx, `
				UPDATE pages SET template = $1, updated_at = NOW() WHERE id = $2
			`, template, publicID); err != nil {
				return fmt.Errorf("publish page: update public page: %w", err)
			}
		}

		if _, err := tx.ExecContext(ctx, `
			INSERT INTO page_titles (page_id, language, title, slug, published)
			VALUES ($1, $2, $3, $4, TRUE)
			ON CONFLICT (page_id, language)
			DO UPDATE SET title = EXCLUDED.title, slug = EXCLUDED.slug, published = TRUE
		`, publicID, language, title, titleSlug); err != nil {
			return fmt.Errorf("publish page: copy title: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `
			UPDATE page_titles SET published = TRUE WHERE page_id = $1 AND language = $2
		`, draftID, language); err != nil {
			return fmt.Errorf("publish page: mark draft title: %w", err)
		}

		if _, err := tx.ExecContext(ctx, `
			INSERT INTO placeholders (page_id, slot)
			SELECT $1, slot FROM placeholders WHERE page_id = $2
			ON CONFLICT (page_id, slot) DO NOTHING
		`, publicID, draftID); err != nil {
			return fmt.Errorf("publish page: copy placeholders: %w", err)
		}

		if _, err := tx.ExecContext(ctx, `
			DELETE FROM category_plugins
			WHERE language = $2
			  AND placeholder_id IN (SELECT id FROM placeholders WHERE page_id = $1)
		`, publicID, language); err != nil {
			return fmt.Errorf("publish page: clear public plugins: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO category_plugins (placeholder_id, language, category_page_id, position)
			SELECT pub.id, cp.language, cp.category_page_id, cp.position
			FROM category_plugins cp
			JOIN placeholders dph ON dph.id = cp.placeholder_id
			JOIN placeholders pub ON pub.slot = dph.slot AND pub.page_id = $1
			WHERE dph.page_id = $2 AND cp.language = $3
		`, publicID, draftID, language); err != nil {
			return fmt.Errorf("publish page: copy plugins: %w", err)
		}

		if _, err := tx.ExecContext(ctx, `
			INSERT INTO page_extensions (kind, page_id, is_draft)
			SELECT kind, $1, FALSE FROM page_extensions WHERE page_id = $2
			ON CONFLICT (page_id) DO NOTHING
		`, publicID, draftID); err != nil {
			return fmt.Errorf("publish page: copy extension: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `
			UPDATE page_extensions d SET public_extension_id = pub.id
			FROM page_extensions pub
			WHERE d.page_id = $2 AND pub.page_id = $1
		`, publicID, draftID); err != nil {
			return fmt.Errorf("publish page: link extension: %w", err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	slog.Info("page published", "page_id", pageID, "public_page_id", publicID, "language", language)
	return s.FindByID(ctx, publicID)
}

// Unpublish withdraws one language of a page from the public site. The
// public page and its plugins are kept so a later Publish restores them.
func (s *PageStore) Unpublish(ctx context.Context, pageID uuid.UUID, language string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE page_titles SET published = FALSE
		WHERE language = $2
		  AND page_id IN (
			SELECT p.id FROM pages src JOIN pages p ON p.node_id = src.node_id
			WHERE src.id = $1
		  )
	`, pageID, language)
	if err != nil {
		return fmt.Errorf("unpublish page: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("unpublish page %s (%s): %w", pageID, language, ErrNotFound)
	}
	slog.Info("page unpublished", "page_id", pageID, "language", language)
	return nil
}

// Snapshot copies the draft revision of a page into a new draft child
// page: titles, placeholders, category plugins and extension. Snapshots
// are excluded from category listings because their parent node carries
// an extension of the same kind.
func (s *PageStore) Snapshot(ctx context.Context, pageID uuid.UUID) (*models.Page, error) {
	node := models.TreeNode{ID: uuid.New()}
	var snapID uuid.UUID

	err := withTx(ctx, s.db, func(tx *sql.Tx) error {
		var draftID uuid.UUID
		var template string
		var parent models.TreeNode
		err := tx.QueryRowContext(ctx, `
			SELECT d.id, d.template, n.id, n.path, n.depth
			FROM pages src
			JOIN pages d ON d.node_id = src.node_id AND d.is_draft
			JOIN tree_nodes n ON n.id = d.node_id
			WHERE src.id = $1
		`, pageID).Scan(&draftID, &template, &parent.ID, &parent.Path, &parent.Depth)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("snapshot page %s: %w", pageID, ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("snapshot page: find draft: %w", err)
		}

		node.ParentID = &parent.ID
		node.Path = models.ChildPath(parent.Path, node.ID)
		node.Depth = parent.Depth + 1

		if _, err := tx.ExecContext(ctx, `
			INSERT INTO tree_nodes (id, parent_id, path, depth) VALUES ($1, $2, $3, $4)
		`, node.ID, node.ParentID, node.Path, node.Depth); err != nil {
			return fmt.Errorf("snapshot page: insert node: %w", err)
		}
		if err := tx.QueryRowContext(ctx, `
			INSERT INTO pages (node_id, is_draft, template) VALUES ($1, TRUE, $2) RETURNING id
		`, node.ID, template).Scan(&snapID); err != nil {
			return fmt.Errorf("snapshot page: insert page: %w", err)
		}

		steps := []struct {
			name  string
			query string
		}{
			{"titles", `
				INSERT INTO page_titles (page_id, language, title, slug)
				SELECT $1, language, title, slug FROM page_titles WHERE page_id = $2`},
			{"placeholders", `
				INSERT INTO placeholders (page_id, slot)
				SELECT $1, slot FROM placeholders WHERE page_id = $2`},
			{"plugins", `
				INSERT INTO category_plugins (placeholder_id, language, category_page_id, position)
				SELECT snap.id, cp.language, cp.category_page_id, cp.position
				FROM category_plugins cp
				JOIN placeholders dph ON dph.id = cp.placeholder_id
				JOIN placeholders snap ON snap.slot = dph.slot AND snap.page_id = $1
				WHERE dph.page_id = $2`},
			{"extension", `
				INSERT INTO page_extensions (kind, page_id, is_draft)
				SELECT kind, $1, TRUE FROM page_extensions WHERE page_id = $2`},
		}
		for _, step := range steps {
			if _, err := tx.ExecContext(ctx, step.query, snapID, draftID); err != nil {
				return fmt.Errorf("snapshot page: copy %s: %w", step.name, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	slog.Info("page snapshot created", "page_id", pageID, "snapshot_id", snapID)
	return s.FindByID(ctx, snapID)
}

// Delete removes a node and both of its pages. Descendant nodes are
// removed by cascade.
func (s *PageStore) Delete(ctx context.Context, pageID uuid.UUID) error {
	_, err := s.db.ExecContext(ctx, `
		DELETE FROM tree_nodes WHERE id = (SELECT node_id FROM pages WHERE id = $1)
	`, pageID)
	if err != nil {
		return fmt.Errorf("delete page: %w", err)
	}
	return nil
}
