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

// CategoryStore reads category pages and aggregates the courses, blog
// posts and persons tagged with them.
type CategoryStore struct {
	db *sql.DB
	// languages is the title fallback order; the first entry is the
	// default language of prefetched titles.
	languages []string
}

// NewCategoryStore returns a new CategoryStore. languages sets the title
// fallback order and defaults to models.DefaultLanguage.
func NewCategoryStore(db *sql.DB, languages []string) *CategoryStore {
	if len(languages) == 0 {
		languages = []string{models.DefaultLanguage}
	}
	return &CategoryStore{db: db, languages: languages}
}

// ListOption tunes an aggregation call.
type ListOption func(*listOptions)

type listOptions struct {
	language    string
	descendants bool
}

// WithLanguage selects the language of the prefetched titles.
func WithLanguage(lang string) ListOption {
	return func(o *listOptions) {
		if lang != "" {
			o.language = lang
		}
	}
}

// WithDescendants also matches items tagged with any descendant of the
// category in the page tree.
func WithDescendants() ListOption {
	return func(o *listOptions) { o.descendants = true }
}

func (s *CategoryStore) listOptions(opts []ListOption) listOptions {
	o := listOptions{language: s.languages[0]}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// categorySelect selects category extensions joined with page and node.
const categorySelect = `
	SELECT ` + extensionColumns + `, ` + pageColumns + `, ` + nodeColumns + `
	FROM page_extensions e
	JOIN pages p ON p.id = e.page_id
	JOIN tree_nodes n ON n.id = p.node_id`

// scanExtensionWithPage scans extensionColumns, pageColumns, nodeColumns.
func scanExtensionWithPage(row scanner) (*models.Extension, error) {
	var e models.Extension
	var p models.Page
	var n models.TreeNode
	err := row.Scan(
		&e.ID, &e.Kind, &e.PageID, &e.IsDraft, &e.PublicExtensionID, &e.CreatedAt,
		&p.ID, &p.NodeID, &p.IsDraft, &p.PublicPageID, &p.Template, &p.CreatedAt, &p.UpdatedAt,
		&n.ID, &n.ParentID, &n.Path, &n.Depth,
	)
	if err != nil {
		return nil, err
	}
	p.Node = &n
	e.Page = &p
	return &e, nil
}

// FindByID retrieves a category by its extension ID, with its page and
// node. Returns nil if not found.
func (s *CategoryStore) FindByID(ctx context.Context, id uuid.UUID) (*models.Category, error) {
	row := s.db.QueryRowContext(ctx, categorySelect+` WHERE e.id = $1 AND e.kind = 'category'`, id)
	e, err := scanExtensionWithPage(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find category by id: %w", err)
	}
	return &models.Category{Extension: *e}, nil
}

// FindByPageID retrieves the category extending a page. Returns nil if
// the page is not a category.
func (s *CategoryStore) FindByPageID(ctx context.Context, pageID uuid.UUID) (*models.Category, error) {
	row := s.db.QueryRowContext(ctx, categorySelect+` WHERE e.page_id = $1 AND e.kind = 'category'`, pageID)
	e, err := scanExtensionWithPage(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find category by page: %w", err)
	}
	return &models.Category{Extension: *e}, nil
}

// List returns every category of a revision in tree order.
func (s *CategoryStore) List(ctx context.Context, rev models.Revision) ([]models.Category, error) {
	rows, err := s.db.QueryContext(ctx, categorySelect+`
		WHERE e.kind = 'category' AND e.is_draft = $1
		ORDER BY n.path
	`, rev == models.RevisionDraft)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var items []models.Category
	for rows.Next() {
		e, err := scanExtensionWithPage(rows)
		if err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		items = append(items, models.Category{Extension: *e})
	}
	return items, rows.Err()
}

// InRevision returns the draft or public revision of a category with its
// page and node, or nil when the category has no page in that revision.
func (s *CategoryStore) InRevision(ctx context.Context, cat *models.Category, rev models.Revision) (*models.Category, error) {
	if cat.Revision() == rev {
		return cat, nil
	}
	row := s.db.QueryRowContext(ctx, `
		SELECT `+extensionColumns+`, `+pageColumns+`, `+nodeColumns+`
		FROM pages src
		JOIN pages p ON p.node_id = src.node_id AND p.is_draft = $2
		JOIN page_extensions e ON e.page_id = p.id AND e.kind = 'category'
		JOIN tree_nodes n ON n.id = p.node_id
		WHERE src.id = $1
	`, cat.PageID, rev == models.RevisionDraft)
	e, err := scanExtensionWithPage(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find category revision: %w", err)
	}
	return &models.Category{Extension: *e}, nil
}

// Ancestors returns the category ancestors of a category in its own
// revision, root first. Pages in the chain that are not categories are
// skipped.
func (s *CategoryStore) Ancestors(ctx context.Context, cat *models.Category) ([]models.Category, error) {
	var path string
	if cat.Page != nil && cat.Page.Node != nil {
		path = cat.Page.Node.Path
	} else {
		err := s.db.QueryRowContext(ctx, `
			SELECT n.path FROM pages p JOIN tree_nodes n ON n.id = p.node_id WHERE p.id = $1
		`, cat.PageID).Scan(&path)
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		if err != nil {
			return nil, fmt.Errorf("category ancestors: find path: %w", err)
		}
	}

	ids := models.AncestorIDs(path)
	if len(ids) == 0 {
		return nil, nil
	}
	args := make([]any, 0, len(ids)+1)
	args = append(args, cat.IsDraft)
	for _, id := range ids {
		args = append(args, id)
	}

	rows, err := s.db.QueryContext(ctx, categorySelect+`
		WHERE e.kind = 'category' AND e.is_draft = $1
		  AND n.id IN (`+inPlaceholders(2, len(ids))+`)
		ORDER BY n.depth
	`, args...)
	if err != nil {
		return nil, fmt.Errorf("category ancestors: %w", err)
	}
	defer rows.Close()

	var out []models.Category
	for rows.Next() {
		e, err := scanExtensionWithPage(rows)
		if err != nil {
			return nil, fmt.Errorf("scan category ancestor: %w", err)
		}
		out = append(out, models.Category{Extension: *e})
	}
	return out, rows.Err()
}

// categoryPathQuery selects the titles of a category page and of its
// category ancestors in the same revision. The materialized path is cast
// to uuid[] so the ancestors are looked up through the primary key.
const categoryPathQuery = `
	SELECT n.id, n.id = cn.id, t.language, t.title
	FROM pages cp
	JOIN tree_nodes cn ON cn.id = cp.node_id
	JOIN tree_nodes n ON n.id = ANY(string_to_array(cn.path, '/')::uuid[])
	JOIN pages p ON p.node_id = n.id AND p.is_draft = cp.is_draft
	JOIN page_extensions e ON e.page_id = p.id AND e.kind = 'category'
	JOIN page_titles t ON t.page_id = p.id
	WHERE cp.id = $1
	ORDER BY n.depth, t.language`

// String builds the display string of a category: the titles of its
// category ancestors and its own, root first, joined by " / ". Ancestor
// pages that are not categories are skipped. Ancestors are read from the
// same revision as the category. One query.
func (s *CategoryStore) String(ctx context.Context, cat *models.Category) (string, error) {
	rows, err := s.db.QueryContext(ctx, categoryPathQuery, cat.PageID)
	if err != nil {
		return "", fmt.Errorf("category string: %w", err)
	}
	defer rows.Close()

	var order []uuid.UUID
	titles := make(map[uuid.UUID][]models.Title)
	var self uuid.UUID
	for rows.Next() {
		var nodeID uuid.UUID
		var isSelf bool
		var t models.Title
		if err := rows.Scan(&nodeID, &isSelf, &t.Language, &t.Title); err != nil {
			return "", fmt.Errorf("scan category title: %w", err)
		}
		if _, seen := titles[nodeID]; !seen {
			order = append(order, nodeID)
		}
		titles[nodeID] = append(titles[nodeID], t)
		if isSelf {
			self = nodeID
		}
	}
	if err := rows.Err(); err != nil {
		return "", fmt.Errorf("category string: %w", err)
	}

	var ancestors []string
	for _, id := range order {
		if id == self {
			continue
		}
		ancestors = append(ancestors, models.PickTitle(titles[id], s.languages...))
	}
	return models.CategoryPath(ancestors, models.PickTitle(titles[self], s.languages...)), nil
}

// taggedQuery selects the distinct extensions of a kind in one revision
// whose page carries a category plugin for the category page ($3) or,
// when $4 is true, for any of its descendants. The plugin references the
// draft category page, so the category page is resolved to its draft
// through the shared node. Snapshots, whose parent node carries an
// extension of the same kind, are excluded. Public items must have at
// least one published title.
const taggedQuery = `
	SELECT DISTINCT ` + extensionColumns + `, ` + pageColumns + `, ` + nodeColumns + `
	FROM page_extensions e
	JOIN pages p ON p.id = e.page_id
	JOIN tree_nodes n ON n.id = p.node_id
	JOIN placeholders ph ON ph.page_id = p.id
	JOIN category_plugins cp ON cp.placeholder_id = ph.id
	WHERE e.kind = $1
	  AND e.is_draft = $2
	  AND cp.category_page_id IN (
		SELECT dp.id
		FROM pages cat
		JOIN tree_nodes cn ON cn.id = cat.node_id
		JOIN tree_nodes dn ON dn.id = cn.id OR ($4 AND dn.path LIKE cn.path || '/%')
		JOIN pages dp ON dp.node_id = dn.id AND dp.is_draft
		WHERE cat.id = $3
	  )
	  AND NOT EXISTS (
		SELECT 1
		FROM pages pp
		JOIN page_extensions pe ON pe.page_id = pp.id
		WHERE pp.node_id = n.parent_id AND pe.kind = e.kind
	  )
	  AND (e.is_draft OR EXISTS (
		SELECT 1 FROM page_titles pt WHERE pt.page_id = p.id AND pt.published
	  ))
	ORDER BY n.path`

// Tagged returns the items of a kind tagged with the category, scoped to
// the category's revision: a draft category lists draft items and a
// public category lists public items. Each logical item appears once
// whatever the number of languages it is tagged in. Titles in the
// requested language are prefetched onto each page. Two queries, one
// when nothing matches.
func (s *CategoryStore) Tagged(ctx context.Context, cat *models.Category, kind models.ExtensionKind, opts ...ListOption) ([]models.Extension, error) {
	o := s.listOptions(opts)

	rows, err := s.db.QueryContext(ctx, taggedQuery, kind, cat.IsDraft, cat.PageID, o.descendants)
	if err != nil {
		return nil, fmt.Errorf("list tagged %s: %w", kind, err)
	}
	defer rows.Close()

	var items []models.Extension
	byPage := make(map[uuid.UUID]*models.Page)
	for rows.Next() {
		e, err := scanExtensionWithPage(rows)
		if err != nil {
			return nil, fmt.Errorf("scan tagged %s: %w", kind, err)
		}
		items = append(items, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list tagged %s: %w", kind, err)
	}
	if len(items) == 0 {
		return nil, nil
	}

	for i := range items {
		byPage[items[i].PageID] = items[i].Page
	}
	if err := s.prefetchTitles(ctx, byPage, o.language); err != nil {
		return nil, err
	}
	return items, nil
}

// prefetchTitles loads the titles of every page in one language with a
// single query and attaches them to the pages.
func (s *CategoryStore) prefetchTitles(ctx context.Context, pages map[uuid.UUID]*models.Page, language string) error {
	args := make([]any, 0, len(pages)+1)
	args = append(args, language)
	for id := range pages {
		args = append(args, id)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, page_id, language, title, slug, published
		FROM page_titles
		WHERE language = $1 AND page_id IN (`+inPlaceholders(2, len(pages))+`)
	`, args...)
	if err != nil {
		return fmt.Errorf("prefetch titles: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		t, err := scanTitle(rows)
		if err != nil {
			return fmt.Errorf("scan prefetched title: %w", err)
		}
		if p, ok := pages[t.PageID]; ok {
			p.PrefetchedTitles = append(p.PrefetchedTitles, *t)
		}
	}
	return rows.Err()
}

// wrap converts extensions into one of the typed catalogue models.
func wrap[T any](exts []models.Extension, fn func(models.Extension) T) []T {
	if exts == nil {
		return nil
	}
	out := make([]T, len(exts))
	for i, e := range exts {
		out[i] = fn(e)
	}
	return out
}

// GetCourses returns the courses tagged with the category.
func (s *CategoryStore) GetCourses(ctx context.Context, cat *models.Category, opts ...ListOption) ([]models.Course, error) {
	exts, err := s.Tagged(ctx, cat, models.KindCourse, opts...)
	if err != nil {
		return nil, err
	}
	return wrap(exts, func(e models.Extension) models.Course { return models.Course{Extension: e} }), nil
}

// GetBlogPosts returns the blog posts tagged with the category.
func (s *CategoryStore) GetBlogPosts(ctx context.Context, cat *models.Category, opts ...ListOption) ([]models.BlogPost, error) {
	exts, err := s.Tagged(ctx, cat, models.KindBlogPost, opts...)
	if err != nil {
		return nil, err
	}
	return wrap(exts, func(e models.Extension) models.BlogPost { return models.BlogPost{Extension: e} }), nil
}

// GetPersons returns the persons tagged with the category.
func (s *CategoryStore) GetPersons(ctx context.Context, cat *models.Category, opts ...ListOption) ([]models.Person, error) {
	exts, err := s.Tagged(ctx, cat, models.KindPerson, opts...)
	if err != nil {
		return nil, err
	}
	return wrap(exts, func(e models.Extension) models.Person { return models.Person{Extension: e} }), nil
}

// TagState reads the publication state of the tag between a category and
// the item owning itemPageID (either revision of either page).
func (s *CategoryStore) TagState(ctx context.Context, cat *models.Category, itemPageID uuid.UUID) (models.TagRelation, error) {
	var rel models.TagRelation
	err := s.db.QueryRowContext(ctx, `
		WITH cat AS (
			SELECT d.id
			FROM pages c JOIN pages d ON d.node_id = c.node_id AND d.is_draft
			WHERE c.id = $1
		), item AS (
			SELECT node_id FROM pages WHERE id = $2
		), tags AS (
			SELECT p.is_draft
			FROM pages p
			JOIN placeholders ph ON ph.page_id = p.id
			JOIN category_plugins cp ON cp.placeholder_id = ph.id
			WHERE p.node_id = (SELECT node_id FROM item)
			  AND cp.category_page_id = (SELECT id FROM cat)
		)
		SELECT
			EXISTS (SELECT 1 FROM tags WHERE is_draft),
			EXISTS (SELECT 1 FROM tags WHERE NOT is_draft),
			EXISTS (
				SELECT 1 FROM pages p JOIN page_titles t ON t.page_id = p.id
				WHERE p.node_id = (SELECT node_id FROM item) AND NOT p.is_draft AND t.published
			)
	`, cat.PageID, itemPageID).Scan(&rel.DraftTagged, &rel.PublicTagged, &rel.ItemPublic)
	if err != nil {
		return rel, fmt.Errorf("read tag state: %w", err)
	}
	return rel, nil
}
