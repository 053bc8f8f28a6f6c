// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// DefaultLanguage is the language used when a caller does not ask for one.
const DefaultLanguage = "en"

// pathSep separates node ids in a materialized path.
const pathSep = "/"

// Revision identifies which of the two parallel pages of a node is meant.
type Revision string

const (
	RevisionDraft  Revision = "draft"
	RevisionPublic Revision = "public"
)

// ParseRevision maps a query-string value to a Revision. Anything other
// than "public" is the draft revision.
func ParseRevision(s string) Revision {
	if strings.EqualFold(s, string(RevisionPublic)) {
		return RevisionPublic
	}
	return RevisionDraft
}

// TreeNode is a position in the page tree. The draft page and the public
// page of the same logical page share one node.
type TreeNode struct {
	ID       uuid.UUID  `json:"id"`
	ParentID *uuid.UUID `json:"parent_id"`
	Path     string     `json:"path"`
	Depth    int        `json:"depth"`
}

// ChildPath returns the materialized path of a child of a node at path.
func ChildPath(parentPath string, id uuid.UUID) string {
	if parentPath == "" {
		return id.String()
	}
	return parentPath + pathSep + id.String()
}

// AncestorIDs returns the ids of every ancestor of the node at path,
// ordered from the root down, excluding the node itself.
func AncestorIDs(path string) []uuid.UUID {
	if path == "" {
		return nil
	}
	parts := strings.Split(path, pathSep)
	ids := make([]uuid.UUID, 0, len(parts)-1)
	for _, p := range parts[:len(parts)-1] {
		id, err := uuid.Parse(p)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return ids
}

// Page is one revision of a node. Drafts are edited; public pages are
// only written by the publish workflow.
type Page struct {
	ID           uuid.UUID  `json:"id"`
	NodeID       uuid.UUID  `json:"node_id"`
	IsDraft      bool       `json:"is_draft"`
	PublicPageID *uuid.UUID `json:"public_page_id,omitempty"`
	Template     string     `json:"template"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`

	// Populated by store methods that join the tree.
	Node *TreeNode `json:"node,omitempty"`

	// PrefetchedTitles holds the titles loaded alongside the page by
	// listing queries, restricted to the requested language.
	PrefetchedTitles []Title `json:"titles,omitempty"`
}

// Revision reports whether the page is the draft or the public revision.
func (p *Page) Revision() Revision {
	if p.IsDraft {
		return RevisionDraft
	}
	return RevisionPublic
}

// IsPublished reports whether a draft page has a public counterpart, or
// whether the page itself is public.
func (p *Page) IsPublished() bool {
	return !p.IsDraft || p.PublicPageID != nil
}

// Title returns the first prefetched title, or "" when none was loaded.
func (p *Page) Title() string {
	if len(p.PrefetchedTitles) == 0 {
		return ""
	}
	return p.PrefetchedTitles[0].Title
}

// Title is the language-specific title of a page.
type Title struct {
	ID        uuid.UUID `json:"id"`
	PageID    uuid.UUID `json:"page_id"`
	Language  string    `json:"language"`
	Title     string    `json:"title"`
	Slug      string    `json:"slug"`
	Published bool      `json:"published"`
}

// PickTitle returns the title in the first of the given languages that
// exists, falling back to any title. Returns "" for an empty set.
func PickTitle(titles []Title, languages ...string) string {
	for _, lang := range languages {
		for _, t := range titles {
			if t.Language == lang {
				return t.Title
			}
		}
	}
	if len(titles) > 0 {
		return titles[0].Title
	}
	return ""
}

// Placeholder slots used by catalogue pages.
const (
	SlotCategories = "categories"
	SlotMain       = "maincontent"
)

// Placeholder is a named slot on a page that holds plugins.
type Placeholder struct {
	ID     uuid.UUID `json:"id"`
	PageID uuid.UUID `json:"page_id"`
	Slot   string    `json:"slot"`
}

// CategoryPlugin tags the page owning its placeholder with a category.
// CategoryPageID always points at the draft page of the category.
type CategoryPlugin struct {
	ID             uuid.UUID `json:"id"`
	PlaceholderID  uuid.UUID `json:"placeholder_id"`
	Language       string    `json:"language"`
	CategoryPageID uuid.UUID `json:"category_page_id"`
	Position       int       `json:"position"`
	CreatedAt      time.Time `json:"created_at"`
}
