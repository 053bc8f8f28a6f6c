// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"catalogcms/internal/models"
)

// Templates used for each kind of catalogue page.
var kindTemplates = map[models.ExtensionKind]string{
	models.KindCategory: "courses/cms/category_detail.html",
	models.KindCourse:   "courses/cms/course_detail.html",
	models.KindBlogPost: "courses/cms/blogpost_detail.html",
	models.KindPerson:   "courses/cms/person_detail.html",
}

// Builder creates complete catalogue pages (page, extension, tags and
// optional publication) on top of the individual stores. Used by the
// seeder and by tests.
type Builder struct {
	Pages      *PageStore
	Extensions *ExtensionStore
	Plugins    *PluginStore
}

// NewBuilder returns a Builder over db.
func NewBuilder(db *sql.DB) *Builder {
	return &Builder{
		Pages:      NewPageStore(db),
		Extensions: NewExtensionStore(db),
		Plugins:    NewPluginStore(db),
	}
}

// BuildParams describes a catalogue page to create.
type BuildParams struct {
	// Titles maps language to title. Every language gets its tags and,
	// when Publish is set, is published.
	Titles map[string]string
	// Parent is any revision of the parent page; nil creates a root.
	Parent *models.Page
	// Categories are tagged on the page in every language.
	Categories []*models.Category
	Publish    bool
}

// Build creates a page extended with kind and returns the draft extension.
// The steps run in separate transactions; when one fails, the page is
// deleted again so no half-built page stays in the tree.
func (b *Builder) Build(ctx context.Context, kind models.ExtensionKind, params BuildParams) (*models.Extension, error) {
	create := CreatePageParams{
		Titles:   params.Titles,
		Template: kindTemplates[kind],
	}
	if params.Parent != nil {
		create.ParentID = &params.Parent.ID
	}

	page, err := b.Pages.Create(ctx, create)
	if err != nil {
		return nil, fmt.Errorf("build %s: %w", kind, err)
	}

	ext, err := b.complete(ctx, kind, page, params)
	if err != nil {
		if derr := b.Pages.Delete(ctx, page.ID); derr != nil {
			slog.Error("failed to remove partly built page", "page_id", page.ID, "error", derr)
		}
		return nil, fmt.Errorf("build %s: %w", kind, err)
	}
	ext.Page = page
	return ext, nil
}

// complete extends, tags and optionally publishes a freshly created page.
func (b *Builder) complete(ctx context.Context, kind models.ExtensionKind, page *models.Page, params BuildParams) (*models.Extension, error) {
	ext, err := b.Extensions.Create(ctx, kind, page.ID)
	if err != nil {
		return nil, err
	}

	langs := sortedLanguages(params.Titles)
	for _, cat := range params.Categories {
		for _, lang := range langs {
			if _, err := b.Plugins.TagPage(ctx, page.ID, lang, cat.PageID); err != nil {
				return nil, err
			}
		}
	}

	if !params.Publish {
		return ext, nil
	}
	for _, lang := range langs {
		if _, err := b.Pages.Publish(ctx, page.ID, lang); err != nil {
			return nil, err
		}
	}
	return b.Extensions.FindByID(ctx, ext.ID)
}

// Category builds a category page.
func (b *Builder) Category(ctx context.Context, params BuildParams) (*models.Category, error) {
	ext, err := b.Build(ctx, models.KindCategory, params)
	if err != nil {
		return nil, err
	}
	return &models.Category{Extension: *ext}, nil
}

// Course builds a course page.
func (b *Builder) Course(ctx context.Context, params BuildParams) (*models.Course, error) {
	ext, err := b.Build(ctx, models.KindCourse, params)
	if err != nil {
		return nil, err
	}
	return &models.Course{Extension: *ext}, nil
}

// BlogPost builds a blog post page.
func (b *Builder) BlogPost(ctx context.Context, params BuildParams) (*models.BlogPost, error) {
	ext, err := b.Build(ctx, models.KindBlogPost, params)
	if err != nil {
		return nil, err
	}
	return &models.BlogPost{Extension: *ext}, nil
}

// Person builds a person page.
func (b *Builder) Person(ctx context.Context, params BuildParams) (*models.Person, error) {
	ext, err := b.Build(ctx, models.KindPerson, params)
	if err != nil {
		return nil, err
	}
	return &models.Person{Extension: *ext}, nil
}

// PublicCategory returns the public revision of a category with its page
// loaded, or nil if the category was never published.
func (b *Builder) PublicCategory(ctx context.Context, cat *models.Category) (*models.Category, error) {
	pub, err := b.Extensions.PublicExtension(ctx, &cat.Extension)
	if err != nil || pub == nil {
		return nil, err
	}
	page, err := b.Pages.FindByID(ctx, pub.PageID)
	if err != nil {
		return nil, err
	}
	pub.Page = page
	return &models.Category{Extension: *pub}, nil
}
