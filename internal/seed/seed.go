// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package seed populates an empty database with a demo catalogue for
// development.
package seed

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"catalogcms/internal/editor"
	"catalogcms/internal/models"
	"catalogcms/internal/store"
)

// text is a title in English and French.
type text struct{ en, fr string }

// seeder builds the demo tree in the configured languages.
type seeder struct {
	b         *store.Builder
	ed        *editor.Editor
	languages []string
}

// titles maps every configured language to a title. Languages without a
// translation reuse the English text.
func (s *seeder) titles(t text) map[string]string {
	out := make(map[string]string, len(s.languages))
	for _, lang := range s.languages {
		switch lang {
		case "fr":
			out[lang] = t.fr
		default:
			out[lang] = t.en
		}
	}
	return out
}

func (s *seeder) category(ctx context.Context, t text, parent *models.Page) (*models.Category, error) {
	return s.b.Category(ctx, store.BuildParams{Titles: s.titles(t), Parent: parent, Publish: true})
}

// Seed creates the demo catalogue if no category exists yet: a category
// tree under a plain root page, courses, blog posts and persons tagged
// with it, one course snapshot and one unpublished tag.
func Seed(ctx context.Context, db *sql.DB, languages []string) error {
	if len(languages) == 0 {
		languages = []string{models.DefaultLanguage}
	}

	count, err := store.NewExtensionStore(db).Count(ctx, models.KindCategory)
	if err != nil {
		return fmt.Errorf("seed check categories: %w", err)
	}
	if count > 0 {
		slog.Info("database already seeded, skipping")
		return nil
	}

	s := &seeder{
		b:         store.NewBuilder(db),
		ed:        editor.New(db, store.NewCategoryStore(db, languages), nil),
		languages: languages,
	}

	root, err := s.b.Pages.Create(ctx, store.CreatePageParams{
		Titles:   s.titles(text{"Categories", "Catégories"}),
		Template: "richie/single_column.html",
	})
	if err != nil {
		return fmt.Errorf("seed root page: %w", err)
	}
	for _, lang := range languages {
		if _, err := s.b.Pages.Publish(ctx, root.ID, lang); err != nil {
			return fmt.Errorf("seed publish root page: %w", err)
		}
	}

	subjects, err := s.category(ctx, text{"Subjects", "Sujets"}, root)
	if err != nil {
		return fmt.Errorf("seed categories: %w", err)
	}
	art, err := s.category(ctx, text{"Art", "Art"}, subjects.Page)
	if err != nil {
		return fmt.Errorf("seed categories: %w", err)
	}
	literature, err := s.category(ctx, text{"Literature", "Littérature"}, art.Page)
	if err != nil {
		return fmt.Errorf("seed categories: %w", err)
	}
	science, err := s.category(ctx, text{"Science", "Science"}, subjects.Page)
	if err != nil {
		return fmt.Errorf("seed categories: %w", err)
	}

	courses := []struct {
		title text
		cats  []*models.Category
	}{
		{text{"Drawing for beginners", "Le dessin pour débutants"}, []*models.Category{art}},
		{text{"Reading novels", "Lire des romans"}, []*models.Category{literature}},
		{text{"Physics of colour", "Physique de la couleur"}, []*models.Category{art, science}},
	}
	var first *models.Course
	for _, c := range courses {
		course, err := s.b.Course(ctx, store.BuildParams{Titles: s.titles(c.title), Categories: c.cats, Publish: true})
		if err != nil {
			return fmt.Errorf("seed courses: %w", err)
		}
		if first == nil {
			first = course
		}
	}
	if _, err := s.ed.Snapshot(ctx, first.PageID); err != nil {
		return fmt.Errorf("seed course snapshot: %w", err)
	}

	posts := []text{
		{"New literature courses", "Nouveaux cours de littérature"},
		{"Why science needs art", "Pourquoi la science a besoin de l'art"},
	}
	for i, t := range posts {
		cats := []*models.Category{literature}
		if i == 1 {
			cats = []*models.Category{science, art}
		}
		if _, err := s.b.BlogPost(ctx, store.BuildParams{Titles: s.titles(t), Categories: cats, Publish: true}); err != nil {
			return fmt.Errorf("seed blog posts: %w", err)
		}
	}

	ada, err := s.b.Person(ctx, store.BuildParams{
		Titles:     s.titles(text{"Ada Lovelace", "Ada Lovelace"}),
		Categories: []*models.Category{science},
		Publish:    true,
	})
	if err != nil {
		return fmt.Errorf("seed persons: %w", err)
	}
	// Tag added after publication, only visible on the draft category.
	if _, err := s.ed.Tag(ctx, ada.PageID, languages[0], art); err != nil {
		return fmt.Errorf("seed draft tag: %w", err)
	}

	slog.Info("database seeded with demo catalogue",
		"languages", languages,
		"categories", 4,
		"courses", len(courses),
		"blogposts", len(posts),
		"persons", 1,
	)
	return nil
}
