// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"slices"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"catalogcms/internal/cache"
	"catalogcms/internal/models"
	"catalogcms/internal/store"
)

// CategoryReader is the part of store.CategoryStore used by the catalogue
// API.
type CategoryReader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Category, error)
	InRevision(ctx context.Context, cat *models.Category, rev models.Revision) (*models.Category, error)
	String(ctx context.Context, cat *models.Category) (string, error)
	Tagged(ctx context.Context, cat *models.Category, kind models.ExtensionKind, opts ...store.ListOption) ([]models.Extension, error)
	GetCourses(ctx context.Context, cat *models.Category, opts ...store.ListOption) ([]models.Course, error)
	GetBlogPosts(ctx context.Context, cat *models.Category, opts ...store.ListOption) ([]models.BlogPost, error)
	GetPersons(ctx context.Context, cat *models.Category, opts ...store.ListOption) ([]models.Person, error)
}

var _ CategoryReader = (*store.CategoryStore)(nil)

// Public groups the read-only JSON catalogue endpoints. Responses are
// served from the Valkey listing cache when possible and stored there on
// miss.
type Public struct {
	categories CategoryReader
	listings   *cache.ListingCache
	languages  []string
	// publicOnly hides draft categories.
	publicOnly bool
}

// NewPublic creates a new Public handler group. listings may be nil when
// Valkey is not configured. languages lists the accepted lang values, the
// first one being the default.
func NewPublic(categories CategoryReader, listings *cache.ListingCache, languages []string, publicOnly bool) *Public {
	if len(languages) == 0 {
		languages = []string{models.DefaultLanguage}
	}
	return &Public{
		categories: categories,
		listings:   listings,
		languages:  languages,
		publicOnly: publicOnly,
	}
}

// ItemsResponse is the body of the per-kind listing endpoint.
type ItemsResponse struct {
	CategoryID uuid.UUID          `json:"category_id"`
	Display    string             `json:"display"`
	Kind       string             `json:"kind"`
	Language   string             `json:"language"`
	Items      []models.Extension `json:"items"`
}

// listingQuery holds the query parameters shared by the listing endpoints.
type listingQuery struct {
	language    string
	descendants bool
}

func (q listingQuery) options() []store.ListOption {
	opts := []store.ListOption{store.WithLanguage(q.language)}
	if q.descendants {
		opts = append(opts, store.WithDescendants())
	}
	return opts
}

// parseListingQuery reads ?lang= and ?descendants=. Returns false after
// writing a 400 response when lang is not a site language.
func (p *Public) parseListingQuery(w http.ResponseWriter, r *http.Request) (listingQuery, bool) {
	q := listingQuery{language: p.languages[0]}
	if lang := r.URL.Query().Get("lang"); lang != "" {
		if !slices.Contains(p.languages, lang) {
			writeError(w, http.StatusBadRequest, "unsupported language")
			return q, false
		}
		q.language = lang
	}
	switch r.URL.Query().Get("descendants") {
	case "1", "true":
		q.descendants = true
	}
	return q, true
}

// loadCategory resolves the {id} URL parameter. Outside publicOnly mode
// ?revision=draft|public switches to that revision of the category. It
// writes the error response and returns nil when the category cannot be
// served.
func (p *Public) loadCategory(w http.ResponseWriter, r *http.Request) *models.Category {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid category id")
		return nil
	}

	ctx := r.Context()
	cat, err := p.categories.FindByID(ctx, id)
	if err != nil {
		slog.Error("find category failed", "error", err, "category_id", id)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return nil
	}
	if cat == nil || (p.publicOnly && cat.IsDraft) {
		writeError(w, http.StatusNotFound, "category not found")
		return nil
	}

	if rev := r.URL.Query().Get("revision"); rev != "" && !p.publicOnly {
		cat, err = p.categories.InRevision(ctx, cat, models.ParseRevision(rev))
		if err != nil {
			slog.Error("find category revision failed", "error", err, "category_id", id, "revision", rev)
			writeError(w, http.StatusInternalServerError, "internal server error")
			return nil
		}
		if cat == nil {
			writeError(w, http.StatusNotFound, "category not published")
			return nil
		}
	}
	return cat
}

// Category returns the display string of a category and the number of
// items of each kind tagged with it.
func (p *Public) Category(w http.ResponseWriter, r *http.Request) {
	cat := p.loadCategory(w, r)
	if cat == nil {
		return
	}
	q, ok := p.parseListingQuery(w, r)
	if !ok {
		return
	}

	ctx := r.Context()
	key := cache.ListingKey{CategoryID: cat.ID, Kind: "summary", Language: q.language, Descendants: q.descendants}
	var summary models.CategorySummary
	if p.listings.Get(ctx, key, &summary) {
		writeJSON(w, http.StatusOK, summary)
		return
	}

	overview, err := p.overview(ctx, cat, q)
	if err != nil {
		slog.Error("category summary failed", "error", err, "category_id", cat.ID)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	summary = models.CategorySummary{
		Category:  cat,
		Display:   overview.Display,
		Courses:   len(overview.Courses),
		BlogPosts: len(overview.BlogPosts),
		Persons:   len(overview.Persons),
	}
	p.listings.Set(ctx, key, summary)
	writeJSON(w, http.StatusOK, summary)
}

// Items lists the courses, blog posts or persons tagged with a category.
func (p *Public) Items(w http.ResponseWriter, r *http.Request) {
	kind, err := models.ParseKind(chi.URLParam(r, "kind"))
	if err != nil || kind == models.KindCategory {
		writeError(w, http.StatusNotFound, "unknown item kind")
		return
	}
	cat := p.loadCategory(w, r)
	if cat == nil {
		return
	}
	q, ok := p.parseListingQuery(w, r)
	if !ok {
		return
	}

	ctx := r.Context()
	key := cache.ListingKey{CategoryID: cat.ID, Kind: string(kind), Language: q.language, Descendants: q.descendants}
	var resp ItemsResponse
	if p.listings.Get(ctx, key, &resp) {
		writeJSON(w, http.StatusOK, resp)
		return
	}

	display, err := p.categories.String(ctx, cat)
	if err != nil {
		slog.Error("category string failed", "error", err, "category_id", cat.ID)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	items, err := p.categories.Tagged(ctx, cat, kind, q.options()...)
	if err != nil {
		slog.Error("list tagged items failed", "error", err, "category_id", cat.ID, "kind", kind)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if items == nil {
		items = []models.Extension{}
	}

	resp = ItemsResponse{
		CategoryID: cat.ID,
		Display:    display,
		Kind:       string(kind),
		Language:   q.language,
		Items:      items,
	}
	p.listings.Set(ctx, key, resp)
	writeJSON(w, http.StatusOK, resp)
}

// Overview returns every item tagged with a category, grouped by kind.
func (p *Public) Overview(w http.ResponseWriter, r *http.Request) {
	cat := p.loadCategory(w, r)
	if cat == nil {
		return
	}
	q, ok := p.parseListingQuery(w, r)
	if !ok {
		return
	}

	ctx := r.Context()
	key := cache.ListingKey{CategoryID: cat.ID, Kind: "overview", Language: q.language, Descendants: q.descendants}
	var overview models.CategoryOverview
	if p.listings.Get(ctx, key, &overview) {
		writeJSON(w, http.StatusOK, overview)
		return
	}

	result, err := p.overview(ctx, cat, q)
	if err != nil {
		slog.Error("category overview failed", "error", err, "category_id", cat.ID)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	p.listings.Set(ctx, key, result)
	writeJSON(w, http.StatusOK, result)
}

// overview runs the display string and the three aggregations
// concurrently.
func (p *Public) overview(ctx context.Context, cat *models.Category, q listingQuery) (*models.CategoryOverview, error) {
	out := &models.CategoryOverview{
		Courses:   []models.Course{},
		BlogPosts: []models.BlogPost{},
		Persons:   []models.Person{},
	}
	opts := q.options()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		display, err := p.categories.String(gctx, cat)
		out.Display = display
		return err
	})
	g.Go(func() error {
		items, err := p.categories.GetCourses(gctx, cat, opts...)
		if items != nil {
			out.Courses = items
		}
		return err
	})
	g.Go(func() error {
		items, err := p.categories.GetBlogPosts(gctx, cat, opts...)
		if items != nil {
			out.BlogPosts = items
		}
		return err
	})
	g.Go(func() error {
		items, err := p.categories.GetPersons(gctx, cat, opts...)
		if items != nil {
			out.Persons = items
		}
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
