// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

// TagState is the publication state of a category tag on an item.
type TagState int

const (
	// TagAbsent means the item carries no tag for the category at all.
	TagAbsent TagState = iota
	// TagNotPublished means the tag only exists on the item's draft page.
	TagNotPublished
	// TagPublishedItemDraft means the public page carries the tag but the
	// item is not currently public in any language.
	TagPublishedItemDraft
	// TagPublishedItemPublic means the tag is visible on the public site.
	TagPublishedItemPublic
)

func (s TagState) String() string {
	switch s {
	case TagAbsent:
		return "absent"
	case TagNotPublished:
		return "tag-not-published"
	case TagPublishedItemDraft:
		return "tag-published-item-draft"
	case TagPublishedItemPublic:
		return "tag-published-item-public"
	}
	return "unknown"
}

// TagRelation is the observed state of one (category, item) pair across
// both revisions of the item.
type TagRelation struct {
	// DraftTagged is true when the item's draft page has a plugin for
	// the category.
	DraftTagged bool `json:"draft_tagged"`
	// PublicTagged is true when the item's public page has one.
	PublicTagged bool `json:"public_tagged"`
	// ItemPublic is true when the item has a public page with at least
	// one published title.
	ItemPublic bool `json:"item_public"`
}

// State collapses the relation into its TagState.
func (r TagRelation) State() TagState {
	switch {
	case r.PublicTagged && r.ItemPublic:
		return TagPublishedItemPublic
	case r.PublicTagged:
		return TagPublishedItemDraft
	case r.DraftTagged:
		return TagNotPublished
	}
	return TagAbsent
}

// VisibleIn reports whether the item is listed by the given revision of
// the category.
func (r TagRelation) VisibleIn(rev Revision) bool {
	if rev == RevisionDraft {
		return r.DraftTagged
	}
	return r.State() == TagPublishedItemPublic
}

// AfterPublish returns the relation once the item's page is published:
// the public page mirrors the draft tags.
func (r TagRelation) AfterPublish() TagRelation {
	return TagRelation{
		DraftTagged:  r.DraftTagged,
		PublicTagged: r.DraftTagged,
		ItemPublic:   true,
	}
}

// AfterUnpublish returns the relation once the item is withdrawn from the
// public site. Public plugins are kept so a later publish restores them.
func (r TagRelation) AfterUnpublish() TagRelation {
	r.ItemPublic = false
	return r
}
