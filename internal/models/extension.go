// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ExtensionKind names the catalogue type a page is extended with.
type ExtensionKind string

const (
	KindCategory ExtensionKind = "category"
	KindCourse   ExtensionKind = "course"
	KindBlogPost ExtensionKind = "blogpost"
	KindPerson   ExtensionKind = "person"
)

// TaggableKinds lists the kinds that can carry category tags.
var TaggableKinds = []ExtensionKind{KindCourse, KindBlogPost, KindPerson}

// ParseKind converts a URL segment ("courses", "blogposts", "persons",
// or the singular forms) to an ExtensionKind.
func ParseKind(s string) (ExtensionKind, error) {
	switch s {
	case "category", "categories":
		return KindCategory, nil
	case "course", "courses":
		return KindCourse, nil
	case "blogpost", "blogposts":
		return KindBlogPost, nil
	case "person", "persons":
		return KindPerson, nil
	}
	return "", fmt.Errorf("unknown extension kind %q", s)
}

// Extension attaches a catalogue type to one page revision. The draft
// extension points at its public copy once the page is published.
type Extension struct {
	ID                uuid.UUID     `json:"id"`
	Kind              ExtensionKind `json:"kind"`
	PageID            uuid.UUID     `json:"page_id"`
	IsDraft           bool          `json:"is_draft"`
	PublicExtensionID *uuid.UUID    `json:"public_extension_id,omitempty"`
	CreatedAt         time.Time     `json:"created_at"`

	// Page is the extended page, populated by listing queries.
	Page *Page `json:"page,omitempty"`
}

// Revision reports which revision of the page the extension belongs to.
func (e *Extension) Revision() Revision {
	if e.IsDraft {
		return RevisionDraft
	}
	return RevisionPublic
}

// Category is a taxonomy page.
type Category struct {
	Extension
}

// Course is a course page that can be tagged with categories.
type Course struct {
	Extension
}

// BlogPost is a blog post page that can be tagged with categories.
type BlogPost struct {
	Extension
}

// Person is a person page that can be tagged with categories.
type Person struct {
	Extension
}
