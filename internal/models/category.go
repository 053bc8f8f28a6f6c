// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import "strings"

// CategoryPathSeparator joins category titles in a display string.
const CategoryPathSeparator = " / "

// CategoryPath builds the display string of a category from the titles of
// its category ancestors (root first) and its own title. Empty ancestor
// titles are skipped.
func CategoryPath(ancestors []string, own string) string {
	parts := make([]string, 0, len(ancestors)+1)
	for _, a := range ancestors {
		if a != "" {
			parts = append(parts, a)
		}
	}
	parts = append(parts, own)
	return strings.Join(parts, CategoryPathSeparator)
}

// CategorySummary is the listing view of a category.
type CategorySummary struct {
	Category  *Category `json:"category"`
	Display   string    `json:"display"`
	Courses   int       `json:"courses"`
	BlogPosts int       `json:"blogposts"`
	Persons   int       `json:"persons"`
}

// CategoryOverview bundles every item tagged with a category.
type CategoryOverview struct {
	Display   string     `json:"display"`
	Courses   []Course   `json:"courses"`
	BlogPosts []BlogPost `json:"blogposts"`
	Persons   []Person   `json:"persons"`
}
