// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package slug

import (
	"regexp"
	"testing"
)

// wellFormed is the shape of every non-empty slug.
var wellFormed = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)

// catalogueTitles are titles of categories, courses, blog posts and
// persons as editors type them.
var catalogueTitles = []struct {
	name  string
	input string
	want  string
}{
	// Category names in the site languages.
	{name: "french category", input: "Littérature française", want: "litterature-francaise"},
	{name: "accents and parentheses", input: "Économie et société (2e année)", want: "economie-et-societe-2e-annee"},
	{name: "spanish tilde", input: "Diseño gráfico", want: "diseno-grafico"},
	{name: "german umlauts", input: "Über die Brücke", want: "uber-die-brucke"},
	{name: "vietnamese stacked marks", input: "Tiếng Việt", want: "tieng-viet"},
	{name: "ring above", input: "Ångström units", want: "angstrom-units"},

	// Display strings and separator runs.
	{name: "display string", input: "Art / Literature / Novels", want: "art-literature-novels"},
	{name: "french display string", input: "Sujets / Art / Littérature", want: "sujets-art-litterature"},
	{name: "double hyphen", input: "Physics -- level 2", want: "physics-level-2"},
	{name: "hyphenated words", input: "Data-Science -- Basics", want: "data-science-basics"},
	{name: "tabs and newlines", input: "Introduction\tto\nGo", want: "introduction-to-go"},
	{name: "padded person name", input: "  Ada   Lovelace  ", want: "ada-lovelace"},

	// Punctuation in blog post and course titles.
	{name: "apostrophe", input: "Pourquoi la science a besoin de l'art", want: "pourquoi-la-science-a-besoin-de-lart"},
	{name: "degree sign and colon", input: "Cours n°3: Gödel, Escher, Bach", want: "cours-n3-godel-escher-bach"},
	{name: "plus signs", input: "C++ for beginners", want: "c-for-beginners"},

	// Letters without an ASCII base are dropped.
	{name: "stroke letters", input: "Łódź summer school", want: "odz-summer-school"},
	{name: "ligature and slashed o", input: "Ærø island", want: "r-island"},
	{name: "greek only", input: "Φυσική", want: ""},
	{name: "mixed cjk", input: "日本語 course", want: "course"},

	// Degenerate titles.
	{name: "empty", input: "", want: ""},
	{name: "only separators", input: " - / - ", want: ""},
}

func TestGenerate(t *testing.T) {
	for _, tt := range catalogueTitles {
		t.Run(tt.name, func(t *testing.T) {
			got := Generate(tt.input)
			if got != tt.want {
				t.Errorf("Generate(%q) = %q, want %q", tt.input, got, tt.want)
			}
			if got != "" && !wellFormed.MatchString(got) {
				t.Errorf("Generate(%q) = %q is not a well-formed slug", tt.input, got)
			}
		})
	}
}

// TestGenerateStable checks that slugs are fixed points, so publishing a
// page again never changes its URL.
func TestGenerateStable(t *testing.T) {
	for _, tt := range catalogueTitles {
		once := Generate(tt.input)
		if twice := Generate(once); twice != once {
			t.Errorf("Generate(%q) = %q, then %q", tt.input, once, twice)
		}
	}
}

// TestGenerateNormalizationForms checks that precomposed and combining
// accents give the same slug.
func TestGenerateNormalizationForms(t *testing.T) {
	pairs := [][2]string{
		{"Caf\u00e9", "Cafe\u0301"},
		{"\u00c9conomie", "E\u0301conomie"},
		{"Br\u00fccke", "Bru\u0308cke"},
	}
	for _, p := range pairs {
		if a, b := Generate(p[0]), Generate(p[1]); a != b {
			t.Errorf("Generate(%q) = %q, Generate(%q) = %q", p[0], a, p[1], b)
		}
	}
}

// TestGenerateTranslations checks that the titles of one page in every
// site language all produce usable slugs.
func TestGenerateTranslations(t *testing.T) {
	titles := map[string]string{
		"en": "Literature",
		"fr": "Littérature",
		"de": "Literatur",
		"es": "Literatura",
	}
	want := map[string]string{
		"en": "literature",
		"fr": "litterature",
		"de": "literatur",
		"es": "literatura",
	}
	for lang, title := range titles {
		if got := Generate(title); got != want[lang] {
			t.Errorf("%s: Generate(%q) = %q, want %q", lang, title, got, want[lang])
		}
	}
}
