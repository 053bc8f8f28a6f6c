// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package querylog

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
)

// trace simulates pgx calling the tracer around one query.
func trace(c *Counter, sql string, err error) {
	ctx := c.TraceQueryStart(context.Background(), nil, pgx.TraceQueryStartData{SQL: sql})
	c.TraceQueryEnd(ctx, nil, pgx.TraceQueryEndData{Err: err})
}

func TestCounterCounts(t *testing.T) {
	for _, logSQL := range []bool{false, true} {
		c := New(logSQL)
		trace(c, "SELECT 1", nil)
		trace(c, "SELECT 2", errors.New("boom"))
		if c.Count() != 2 {
			t.Errorf("logSQL=%v: count = %d, want 2", logSQL, c.Count())
		}
	}
}

func TestCounterReset(t *testing.T) {
	c := New(false)
	trace(c, "SELECT 1", nil)
	c.Reset()
	if c.Count() != 0 {
		t.Errorf("count after reset = %d, want 0", c.Count())
	}
}

func TestCounterMeasure(t *testing.T) {
	c := New(false)
	trace(c, "SELECT 0", nil)

	n := c.Measure(func() {
		trace(c, "SELECT 1", nil)
		trace(c, "SELECT 2", nil)
	})
	if n != 2 {
		t.Errorf("Measure = %d, want 2", n)
	}

	n = c.Measure(func() {})
	if n != 0 {
		t.Errorf("Measure of no-op = %d, want 0", n)
	}
}

func TestCompact(t *testing.T) {
	got := Compact("\n\t\tSELECT id\n\t\tFROM   pages\n\t\tWHERE id = $1\n")
	want := "SELECT id FROM pages WHERE id = $1"
	if got != want {
		t.Errorf("Compact = %q, want %q", got, want)
	}
}
