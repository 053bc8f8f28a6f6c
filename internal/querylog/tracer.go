// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package querylog counts and logs the SQL statements sent through a pgx
// connection. Stores are held to a fixed number of round trips per call
// and tests use the counter to enforce it.
package querylog

import (
	"context"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"github.com/jackc/pgx/v5"
)

type traceKey struct{}

type traceData struct {
	sql   string
	start time.Time
}

// Counter is a pgx.QueryTracer that counts every query it sees.
type Counter struct {
	count  atomic.Int64
	logSQL bool
}

var _ pgx.QueryTracer = (*Counter)(nil)

// New returns a Counter. When logSQL is set, each statement is logged at
// debug level together with its duration.
func New(logSQL bool) *Counter {
	return &Counter{logSQL: logSQL}
}

// TraceQueryStart is called by pgx before a query is sent.
func (c *Counter) TraceQueryStart(ctx context.Context, _ *pgx.Conn, data pgx.TraceQueryStartData) context.Context {
	c.count.Add(1)
	if !c.logSQL {
		return ctx
	}
	return context.WithValue(ctx, traceKey{}, traceData{sql: Compact(data.SQL), start: time.Now()})
}

// TraceQueryEnd is called by pgx once the query has completed.
func (c *Counter) TraceQueryEnd(ctx context.Context, _ *pgx.Conn, data pgx.TraceQueryEndData) {
	if !c.logSQL {
		return
	}
	td, _ := ctx.Value(traceKey{}).(traceData)
	elapsed := time.Since(td.start)
	if data.Err != nil {
		slog.Debug("sql query failed", "sql", td.sql, "duration", elapsed.String(), "error", data.Err)
		return
	}
	slog.Debug("sql query",
		"sql", td.sql,
		"command", data.CommandTag.String(),
		"duration", elapsed.String(),
	)
}

// Count returns the number of queries traced so far.
func (c *Counter) Count() int64 {
	return c.count.Load()
}

// Reset sets the count back to zero.
func (c *Counter) Reset() {
	c.count.Store(0)
}

// Measure runs fn and returns the number of queries it issued.
// Not meaningful when other goroutines share the connection pool.
func (c *Counter) Measure(fn func()) int64 {
	before := c.Count()
	fn()
	return c.Count() - before
}

// Compact squeezes runs of whitespace in a SQL statement so it fits on a
// single log line.
func Compact(sql string) string {
	return strings.Join(strings.Fields(sql), " ")
}
