// Copyright 2026 The Arena Authors
// SPDX-License-Identifier: Apache-2.0

// Package sqlitepool is the SQLite connection pool under Arena's
// durable state: the session registry, its queues, rules, and
// counters all live in one database opened through this package.
//
// It wraps zombiezen.com/go/sqlite's sqlitex.Pool with the pragma set
// the session service runs on. WAL keeps snapshot reads (watch, status)
// off the writer's back; NORMAL synchronous survives process crashes,
// which is the failure mode that matters for a registry whose clients
// observe outcomes through the watch stream rather than assuming a
// write landed; a 5 second busy timeout absorbs write contention.
// Referential integrity is the store's job, so foreign_keys stays off.
//
// Callers borrow with [Pool.Take] / [Pool.Put] for reads and run
// mutations through [Pool.Update], which wraps fn in an IMMEDIATE
// transaction:
//
//	pool, err := sqlitepool.Open(sqlitepool.Config{
//	    Path:   "/var/arena/session/session.db",
//	    Logger: logger,
//	})
//	if err != nil {
//	    return err
//	}
//	defer pool.Close()
//
//	err = pool.Update(ctx, func(conn *sqlite.Conn) error {
//	    return sqlitex.Execute(conn, `DELETE FROM sessions WHERE id = ?`,
//	        &sqlitex.ExecOptions{Args: []any{id}})
//	})
//
// The package stays thin on purpose: it applies pragmas and manages
// transactions, and otherwise exposes the zombiezen types directly.
// Services write SQL; there is no query builder and no ORM.
package sqlitepool
