// Copyright 2026 The Arena Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"

	"github.com/arena-foundation/arena/lib/codec"
	"github.com/arena-foundation/arena/lib/ref"
	"github.com/arena-foundation/arena/lib/schema/session"
	"github.com/arena-foundation/arena/lib/sqlitepool"
)

// queueState is a category queue as the store persists it: the
// capacity and the ordered identifiers, encoded as one CBOR blob per
// category. The orchestrator rebuilds a sessionqueue.Queue from it
// and hands a fresh queueState back on every queue mutation.
type queueState struct {
	Category ref.GameCategory
	Capacity int
	IDs      []ref.SessionID
}

// Store is the durable half of the orchestrator: sessions, queues,
// rules, the id-generation nonce, and the driver cycle counter, all
// in one SQLite database. Every mutation runs in an IMMEDIATE
// transaction; methods that touch a session and its queue commit
// both in the same transaction.
type Store struct {
	pool   *sqlitepool.Pool
	logger *slog.Logger
}

// StoreConfig configures OpenStore.
type StoreConfig struct {
	// Path is the SQLite database file.
	Path string

	// PoolSize is the connection pool size. Defaults to 4.
	PoolSize int

	// Logger receives store lifecycle messages.
	Logger *slog.Logger
}

// OpenStore opens (creating if necessary) the session database,
// applies the schema, and verifies the stored schema version.
func OpenStore(cfg StoreConfig) (*Store, error) {
	if cfg.Logger == nil {
		return nil, fmt.Errorf("session store: Logger is required")
	}

	poolSize := cfg.PoolSize
	if poolSize <= 0 {
		poolSize = 4
	}

	pool, err := sqlitepool.Open(sqlitepool.Config{
		Path:     cfg.Path,
		PoolSize: poolSize,
		Logger:   cfg.Logger,
	})
	if err != nil {
		return nil, fmt.Errorf("session store: %w", err)
	}

	store := &Store{pool: pool, logger: cfg.Logger}
	if err := store.initSchema(context.Background()); err != nil {
		pool.Close()
		return nil, err
	}
	return store, nil
}

// initSchema applies the DDL and initializes or checks the stored
// schema version, in one transaction.
func (s *Store) initSchema(ctx context.Context) error {
	return s.pool.Update(ctx, func(conn *sqlite.Conn) error {
		if err := sqlitex.ExecuteScript(conn, storeSchema, nil); err != nil {
			return fmt.Errorf("session store: applying schema: %w", err)
		}

		stored, ok, err := metaGet(conn, metaSchemaVersion)
		if err != nil {
			return err
		}
		if !ok {
			if err := metaSet(conn, metaSchemaVersion, strconv.Itoa(schemaVersion)); err != nil {
				return err
			}
			s.logger.Info("session database initialized", "schema_version", schemaVersion)
			return nil
		}
		if stored != strconv.Itoa(schemaVersion) {
			return fmt.Errorf("session store: database has schema version %s, this build expects %d", stored, schemaVersion)
		}
		return nil
	})
}

// Close closes the underlying connection pool. Blocks until all
// borrowed connections are returned.
func (s *Store) Close() error {
	return s.pool.Close()
}

// metaGet reads one meta key. Returns ok=false when the key has
// never been written.
func metaGet(conn *sqlite.Conn, key string) (value string, ok bool, err error) {
	err = sqlitex.Execute(conn, `SELECT value FROM meta WHERE key = ?`, &sqlitex.ExecOptions{
		Args: []any{key},
		ResultFunc: func(stmt *sqlite.Stmt) error {
			value = stmt.ColumnText(0)
			ok = true
			return nil
		},
	})
	if err != nil {
		return "", false, fmt.Errorf("session store: reading meta %q: %w", key, err)
	}
	return value, ok, nil
}

// metaSet writes one meta key.
func metaSet(conn *sqlite.Conn, key, value string) error {
	err := sqlitex.Execute(conn,
		`INSERT INTO meta (key, value) VALUES (?, ?)
		 ON CONFLICT (key) DO UPDATE SET value = excluded.value`,
		&sqlitex.ExecOptions{Args: []any{key, value}})
	if err != nil {
		return fmt.Errorf("session store: writing meta %q: %w", key, err)
	}
	return nil
}

// metaUint64 reads a meta key as a uint64, defaulting to zero when
// the key has never been written.
func metaUint64(conn *sqlite.Conn, key string) (uint64, error) {
	text, ok, err := metaGet(conn, key)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, nil
	}
	value, err := strconv.ParseUint(text, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("session store: meta %q holds %q, not a number: %w", key, text, err)
	}
	return value, nil
}

// Nonce returns the current id-generation nonce. Zero on a fresh
// database.
func (s *Store) Nonce(ctx context.Context) (uint64, error) {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return 0, fmt.Errorf("session store: nonce: %w", err)
	}
	defer s.pool.Put(conn)

	return metaUint64(conn, metaNonce)
}

// CreateSession inserts a fresh session record, persists its category
// queue with the new identifier enqueued, and stores the advanced
// nonce, all in one transaction. A failed create leaves the nonce
// where it was.
func (s *Store) CreateSession(ctx context.Context, record *session.Record, nonce uint64, queue queueState) error {
	return s.pool.Update(ctx, func(conn *sqlite.Conn) error {
		if err := metaSet(conn, metaNonce, strconv.FormatUint(nonce, 10)); err != nil {
			return err
		}
		if err := insertSession(conn, record); err != nil {
			return err
		}
		return saveQueue(conn, queue)
	})
}

// Session loads one record by identifier. Returns (nil, nil) when
// the registry has no such session.
func (s *Store) Session(ctx context.Context, id ref.SessionID) (*session.Record, error) {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return nil, fmt.Errorf("session store: session: %w", err)
	}
	defer s.pool.Put(conn)

	var record *session.Record
	err = sqlitex.Execute(conn, selectSessionColumns+` WHERE id = ?`, &sqlitex.ExecOptions{
		Args: []any{id.String()},
		ResultFunc: func(stmt *sqlite.Stmt) error {
			scanned, scanErr := scanSession(stmt)
			if scanErr != nil {
				return scanErr
			}
			record = scanned
			return nil
		},
	})
	if err != nil {
		return nil, fmt.Errorf("session store: loading session %s: %w", id.Short(), err)
	}
	return record, nil
}

// SaveSession rewrites the mutable columns of an existing record:
// state, executor, and the transition timeline.
func (s *Store) SaveSession(ctx context.Context, record *session.Record) error {
	return s.pool.Update(ctx, func(conn *sqlite.Conn) error {
		return updateSession(conn, record)
	})
}

// AcknowledgeSession marks one session Accepted and persists its
// category queue with the head removed, in a single transaction.
// Acknowledge calls this once per identifier so a later mismatch in
// the batch cannot roll back work already committed.
func (s *Store) AcknowledgeSession(ctx context.Context, record *session.Record, queue queueState) error {
	return s.pool.Update(ctx, func(conn *sqlite.Conn) error {
		if err := updateSession(conn, record); err != nil {
			return err
		}
		return saveQueue(conn, queue)
	})
}

// DropSession deletes a session row and, when queue is non-nil,
// persists the queue it was removed from, in one transaction.
func (s *Store) DropSession(ctx context.Context, id ref.SessionID, queue *queueState) error {
	return s.pool.Update(ctx, func(conn *sqlite.Conn) error {
		err := sqlitex.Execute(conn, `DELETE FROM sessions WHERE id = ?`, &sqlitex.ExecOptions{
			Args: []any{id.String()},
		})
		if err != nil {
			return fmt.Errorf("session store: deleting session %s: %w", id.Short(), err)
		}
		if queue != nil {
			return saveQueue(conn, *queue)
		}
		return nil
	})
}

// DeleteSessions removes a batch of session rows in one transaction.
// Used by compact after the batch is safely archived.
func (s *Store) DeleteSessions(ctx context.Context, ids []ref.SessionID) error {
	if len(ids) == 0 {
		return nil
	}
	return s.pool.Update(ctx, func(conn *sqlite.Conn) error {
		for _, id := range ids {
			err := sqlitex.Execute(conn, `DELETE FROM sessions WHERE id = ?`, &sqlitex.ExecOptions{
				Args: []any{id.String()},
			})
			if err != nil {
				return fmt.Errorf("session store: deleting session %s: %w", id.Short(), err)
			}
		}
		return nil
	})
}

// Queue loads one category queue. Returns ok=false when the category
// has never had a queue.
func (s *Store) Queue(ctx context.Context, category ref.GameCategory) (queue queueState, ok bool, err error) {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return queueState{}, false, fmt.Errorf("session store: queue: %w", err)
	}
	defer s.pool.Put(conn)

	err = sqlitex.Execute(conn, `SELECT capacity, entries FROM queues WHERE category = ?`, &sqlitex.ExecOptions{
		Args: []any{category.String()},
		ResultFunc: func(stmt *sqlite.Stmt) error {
			scanned, scanErr := scanQueue(stmt, category)
			if scanErr != nil {
				return scanErr
			}
			queue = scanned
			ok = true
			return nil
		},
	})
	if err != nil {
		return queueState{}, false, fmt.Errorf("session store: loading queue %s: %w", category, err)
	}
	return queue, ok, nil
}

// Queues loads every category queue, ordered by category.
func (s *Store) Queues(ctx context.Context) ([]queueState, error) {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return nil, fmt.Errorf("session store: queues: %w", err)
	}
	defer s.pool.Put(conn)

	var queues []queueState
	err = sqlitex.Execute(conn, `SELECT capacity, entries, category FROM queues ORDER BY category`, &sqlitex.ExecOptions{
		ResultFunc: func(stmt *sqlite.Stmt) error {
			category, parseErr := ref.ParseGameCategory(stmt.ColumnText(2))
			if parseErr != nil {
				return fmt.Errorf("queue row has invalid category: %w", parseErr)
			}
			scanned, scanErr := scanQueue(stmt, category)
			if scanErr != nil {
				return scanErr
			}
			queues = append(queues, scanned)
			return nil
		},
	})
	if err != nil {
		return nil, fmt.Errorf("session store: loading queues: %w", err)
	}
	return queues, nil
}

// LiveSessions returns every non-finished record, ordered by the
// cycle they were queued in. This is the watch snapshot.
func (s *Store) LiveSessions(ctx context.Context) ([]*session.Record, error) {
	records, err := s.selectSessions(ctx, ` WHERE phase != 'finished' ORDER BY cycle_queued, id`, nil)
	if err != nil {
		return nil, fmt.Errorf("session store: loading live sessions: %w", err)
	}
	return records, nil
}

// FinishedSessions returns finished records whose finish cycle is at
// or before the given cycle, oldest first. Compact archives these.
func (s *Store) FinishedSessions(ctx context.Context, throughCycle uint64) ([]*session.Record, error) {
	records, err := s.selectSessions(ctx,
		` WHERE phase = 'finished' AND cycle_finished <= ? ORDER BY cycle_finished, id`,
		[]any{int64(throughCycle)})
	if err != nil {
		return nil, fmt.Errorf("session store: loading finished sessions: %w", err)
	}
	return records, nil
}

// SessionCounts returns the number of sessions in each phase.
func (s *Store) SessionCounts(ctx context.Context) (map[string]int, error) {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return nil, fmt.Errorf("session store: session counts: %w", err)
	}
	defer s.pool.Put(conn)

	counts := make(map[string]int)
	err = sqlitex.Execute(conn, `SELECT phase, COUNT(*) FROM sessions GROUP BY phase`, &sqlitex.ExecOptions{
		ResultFunc: func(stmt *sqlite.Stmt) error {
			counts[stmt.ColumnText(0)] = int(stmt.ColumnInt64(1))
			return nil
		},
	})
	if err != nil {
		return nil, fmt.Errorf("session store: counting sessions: %w", err)
	}
	return counts, nil
}

// Cycle returns the driver cycle counter. Zero on a fresh database;
// the first driver pass advances it to 1.
func (s *Store) Cycle(ctx context.Context) (uint64, error) {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return 0, fmt.Errorf("session store: cycle: %w", err)
	}
	defer s.pool.Put(conn)

	return metaUint64(conn, metaCycle)
}

// AdvanceCycle increments the durable cycle counter and returns the
// new value. Restart resumes numbering instead of reusing cycles.
func (s *Store) AdvanceCycle(ctx context.Context) (uint64, error) {
	var cycle uint64
	err := s.pool.Update(ctx, func(conn *sqlite.Conn) error {
		current, err := metaUint64(conn, metaCycle)
		if err != nil {
			return err
		}
		cycle = current + 1
		return metaSet(conn, metaCycle, strconv.FormatUint(cycle, 10))
	})
	if err != nil {
		return 0, err
	}
	return cycle, nil
}

// Admin returns the one-time admin identity, or the zero AccountID
// when none has been claimed yet.
func (s *Store) Admin(ctx context.Context) (ref.AccountID, error) {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return ref.AccountID{}, fmt.Errorf("session store: admin: %w", err)
	}
	defer s.pool.Put(conn)

	text, ok, err := metaGet(conn, metaAdmin)
	if err != nil || !ok {
		return ref.AccountID{}, err
	}
	admin, err := ref.ParseAccountID(text)
	if err != nil {
		return ref.AccountID{}, fmt.Errorf("session store: stored admin %q: %w", text, err)
	}
	return admin, nil
}

// SetAdmin claims the admin identity. The claim is first-write-wins:
// once set, a different identity is refused and the stored one never
// changes. Re-claiming the same identity is a no-op so boot is
// idempotent.
func (s *Store) SetAdmin(ctx context.Context, admin ref.AccountID) error {
	return s.pool.Update(ctx, func(conn *sqlite.Conn) error {
		current, ok, err := metaGet(conn, metaAdmin)
		if err != nil {
			return err
		}
		if ok {
			if current != admin.String() {
				return fmt.Errorf("session store: admin is already %s, refusing to change it to %s", current, admin)
			}
			return nil
		}
		return metaSet(conn, metaAdmin, admin.String())
	})
}

// RuleSet loads the stored rules for one category. Returns (nil, nil)
// when the category has no rules.
func (s *Store) RuleSet(ctx context.Context, category ref.GameCategory) (*session.RuleSet, error) {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return nil, fmt.Errorf("session store: rule set: %w", err)
	}
	defer s.pool.Put(conn)

	var rules *session.RuleSet
	err = sqlitex.Execute(conn, `SELECT document FROM rules WHERE category = ?`, &sqlitex.ExecOptions{
		Args: []any{category.String()},
		ResultFunc: func(stmt *sqlite.Stmt) error {
			document := make([]byte, stmt.ColumnLen(0))
			stmt.ColumnBytes(0, document)
			var decoded session.RuleSet
			if decodeErr := codec.Unmarshal(document, &decoded); decodeErr != nil {
				return fmt.Errorf("rules row for %s is corrupt: %w", category, decodeErr)
			}
			rules = &decoded
			return nil
		},
	})
	if err != nil {
		return nil, fmt.Errorf("session store: loading rules %s: %w", category, err)
	}
	return rules, nil
}

// RuleSets loads all stored rule sets, ordered by category.
func (s *Store) RuleSets(ctx context.Context) ([]session.RuleSet, error) {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return nil, fmt.Errorf("session store: rule sets: %w", err)
	}
	defer s.pool.Put(conn)

	var all []session.RuleSet
	err = sqlitex.Execute(conn, `SELECT document FROM rules ORDER BY category`, &sqlitex.ExecOptions{
		ResultFunc: func(stmt *sqlite.Stmt) error {
			document := make([]byte, stmt.ColumnLen(0))
			stmt.ColumnBytes(0, document)
			var decoded session.RuleSet
			if decodeErr := codec.Unmarshal(document, &decoded); decodeErr != nil {
				return fmt.Errorf("rules row is corrupt: %w", decodeErr)
			}
			all = append(all, decoded)
			return nil
		},
	})
	if err != nil {
		return nil, fmt.Errorf("session store: loading rule sets: %w", err)
	}
	return all, nil
}

// SaveRuleSet stores (or replaces) the rules for a category.
func (s *Store) SaveRuleSet(ctx context.Context, rules session.RuleSet) error {
	document, err := codec.Marshal(rules)
	if err != nil {
		return fmt.Errorf("session store: encoding rules %s: %w", rules.Category, err)
	}

	return s.pool.Update(ctx, func(conn *sqlite.Conn) error {
		err := sqlitex.Execute(conn,
			`INSERT INTO rules (category, document) VALUES (?, ?)
			 ON CONFLICT (category) DO UPDATE SET document = excluded.document`,
			&sqlitex.ExecOptions{Args: []any{rules.Category.String(), document}})
		if err != nil {
			return fmt.Errorf("session store: saving rules %s: %w", rules.Category, err)
		}
		return nil
	})
}

// selectSessionColumns is the shared projection for session scans.
// scanSession reads columns by these positions.
const selectSessionColumns = `SELECT id, category, executor, phase, winner, players,
	cycle_queued, cycle_accepted, cycle_running, cycle_finished FROM sessions`

// selectSessions runs a session query built from the shared
// projection plus a tail clause.
func (s *Store) selectSessions(ctx context.Context, tail string, args []any) ([]*session.Record, error) {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return nil, err
	}
	defer s.pool.Put(conn)

	var records []*session.Record
	err = sqlitex.Execute(conn, selectSessionColumns+tail, &sqlitex.ExecOptions{
		Args: args,
		ResultFunc: func(stmt *sqlite.Stmt) error {
			record, scanErr := scanSession(stmt)
			if scanErr != nil {
				return scanErr
			}
			records = append(records, record)
			return nil
		},
	})
	if err != nil {
		return nil, err
	}
	return records, nil
}

// insertSession writes a full session row.
func insertSession(conn *sqlite.Conn, record *session.Record) error {
	players, err := codec.Marshal(record.Players)
	if err != nil {
		return fmt.Errorf("session store: encoding players: %w", err)
	}

	executor := ""
	if !record.Executor.IsZero() {
		executor = record.Executor.String()
	}
	winner := ""
	if w, ok := record.State.Winner(); ok {
		winner = w.String()
	}

	err = sqlitex.Execute(conn,
		`INSERT INTO sessions (id, category, executor, phase, winner, players,
			cycle_queued, cycle_accepted, cycle_running, cycle_finished)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		&sqlitex.ExecOptions{Args: []any{
			record.ID.String(),
			record.Category.String(),
			executor,
			record.State.Phase(),
			winner,
			players,
			int64(record.StateChange[session.CycleQueued]),
			int64(record.StateChange[session.CycleAccepted]),
			int64(record.StateChange[session.CycleRunning]),
			int64(record.StateChange[session.CycleFinished]),
		}})
	if err != nil {
		return fmt.Errorf("session store: inserting session %s: %w", record.ID.Short(), err)
	}
	return nil
}

// updateSession rewrites the mutable columns of an existing row.
// Identity, category, and players never change after creation.
func updateSession(conn *sqlite.Conn, record *session.Record) error {
	executor := ""
	if !record.Executor.IsZero() {
		executor = record.Executor.String()
	}
	winner := ""
	if w, ok := record.State.Winner(); ok {
		winner = w.String()
	}

	err := sqlitex.Execute(conn,
		`UPDATE sessions SET executor = ?, phase = ?, winner = ?,
			cycle_queued = ?, cycle_accepted = ?, cycle_running = ?, cycle_finished = ?
		 WHERE id = ?`,
		&sqlitex.ExecOptions{Args: []any{
			executor,
			record.State.Phase(),
			winner,
			int64(record.StateChange[session.CycleQueued]),
			int64(record.StateChange[session.CycleAccepted]),
			int64(record.StateChange[session.CycleRunning]),
			int64(record.StateChange[session.CycleFinished]),
			record.ID.String(),
		}})
	if err != nil {
		return fmt.Errorf("session store: updating session %s: %w", record.ID.Short(), err)
	}
	return nil
}

// saveQueue upserts a category queue row.
func saveQueue(conn *sqlite.Conn, queue queueState) error {
	entries, err := codec.Marshal(queue.IDs)
	if err != nil {
		return fmt.Errorf("session store: encoding queue %s: %w", queue.Category, err)
	}

	err = sqlitex.Execute(conn,
		`INSERT INTO queues (category, capacity, entries) VALUES (?, ?, ?)
		 ON CONFLICT (category) DO UPDATE SET capacity = excluded.capacity, entries = excluded.entries`,
		&sqlitex.ExecOptions{Args: []any{queue.Category.String(), int64(queue.Capacity), entries}})
	if err != nil {
		return fmt.Errorf("session store: saving queue %s: %w", queue.Category, err)
	}
	return nil
}

// scanSession rebuilds a record from a selectSessionColumns row.
func scanSession(stmt *sqlite.Stmt) (*session.Record, error) {
	id, err := ref.ParseSessionID(stmt.ColumnText(0))
	if err != nil {
		return nil, fmt.Errorf("session row has invalid id: %w", err)
	}
	category, err := ref.ParseGameCategory(stmt.ColumnText(1))
	if err != nil {
		return nil, fmt.Errorf("session row %s has invalid category: %w", id.Short(), err)
	}

	var executor ref.AccountID
	if text := stmt.ColumnText(2); text != "" {
		executor, err = ref.ParseAccountID(text)
		if err != nil {
			return nil, fmt.Errorf("session row %s has invalid executor: %w", id.Short(), err)
		}
	}

	stateText := stmt.ColumnText(3)
	if winner := stmt.ColumnText(4); winner != "" {
		stateText += ":" + winner
	}
	state, err := session.ParseState(stateText)
	if err != nil {
		return nil, fmt.Errorf("session row %s has invalid state: %w", id.Short(), err)
	}

	players := make([]byte, stmt.ColumnLen(5))
	stmt.ColumnBytes(5, players)
	var group []ref.AccountID
	if err := codec.Unmarshal(players, &group); err != nil {
		return nil, fmt.Errorf("session row %s has corrupt players: %w", id.Short(), err)
	}

	record := &session.Record{
		ID:       id,
		Category: category,
		Executor: executor,
		Players:  group,
		State:    state,
	}
	record.StateChange[session.CycleQueued] = uint64(stmt.ColumnInt64(6))
	record.StateChange[session.CycleAccepted] = uint64(stmt.ColumnInt64(7))
	record.StateChange[session.CycleRunning] = uint64(stmt.ColumnInt64(8))
	record.StateChange[session.CycleFinished] = uint64(stmt.ColumnInt64(9))
	return record, nil
}

// scanQueue rebuilds a queueState from a (capacity, entries) row.
func scanQueue(stmt *sqlite.Stmt, category ref.GameCategory) (queueState, error) {
	entries := make([]byte, stmt.ColumnLen(1))
	stmt.ColumnBytes(1, entries)
	var ids []ref.SessionID
	if err := codec.Unmarshal(entries, &ids); err != nil {
		return queueState{}, fmt.Errorf("queue row %s has corrupt entries: %w", category, err)
	}
	return queueState{
		Category: category,
		Capacity: int(stmt.ColumnInt64(0)),
		IDs:      ids,
	}, nil
}
