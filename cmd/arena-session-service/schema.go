// Copyright 2026 The Arena Authors
// SPDX-License-Identifier: Apache-2.0

package main

// schemaVersion is stored in the meta table on first boot and checked
// on every open. There is no migration machinery yet; a mismatch is a
// hard error telling the operator which version the database carries.
const schemaVersion = 1

// storeSchema is the complete DDL for the session store. Players and
// queue entries are deterministic CBOR blobs: the orchestrator owns
// their structure and SQLite only needs to order and fetch whole rows.
// The four cycle columns mirror the record's state-change timeline so
// the compact sweep can select finished sessions by age without
// decoding anything.
const storeSchema = `
	CREATE TABLE IF NOT EXISTS meta (
		key   TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS sessions (
		id             TEXT PRIMARY KEY,
		category       TEXT NOT NULL,
		executor       TEXT NOT NULL DEFAULT '',
		phase          TEXT NOT NULL,
		winner         TEXT NOT NULL DEFAULT '',
		players        BLOB NOT NULL,
		cycle_queued   INTEGER NOT NULL DEFAULT 0,
		cycle_accepted INTEGER NOT NULL DEFAULT 0,
		cycle_running  INTEGER NOT NULL DEFAULT 0,
		cycle_finished INTEGER NOT NULL DEFAULT 0
	);
	CREATE INDEX IF NOT EXISTS idx_sessions_category ON sessions(category);
	CREATE INDEX IF NOT EXISTS idx_sessions_phase ON sessions(phase, cycle_finished);

	CREATE TABLE IF NOT EXISTS queues (
		category TEXT PRIMARY KEY,
		capacity INTEGER NOT NULL,
		entries  BLOB NOT NULL
	);

	CREATE TABLE IF NOT EXISTS rules (
		category TEXT PRIMARY KEY,
		document BLOB NOT NULL
	);
`

// Meta table keys.
const (
	metaSchemaVersion = "schema_version"
	metaNonce         = "nonce"
	metaCycle         = "cycle"
	metaAdmin         = "admin"
)
