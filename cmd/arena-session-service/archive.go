// Copyright 2026 The Arena Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/arena-foundation/arena/lib/archive"
	"github.com/arena-foundation/arena/lib/codec"
	"github.com/arena-foundation/arena/lib/schema/session"
)

// archiveExtension is appended to the content id to name archive
// files under the archives directory.
const archiveExtension = ".arna"

// archiver writes sealed archive containers for compacted sessions.
type archiver struct {
	keys   *archive.KeySet
	dir    string
	logger *slog.Logger
}

func newArchiver(keys *archive.KeySet, dir string, logger *slog.Logger) *archiver {
	return &archiver{keys: keys, dir: dir, logger: logger}
}

// archive encodes each record as deterministic CBOR, seals the batch
// into one container, and writes it to the archives directory named
// by content id. The write goes through a temp file and rename, and
// the file is fsynced before the rename, so a crash never leaves a
// half-written archive under the final name.
func (a *archiver) archive(records []*session.Record) (string, archive.ContentID, error) {
	encoded := make([][]byte, len(records))
	for i, record := range records {
		data, err := codec.Marshal(record)
		if err != nil {
			return "", archive.ContentID{}, fmt.Errorf("encoding session %s for archive: %w", record.ID.Short(), err)
		}
		encoded[i] = data
	}

	container, contentID, err := a.keys.Seal(encoded)
	if err != nil {
		return "", archive.ContentID{}, fmt.Errorf("sealing archive: %w", err)
	}

	path := filepath.Join(a.dir, contentID.String()+archiveExtension)
	if err := writeFileDurable(path, container); err != nil {
		return "", archive.ContentID{}, fmt.Errorf("writing archive %s: %w", path, err)
	}

	a.logger.Info("archive written",
		"path", path,
		"records", len(records),
		"bytes", len(container))
	return path, contentID, nil
}

// writeFileDurable writes data to path via a temp file in the same
// directory, fsyncing before the rename.
func writeFileDurable(path string, data []byte) error {
	temp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return err
	}
	tempPath := temp.Name()

	success := false
	defer func() {
		if !success {
			os.Remove(tempPath)
		}
	}()

	if _, err := temp.Write(data); err != nil {
		temp.Close()
		return err
	}
	if err := temp.Sync(); err != nil {
		temp.Close()
		return err
	}
	if err := temp.Close(); err != nil {
		return err
	}
	if err := os.Rename(tempPath, path); err != nil {
		return err
	}

	success = true
	return nil
}
