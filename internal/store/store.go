// Copyright 2024 The branchless Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package store provides the on-disk SQLite database that backs the event
// log and merge-base cache: one file per repository, migrated on open. The
// higher-level eventlog and mergebase packages build their schema-specific
// queries on top of the generic helpers here.
package store

import (
	"context"
	"embed"
	"fmt"

	"branchless.dev/tool/internal/singleclose"
	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"
)

//go:embed schema.sql
var schemaFiles embed.FS

// appID is the SQLite application_id this database is stamped with, so an
// accidental open of an unrelated SQLite file is rejected instead of
// silently reinterpreted.
const appID int32 = 0x62726c73 // "brls"

const currentUserVersion = 1

// FileName is the conventional database file name, created alongside the
// repository's private metadata (see vcs.Repository.GitCommonDir for the
// directory this is rooted under).
const FileName = "branchless.db"

// DB is an open handle to a repository's persistent store.
type DB struct {
	conn   *sqlite.Conn
	closer *singleclose.Closer
}

// Open opens or creates the database at path and migrates it to the
// current schema, following the same application_id/user_version gate the
// teacher's internal/repocache.Open uses.
func Open(ctx context.Context, path string) (*DB, error) {
	conn, err := sqlite.OpenConn(path, sqlite.OpenCreate|sqlite.OpenReadWrite)
	if err != nil {
		return nil, fmt.Errorf("open store %s: %w", path, err)
	}
	conn.SetInterrupt(ctx.Done())
	if err := migrate(conn); err != nil {
		conn.Close()
		return nil, fmt.Errorf("open store %s: %w", path, err)
	}
	if err := sqlitex.ExecuteTransient(conn, `PRAGMA foreign_keys = on;`, nil); err != nil {
		conn.Close()
		return nil, fmt.Errorf("open store %s: %w", path, err)
	}
	conn.SetInterrupt(nil)
	return &DB{conn: conn, closer: singleclose.For(conn)}, nil
}

func migrate(conn *sqlite.Conn) (err error) {
	defer sqlitex.Save(conn)(&err)

	gotVersion, err := ensureAppID(conn)
	if err != nil {
		return err
	}
	if gotVersion != currentUserVersion {
		if err := dropAllTables(conn); err != nil {
			return err
		}
	}
	if err := sqlitex.ExecuteScriptFS(conn, schemaFiles, "schema.sql", nil); err != nil {
		return err
	}
	return sqlitex.ExecuteTransient(conn, fmt.Sprintf("PRAGMA user_version = %d;", currentUserVersion), nil)
}

func ensureAppID(conn *sqlite.Conn) (schemaVersion int32, err error) {
	defer sqlitex.Save(conn)(&err)

	var hasSchema bool
	err = sqlitex.ExecuteTransient(conn, `VALUES ((SELECT COUNT(*) FROM sqlite_master) > 0);`, &sqlitex.ExecOptions{
		ResultFunc: func(stmt *sqlite.Stmt) error {
			hasSchema = stmt.ColumnInt(0) != 0
			return nil
		},
	})
	if err != nil {
		return 0, err
	}
	var dbAppID int32
	err = sqlitex.ExecuteTransient(conn, `PRAGMA application_id;`, &sqlitex.ExecOptions{
		ResultFunc: func(stmt *sqlite.Stmt) error {
			dbAppID = stmt.ColumnInt32(0)
			return nil
		},
	})
	if err != nil {
		return 0, err
	}
	if dbAppID != appID && !(dbAppID == 0 && !hasSchema) {
		return 0, fmt.Errorf("database application_id = %#x (expected %#x)", dbAppID, appID)
	}
	schemaVersion, err = userVersion(conn)
	if err != nil {
		return 0, err
	}
	if err := sqlitex.ExecuteTransient(conn, fmt.Sprintf("PRAGMA application_id = %d;", appID), nil); err != nil {
		return 0, err
	}
	return schemaVersion, nil
}

func userVersion(conn *sqlite.Conn) (int32, error) {
	var version int32
	err := sqlitex.ExecuteTransient(conn, `PRAGMA user_version;`, &sqlitex.ExecOptions{
		ResultFunc: func(stmt *sqlite.Stmt) error {
			version = stmt.ColumnInt32(0)
			return nil
		},
	})
	if err != nil {
		return 0, fmt.Errorf("get database user_version: %w", err)
	}
	return version, nil
}

func dropAllTables(conn *sqlite.Conn) (err error) {
	defer sqlitex.Save(conn)(&err)

	var tables, views []string
	const query = `SELECT "type", "name" FROM sqlite_schema WHERE "type" in ('table', 'view');`
	err = sqlitex.ExecuteTransient(conn, query, &sqlitex.ExecOptions{
		ResultFunc: func(stmt *sqlite.Stmt) error {
			name := stmt.ColumnText(1)
			switch stmt.ColumnText(0) {
			case "table":
				tables = append(tables, name)
			case "view":
				views = append(views, name)
			}
			return nil
		},
	})
	if err != nil {
		return fmt.Errorf("drop all tables: %w", err)
	}
	for _, name := range views {
		if err := sqlitex.ExecuteTransient(conn, `DROP VIEW "`+name+`";`, nil); err != nil {
			return fmt.Errorf("drop all tables: %w", err)
		}
	}
	for _, name := range tables {
		if err := sqlitex.ExecuteTransient(conn, `DROP TABLE "`+name+`";`, nil); err != nil {
			return fmt.Errorf("drop all tables: %w", err)
		}
	}
	return nil
}

// Conn returns the underlying connection, for packages (eventlog,
// mergebase) that need to run their own prepared statements against this
// store's schema.
func (db *DB) Conn() *sqlite.Conn {
	return db.conn
}

// WithSavepoint runs f inside a SQLite savepoint, committing on success and
// rolling back if f returns an error.
func (db *DB) WithSavepoint(name string, f func() error) (err error) {
	release := sqlitex.Save(db.conn)
	defer release(&err)
	return f()
}

// WithReadOnlySavepoint runs f inside a savepoint that is always rolled
// back, for call sites that want transaction isolation for a read without
// risking a stray write being committed.
func (db *DB) WithReadOnlySavepoint(name string, f func() error) error {
	if err := sqlitex.Exec(db.conn, `SAVEPOINT "`+name+`";`, nil); err != nil {
		return err
	}
	ferr := f()
	defer db.conn.SetInterrupt(db.conn.SetInterrupt(nil))
	sqlitex.Exec(db.conn, `ROLLBACK TO SAVEPOINT "`+name+`";`, nil)
	return ferr
}

// Close releases the database connection. Safe to call more than once;
// only the first call closes the underlying connection.
func (db *DB) Close() error {
	return db.closer.Close()
}
