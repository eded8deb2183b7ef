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

// Package mergebase caches the lowest common ancestor of pairs of commits,
// since computing it from the underlying VCS is expensive and the smartlog
// graph builder asks for the same pairs repeatedly across a single walk.
package mergebase

import (
	"context"
	"errors"
	"fmt"

	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"

	"branchless.dev/tool/internal/branchlesserr"
	"branchless.dev/tool/internal/oid"
	"branchless.dev/tool/internal/store"
	"branchless.dev/tool/internal/vcs"
)

// Cache is a persistent merge-base cache backed by a store.DB.
type Cache struct {
	db *store.DB
}

// New wraps db as a merge-base cache.
func New(db *store.DB) *Cache {
	return &Cache{db: db}
}

// GetMergeBase returns the cached merge base of lhs and rhs, computing and
// caching it via repo if this is the first time the pair has been asked
// for. ok reports whether a merge base exists; a false ok is itself cached,
// since "no common ancestor" is a stable answer for a given pair of OIDs.
// A vcs.ErrNotFound from repo is cached and reported the same way.
func (c *Cache) GetMergeBase(ctx context.Context, repo vcs.Repository, lhs, rhs oid.Hash) (oid.Hash, bool, error) {
	lo, hi := oid.Sorted(lhs, rhs)
	if lo == hi {
		return lo, true, nil
	}

	cached, hasRow, ok, err := lookup(c.db.Conn(), lo, hi)
	if err != nil {
		return oid.Hash{}, false, branchlesserr.New(branchlesserr.StoreError, "get merge base", err)
	}
	if hasRow {
		return cached, ok, nil
	}

	result, found, err := repo.MergeBase(ctx, lo, hi)
	if err != nil {
		if !errors.Is(err, vcs.ErrNotFound) {
			return oid.Hash{}, false, branchlesserr.New(branchlesserr.VcsError, "get merge base", err)
		}
		result, found = oid.Hash{}, false
	}
	if err := insert(c.db.Conn(), lo, hi, result, found); err != nil {
		return oid.Hash{}, false, branchlesserr.New(branchlesserr.StoreError, "get merge base", err)
	}
	return result, found, nil
}

func lookup(conn *sqlite.Conn, lo, hi oid.Hash) (result oid.Hash, hasRow, ok bool, err error) {
	err = sqlitex.ExecuteTransient(conn,
		`SELECT "merge_base_oid" FROM "merge_base_oids" WHERE "lhs_oid" = ? AND "rhs_oid" = ?;`,
		&sqlitex.ExecOptions{
			Args: []any{lo[:], hi[:]},
			ResultFunc: func(stmt *sqlite.Stmt) error {
				hasRow = true
				if stmt.ColumnType(0) == sqlite.TypeNull {
					ok = false
					return nil
				}
				n := stmt.ColumnBytes(0, result[:])
				if n != len(result) {
					return fmt.Errorf("merge base row has wrong oid length %d", n)
				}
				ok = true
				return nil
			},
		})
	if err != nil {
		return oid.Hash{}, false, false, fmt.Errorf("look up merge base: %w", err)
	}
	return result, hasRow, ok, nil
}

func insert(conn *sqlite.Conn, lo, hi, result oid.Hash, found bool) (err error) {
	defer sqlitex.Save(conn)(&err)
	var resultArg any
	if found {
		resultArg = result[:]
	} else {
		resultArg = nil
	}
	err = sqlitex.ExecuteTransient(conn,
		`INSERT OR IGNORE INTO "merge_base_oids" ("lhs_oid", "rhs_oid", "merge_base_oid") VALUES (?, ?, ?);`,
		&sqlitex.ExecOptions{Args: []any{lo[:], hi[:], resultArg}})
	if err != nil {
		return fmt.Errorf("insert merge base: %w", err)
	}
	return nil
}
