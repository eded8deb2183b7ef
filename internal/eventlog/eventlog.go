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

// Package eventlog records every user-observable action — rewrites,
// reference movements, commit creation, visibility toggles — as an
// append-only, ordered log, grouped into transactions. It is the source of
// truth the smartlog graph builder replays to decide what's visible.
package eventlog

import (
	"context"
	"fmt"
	"iter"
	"time"

	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"

	"branchless.dev/tool/internal/oid"
	"branchless.dev/tool/internal/store"
)

// Kind identifies which variant an Event is. Modeled as a closed enum
// rather than an interface hierarchy, the way the rest of this core
// prefers flat sum types over polymorphism.
type Kind int

const (
	KindRewrite Kind = iota
	KindRefUpdate
	KindCommit
	KindHide
	KindUnhide
)

func (k Kind) String() string {
	switch k {
	case KindRewrite:
		return "rewrite"
	case KindRefUpdate:
		return "ref-update"
	case KindCommit:
		return "commit"
	case KindHide:
		return "hide"
	case KindUnhide:
		return "unhide"
	default:
		return "unknown"
	}
}

// Event is a single timestamped record. Not every field is meaningful for
// every Kind:
//
//	KindRewrite   — OldOID, NewOID
//	KindRefUpdate — RefName, OldOID, NewOID, Message
//	KindCommit    — NewOID
//	KindHide      — OldOID (the OID being hidden)
//	KindUnhide    — OldOID (the OID being unhidden)
type Event struct {
	ID      int64
	Time    time.Time
	TxID    int64
	Kind    Kind
	OldOID  oid.Hash
	NewOID  oid.Hash
	RefName string
	Message string
}

// Log is an append-only, ordered record of Events backed by a store.DB.
type Log struct {
	db *store.DB
}

// New wraps db as an event log.
func New(db *store.DB) *Log {
	return &Log{db: db}
}

// NextTxID allocates a new transaction identifier, grouping the events an
// upcoming user action will append. The identifier is one more than the
// largest tx_id among the stored events; timestamp and action are not
// stored, and nothing reserves the identifier, so calling NextTxID again
// before any event is appended under it returns the same value.
func (l *Log) NextTxID(ctx context.Context, timestamp time.Time, action string) (txID int64, err error) {
	defer sqlitex.Save(l.db.Conn())(&err)
	var next int64
	err = sqlitex.ExecuteTransient(l.db.Conn(),
		`SELECT COALESCE(MAX("tx_id"), 0) + 1 FROM "events";`,
		&sqlitex.ExecOptions{
			ResultFunc: func(stmt *sqlite.Stmt) error {
				next = stmt.ColumnInt64(0)
				return nil
			},
		})
	if err != nil {
		return 0, fmt.Errorf("next tx id: %w", err)
	}
	return next, nil
}

// Append atomically persists events under txID. It is idempotent under
// hook re-invocation: an event identical in (Kind, OldOID, NewOID, RefName,
// TxID) to the current log tail is dropped, since hooks can legitimately
// fire more than once for the same underlying action.
func (l *Log) Append(ctx context.Context, txID int64, events []Event) error {
	if len(events) == 0 {
		return nil
	}
	return l.db.WithSavepoint("eventlog-append", func() error {
		tail, hasTail, err := l.tail()
		if err != nil {
			return fmt.Errorf("append events: %w", err)
		}
		for _, ev := range events {
			ev.TxID = txID
			if hasTail && sameEvent(tail, ev) {
				continue
			}
			if err := l.insert(ev); err != nil {
				return fmt.Errorf("append events: %w", err)
			}
			tail, hasTail = ev, true
		}
		return nil
	})
}

func sameEvent(a, b Event) bool {
	return a.Kind == b.Kind && a.OldOID == b.OldOID && a.NewOID == b.NewOID &&
		a.RefName == b.RefName && a.TxID == b.TxID
}

func (l *Log) tail() (Event, bool, error) {
	var ev Event
	var found bool
	err := sqlitex.ExecuteTransient(l.db.Conn(),
		`SELECT "event_id", "timestamp", "tx_id", "kind", "old_oid", "new_oid", "ref_name", "message"
		 FROM "events" ORDER BY "event_id" DESC LIMIT 1;`,
		&sqlitex.ExecOptions{
			ResultFunc: func(stmt *sqlite.Stmt) error {
				var err error
				ev, err = scanEvent(stmt)
				found = true
				return err
			},
		})
	if err != nil {
		return Event{}, false, err
	}
	return ev, found, nil
}

func (l *Log) insert(ev Event) error {
	return sqlitex.ExecuteTransient(l.db.Conn(),
		`INSERT INTO "events" ("timestamp", "tx_id", "kind", "old_oid", "new_oid", "ref_name", "message")
		 VALUES (?, ?, ?, ?, ?, ?, ?);`,
		&sqlitex.ExecOptions{
			Args: []any{
				ev.Time.UTC().Format(time.RFC3339Nano),
				ev.TxID,
				int64(ev.Kind),
				oidArg(ev.OldOID),
				oidArg(ev.NewOID),
				nullableString(ev.RefName),
				nullableString(ev.Message),
			},
		})
}

func oidArg(h oid.Hash) any {
	if h.IsZero() {
		return nil
	}
	return h[:]
}

func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// Scan reads the whole log into memory, ordered by event_id, and returns an
// iterator over it keyed by event_id. The log is read eagerly up front (it
// is expected to be replayed once per command invocation, see
// internal/eventlog's replayer) so a partially-consumed iterator never
// holds a SQLite cursor open.
func (l *Log) Scan(ctx context.Context) (iter.Seq2[int64, Event], error) {
	var events []Event
	err := sqlitex.ExecuteTransient(l.db.Conn(),
		`SELECT "event_id", "timestamp", "tx_id", "kind", "old_oid", "new_oid", "ref_name", "message"
		 FROM "events" ORDER BY "event_id" ASC;`,
		&sqlitex.ExecOptions{
			ResultFunc: func(stmt *sqlite.Stmt) error {
				ev, err := scanEvent(stmt)
				if err != nil {
					return err
				}
				events = append(events, ev)
				return nil
			},
		})
	if err != nil {
		return nil, fmt.Errorf("scan events: %w", err)
	}
	return func(yield func(int64, Event) bool) {
		for _, ev := range events {
			if !yield(ev.ID, ev) {
				return
			}
		}
	}, nil
}

func scanEvent(stmt *sqlite.Stmt) (Event, error) {
	ev := Event{
		ID:   stmt.ColumnInt64(0),
		TxID: stmt.ColumnInt64(2),
		Kind: Kind(stmt.ColumnInt64(3)),
	}
	ts, err := time.Parse(time.RFC3339Nano, stmt.ColumnText(1))
	if err != nil {
		return Event{}, fmt.Errorf("parse event %d timestamp: %w", ev.ID, err)
	}
	ev.Time = ts
	if stmt.ColumnType(4) != sqlite.TypeNull {
		n := stmt.ColumnBytes(4, ev.OldOID[:])
		if n != len(ev.OldOID) {
			return Event{}, fmt.Errorf("event %d: malformed old_oid", ev.ID)
		}
	}
	if stmt.ColumnType(5) != sqlite.TypeNull {
		n := stmt.ColumnBytes(5, ev.NewOID[:])
		if n != len(ev.NewOID) {
			return Event{}, fmt.Errorf("event %d: malformed new_oid", ev.ID)
		}
	}
	ev.RefName = stmt.ColumnText(6)
	ev.Message = stmt.ColumnText(7)
	return ev, nil
}
