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

package eventlog

import (
	"context"

	"branchless.dev/tool/internal/oid"
)

// Cursor is a position in the event log: an event_id, or CursorLatest.
type Cursor = int64

// CursorLatest is a sentinel meaning "the most recent event_id in the log".
const CursorLatest Cursor = -1

// Visibility is the computed status of a commit at a cursor.
type Visibility int

const (
	Unknown Visibility = iota
	Visible
	Hidden
)

// Replayer folds the event log into a set of per-cursor queries. It is
// built once per command invocation and held in memory rather than
// re-scanning the log per query.
type Replayer struct {
	events        []Event
	byOID         map[oid.Hash][]int // indices into events, in order, for each OID mentioned in any role
	latestEventID int64
}

// NewReplayer folds all events yielded by scan (see Log.Scan) into a
// Replayer.
func NewReplayer(ctx context.Context, scan func(yield func(int64, Event) bool)) *Replayer {
	r := &Replayer{byOID: make(map[oid.Hash][]int)}
	i := 0
	scan(func(_ int64, ev Event) bool {
		r.events = append(r.events, ev)
		if !ev.OldOID.IsZero() {
			r.byOID[ev.OldOID] = append(r.byOID[ev.OldOID], i)
		}
		if !ev.NewOID.IsZero() {
			r.byOID[ev.NewOID] = append(r.byOID[ev.NewOID], i)
		}
		if ev.ID > r.latestEventID {
			r.latestEventID = ev.ID
		}
		i++
		return true
	})
	return r
}

// MakeDefaultCursor returns the latest event_id in the folded log.
func (r *Replayer) MakeDefaultCursor() Cursor {
	return r.latestEventID
}

func (r *Replayer) resolveCursor(cursor Cursor) int64 {
	if cursor == CursorLatest {
		return r.latestEventID
	}
	return cursor
}

// VisibilityAt reports the visibility of id at cursor, applying the
// precedence rules from the data model: an explicit Hide/Unhide at or
// before the cursor wins outright (most-recent of the two); otherwise a
// Commit or a Rewrite landing on id as new_oid marks it Visible; a
// Rewrite moving id away (as old_oid) with no later event marks it
// Hidden; absent any of that, Unknown.
func (r *Replayer) VisibilityAt(cursor Cursor, id oid.Hash) Visibility {
	c := r.resolveCursor(cursor)
	var (
		haveToggle    bool
		toggleEventID int64
		toggleVisible bool
		haveAppear    bool
		appearEventID int64
		haveDeparture bool
		departEventID int64
	)
	for _, idx := range r.byOID[id] {
		ev := r.events[idx]
		if ev.ID > c {
			continue
		}
		switch ev.Kind {
		case KindHide:
			if !haveToggle || ev.ID > toggleEventID {
				haveToggle, toggleEventID, toggleVisible = true, ev.ID, false
			}
		case KindUnhide:
			if !haveToggle || ev.ID > toggleEventID {
				haveToggle, toggleEventID, toggleVisible = true, ev.ID, true
			}
		case KindCommit:
			if ev.NewOID == id && (!haveAppear || ev.ID > appearEventID) {
				haveAppear, appearEventID = true, ev.ID
			}
		case KindRewrite:
			if ev.NewOID == id && (!haveAppear || ev.ID > appearEventID) {
				haveAppear, appearEventID = true, ev.ID
			}
			if ev.OldOID == id && (!haveDeparture || ev.ID > departEventID) {
				haveDeparture, departEventID = true, ev.ID
			}
		}
	}
	if haveToggle {
		if toggleVisible {
			return Visible
		}
		return Hidden
	}
	if haveDeparture && (!haveAppear || departEventID > appearEventID) {
		return Hidden
	}
	if haveAppear {
		return Visible
	}
	return Unknown
}

// LatestEventAt returns the highest-event_id event at or before cursor
// that mentions id in any role, and whether one exists.
func (r *Replayer) LatestEventAt(cursor Cursor, id oid.Hash) (Event, bool) {
	c := r.resolveCursor(cursor)
	var best Event
	var found bool
	for _, idx := range r.byOID[id] {
		ev := r.events[idx]
		if ev.ID > c {
			continue
		}
		if !found || ev.ID > best.ID {
			best, found = ev, true
		}
	}
	return best, found
}

// ActiveOIDsAt returns the union of OIDs that are Visible at cursor or
// appear as new_oid in a rewrite at or before cursor and are not
// subsequently hidden.
func (r *Replayer) ActiveOIDsAt(cursor Cursor) map[oid.Hash]struct{} {
	active := make(map[oid.Hash]struct{})
	for id := range r.byOID {
		if r.VisibilityAt(cursor, id) == Visible {
			active[id] = struct{}{}
		}
	}
	return active
}
