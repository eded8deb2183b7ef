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
	"testing"
)

func replay(events ...Event) *Replayer {
	for i := range events {
		events[i].ID = int64(i + 1)
	}
	return NewReplayer(context.Background(), func(yield func(int64, Event) bool) {
		for _, ev := range events {
			if !yield(ev.ID, ev) {
				return
			}
		}
	})
}

func TestVisibilityAtCommit(t *testing.T) {
	a := hash(1)
	r := replay(Event{Kind: KindCommit, NewOID: a})
	if got := r.VisibilityAt(CursorLatest, a); got != Visible {
		t.Errorf("VisibilityAt = %v; want Visible", got)
	}
}

func TestVisibilityAtUnknownOID(t *testing.T) {
	r := replay(Event{Kind: KindCommit, NewOID: hash(1)})
	if got := r.VisibilityAt(CursorLatest, hash(2)); got != Unknown {
		t.Errorf("VisibilityAt(unseen oid) = %v; want Unknown", got)
	}
}

func TestVisibilityAtHideWinsOverAppearance(t *testing.T) {
	a := hash(1)
	r := replay(
		Event{Kind: KindCommit, NewOID: a},
		Event{Kind: KindHide, OldOID: a},
	)
	if got := r.VisibilityAt(CursorLatest, a); got != Hidden {
		t.Errorf("VisibilityAt = %v; want Hidden", got)
	}
}

func TestVisibilityAtUnhideWinsOverHide(t *testing.T) {
	a := hash(1)
	r := replay(
		Event{Kind: KindCommit, NewOID: a},
		Event{Kind: KindHide, OldOID: a},
		Event{Kind: KindUnhide, OldOID: a},
	)
	if got := r.VisibilityAt(CursorLatest, a); got != Visible {
		t.Errorf("VisibilityAt = %v; want Visible", got)
	}
}

func TestVisibilityAtRewriteDeparture(t *testing.T) {
	a, b := hash(1), hash(2)
	r := replay(
		Event{Kind: KindCommit, NewOID: a},
		Event{Kind: KindRewrite, OldOID: a, NewOID: b},
	)
	if got := r.VisibilityAt(CursorLatest, a); got != Hidden {
		t.Errorf("VisibilityAt(old) = %v; want Hidden", got)
	}
	if got := r.VisibilityAt(CursorLatest, b); got != Visible {
		t.Errorf("VisibilityAt(new) = %v; want Visible", got)
	}
}

func TestVisibilityAtCursorStopsEarly(t *testing.T) {
	a, b := hash(1), hash(2)
	r := replay(
		Event{Kind: KindCommit, NewOID: a},             // event 1
		Event{Kind: KindRewrite, OldOID: a, NewOID: b}, // event 2
	)
	if got := r.VisibilityAt(1, a); got != Visible {
		t.Errorf("VisibilityAt(cursor=1, a) = %v; want Visible (rewrite hasn't happened yet)", got)
	}
	if got := r.VisibilityAt(1, b); got != Unknown {
		t.Errorf("VisibilityAt(cursor=1, b) = %v; want Unknown", got)
	}
}

func TestLatestEventAt(t *testing.T) {
	a, b := hash(1), hash(2)
	r := replay(
		Event{Kind: KindCommit, NewOID: a},
		Event{Kind: KindRewrite, OldOID: a, NewOID: b},
	)
	ev, ok := r.LatestEventAt(CursorLatest, a)
	if !ok {
		t.Fatal("LatestEventAt: not found")
	}
	if ev.Kind != KindRewrite {
		t.Errorf("LatestEventAt(a).Kind = %v; want KindRewrite", ev.Kind)
	}

	if _, ok := r.LatestEventAt(CursorLatest, hash(99)); ok {
		t.Error("LatestEventAt(unmentioned oid) found an event; want none")
	}
}

func TestActiveOIDsAt(t *testing.T) {
	a, b, c := hash(1), hash(2), hash(3)
	r := replay(
		Event{Kind: KindCommit, NewOID: a},
		Event{Kind: KindCommit, NewOID: b},
		Event{Kind: KindHide, OldOID: b},
		Event{Kind: KindRewrite, OldOID: a, NewOID: c},
	)
	active := r.ActiveOIDsAt(CursorLatest)
	if _, ok := active[a]; ok {
		t.Error("a is active; want inactive (rewritten away)")
	}
	if _, ok := active[b]; ok {
		t.Error("b is active; want inactive (hidden)")
	}
	if _, ok := active[c]; !ok {
		t.Error("c is inactive; want active")
	}
}

func TestMakeDefaultCursor(t *testing.T) {
	r := replay(
		Event{Kind: KindCommit, NewOID: hash(1)},
		Event{Kind: KindCommit, NewOID: hash(2)},
	)
	if got, want := r.MakeDefaultCursor(), int64(2); got != want {
		t.Errorf("MakeDefaultCursor() = %d; want %d", got, want)
	}
}
