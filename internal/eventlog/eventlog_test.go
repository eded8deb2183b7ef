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
	"path/filepath"
	"testing"
	"time"

	"branchless.dev/tool/internal/oid"
	"branchless.dev/tool/internal/store"
)

func newTestLog(t *testing.T) *Log {
	t.Helper()
	ctx := context.Background()
	db, err := store.Open(ctx, filepath.Join(t.TempDir(), store.FileName))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return New(db)
}

func hash(b byte) oid.Hash {
	var h oid.Hash
	h[0] = b
	return h
}

func TestAppendAndScan(t *testing.T) {
	ctx := context.Background()
	l := newTestLog(t)

	txID, err := l.NextTxID(ctx, time.Now(), "commit")
	if err != nil {
		t.Fatal(err)
	}
	want := Event{Kind: KindCommit, NewOID: hash(1), Time: time.Now()}
	if err := l.Append(ctx, txID, []Event{want}); err != nil {
		t.Fatal(err)
	}

	seq, err := l.Scan(ctx)
	if err != nil {
		t.Fatal(err)
	}
	var got []Event
	for _, ev := range seq {
		got = append(got, ev)
	}
	if len(got) != 1 {
		t.Fatalf("len(got) = %d; want 1", len(got))
	}
	if got[0].Kind != KindCommit || got[0].NewOID != hash(1) || got[0].TxID != txID {
		t.Errorf("got %+v; want Kind=%v NewOID=%v TxID=%d", got[0], KindCommit, hash(1), txID)
	}
}

func TestNextTxIDIncreases(t *testing.T) {
	ctx := context.Background()
	l := newTestLog(t)

	tx1, err := l.NextTxID(ctx, time.Now(), "a")
	if err != nil {
		t.Fatal(err)
	}
	if err := l.Append(ctx, tx1, []Event{{Kind: KindCommit, NewOID: hash(1)}}); err != nil {
		t.Fatal(err)
	}
	tx2, err := l.NextTxID(ctx, time.Now(), "b")
	if err != nil {
		t.Fatal(err)
	}
	if tx2 <= tx1 {
		t.Errorf("tx2 = %d; want > tx1 = %d", tx2, tx1)
	}
}

func TestAppendDropsDuplicateTail(t *testing.T) {
	ctx := context.Background()
	l := newTestLog(t)

	txID, err := l.NextTxID(ctx, time.Now(), "post-commit")
	if err != nil {
		t.Fatal(err)
	}
	ev := Event{Kind: KindCommit, NewOID: hash(1)}
	if err := l.Append(ctx, txID, []Event{ev}); err != nil {
		t.Fatal(err)
	}
	// Same hook firing again for the same action: should be a no-op.
	if err := l.Append(ctx, txID, []Event{ev}); err != nil {
		t.Fatal(err)
	}

	seq, err := l.Scan(ctx)
	if err != nil {
		t.Fatal(err)
	}
	n := 0
	for range seq {
		n++
	}
	if n != 1 {
		t.Errorf("n = %d; want 1 (duplicate append should be dropped)", n)
	}
}

func TestScanOrdersByEventID(t *testing.T) {
	ctx := context.Background()
	l := newTestLog(t)

	for i := byte(1); i <= 3; i++ {
		tx, err := l.NextTxID(ctx, time.Now(), "commit")
		if err != nil {
			t.Fatal(err)
		}
		if err := l.Append(ctx, tx, []Event{{Kind: KindCommit, NewOID: hash(i)}}); err != nil {
			t.Fatal(err)
		}
	}

	seq, err := l.Scan(ctx)
	if err != nil {
		t.Fatal(err)
	}
	var lastID int64
	i := byte(1)
	for id, ev := range seq {
		if id <= lastID {
			t.Errorf("event ids out of order: %d after %d", id, lastID)
		}
		lastID = id
		if ev.NewOID != hash(i) {
			t.Errorf("event %d NewOID = %v; want %v", id, ev.NewOID, hash(i))
		}
		i++
	}
}

func TestScanEarlyStop(t *testing.T) {
	ctx := context.Background()
	l := newTestLog(t)
	for i := byte(1); i <= 3; i++ {
		tx, err := l.NextTxID(ctx, time.Now(), "commit")
		if err != nil {
			t.Fatal(err)
		}
		if err := l.Append(ctx, tx, []Event{{Kind: KindCommit, NewOID: hash(i)}}); err != nil {
			t.Fatal(err)
		}
	}
	seq, err := l.Scan(ctx)
	if err != nil {
		t.Fatal(err)
	}
	n := 0
	for range seq {
		n++
		if n == 1 {
			break
		}
	}
	if n != 1 {
		t.Errorf("n = %d; want 1 after early break", n)
	}
}

func TestKindString(t *testing.T) {
	tests := []struct {
		k    Kind
		want string
	}{
		{KindRewrite, "rewrite"},
		{KindRefUpdate, "ref-update"},
		{KindCommit, "commit"},
		{KindHide, "hide"},
		{KindUnhide, "unhide"},
		{Kind(99), "unknown"},
	}
	for _, test := range tests {
		if got := test.k.String(); got != test.want {
			t.Errorf("Kind(%d).String() = %q; want %q", test.k, got, test.want)
		}
	}
}
