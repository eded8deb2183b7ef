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

package main

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"branchless.dev/tool/internal/eventlog"
	"branchless.dev/tool/internal/mergebase"
	"branchless.dev/tool/internal/oid"
	"branchless.dev/tool/internal/store"
	"branchless.dev/tool/internal/vcs"
)

// fakeRepo is an in-memory vcs.Repository double for exercising cmd/bl's
// subcommands without a real git checkout. parents and names must be
// populated by the test before use; head is mutated by Checkout.
type fakeRepo struct {
	parents map[oid.Hash][]oid.Hash
	names   map[string]oid.Hash
	head    oid.Hash
	hasHead bool

	config map[string]string
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		parents: map[oid.Hash][]oid.Hash{},
		names:   map[string]oid.Hash{},
		config:  map[string]string{},
	}
}

func (r *fakeRepo) FindCommit(ctx context.Context, id oid.Hash) (*vcs.Commit, error) {
	parents, ok := r.parents[id]
	if !ok {
		return nil, vcs.ErrNotFound
	}
	return &vcs.Commit{OID: id, Parents: parents, Subject: "commit " + id.Short()}, nil
}

func (r *fakeRepo) ResolveRevision(ctx context.Context, expr string) (oid.Hash, error) {
	if id, ok := r.names[expr]; ok {
		return id, nil
	}
	if h, err := oid.ParseHash(expr); err == nil {
		if _, ok := r.parents[h]; ok {
			return h, nil
		}
	}
	return oid.Hash{}, vcs.ErrNotFound
}

func (r *fakeRepo) ParentsOf(ctx context.Context, id oid.Hash) ([]oid.Hash, error) {
	return r.parents[id], nil
}

func (r *fakeRepo) MergeBase(ctx context.Context, lhs, rhs oid.Hash) (oid.Hash, bool, error) {
	if lhs == rhs {
		return lhs, true, nil
	}
	ancestors := func(start oid.Hash) map[oid.Hash]int {
		dist := map[oid.Hash]int{start: 0}
		queue := []oid.Hash{start}
		for len(queue) > 0 {
			cur := queue[0]
			queue = queue[1:]
			for _, p := range r.parents[cur] {
				if _, seen := dist[p]; !seen {
					dist[p] = dist[cur] + 1
					queue = append(queue, p)
				}
			}
		}
		return dist
	}
	ld, rd := ancestors(lhs), ancestors(rhs)
	best, bestDist, found := oid.Hash{}, -1, false
	for h, d1 := range ld {
		if d2, ok := rd[h]; ok {
			total := d1 + d2
			if !found || total < bestDist {
				best, bestDist, found = h, total, true
			}
		}
	}
	return best, found, nil
}

func (r *fakeRepo) Head(ctx context.Context) (oid.Hash, bool, error) {
	return r.head, r.hasHead, nil
}

func (r *fakeRepo) Checkout(ctx context.Context, id oid.Hash) error {
	r.head, r.hasHead = id, true
	return nil
}

func (r *fakeRepo) Branches(ctx context.Context) (map[string]oid.Hash, error) {
	return r.names, nil
}

func (r *fakeRepo) ConfigGet(ctx context.Context, key string) (string, bool, error) {
	v, ok := r.config[key]
	return v, ok, nil
}

func (r *fakeRepo) ConfigSet(ctx context.Context, key, value string) error {
	r.config[key] = value
	return nil
}

func (r *fakeRepo) ExecuteRebasePlan(ctx context.Context, plan *vcs.RebasePlan, txID int64, source, dest string, forceOnDisk bool) error {
	r.head, r.hasHead = plan.FinalHead, true
	return nil
}

func (r *fakeRepo) Version(ctx context.Context) (vcs.Version, error) {
	return vcs.Version{Major: 2, Minor: 40, Patch: 0}, nil
}

func (r *fakeRepo) GitCommonDir(ctx context.Context) (string, error) {
	return "", nil
}

// newTestContext wires a fakeRepo and a fresh on-disk store into a
// cmdContext, mirroring how run() assembles one for real.
func newTestContext(t *testing.T, repo *fakeRepo) *cmdContext {
	t.Helper()
	db, err := store.Open(context.Background(), filepath.Join(t.TempDir(), store.FileName))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return &cmdContext{
		repo:       repo,
		db:         db,
		log:        eventlog.New(db),
		mergeBases: mergebase.New(db),
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
		stdin:      bytes.NewReader(nil),
		stdout:     &bytes.Buffer{},
		stderr:     &bytes.Buffer{},
	}
}
