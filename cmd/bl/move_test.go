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
	"context"
	"testing"

	"branchless.dev/tool/internal/oid"
)

// twoBranchRepo builds main (root -> mainTip) and a feature commit whose
// VCS parent is root, for exercising move's -source/-dest handling.
func twoBranchRepo() (repo *fakeRepo, root, mainTip, feature oid.Hash) {
	repo = newFakeRepo()
	root, mainTip, feature = hash(1), hash(2), hash(3)
	repo.parents[root] = nil
	repo.parents[mainTip] = []oid.Hash{root}
	repo.parents[feature] = []oid.Hash{root}
	repo.names["main"] = mainTip
	repo.head, repo.hasHead = feature, true
	return repo, root, mainTip, feature
}

func TestRunMoveRequiresDest(t *testing.T) {
	cc := newTestContext(t, newFakeRepo())
	err := runMove(context.Background(), cc, []string{"-source", "abc"})
	if !isUsage(err) {
		t.Fatalf("runMove without -dest: err = %v; want a usage error", err)
	}
}

func TestRunMoveRejectsBothSourceAndBase(t *testing.T) {
	cc := newTestContext(t, newFakeRepo())
	err := runMove(context.Background(), cc, []string{"-source", "a", "-base", "b", "-dest", "c"})
	if !isUsage(err) {
		t.Fatalf("runMove with -source and -base: err = %v; want a usage error", err)
	}
}

func TestRunMoveRebasesFeatureOntoMainTip(t *testing.T) {
	repo, _, mainTip, feature := twoBranchRepo()
	cc := newTestContext(t, repo)

	err := runMove(context.Background(), cc, []string{"-source", feature.String(), "-dest", mainTip.String()})
	if err != nil {
		t.Fatal(err)
	}
	if repo.head != feature {
		t.Errorf("head after move = %v; want the rebased feature commit %v (ExecuteRebasePlan's FinalHead)", repo.head, feature)
	}
}
