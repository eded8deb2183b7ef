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

// Package rebaseplan derives an ordered sequence of rebase steps that
// moves a subtree of the smartlog graph onto a new base, without
// performing any object writes itself — that's the VCS adapter's job
// (see vcs.Repository.ExecuteRebasePlan).
package rebaseplan

import (
	"fmt"
	"sort"

	"branchless.dev/tool/internal/oid"
	"branchless.dev/tool/internal/smartlog"
	"branchless.dev/tool/internal/vcs"
)

// Reset repositions the rebase onto an already-rewritten commit (or the
// destination), without picking anything itself.
type Reset struct {
	To oid.Hash
}

func (Reset) isRebasePlanStep() {}

// TodoLine renders Reset as a git-rebase-todo "reset" line. git expects a
// ref or OID it can resolve at the time the script runs; we always give
// it a raw OID, since the planner resolves destinations ahead of time.
func (r Reset) TodoLine() string {
	return fmt.Sprintf("reset %s", r.To.String())
}

// Pick replays a single, non-merge commit onto the current rebase head.
type Pick struct {
	OID oid.Hash
}

func (Pick) isRebasePlanStep() {}

func (p Pick) TodoLine() string {
	return fmt.Sprintf("pick %s", p.OID.String())
}

// Merge replays a merge commit, re-merging the given parents onto the
// current rebase head.
type Merge struct {
	OID     oid.Hash
	Parents []oid.Hash
}

func (Merge) isRebasePlanStep() {}

func (m Merge) TodoLine() string {
	line := fmt.Sprintf("merge -C %s", m.OID.String())
	for i, p := range m.Parents {
		if i == 0 {
			// The first parent is the current rebase head.
			continue
		}
		line += " " + p.String()
	}
	return line
}

// Plan is the ordered list of steps that moves a subtree onto a new base.
type Plan struct {
	Steps     []vcs.RebasePlanStep
	FinalHead oid.Hash
}

// ResolveBaseCommit walks Parent links up from oid until the next step
// would land on (or past) a main node, returning the earliest non-main
// ancestor reachable this way. This is how "--base" is translated into a
// concrete source commit: the caller named any commit in the stack they
// want moved, and this finds the root of that stack.
func ResolveBaseCommit(graph smartlog.Graph, id oid.Hash) oid.Hash {
	node, ok := graph[id]
	if !ok || node.IsMain {
		return id
	}
	if node.Parent.IsZero() {
		return id
	}
	parent, ok := graph[node.Parent]
	if !ok || parent.IsMain {
		return id
	}
	return ResolveBaseCommit(graph, node.Parent)
}

// MakeRebasePlan builds the plan that moves sourceOID and every graph
// descendant of it onto destOID: an initial Reset to destOID, followed by
// a Pick (or Merge, for merge commits) for each commit in the subtree, in
// an order where every commit follows its graph parent.
func MakeRebasePlan(graph smartlog.Graph, mainBranchOID, sourceOID, destOID oid.Hash) (*Plan, error) {
	if _, ok := graph[sourceOID]; !ok {
		return nil, fmt.Errorf("make rebase plan: source %v not in graph", sourceOID)
	}

	order := subtreeOrder(graph, sourceOID)
	steps := make([]vcs.RebasePlanStep, 0, len(order)+1)
	steps = append(steps, Reset{To: destOID})
	for _, id := range order {
		node := graph[id]
		if len(node.Commit.Parents) > 1 {
			steps = append(steps, Merge{OID: id, Parents: node.Commit.Parents})
		} else {
			steps = append(steps, Pick{OID: id})
		}
	}
	finalHead := destOID
	if len(order) > 0 {
		finalHead = order[len(order)-1]
	}
	return &Plan{Steps: steps, FinalHead: finalHead}, nil
}

// subtreeOrder returns sourceOID and every graph descendant of it (via
// Children links) in an order where every commit appears after its graph
// parent, suitable for sequential replay. Ties among siblings are broken
// by OID so the resulting plan is deterministic.
func subtreeOrder(graph smartlog.Graph, sourceOID oid.Hash) []oid.Hash {
	var order []oid.Hash
	var visit func(oid.Hash)
	visit = func(id oid.Hash) {
		order = append(order, id)
		node := graph[id]
		children := make([]oid.Hash, 0, len(node.Children))
		for c := range node.Children {
			children = append(children, c)
		}
		sort.Slice(children, func(i, j int) bool { return children[i].String() < children[j].String() })
		for _, c := range children {
			visit(c)
		}
	}
	visit(sourceOID)
	return order
}
