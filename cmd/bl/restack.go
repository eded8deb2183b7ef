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
	"fmt"
	"sort"
	"time"

	"branchless.dev/tool/internal/eventlog"
	"branchless.dev/tool/internal/flag"
	"branchless.dev/tool/internal/oid"
	"branchless.dev/tool/internal/rebaseplan"
	"branchless.dev/tool/internal/smartlog"
	"branchless.dev/tool/internal/vcs"
)

const restackSynopsis = "reattach commits left behind by a rewrite onto their new ancestor"

// runRestack finds every visible commit whose graph parent was rewritten
// to a new OID (a rewrite event with old_oid equal to that parent) and
// moves it onto the rewritten destination, one rebase-plan execution per
// orphaned stack root, in a deterministic order.
func runRestack(ctx context.Context, cc *cmdContext, args []string) error {
	f := flag.NewFlagSet(false)
	if err := f.Parse(args); err != nil {
		return usagef("restack: %v", err)
	}

	graph, _, _, mainBranch, _, err := buildGraph(ctx, cc, false)
	if err != nil {
		return err
	}
	branches, err := cc.repo.Branches(ctx)
	if err != nil {
		return fmt.Errorf("restack: %v", err)
	}
	mainOID, ok := branches[mainBranch]
	if !ok {
		return fmt.Errorf("restack: main branch %q has no commits", mainBranch)
	}

	roots := orphanedStackRoots(graph)
	if len(roots) == 0 {
		fmt.Fprintln(cc.stdout, "restack: nothing to do")
		return nil
	}

	txID, err := cc.log.NextTxID(ctx, time.Now(), "restack")
	if err != nil {
		return fmt.Errorf("restack: %v", err)
	}

	for _, r := range roots {
		plan, err := rebaseplan.MakeRebasePlan(graph, mainOID, r.oid, r.newParent)
		if err != nil {
			return fmt.Errorf("restack: %v", err)
		}
		vcsPlan := &vcs.RebasePlan{Steps: plan.Steps, FinalHead: plan.FinalHead}
		if err := cc.repo.ExecuteRebasePlan(ctx, vcsPlan, txID, r.oid.String(), r.newParent.String(), false); err != nil {
			return fmt.Errorf("restack: %v", err)
		}
		fmt.Fprintf(cc.stdout, "restacked %s onto %s\n", r.oid.Short(), r.newParent.Short())
	}
	return nil
}

type orphanedRoot struct {
	oid       oid.Hash
	newParent oid.Hash
}

// orphanedStackRoots returns, for every visible non-main graph node whose
// parent is hidden and was rewritten away (the parent's latest event is a
// rewrite from the parent to a nonzero new_oid), the node and the parent's
// replacement. The result is sorted by OID for deterministic ordering.
func orphanedStackRoots(graph smartlog.Graph) []orphanedRoot {
	var roots []orphanedRoot
	for id, node := range graph {
		if node.IsMain || !node.IsVisible || node.Parent.IsZero() {
			continue
		}
		parent, ok := graph[node.Parent]
		if !ok || parent.IsVisible || !parent.HasEvent {
			continue
		}
		// The parent is hidden; look for the rewrite that explains where
		// it went.
		replay := parent.Event
		if replay.Kind != eventlog.KindRewrite || replay.OldOID != node.Parent || replay.NewOID.IsZero() {
			continue
		}
		roots = append(roots, orphanedRoot{oid: id, newParent: replay.NewOID})
	}
	sort.Slice(roots, func(i, j int) bool { return roots[i].oid.String() < roots[j].oid.String() })
	return roots
}
