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

	"branchless.dev/tool/internal/config"
	"branchless.dev/tool/internal/eventlog"
	"branchless.dev/tool/internal/flag"
	"branchless.dev/tool/internal/oid"
	"branchless.dev/tool/internal/smartlog"
	"branchless.dev/tool/internal/smartlog/render"
)

const smartlogSynopsis = "show the working graph of commits under development"

func runSmartlog(ctx context.Context, cc *cmdContext, args []string) error {
	f := flag.NewFlagSet(false)
	keepHidden := f.Bool("hidden", false, "include commits that would otherwise be pruned")
	if err := f.Parse(args); err != nil {
		return usagef("smartlog: %v", err)
	}

	graph, head, _, mainBranch, mainOID, err := buildGraph(ctx, cc, !*keepHidden)
	if err != nil {
		return err
	}
	return render.Smartlog(cc.stdout, graph, head, mainOID, mainBranch)
}

// buildGraph assembles the smartlog graph as of the latest event, resolving
// the configured main branch and HEAD along the way. It is shared by every
// subcommand that needs a graph view (smartlog, move, next, prev, restack).
func buildGraph(ctx context.Context, cc *cmdContext, prune bool) (g smartlog.Graph, head oid.Hash, hasHead bool, mainBranchName string, mainOID oid.Hash, err error) {
	mainBranchName, err = config.DetectMainBranch(ctx, cc.repo)
	if err != nil {
		return nil, oid.Hash{}, false, "", oid.Hash{}, fmt.Errorf("smartlog: %v", err)
	}

	branches, err := cc.repo.Branches(ctx)
	if err != nil {
		return nil, oid.Hash{}, false, "", oid.Hash{}, fmt.Errorf("smartlog: %v", err)
	}
	mainOID, ok := branches[mainBranchName]
	if !ok {
		return nil, oid.Hash{}, false, "", oid.Hash{}, fmt.Errorf("smartlog: main branch %q has no commits", mainBranchName)
	}

	head, hasHead, err = cc.repo.Head(ctx)
	if err != nil {
		return nil, oid.Hash{}, false, "", oid.Hash{}, fmt.Errorf("smartlog: %v", err)
	}

	scan, err := cc.log.Scan(ctx)
	if err != nil {
		return nil, oid.Hash{}, false, "", oid.Hash{}, fmt.Errorf("smartlog: %v", err)
	}
	replayer := eventlog.NewReplayer(ctx, scan)

	graph, err := smartlog.MakeGraph(ctx, cc.repo, cc.mergeBases, replayer, replayer.MakeDefaultCursor(),
		head, hasHead, mainOID, branches, prune, cc.logger)
	if err != nil {
		return nil, oid.Hash{}, false, "", oid.Hash{}, fmt.Errorf("smartlog: %v", err)
	}
	return graph, head, hasHead, mainBranchName, mainOID, nil
}
