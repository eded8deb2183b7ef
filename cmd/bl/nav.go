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

	"branchless.dev/tool/internal/flag"
	"branchless.dev/tool/internal/oid"
)

const nextSynopsis = "check out the graph child of HEAD"
const prevSynopsis = "check out the graph parent of HEAD"

func runPrev(ctx context.Context, cc *cmdContext, args []string) error {
	f := flag.NewFlagSet(false)
	if err := f.Parse(args); err != nil {
		return usagef("prev: %v", err)
	}

	graph, head, hasHead, _, _, err := buildGraph(ctx, cc, true)
	if err != nil {
		return err
	}
	if !hasHead {
		return usagef("prev: HEAD is unborn")
	}
	node, ok := graph[head]
	if !ok || node.Parent.IsZero() {
		return usagef("prev: HEAD has no graph parent")
	}
	return checkout(ctx, cc, node.Parent)
}

func runNext(ctx context.Context, cc *cmdContext, args []string) error {
	f := flag.NewFlagSet(false)
	if err := f.Parse(args); err != nil {
		return usagef("next: %v", err)
	}

	graph, head, hasHead, _, _, err := buildGraph(ctx, cc, true)
	if err != nil {
		return err
	}
	if !hasHead {
		return usagef("next: HEAD is unborn")
	}
	node, ok := graph[head]
	if !ok || len(node.Children) == 0 {
		return usagef("next: HEAD has no graph children")
	}
	children := make([]oid.Hash, 0, len(node.Children))
	for c := range node.Children {
		children = append(children, c)
	}
	sort.Slice(children, func(i, j int) bool { return children[i].String() < children[j].String() })
	if len(children) > 1 {
		fmt.Fprintf(cc.stderr, "bl: next: HEAD has %d children; moving to %s\n", len(children), children[0].Short())
	}
	return checkout(ctx, cc, children[0])
}

func checkout(ctx context.Context, cc *cmdContext, target oid.Hash) error {
	if err := cc.repo.Checkout(ctx, target); err != nil {
		return err
	}
	commit, err := cc.repo.FindCommit(ctx, target)
	if err != nil {
		return err
	}
	fmt.Fprintf(cc.stdout, "@ %s %s\n", commit.OID.Short(), commit.Subject)
	return nil
}
