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
	"time"

	"branchless.dev/tool/internal/flag"
	"branchless.dev/tool/internal/oid"
	"branchless.dev/tool/internal/rebaseplan"
	"branchless.dev/tool/internal/vcs"
)

const moveSynopsis = "move a commit (and its descendants) onto a new destination"

func runMove(ctx context.Context, cc *cmdContext, args []string) error {
	f := flag.NewFlagSet(false)
	source := f.String("source", "", "revision to move (with its graph descendants)")
	base := f.String("base", "", "revision whose containing stack should be moved (alternative to -source)")
	dest := f.String("dest", "", "destination revision")
	force := f.Bool("force", false, "apply even if the working tree is dirty")
	if err := f.Parse(args); err != nil {
		return usagef("move: %v", err)
	}
	if *dest == "" {
		return usagef("move: -dest is required")
	}
	if *source == "" && *base == "" {
		return usagef("move: one of -source or -base is required")
	}
	if *source != "" && *base != "" {
		return usagef("move: -source and -base are mutually exclusive")
	}

	graph, _, _, mainBranch, _, err := buildGraph(ctx, cc, false)
	if err != nil {
		return err
	}

	branches, err := cc.repo.Branches(ctx)
	if err != nil {
		return fmt.Errorf("move: %v", err)
	}
	mainOID, ok := branches[mainBranch]
	if !ok {
		return fmt.Errorf("move: main branch %q has no commits", mainBranch)
	}

	destOID, err := cc.repo.ResolveRevision(ctx, *dest)
	if err != nil {
		return fmt.Errorf("move: %v", err)
	}

	var sourceOID oid.Hash
	if *source != "" {
		sourceOID, err = cc.repo.ResolveRevision(ctx, *source)
		if err != nil {
			return fmt.Errorf("move: %v", err)
		}
	} else {
		baseOID, err := cc.repo.ResolveRevision(ctx, *base)
		if err != nil {
			return fmt.Errorf("move: %v", err)
		}
		sourceOID = rebaseplan.ResolveBaseCommit(graph, baseOID)
	}

	plan, err := rebaseplan.MakeRebasePlan(graph, mainOID, sourceOID, destOID)
	if err != nil {
		return fmt.Errorf("move: %v", err)
	}

	txID, err := cc.log.NextTxID(ctx, time.Now(), "move")
	if err != nil {
		return fmt.Errorf("move: %v", err)
	}

	sourceExpr := *source
	if sourceExpr == "" {
		sourceExpr = *base
	}
	vcsPlan := &vcs.RebasePlan{Steps: plan.Steps, FinalHead: plan.FinalHead}
	if err := cc.repo.ExecuteRebasePlan(ctx, vcsPlan, txID, sourceExpr, *dest, *force); err != nil {
		return fmt.Errorf("move: %v", err)
	}

	fmt.Fprintf(cc.stdout, "moved %s onto %s (%d steps)\n", sourceOID.Short(), destOID.Short(), len(plan.Steps))
	return nil
}
