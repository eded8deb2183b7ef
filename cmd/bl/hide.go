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

	"branchless.dev/tool/internal/eventlog"
	"branchless.dev/tool/internal/flag"
)

const hideSynopsis = "mark commits as obsolete so they drop out of the smartlog"
const unhideSynopsis = "undo a previous hide"

func runHide(ctx context.Context, cc *cmdContext, args []string) error {
	return toggleVisibility(ctx, cc, args, "hide", eventlog.KindHide)
}

func runUnhide(ctx context.Context, cc *cmdContext, args []string) error {
	return toggleVisibility(ctx, cc, args, "unhide", eventlog.KindUnhide)
}

func toggleVisibility(ctx context.Context, cc *cmdContext, args []string, action string, kind eventlog.Kind) error {
	f := flag.NewFlagSet(true)
	if err := f.Parse(args); err != nil {
		return usagef("%s: %v", action, err)
	}
	if f.NArg() == 0 {
		return usagef("%s: at least one revision required", action)
	}

	txID, err := cc.log.NextTxID(ctx, time.Now(), action)
	if err != nil {
		return fmt.Errorf("%s: %v", action, err)
	}

	events := make([]eventlog.Event, 0, f.NArg())
	for i := 0; i < f.NArg(); i++ {
		id, err := cc.repo.ResolveRevision(ctx, f.Arg(i))
		if err != nil {
			return fmt.Errorf("%s: %v", action, err)
		}
		events = append(events, eventlog.Event{
			Time:   time.Now(),
			Kind:   kind,
			OldOID: id,
		})
	}
	if err := cc.log.Append(ctx, txID, events); err != nil {
		return fmt.Errorf("%s: %v", action, err)
	}
	for _, ev := range events {
		fmt.Fprintf(cc.stdout, "%s: %s\n", action, ev.OldOID.Short())
	}
	return nil
}
