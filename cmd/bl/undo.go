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
	"branchless.dev/tool/internal/vcs"
)

const undoSynopsis = "reverse the most recent action recorded in the event log"

// runUndo inverts the most recent transaction in the event log: hides
// become unhides and vice versa, and a rewrite whose new OID is still
// HEAD moves HEAD back to the old OID. The event log itself is
// append-only (spec.md §4.4), so undo is recorded as a new transaction
// containing the inverse events rather than a deletion of the original
// one — this is what makes the cursor-based replay in internal/eventlog
// meaningful: "latest" always means "after every undo applied so far".
func runUndo(ctx context.Context, cc *cmdContext, args []string) error {
	f := flag.NewFlagSet(false)
	if err := f.Parse(args); err != nil {
		return usagef("undo: %v", err)
	}

	if v, err := cc.repo.Version(ctx); err == nil && v.Less(vcs.VersionFloor) {
		fmt.Fprintf(cc.stderr, "bl: warning: undo may misbehave on VCS %d.%d.%d (floor %d.%d.%d)\n",
			v.Major, v.Minor, v.Patch, vcs.VersionFloor.Major, vcs.VersionFloor.Minor, vcs.VersionFloor.Patch)
	}

	scan, err := cc.log.Scan(ctx)
	if err != nil {
		return fmt.Errorf("undo: %v", err)
	}
	var lastTx int64
	hasLast := false
	var toUndo []eventlog.Event
	scan(func(_ int64, ev eventlog.Event) bool {
		if hasLast && ev.TxID != lastTx {
			toUndo = toUndo[:0]
		}
		lastTx, hasLast = ev.TxID, true
		toUndo = append(toUndo, ev)
		return true
	})
	if !hasLast {
		return usagef("undo: event log is empty")
	}

	head, hasHead, err := cc.repo.Head(ctx)
	if err != nil {
		return fmt.Errorf("undo: %v", err)
	}

	inverse := make([]eventlog.Event, 0, len(toUndo))
	now := time.Now()
	for _, ev := range toUndo {
		switch ev.Kind {
		case eventlog.KindHide:
			inverse = append(inverse, eventlog.Event{Time: now, Kind: eventlog.KindUnhide, OldOID: ev.OldOID})
		case eventlog.KindUnhide:
			inverse = append(inverse, eventlog.Event{Time: now, Kind: eventlog.KindHide, OldOID: ev.OldOID})
		case eventlog.KindRewrite:
			if hasHead && head == ev.NewOID {
				if err := cc.repo.Checkout(ctx, ev.OldOID); err != nil {
					return fmt.Errorf("undo: %v", err)
				}
			}
			inverse = append(inverse, eventlog.Event{Time: now, Kind: eventlog.KindRewrite, OldOID: ev.NewOID, NewOID: ev.OldOID})
		default:
			// ref-update and commit events are not mechanically
			// invertible without more VCS state than the log records;
			// leave them as history rather than guess.
		}
	}
	if len(inverse) == 0 {
		fmt.Fprintln(cc.stdout, "undo: nothing undoable in the last action")
		return nil
	}

	txID, err := cc.log.NextTxID(ctx, now, "undo")
	if err != nil {
		return fmt.Errorf("undo: %v", err)
	}
	if err := cc.log.Append(ctx, txID, inverse); err != nil {
		return fmt.Errorf("undo: %v", err)
	}
	fmt.Fprintf(cc.stdout, "undid transaction %d (%d events)\n", lastTx, len(inverse))
	return nil
}
