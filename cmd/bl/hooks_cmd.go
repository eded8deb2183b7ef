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

// The hook-* subcommands in this file are what the installed shell stubs
// (see internal/hooks) actually invoke; they translate a raw VCS hook
// call into event-log entries. They are intentionally thin: the hook
// itself already happened by the time these run, so there is nothing to
// veto, only something to record.
package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"branchless.dev/tool/internal/eventlog"
	"branchless.dev/tool/internal/oid"
)

// runHookPostCommit records the commit that HEAD now points to.
func runHookPostCommit(ctx context.Context, cc *cmdContext, args []string) error {
	head, ok, err := cc.repo.Head(ctx)
	if err != nil {
		return fmt.Errorf("hook-post-commit: %v", err)
	}
	if !ok {
		return nil
	}
	return appendSingle(ctx, cc, "post-commit", eventlog.Event{
		Time: time.Now(), Kind: eventlog.KindCommit, NewOID: head,
	})
}

// runHookPostRewrite parses the old-sha1/new-sha1 pairs git post-rewrite
// passes on stdin, one per line, and records a RewriteEvent for each.
// See githooks(5): "for each commit [...] one line is output [...]
// <old-sha1> SP <new-sha1> [ SP <extra info> ] LF".
func runHookPostRewrite(ctx context.Context, cc *cmdContext, args []string) error {
	now := time.Now()
	var events []eventlog.Event
	sc := bufio.NewScanner(os.Stdin)
	for sc.Scan() {
		fields := strings.Fields(sc.Text())
		if len(fields) < 2 {
			continue
		}
		oldOID, err := oid.ParseHash(fields[0])
		if err != nil {
			continue
		}
		newOID, err := oid.ParseHash(fields[1])
		if err != nil {
			continue
		}
		events = append(events, eventlog.Event{
			Time: now, Kind: eventlog.KindRewrite, OldOID: oldOID, NewOID: newOID,
		})
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("hook-post-rewrite: %v", err)
	}
	if len(events) == 0 {
		return nil
	}
	action := "rewrite"
	if len(args) > 0 {
		action = args[0]
	}
	return appendAll(ctx, cc, action, events)
}

// runHookPostCheckout records a ref-update event from the previous and
// new HEAD OIDs git passes as its first two arguments; the third
// argument (1 for a branch checkout, 0 for a file checkout) is ignored,
// since either way HEAD's position is the only thing this core tracks.
func runHookPostCheckout(ctx context.Context, cc *cmdContext, args []string) error {
	if len(args) < 2 {
		return nil
	}
	oldOID, err1 := oid.ParseHash(args[0])
	newOID, err2 := oid.ParseHash(args[1])
	if err1 != nil || err2 != nil {
		return nil
	}
	return appendSingle(ctx, cc, "post-checkout", eventlog.Event{
		Time: time.Now(), Kind: eventlog.KindRefUpdate, RefName: oid.Head.String(),
		OldOID: oldOID, NewOID: newOID,
	})
}

// runHookPreAutoGC is a no-op placeholder: there is nothing in the event
// log to append before a gc runs, but the hook must exist (and exit 0)
// so that git's gc.* configuration finds it installed.
func runHookPreAutoGC(ctx context.Context, cc *cmdContext, args []string) error {
	return nil
}

// runHookReferenceTransaction records every ref update in the
// transaction git streams on stdin, one "<old-oid> SP <new-oid> SP
// <refname>" line per update, per githooks(5). The installed stub
// suppresses this command's exit code already (see internal/hooks'
// script rendering), so a parse failure here only drops events rather
// than aborting the user's reference update.
func runHookReferenceTransaction(ctx context.Context, cc *cmdContext, args []string) error {
	if len(args) == 0 || args[0] != "committed" {
		return nil
	}
	now := time.Now()
	var events []eventlog.Event
	sc := bufio.NewScanner(os.Stdin)
	for sc.Scan() {
		fields := strings.Fields(sc.Text())
		if len(fields) < 3 {
			continue
		}
		oldOID, err1 := oid.ParseHash(fields[0])
		newOID, err2 := oid.ParseHash(fields[1])
		if err1 != nil || err2 != nil {
			continue
		}
		events = append(events, eventlog.Event{
			Time: now, Kind: eventlog.KindRefUpdate, RefName: fields[2],
			OldOID: oldOID, NewOID: newOID,
		})
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("hook-reference-transaction: %v", err)
	}
	if len(events) == 0 {
		return nil
	}
	return appendAll(ctx, cc, "reference-transaction", events)
}

func appendSingle(ctx context.Context, cc *cmdContext, action string, ev eventlog.Event) error {
	return appendAll(ctx, cc, action, []eventlog.Event{ev})
}

func appendAll(ctx context.Context, cc *cmdContext, action string, events []eventlog.Event) error {
	txID, err := cc.log.NextTxID(ctx, time.Now(), action)
	if err != nil {
		return fmt.Errorf("%s: %v", action, err)
	}
	if err := cc.log.Append(ctx, txID, events); err != nil {
		return fmt.Errorf("%s: %v", action, err)
	}
	return nil
}
