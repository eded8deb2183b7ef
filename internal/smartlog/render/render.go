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

// Package render formats a smartlog graph as text, the way a terminal
// front-end would print it: HEAD marked with "@", obsolete commits marked
// with "X" and annotated with their rewrite destination, and a run of
// skipped main-branch history abbreviated to a single ":" line.
package render

import (
	"fmt"
	"io"
	"sort"

	"branchless.dev/tool/internal/eventlog"
	"branchless.dev/tool/internal/oid"
	"branchless.dev/tool/internal/smartlog"
	"branchless.dev/tool/internal/terminal"
)

const (
	colorYellow = "\x1b[33m"
	colorReset  = "\x1b[0m"
)

// Smartlog writes a text rendering of g to w: the tip of the main spine
// ending at mainOID, preceded by a single ":" line when main history
// before it is omitted, and then each non-main node in OID order.
// head is marked with "@"; obsolete (rewritten, no-longer-current)
// commits are marked with "X" and annotated "(rewritten as <oid>)".
func Smartlog(w io.Writer, g smartlog.Graph, head, mainOID oid.Hash, mainBranchName string) error {
	color := terminal.IsTerminal(w)

	mainChain := mainSpine(g, mainOID)
	omitted := len(mainChain) > 1
	if len(mainChain) == 1 {
		if c := g[mainChain[0]].Commit; c != nil && len(c.Parents) > 0 {
			omitted = true
		}
	}
	if omitted {
		fmt.Fprintln(w, ":")
	}
	printed := make(map[oid.Hash]struct{})
	if len(mainChain) > 0 {
		tip := mainChain[len(mainChain)-1]
		if err := printNode(w, g, tip, head, mainBranchName, color); err != nil {
			return err
		}
		printed[tip] = struct{}{}
	}

	var rest []oid.Hash
	for id, n := range g {
		if n.IsMain {
			continue
		}
		rest = append(rest, id)
	}
	sort.Slice(rest, func(i, j int) bool { return rest[i].String() < rest[j].String() })
	for _, id := range rest {
		if _, ok := printed[id]; ok {
			continue
		}
		if err := printNode(w, g, id, head, "", color); err != nil {
			return err
		}
		printed[id] = struct{}{}
	}
	return nil
}

// mainSpine returns the chain of main nodes from root to mainOID, in
// order, by walking each node's real VCS parents (Commit.Parents) rather
// than the graph's Parent/Children links — walkFromCommits never links
// two IsMain nodes together there (each distinct seed on main gets its
// own independently-computed merge-base node), so several commits on
// main can appear in g as separate, unlinked IsMain nodes even though
// one is the other's actual parent. Starting from the known main tip and
// walking backward through real ancestry reconstructs the spine
// correctly regardless of how many such nodes main contributed.
func mainSpine(g smartlog.Graph, mainOID oid.Hash) []oid.Hash {
	tip, ok := g[mainOID]
	if !ok || !tip.IsMain {
		return nil
	}
	var reversed []oid.Hash
	cur := mainOID
	for {
		reversed = append(reversed, cur)
		n := g[cur]
		var next oid.Hash
		found := false
		for _, p := range n.Commit.Parents {
			if pn, ok := g[p]; ok && pn.IsMain {
				next, found = p, true
				break
			}
		}
		if !found {
			break
		}
		cur = next
	}
	chain := make([]oid.Hash, len(reversed))
	for i, id := range reversed {
		chain[len(reversed)-1-i] = id
	}
	return chain
}

func printNode(w io.Writer, g smartlog.Graph, id, head oid.Hash, branchName string, color bool) error {
	n := g[id]
	marker := " "
	switch {
	case id == head:
		marker = "@"
	case n.HasEvent && n.Event.Kind == eventlog.KindRewrite && n.Event.OldOID == id:
		marker = "X"
	}

	ref := ""
	if branchName != "" {
		ref = " (" + branchName + ")"
	} else if marker == "X" {
		ref = fmt.Sprintf(" (rewritten as %s)", n.Event.NewOID.Short())
	}

	subject := ""
	if n.Commit != nil {
		subject = n.Commit.Subject
	}
	if !color {
		_, err := fmt.Fprintf(w, "%s %s%s %s\n", marker, id.Short(), ref, subject)
		return err
	}
	_, err := fmt.Fprintf(w, "%s%s%s %s%s %s\n", colorYellow, marker, colorReset, id.Short(), ref, subject)
	return err
}
