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

// Package smartlog builds the commit graph that drives the "smartlog"
// view: the subset of commits the user is actively working on, linked by
// graph parentage rather than raw VCS parentage, with main-branch history
// collapsed to a spine and obsolete commits pruned.
package smartlog

import (
	"context"
	"fmt"
	"log/slog"

	"branchless.dev/tool/internal/eventlog"
	"branchless.dev/tool/internal/mergebase"
	"branchless.dev/tool/internal/oid"
	"branchless.dev/tool/internal/vcs"
)

// Node is one commit in the graph, linked to other nodes in the graph
// rather than to its raw VCS parents — most VCS parents are never in the
// graph at all, having been collapsed into the main spine or pruned.
type Node struct {
	Commit *vcs.Commit

	// Parent is this node's parent within the graph, or the zero Hash if
	// none (main nodes keep this unset to render as a straight spine).
	Parent oid.Hash

	// Children is the set of graph children of this node.
	Children map[oid.Hash]struct{}

	IsMain    bool
	IsVisible bool

	// Event is the latest event_log event to affect this commit, if any.
	Event   eventlog.Event
	HasEvent bool
}

// Graph maps an OID to its Node. Using a plain map instead of pointer
// graph with explicit ownership sidesteps cyclic references: parent and
// children are stored as OID back-references, looked up through the map.
type Graph map[oid.Hash]*Node

// FindPathToMergeBase returns a shortest ancestry path from commitOID to
// targetOID, inclusive of both endpoints, found via BFS over VCS parents.
// BFS (not DFS) matters for merge commits: a DFS can blow up exploring an
// unrelated, much longer side of history before finding the short path.
//
// If the search frontier reaches targetOID's merge-base with commitOID
// without having reached targetOID itself, that branch of the search is
// abandoned rather than explored further — it means targetOID is not an
// ancestor of commitOID (for example, the caller passed them in the wrong
// order), and continuing would walk arbitrarily far past the merge-base for no
// benefit.
func FindPathToMergeBase(ctx context.Context, repo vcs.Repository, mergeBases *mergebase.Cache, commitOID, targetOID oid.Hash) ([]oid.Hash, error) {
	return findPathToMergeBaseInternal(ctx, repo, mergeBases, commitOID, targetOID, func(oid.Hash) {})
}

func findPathToMergeBaseInternal(ctx context.Context, repo vcs.Repository, mergeBases *mergebase.Cache, commitOID, targetOID oid.Hash, visited func(oid.Hash)) ([]oid.Hash, error) {
	mergeBaseOID, hasMergeBase, err := mergeBases.GetMergeBase(ctx, repo, commitOID, targetOID)
	if err != nil {
		return nil, fmt.Errorf("find path to merge base: %w", err)
	}

	visited(commitOID)
	queue := [][]oid.Hash{{commitOID}}
	for len(queue) > 0 {
		path := queue[0]
		queue = queue[1:]
		last := path[len(path)-1]
		if last == targetOID {
			return path, nil
		}
		if hasMergeBase && last == mergeBaseOID {
			continue
		}
		parents, err := repo.ParentsOf(ctx, last)
		if err != nil {
			return nil, fmt.Errorf("find path to merge base: %w", err)
		}
		for _, p := range parents {
			visited(p)
			newPath := make([]oid.Hash, len(path)+1)
			copy(newPath, path)
			newPath[len(path)] = p
			queue = append(queue, newPath)
		}
	}
	return nil, nil
}

// MakeGraph builds the smartlog graph: seed from the active/branch/HEAD
// OIDs, walk each seed back to its merge-base with main, link graph
// parents, and (if removeCommits) prune obsolete nodes. Pathological
// commits — ones with no merge-base with main, or whose merge-base itself
// never resolved into the graph — are logged via logger rather than
// failing the whole call (a commit with no merge-base is added as an
// isolated node), matching the rest of this core's fail-soft construction
// policy.
func MakeGraph(
	ctx context.Context,
	repo vcs.Repository,
	mergeBases *mergebase.Cache,
	replayer *eventlog.Replayer,
	cursor eventlog.Cursor,
	head oid.Hash,
	hasHead bool,
	mainBranchOID oid.Hash,
	branchOIDs map[string]oid.Hash,
	removeCommits bool,
	logger *slog.Logger,
) (Graph, error) {
	seeds := make(map[oid.Hash]struct{})
	for id := range replayer.ActiveOIDsAt(cursor) {
		seeds[id] = struct{}{}
	}
	for _, id := range branchOIDs {
		seeds[id] = struct{}{}
	}
	if hasHead {
		seeds[head] = struct{}{}
	}

	graph, err := walkFromCommits(ctx, repo, mergeBases, replayer, cursor, mainBranchOID, seeds, logger)
	if err != nil {
		return nil, err
	}
	if removeCommits {
		unhideable := make(map[oid.Hash]struct{}, len(branchOIDs)+1)
		for _, id := range branchOIDs {
			unhideable[id] = struct{}{}
		}
		if hasHead {
			unhideable[head] = struct{}{}
		}
		pruneGraph(graph, unhideable)
	}
	return graph, nil
}

func walkFromCommits(
	ctx context.Context,
	repo vcs.Repository,
	mergeBases *mergebase.Cache,
	replayer *eventlog.Replayer,
	cursor eventlog.Cursor,
	mainBranchOID oid.Hash,
	seeds map[oid.Hash]struct{},
	logger *slog.Logger,
) (Graph, error) {
	graph := make(Graph)

	for seed := range seeds {
		currentCommit, err := repo.FindCommit(ctx, seed)
		if err != nil {
			// Commit may have been garbage-collected; skip it.
			logger.Warn("smartlog: seed commit not found, skipping", "oid", seed.Short())
			continue
		}

		mergeBaseOID, hasMergeBase, err := mergeBases.GetMergeBase(ctx, repo, seed, mainBranchOID)
		if err != nil {
			return nil, fmt.Errorf("make graph: %w", err)
		}

		var path []oid.Hash
		if !hasMergeBase {
			// No merge-base with main at all; a pathological but survivable
			// case (e.g. a rewritten initial commit). Add it standalone.
			path = []oid.Hash{currentCommit.OID}
			logger.Warn("smartlog: no merge-base with main, adding as isolated node", "oid", seed.Short())
		} else {
			path, err = findPathToMergeBaseInternal(ctx, repo, mergeBases, seed, mergeBaseOID, func(oid.Hash) {})
			if err != nil {
				return nil, fmt.Errorf("make graph: %w", err)
			}
			if path == nil {
				logger.Warn("smartlog: no path to merge-base", "oid", seed.Short())
				continue
			}
		}

		for _, id := range path {
			if _, ok := graph[id]; ok {
				// This commit and all of its ancestors on this path are
				// already in the graph.
				break
			}
			commit, err := repo.FindCommit(ctx, id)
			if err != nil {
				logger.Warn("smartlog: commit on path not found, skipping", "oid", id.Short())
				break
			}
			isMain := hasMergeBase && id == mergeBaseOID
			visible := replayer.VisibilityAt(cursor, id) != eventlog.Hidden
			ev, hasEvent := replayer.LatestEventAt(cursor, id)
			graph[id] = &Node{
				Commit:    commit,
				Children:  make(map[oid.Hash]struct{}),
				IsMain:    isMain,
				IsVisible: visible,
				Event:     ev,
				HasEvent:  hasEvent,
			}
		}

		if hasMergeBase {
			if _, ok := graph[mergeBaseOID]; !ok {
				logger.Warn("smartlog: could not find merge base in graph", "oid", mergeBaseOID.Short())
			}
		}
	}

	// Link immediate parent-child relationships for non-main nodes. Main
	// nodes keep their graph Parent unset so the spine renders straight.
	type link struct{ child, parent oid.Hash }
	var links []link
	for childOID, node := range graph {
		if node.IsMain {
			continue
		}
		for _, p := range node.Commit.Parents {
			if _, ok := graph[p]; ok {
				links = append(links, link{childOID, p})
			}
		}
	}
	for _, l := range links {
		graph[l.child].Parent = l.parent
		graph[l.parent].Children[l.child] = struct{}{}
	}

	return graph, nil
}

func pruneGraph(graph Graph, unhideable map[oid.Hash]struct{}) {
	cache := make(map[oid.Hash]bool)
	var shouldHide func(oid.Hash) bool
	shouldHide = func(id oid.Hash) bool {
		if v, ok := cache[id]; ok {
			return v
		}
		var result bool
		if _, ok := unhideable[id]; ok {
			result = false
		} else {
			node := graph[id]
			if node.IsMain {
				result = node.IsVisible
				for childOID := range node.Children {
					if graph[childOID].IsMain {
						continue
					}
					if !shouldHide(childOID) {
						result = false
						break
					}
				}
			} else {
				result = !node.IsVisible
				if result {
					for childOID := range node.Children {
						if !shouldHide(childOID) {
							result = false
							break
						}
					}
				}
			}
		}
		cache[id] = result
		return result
	}

	var toRemove []oid.Hash
	for id := range graph {
		if shouldHide(id) {
			toRemove = append(toRemove, id)
		}
	}
	for _, id := range toRemove {
		node := graph[id]
		parent := node.Parent
		delete(graph, id)
		if parentNode, ok := graph[parent]; ok {
			delete(parentNode.Children, id)
		}
	}
}
