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

// Package vcs defines the capability surface the core uses to talk to the
// underlying version-control system, and the read-only commit view that
// flows out of it. The rest of the core never imports a concrete VCS
// binding directly; it only depends on the Repository interface here.
package vcs

import (
	"context"
	"time"

	"branchless.dev/tool/internal/oid"
)

// Commit is a read-only view of a single commit. The core never mutates
// commits; all structural changes happen through a rebase plan executed
// by the adapter.
type Commit struct {
	OID           oid.Hash
	Parents       []oid.Hash
	CommitterTime time.Time
	Subject       string
}

// Version is a (major, minor, patch) VCS version number.
type Version struct {
	Major, Minor, Patch int
}

// Less reports whether v is older than other.
func (v Version) Less(other Version) bool {
	if v.Major != other.Major {
		return v.Major < other.Major
	}
	if v.Minor != other.Minor {
		return v.Minor < other.Minor
	}
	return v.Patch < other.Patch
}

// VersionFloor is the oldest underlying VCS version this core has been
// validated against; commands that care (principally undo-adjacent ones)
// should warn below it. See spec.md §6.
var VersionFloor = Version{Major: 2, Minor: 29, Patch: 0}

// RebasePlanStep mirrors rebaseplan.Step without importing that package
// (which itself depends on vcs), avoiding an import cycle. Concrete step
// kinds are defined in package rebaseplan; each knows how to render itself
// as a line of a git-rebase-todo script, since adapters here can't type
// switch on a package they can't import.
type RebasePlanStep interface {
	isRebasePlanStep()

	// TodoLine renders the step as one line of a git-rebase-todo script.
	TodoLine() string
}

// RebasePlan is the ordered sequence of steps an adapter must execute.
type RebasePlan struct {
	Steps     []RebasePlanStep
	FinalHead oid.Hash
}

// ErrNotFound is returned by FindCommit when the OID does not resolve in
// the underlying repository (garbage collected, bad input, etc).
var ErrNotFound = &notFoundError{}

type notFoundError struct{}

func (*notFoundError) Error() string { return "commit not found" }

// Repository is the capability surface the core requires. Implementations
// never throw a raw error type across the boundary uninterpreted; callers
// use branchlesserr to classify failures where relevant (see package
// branchlesserr and the GitRepository implementation's wrapping).
type Repository interface {
	// FindCommit looks up a commit by OID. Returns an error wrapping
	// ErrNotFound if the OID does not resolve.
	FindCommit(ctx context.Context, id oid.Hash) (*Commit, error)

	// ResolveRevision parses a revision expression in the underlying VCS's
	// own syntax (a branch name, "HEAD~2", an abbreviated OID, ...) and
	// returns the commit it names. Returns an error wrapping ErrNotFound
	// if expr does not resolve to a commit.
	ResolveRevision(ctx context.Context, expr string) (oid.Hash, error)

	// ParentsOf returns the direct parents of id, in order.
	ParentsOf(ctx context.Context, id oid.Hash) ([]oid.Hash, error)

	// MergeBase computes the (uncached, possibly expensive) lowest common
	// ancestor of lhs and rhs. A zero Hash with ok=false means no common
	// ancestor exists.
	MergeBase(ctx context.Context, lhs, rhs oid.Hash) (result oid.Hash, ok bool, err error)

	// Head returns the OID HEAD points to, or ok=false for an unborn
	// branch.
	Head(ctx context.Context) (id oid.Hash, ok bool, err error)

	// Checkout moves HEAD to id, detaching it. Used by navigation
	// commands (next/prev) to move within the smartlog graph.
	Checkout(ctx context.Context, id oid.Hash) error

	// Branches enumerates local branches by name.
	Branches(ctx context.Context) (map[string]oid.Hash, error)

	// ConfigGet reads a local repository configuration value.
	ConfigGet(ctx context.Context, key string) (value string, ok bool, err error)

	// ConfigSet writes a local repository configuration value.
	ConfigSet(ctx context.Context, key, value string) error

	// ExecuteRebasePlan carries out plan, recording the OID substitutions
	// it made as RewriteEvents via the hook path as it runs. txID groups
	// those events into one user action. source and dest are the revision
	// expressions the user originally gave, for diagnostics.
	ExecuteRebasePlan(ctx context.Context, plan *RebasePlan, txID int64, source, dest string, forceOnDisk bool) error

	// Version reports the underlying VCS version.
	Version(ctx context.Context) (Version, error)

	// GitCommonDir returns the absolute path to the repository's private
	// metadata directory, where the persistent store and hooks live.
	GitCommonDir(ctx context.Context) (string, error)
}
