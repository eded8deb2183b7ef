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

// Package config names the handful of local repository configuration
// keys this tool reads and writes, and main-branch auto-detection. It is
// a thin layer over vcs.Repository's ConfigGet/ConfigSet — there is no
// separate configuration file format.
package config

import (
	"context"
	"errors"

	"branchless.dev/tool/internal/vcs"
)

// Keys this tool reads or writes on the local repository configuration.
const (
	KeyMainBranch      = "branchless.core.mainBranch"
	KeyDetachedHead    = "advice.detachedHead"
	AliasSmartlogShort = "alias.sl"
	AliasSmartlog      = "alias.smartlog"
	AliasHide          = "alias.hide"
	AliasUnhide        = "alias.unhide"
	AliasPrev          = "alias.prev"
	AliasNext          = "alias.next"
	AliasRestack       = "alias.restack"
	AliasUndo          = "alias.undo"
	AliasMove          = "alias.move"
)

// Aliases lists every alias key installed by init, in the order spec.md
// §6 names them.
var Aliases = []string{
	AliasSmartlogShort,
	AliasSmartlog,
	AliasHide,
	AliasUnhide,
	AliasPrev,
	AliasNext,
	AliasRestack,
	AliasUndo,
	AliasMove,
}

// candidateMainBranches is the order main-branch auto-detection tries
// local branches in; the first match wins.
var candidateMainBranches = []string{
	"master", "main", "mainline", "devel", "develop", "development", "trunk",
}

// ErrNoMainBranch is returned by DetectMainBranch when none of the
// candidate branch names exist locally.
var ErrNoMainBranch = errors.New("no main branch detected; none of the usual candidate names exist")

// DetectMainBranch tries each of the conventional main-branch names in
// order and returns the first one that exists as a local branch.
func DetectMainBranch(ctx context.Context, repo vcs.Repository) (string, error) {
	branches, err := repo.Branches(ctx)
	if err != nil {
		return "", err
	}
	for _, name := range candidateMainBranches {
		if _, ok := branches[name]; ok {
			return name, nil
		}
	}
	return "", ErrNoMainBranch
}
