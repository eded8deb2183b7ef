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
	"bufio"
	"context"
	"errors"
	"fmt"
	"strings"

	"branchless.dev/tool/internal/config"
	"branchless.dev/tool/internal/escape"
	"branchless.dev/tool/internal/flag"
	"branchless.dev/tool/internal/hooks"
	"branchless.dev/tool/internal/vcs"
)

const initSynopsis = "set up the branch-free workflow in the current repository"

var hookKinds = []hooks.Kind{
	hooks.PostCommit,
	hooks.PostRewrite,
	hooks.PostCheckout,
	hooks.PreAutoGC,
	hooks.ReferenceTransaction,
}

func runInit(ctx context.Context, cc *cmdContext, args []string) error {
	f := flag.NewFlagSet(false)
	mainBranch := f.String("main-branch", "", "name of the main branch (skips auto-detection)")
	if err := f.Parse(args); err != nil {
		return usagef("init: %v", err)
	}

	if v, err := cc.repo.Version(ctx); err == nil {
		if v.Less(vcs.VersionFloor) {
			fmt.Fprintf(cc.stderr, "bl: warning: underlying VCS %d.%d.%d is older than %d.%d.%d; undo may misbehave\n",
				v.Major, v.Minor, v.Patch, vcs.VersionFloor.Major, vcs.VersionFloor.Minor, vcs.VersionFloor.Patch)
		}
	}

	branch := *mainBranch
	if branch == "" {
		var err error
		branch, err = config.DetectMainBranch(ctx, cc.repo)
		if errors.Is(err, config.ErrNoMainBranch) {
			branch, err = promptMainBranch(cc)
			if err != nil {
				return err
			}
		} else if err != nil {
			return fmt.Errorf("init: %v", err)
		}
	}
	if branch == "" {
		return usagef("init: no main branch given")
	}

	if err := cc.repo.ConfigSet(ctx, config.KeyMainBranch, branch); err != nil {
		return fmt.Errorf("init: %v", err)
	}
	if err := cc.repo.ConfigSet(ctx, config.KeyDetachedHead, "false"); err != nil {
		return fmt.Errorf("init: %v", err)
	}

	for _, k := range hookKinds {
		if err := hooks.Install(cc.gitCommonDir, k, cc.binary); err != nil {
			return fmt.Errorf("init: %v", err)
		}
	}

	if err := installAliases(ctx, cc); err != nil {
		return fmt.Errorf("init: %v", err)
	}

	fmt.Fprintf(cc.stdout, "initialized branch-free workflow (main branch %q)\n", branch)
	return nil
}

// installAliases writes each alias in config.Aliases as a git shell-out
// alias that forwards to this binary's corresponding subcommand, so the
// user can type e.g. "git sl" once init has run.
func installAliases(ctx context.Context, cc *cmdContext) error {
	subcommands := map[string]string{
		config.AliasSmartlogShort: "smartlog",
		config.AliasSmartlog:      "smartlog",
		config.AliasHide:          "hide",
		config.AliasUnhide:        "unhide",
		config.AliasPrev:          "prev",
		config.AliasNext:          "next",
		config.AliasRestack:       "restack",
		config.AliasUndo:          "undo",
		config.AliasMove:          "move",
	}
	for _, key := range config.Aliases {
		sub, ok := subcommands[key]
		if !ok {
			return fmt.Errorf("no subcommand registered for alias %s", key)
		}
		value := fmt.Sprintf("!%s %s", escape.Bash(cc.binary), sub)
		if err := cc.repo.ConfigSet(ctx, key, value); err != nil {
			return err
		}
	}
	return nil
}

func promptMainBranch(cc *cmdContext) (string, error) {
	fmt.Fprint(cc.stdout, "no conventional main branch found; enter the main branch name: ")
	sc := bufio.NewScanner(cc.stdin)
	if !sc.Scan() {
		return "", usagef("init: no main branch given")
	}
	name := strings.TrimSpace(sc.Text())
	if name == "" {
		return "", usagef("init: no main branch given")
	}
	return name, nil
}
