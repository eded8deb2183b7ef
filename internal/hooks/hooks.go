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

// Package hooks installs and removes the shell-script stubs that forward
// VCS hook invocations back into this tool, so the event log stays in
// sync with what the user actually does to the repository.
package hooks

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"branchless.dev/tool/internal/escape"
	"branchless.dev/tool/internal/filesystem"
)

// Kind identifies which VCS hook a script stub targets.
type Kind int

const (
	PostCommit Kind = iota
	PostRewrite
	PostCheckout
	PreAutoGC
	ReferenceTransaction
)

func (k Kind) fileName() string {
	switch k {
	case PostCommit:
		return "post-commit"
	case PostRewrite:
		return "post-rewrite"
	case PostCheckout:
		return "post-checkout"
	case PreAutoGC:
		return "pre-auto-gc"
	case ReferenceTransaction:
		return "reference-transaction"
	default:
		return "unknown-hook"
	}
}

// subcommand is the `bl` sub-command each hook forwards to.
func (k Kind) subcommand() string {
	switch k {
	case PostCommit:
		return "hook-post-commit"
	case PostRewrite:
		return "hook-post-rewrite"
	case PostCheckout:
		return "hook-post-checkout"
	case PreAutoGC:
		return "hook-pre-auto-gc"
	case ReferenceTransaction:
		return "hook-reference-transaction"
	default:
		return "hook-unknown"
	}
}

const (
	startSentinel = "## START BRANCHLESS CONFIG"
	endSentinel   = "## END BRANCHLESS CONFIG"
)

// script returns the body placed between the sentinels. The
// reference-transaction hook must never fail the outer transaction, so its
// stub suppresses its own exit code and warns instead.
func (k Kind) script(binary string) string {
	call := fmt.Sprintf(`%s %s "$@"`, escape.Bash(binary), k.subcommand())
	if k == ReferenceTransaction {
		return call + ` || echo "warning: branchless reference-transaction hook failed" >&2`
	}
	return call
}

// Install writes or updates the hook stub for kind under gitCommonDir,
// pointing it at binary (the absolute path to this tool's executable). If
// a multi-hook directory (hooks_multi/<hook>.d/) already exists, the stub
// is written there as 00_local_branchless instead of touching the
// classic single hook file.
func Install(gitCommonDir string, kind Kind, binary string) error {
	multiDir := filepath.Join(gitCommonDir, "hooks_multi", kind.fileName()+".d")
	if info, err := os.Stat(multiDir); err == nil && info.IsDir() {
		path := filepath.Join(multiDir, "00_local_branchless")
		return writeHookFile(path, kind.script(binary))
	}

	path := filepath.Join(gitCommonDir, "hooks", kind.fileName())
	existing, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("install hook %s: %v", kind.fileName(), err)
	}
	updated := updateBetweenSentinels(string(existing), kind.script(binary))
	if err := writeHookFile(path, updated); err != nil {
		return fmt.Errorf("install hook %s: %v", kind.fileName(), err)
	}
	return nil
}

// Uninstall removes this tool's sentinel block from the hook file for
// kind, leaving any surrounding user content untouched. If the resulting
// file would contain nothing but a shebang, it is removed entirely.
func Uninstall(gitCommonDir string, kind Kind) error {
	multiPath := filepath.Join(gitCommonDir, "hooks_multi", kind.fileName()+".d", "00_local_branchless")
	if _, err := os.Stat(multiPath); err == nil {
		if err := os.Remove(multiPath); err != nil {
			return fmt.Errorf("uninstall hook %s: %v", kind.fileName(), err)
		}
		return nil
	}

	path := filepath.Join(gitCommonDir, "hooks", kind.fileName())
	existing, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("uninstall hook %s: %v", kind.fileName(), err)
	}
	updated := removeSentinelBlock(string(existing))
	if strings.TrimSpace(updated) == "#!/bin/sh" || strings.TrimSpace(updated) == "" {
		if err := os.Remove(path); err != nil {
			return fmt.Errorf("uninstall hook %s: %v", kind.fileName(), err)
		}
		return nil
	}
	if err := writeHookFile(path, updated); err != nil {
		return fmt.Errorf("uninstall hook %s: %v", kind.fileName(), err)
	}
	return nil
}

// updateBetweenSentinels replaces the content between the sentinel lines
// in existing with script, inserting the sentinels (and a shebang, if the
// file is new) if they aren't already present. Calling this twice with the
// same script is a fixed point: the second call produces identical output
// to the first.
func updateBetweenSentinels(existing, script string) string {
	block := startSentinel + "\n" + script + "\n" + endSentinel
	startIdx := strings.Index(existing, startSentinel)
	endIdx := strings.Index(existing, endSentinel)
	if startIdx == -1 || endIdx == -1 || endIdx < startIdx {
		if existing == "" {
			return "#!/bin/sh\n" + block + "\n"
		}
		trimmed := strings.TrimRight(existing, "\n")
		return trimmed + "\n" + block + "\n"
	}
	before := existing[:startIdx]
	after := existing[endIdx+len(endSentinel):]
	return before + block + after
}

func removeSentinelBlock(existing string) string {
	startIdx := strings.Index(existing, startSentinel)
	endIdx := strings.Index(existing, endSentinel)
	if startIdx == -1 || endIdx == -1 || endIdx < startIdx {
		return existing
	}
	before := strings.TrimRight(existing[:startIdx], "\n")
	after := strings.TrimLeft(existing[endIdx+len(endSentinel):], "\n")
	if before == "" {
		return after
	}
	if after == "" {
		return before + "\n"
	}
	return before + "\n" + after
}

func writeHookFile(path, content string) error {
	dir := filesystem.Dir(filepath.Dir(path))
	op := filesystem.Operation{Op: filesystem.Write, Name: filepath.Base(path), Content: content}
	if err := dir.Apply(op); err != nil {
		return err
	}
	return makeExecutable(path)
}
