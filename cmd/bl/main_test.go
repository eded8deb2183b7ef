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
	"errors"
	"testing"
)

func TestGetenvFindsValue(t *testing.T) {
	env := []string{"PATH=/bin", "GIT_DIR=/repo/.git"}
	if got := getenv(env, "GIT_DIR"); got != "/repo/.git" {
		t.Errorf("getenv(GIT_DIR) = %q; want %q", got, "/repo/.git")
	}
}

func TestGetenvMissing(t *testing.T) {
	env := []string{"PATH=/bin"}
	if got := getenv(env, "GIT_DIR"); got != "" {
		t.Errorf("getenv(GIT_DIR) = %q; want empty", got)
	}
}

func TestGetenvLastEntryWins(t *testing.T) {
	env := []string{"GIT_DIR=/first", "GIT_DIR=/second"}
	if got := getenv(env, "GIT_DIR"); got != "/second" {
		t.Errorf("getenv(GIT_DIR) = %q; want %q (last entry should win)", got, "/second")
	}
}

func TestGetenvDoesNotMatchPrefixOfLongerName(t *testing.T) {
	env := []string{"GIT_DIRTY=yes"}
	if got := getenv(env, "GIT_DIR"); got != "" {
		t.Errorf("getenv(GIT_DIR) = %q; want empty (GIT_DIRTY is a different variable)", got)
	}
}

func TestUsagefProducesUsageError(t *testing.T) {
	err := usagef("bad flag %s", "-x")
	if !isUsage(err) {
		t.Fatalf("isUsage(usagef(...)) = false; want true")
	}
	if err.Error() != "bl: usage: bad flag -x" {
		t.Errorf("Error() = %q; want %q", err.Error(), "bl: usage: bad flag -x")
	}
}

func TestIsUsageFalseForOtherErrors(t *testing.T) {
	if isUsage(errors.New("boom")) {
		t.Error("isUsage(plain error) = true; want false")
	}
}

func TestCommandSynopsesCoverDispatchedCommands(t *testing.T) {
	for _, name := range []string{"init", "smartlog", "sl", "hide", "unhide", "move", "next", "prev", "restack", "undo"} {
		if _, ok := commandSynopses[name]; !ok {
			t.Errorf("commandSynopses is missing an entry for %q", name)
		}
	}
}
