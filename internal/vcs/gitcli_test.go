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

package vcs

import (
	"context"
	"os/exec"
	"testing"
)

func findGit(t *testing.T) string {
	t.Helper()
	path, err := exec.LookPath("git")
	if err != nil {
		t.Skip("git not found:", err)
	}
	return path
}

// newTestRepo initializes a throwaway repository at dir using the real
// git binary directly (not through GitRepository), so fixture setup
// doesn't depend on the code under test.
func newTestRepo(t *testing.T, gitPath string) (dir string, env []string) {
	t.Helper()
	dir = t.TempDir()
	env = []string{
		"GIT_CONFIG_NOSYSTEM=1",
		"HOME=" + dir,
		"GIT_AUTHOR_NAME=test",
		"GIT_AUTHOR_EMAIL=test@example.com",
		"GIT_COMMITTER_NAME=test",
		"GIT_COMMITTER_EMAIL=test@example.com",
	}
	run := func(args ...string) {
		c := exec.Command(gitPath, args...)
		c.Dir = dir
		c.Env = env
		if out, err := c.CombinedOutput(); err != nil {
			t.Fatalf("git %v: %v\n%s", args, err, out)
		}
	}
	run("init", "-q", "-b", "main")
	run("commit", "--allow-empty", "-q", "-m", "first commit")
	return dir, env
}

func newTestRepository(t *testing.T) (*GitRepository, string) {
	t.Helper()
	gitPath := findGit(t)
	dir, env := newTestRepo(t, gitPath)
	repo, err := NewGitRepository(gitPath, dir, env)
	if err != nil {
		t.Fatal(err)
	}
	return repo, dir
}

func TestHeadAndFindCommit(t *testing.T) {
	repo, _ := newTestRepository(t)
	ctx := context.Background()

	head, ok, err := repo.Head(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Fatal("Head: ok = false on a repository with a commit")
	}

	commit, err := repo.FindCommit(ctx, head)
	if err != nil {
		t.Fatal(err)
	}
	if commit.OID != head {
		t.Errorf("FindCommit(head).OID = %v; want %v", commit.OID, head)
	}
	if commit.Subject != "first commit" {
		t.Errorf("Subject = %q; want %q", commit.Subject, "first commit")
	}
	if len(commit.Parents) != 0 {
		t.Errorf("Parents = %v; want none (root commit)", commit.Parents)
	}
}

func TestResolveRevision(t *testing.T) {
	repo, _ := newTestRepository(t)
	ctx := context.Background()

	head, _, err := repo.Head(ctx)
	if err != nil {
		t.Fatal(err)
	}
	got, err := repo.ResolveRevision(ctx, "main")
	if err != nil {
		t.Fatal(err)
	}
	if got != head {
		t.Errorf("ResolveRevision(main) = %v; want %v", got, head)
	}

	if _, err := repo.ResolveRevision(ctx, "does-not-exist"); err == nil {
		t.Error("ResolveRevision(does-not-exist) succeeded; want error")
	}
}

func TestParentsOf(t *testing.T) {
	repo, dir := newTestRepository(t)
	ctx := context.Background()
	gitPath := findGit(t)

	run := func(args ...string) {
		c := exec.Command(gitPath, args...)
		c.Dir = dir
		c.Env = []string{
			"GIT_CONFIG_NOSYSTEM=1", "HOME=" + dir,
			"GIT_AUTHOR_NAME=test", "GIT_AUTHOR_EMAIL=test@example.com",
			"GIT_COMMITTER_NAME=test", "GIT_COMMITTER_EMAIL=test@example.com",
		}
		if out, err := c.CombinedOutput(); err != nil {
			t.Fatalf("git %v: %v\n%s", args, err, out)
		}
	}
	first, _, err := repo.Head(ctx)
	if err != nil {
		t.Fatal(err)
	}
	run("commit", "--allow-empty", "-q", "-m", "second commit")
	second, _, err := repo.Head(ctx)
	if err != nil {
		t.Fatal(err)
	}

	parents, err := repo.ParentsOf(ctx, second)
	if err != nil {
		t.Fatal(err)
	}
	if len(parents) != 1 || parents[0] != first {
		t.Errorf("ParentsOf(second) = %v; want [%v]", parents, first)
	}
}

func TestCheckoutDetachesHead(t *testing.T) {
	repo, _ := newTestRepository(t)
	ctx := context.Background()
	head, _, err := repo.Head(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if err := repo.Checkout(ctx, head); err != nil {
		t.Fatal(err)
	}
	got, ok, err := repo.Head(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if !ok || got != head {
		t.Errorf("Head after checkout = (%v, %t); want (%v, true)", got, ok, head)
	}
}

func TestConfigGetSet(t *testing.T) {
	repo, _ := newTestRepository(t)
	ctx := context.Background()

	if _, ok, err := repo.ConfigGet(ctx, "branchless.core.mainBranch"); err != nil {
		t.Fatal(err)
	} else if ok {
		t.Error("ConfigGet on an unset key reported ok = true")
	}

	if err := repo.ConfigSet(ctx, "branchless.core.mainBranch", "main"); err != nil {
		t.Fatal(err)
	}
	got, ok, err := repo.ConfigGet(ctx, "branchless.core.mainBranch")
	if err != nil {
		t.Fatal(err)
	}
	if !ok || got != "main" {
		t.Errorf("ConfigGet after ConfigSet = (%q, %t); want (\"main\", true)", got, ok)
	}
}

func TestBranches(t *testing.T) {
	repo, _ := newTestRepository(t)
	ctx := context.Background()

	branches, err := repo.Branches(ctx)
	if err != nil {
		t.Fatal(err)
	}
	head, _, err := repo.Head(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if got, ok := branches["main"]; !ok || got != head {
		t.Errorf("Branches()[main] = (%v, %t); want (%v, true)", got, ok, head)
	}
}

func TestGitCommonDir(t *testing.T) {
	repo, _ := newTestRepository(t)
	ctx := context.Background()

	common, err := repo.GitCommonDir(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if common == "" {
		t.Error("GitCommonDir returned an empty string")
	}
}
