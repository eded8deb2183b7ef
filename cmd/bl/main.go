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

// bl is the command-line front end for the branchless core: it augments
// an existing Git repository with an undo-able, branch-free workflow by
// recording every mutation as an event and deriving a smartlog view and
// rebase plans from that log.
package main // import "branchless.dev/tool/cmd/bl"

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"strings"

	"branchless.dev/tool/internal/eventlog"
	"branchless.dev/tool/internal/flag"
	"branchless.dev/tool/internal/mergebase"
	"branchless.dev/tool/internal/sigterm"
	"branchless.dev/tool/internal/store"
	"branchless.dev/tool/internal/vcs"
)

func main() {
	pctx, err := osProcessContext()
	if err != nil {
		fmt.Fprintln(os.Stderr, "bl:", err)
		os.Exit(1)
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sig := make(chan os.Signal, 1)
	done := make(chan struct{})
	signal.Notify(sig, sigterm.Signals()...)
	go func() {
		select {
		case <-sig:
			cancel()
		case <-done:
		}
	}()
	err = run(ctx, pctx, os.Args[1:])
	close(done)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		if isUsage(err) {
			os.Exit(64)
		}
		os.Exit(1)
	}
}

const synopsis = "bl [options] COMMAND [ARG [...]]"

const description = "Branch-free workflow on top of Git\n\n" +
	"commands:\n" +
	"  init                 " + initSynopsis + "\n" +
	"  smartlog, sl         " + smartlogSynopsis + "\n" +
	"  hide                 " + hideSynopsis + "\n" +
	"  unhide               " + unhideSynopsis + "\n" +
	"  move                 " + moveSynopsis + "\n" +
	"  next                 " + nextSynopsis + "\n" +
	"  prev                 " + prevSynopsis + "\n" +
	"  restack              " + restackSynopsis + "\n" +
	"  undo                 " + undoSynopsis + "\n"

func run(ctx context.Context, pctx *processContext, args []string) error {
	globalFlags := flag.NewFlagSet(false)
	gitPath := globalFlags.String("git", "", "path to git executable")
	verbose := globalFlags.Bool("verbose", false, "log git invocations and internal diagnostics to stderr")
	helpFlag := globalFlags.Bool("help", false, "show usage and exit")
	if err := globalFlags.Parse(args); err != nil {
		if flag.IsHelpUndefined(err) {
			fmt.Fprintln(pctx.stdout, synopsis)
			fmt.Fprintln(pctx.stdout, description)
			return nil
		}
		return usagef("%v", err)
	}
	if *helpFlag || globalFlags.NArg() == 0 {
		fmt.Fprintln(pctx.stdout, synopsis)
		fmt.Fprintln(pctx.stdout, description)
		return nil
	}

	logLevel := slog.LevelWarn
	if *verbose {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(pctx.stderr, &slog.HandlerOptions{Level: logLevel}))

	if *gitPath == "" {
		var err error
		*gitPath, err = pctx.lookPath("git")
		if err != nil {
			return fmt.Errorf("bl: %v", err)
		}
	}
	repo, err := vcs.NewGitRepository(*gitPath, pctx.dir, pctx.env)
	if err != nil {
		return fmt.Errorf("bl: %v", err)
	}
	if *verbose {
		repo.SetLogHook(func(_ context.Context, args []string) {
			fmt.Fprintln(pctx.stderr, "bl: exec: git", strings.Join(args, " "))
		})
	}

	name := globalFlags.Arg(0)
	rest := globalFlags.Args()[1:]

	if name == "help" {
		if len(rest) == 0 {
			fmt.Fprintln(pctx.stdout, synopsis)
			fmt.Fprintln(pctx.stdout, description)
			return nil
		}
		if s, ok := commandSynopses[rest[0]]; ok {
			fmt.Fprintln(pctx.stdout, "bl "+rest[0]+" - "+s)
			return nil
		}
		return usagef("unknown command %s", rest[0])
	}

	gitCommonDir, err := repo.GitCommonDir(ctx)
	if err != nil {
		return fmt.Errorf("bl: %v", err)
	}
	db, err := store.Open(ctx, filepath.Join(gitCommonDir, store.FileName))
	if err != nil {
		return fmt.Errorf("bl: %v", err)
	}
	defer db.Close()

	cc := &cmdContext{
		repo:         repo,
		db:           db,
		log:          eventlog.New(db),
		mergeBases:   mergebase.New(db),
		logger:       logger,
		xdgDirs:      newXDGDirs(pctx.env),
		gitCommonDir: gitCommonDir,
		binary:       pctx.executable,
		stdin:        pctx.stdin,
		stdout:       pctx.stdout,
		stderr:       pctx.stderr,
	}

	err = dispatch(ctx, cc, name, rest)
	if isUsage(err) {
		return err
	}
	if err != nil {
		return fmt.Errorf("bl: %v", err)
	}
	return nil
}

// cmdContext is the state every subcommand needs, collected here to avoid
// reaching for package-level globals and to keep subcommands testable
// against a fake vcs.Repository and a store in a temporary directory.
type cmdContext struct {
	repo         vcs.Repository
	db           *store.DB
	log          *eventlog.Log
	mergeBases   *mergebase.Cache
	logger       *slog.Logger
	xdgDirs      *xdgDirs
	gitCommonDir string
	binary       string

	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
}

func dispatch(ctx context.Context, cc *cmdContext, name string, args []string) error {
	switch name {
	case "init":
		return runInit(ctx, cc, args)
	case "smartlog", "sl":
		return runSmartlog(ctx, cc, args)
	case "hide":
		return runHide(ctx, cc, args)
	case "unhide":
		return runUnhide(ctx, cc, args)
	case "move":
		return runMove(ctx, cc, args)
	case "next":
		return runNext(ctx, cc, args)
	case "prev":
		return runPrev(ctx, cc, args)
	case "restack":
		return runRestack(ctx, cc, args)
	case "undo":
		return runUndo(ctx, cc, args)
	case "hook-post-commit":
		return runHookPostCommit(ctx, cc, args)
	case "hook-post-rewrite":
		return runHookPostRewrite(ctx, cc, args)
	case "hook-post-checkout":
		return runHookPostCheckout(ctx, cc, args)
	case "hook-pre-auto-gc":
		return runHookPreAutoGC(ctx, cc, args)
	case "hook-reference-transaction":
		return runHookReferenceTransaction(ctx, cc, args)
	default:
		return usagef("unknown command %s", name)
	}
}

// processContext is the state bl uses to run, collected here to avoid
// reaching for globals so commands can be tested against a fixture.
type processContext struct {
	dir        string
	env        []string
	tempDir    string
	executable string

	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer

	lookPath func(string) (string, error)
}

func osProcessContext() (*processContext, error) {
	dir, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	exe, err := os.Executable()
	if err != nil {
		exe = "bl"
	}
	return &processContext{
		dir:        dir,
		tempDir:    os.TempDir(),
		executable: exe,
		env:        os.Environ(),
		stdin:      os.Stdin,
		stdout:     os.Stdout,
		stderr:     os.Stderr,
		lookPath:   exec.LookPath,
	}, nil
}

// getenv is like os.Getenv but reads from the given list of environment
// variables. Later entries take precedence, matching how exec.Cmd.Env
// resolves duplicates.
func getenv(environ []string, name string) string {
	for i := len(environ) - 1; i >= 0; i-- {
		e := environ[i]
		if strings.HasPrefix(e, name) && strings.HasPrefix(e[len(name):], "=") {
			return e[len(name)+1:]
		}
	}
	return ""
}

type usageError string

func usagef(format string, args ...interface{}) error {
	e := usageError(fmt.Sprintf(format, args...))
	return &e
}

func (ue *usageError) Error() string {
	return "bl: usage: " + string(*ue)
}

func isUsage(e error) bool {
	_, ok := e.(*usageError)
	return ok
}

var commandSynopses = map[string]string{
	"init":     initSynopsis,
	"smartlog": smartlogSynopsis,
	"sl":       smartlogSynopsis,
	"hide":     hideSynopsis,
	"unhide":   unhideSynopsis,
	"move":     moveSynopsis,
	"next":     nextSynopsis,
	"prev":     prevSynopsis,
	"restack":  restackSynopsis,
	"undo":     undoSynopsis,
}
