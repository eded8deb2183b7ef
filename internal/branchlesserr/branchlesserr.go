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

// Package branchlesserr defines the error kinds shared across the core:
// VCS failures, store failures, unresolved names, rebase conflicts,
// missing configuration, and internal invariant violations.
package branchlesserr

import "errors"

// Kind classifies an Error.
type Kind int

const (
	// VcsError wraps a failure reported by the underlying VCS adapter.
	VcsError Kind = iota
	// StoreError is a persistence-layer failure (I/O, constraint violation).
	StoreError
	// NotFound means a user-specified OID or branch did not resolve.
	NotFound
	// Conflict means a rebase step produced a conflict. Not fatal.
	Conflict
	// Config means required configuration is missing or invalid.
	Config
	// Internal means an invariant was violated; it indicates a bug.
	Internal
)

func (k Kind) String() string {
	switch k {
	case VcsError:
		return "vcs error"
	case StoreError:
		return "store error"
	case NotFound:
		return "not found"
	case Conflict:
		return "conflict"
	case Config:
		return "config"
	case Internal:
		return "internal"
	default:
		return "unknown"
	}
}

// Error is a classified, contextualized failure.
type Error struct {
	Kind Kind
	// Op names the operation that failed, e.g. "get merge base".
	Op    string
	cause error
}

func (e *Error) Error() string {
	if e.cause == nil {
		return e.Op + ": " + e.Kind.String()
	}
	return e.Op + ": " + e.cause.Error()
}

func (e *Error) Unwrap() error {
	return e.cause
}

// New returns an *Error of the given kind for op, wrapping cause.
func New(kind Kind, op string, cause error) *Error {
	return &Error{Kind: kind, Op: op, cause: cause}
}

// Is reports whether err is a *Error of the given kind.
func Is(err error, kind Kind) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Kind == kind
}
