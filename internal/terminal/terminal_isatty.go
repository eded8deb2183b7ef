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

package terminal

import (
	"io"

	"github.com/mattn/go-isatty"
)

func isTerminal(fd uintptr) bool {
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// resetTextStyle writes the ANSI SGR reset sequence. Callers only invoke
// this after confirming w is a terminal, so the escape code is always
// appropriate here.
func resetTextStyle(w io.Writer) error {
	_, err := io.WriteString(w, "\x1b[0m")
	return err
}
