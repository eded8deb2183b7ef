// Copyright 2018 Google LLC
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
	"os"
	"path/filepath"
)

// xdgDirs implements the Free Desktop Base Directory specification for
// locating directories.
//
// The specification is at
// http://standards.freedesktop.org/basedir-spec/basedir-spec-latest.html
type xdgDirs struct {
	configHome string
	configDirs []string
}

// newXDGDirs reads directory locations from the given environment variables.
func newXDGDirs(environ []string) *xdgDirs {
	x := &xdgDirs{
		configHome: getenv(environ, "XDG_CONFIG_HOME"),
		configDirs: filepath.SplitList(getenv(environ, "XDG_CONFIG_DIRS")),
	}
	if x.configHome == "" {
		if home := getenv(environ, "HOME"); home != "" {
			x.configHome = filepath.Join(home, ".config")
		}
	}
	if len(x.configDirs) == 0 {
		x.configDirs = []string{"/etc/xdg"}
	}
	return x
}

// readConfig reads the file at the given slash-separated path relative
// to the branchless config directory, trying configHome before each of
// configDirs in order.
func (x *xdgDirs) readConfig(name string) ([]byte, error) {
	relpath := filepath.Join("branchless", filepath.FromSlash(name))
	for _, dir := range x.configPaths() {
		data, err := os.ReadFile(filepath.Join(dir, relpath))
		if err == nil {
			return data, nil
		}
		if !os.IsNotExist(err) {
			return nil, err
		}
	}
	return nil, &os.PathError{
		Op:   "open",
		Path: filepath.Join("$XDG_CONFIG_HOME", relpath),
		Err:  os.ErrNotExist,
	}
}

// configPaths returns the list of directories to search for
// configuration files in descending order of precedence. The caller
// must not modify the returned slice.
func (x *xdgDirs) configPaths() []string {
	if x.configHome == "" {
		return x.configDirs
	}
	return append([]string{x.configHome}, x.configDirs...)
}
