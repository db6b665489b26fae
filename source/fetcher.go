// Copyright 2026 Caselode
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


// Package source supplies ingestion collaborators: fetchers that read
// raw source bytes and parsers that turn them into records. The
// pipeline itself is agnostic to both; any caller can inject its own.
package source

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/caselode/lexbase/ingestion"
)

// ErrSourceOutsideBase is returned when a source name tries to escape
// the fetcher's base directory.
var ErrSourceOutsideBase = errors.New("source name escapes base directory")

// FileFetcher resolves source names against a base directory on the
// local filesystem.
type FileFetcher struct {
	baseDir string
}

var _ ingestion.Fetcher = (*FileFetcher)(nil)

// NewFileFetcher creates a fetcher rooted at baseDir. An empty baseDir
// resolves names against the working directory.
func NewFileFetcher(baseDir string) *FileFetcher {
	if baseDir == "" {
		baseDir = "."
	}
	return &FileFetcher{baseDir: baseDir}
}

// Fetch reads the named source file.
func (f *FileFetcher) Fetch(ctx context.Context, sourceName string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	path := filepath.Join(f.baseDir, filepath.Clean("/"+sourceName))
	if rel, err := filepath.Rel(f.baseDir, path); err != nil || strings.HasPrefix(rel, "..") {
		return nil, fmt.Errorf("%w: %s", ErrSourceOutsideBase, sourceName)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading source %s: %w", sourceName, err)
	}
	return data, nil
}
