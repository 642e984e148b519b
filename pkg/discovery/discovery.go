// Copyright 2025 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package discovery walks input roots and resolves them to the set of
// .cairo files a run should analyze, applying the fixed test-file
// exclusion rule plus caller-supplied glob excludes.
package discovery

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// Discover resolves roots (individual .cairo files or directories,
// recursively scanned) to a sorted, de-duplicated list of .cairo file
// paths. Files whose name starts with "test_" or ends with "_test.cairo",
// files named exactly "tests.cairo", and any file under a path segment
// named "test" or "tests" are always excluded, on top of excludeGlobs.
func Discover(roots []string, excludeGlobs []string) ([]string, error) {
	seen := make(map[string]struct{})
	var found []string

	for _, root := range roots {
		info, err := os.Stat(root)
		if err != nil {
			return nil, fmt.Errorf("discovery: input path %q: %w", root, err)
		}

		if !info.IsDir() {
			if !strings.HasSuffix(root, ".cairo") {
				continue
			}
			if err := addFile(root, excludeGlobs, seen, &found); err != nil {
				return nil, err
			}
			continue
		}

		walkErr := filepath.Walk(root, func(path string, fi os.FileInfo, err error) error {
			if err != nil {
				return err
			}
			if fi.IsDir() || !strings.HasSuffix(path, ".cairo") {
				return nil
			}
			return addFile(path, excludeGlobs, seen, &found)
		})
		if walkErr != nil {
			return nil, fmt.Errorf("discovery: walking %q: %w", root, walkErr)
		}
	}

	sort.Strings(found)
	return found, nil
}

// addFile appends path to found (and marks it in seen) unless it is
// excluded by the fixed test-file rule or one of excludeGlobs.
func addFile(path string, excludeGlobs []string, seen map[string]struct{}, found *[]string) error {
	if isTestFile(path) {
		return nil
	}
	excluded, err := matchesAnyGlob(path, excludeGlobs)
	if err != nil {
		return err
	}
	if excluded {
		return nil
	}
	if _, dup := seen[path]; dup {
		return nil
	}
	seen[path] = struct{}{}
	*found = append(*found, path)
	return nil
}

// isTestFile reports whether path matches spec.md's fixed exclusion rule:
// a base name starting with "test_", ending with "_test.cairo", or
// exactly "tests.cairo", or any "test"/"tests" path segment.
func isTestFile(path string) bool {
	base := filepath.Base(path)
	if strings.HasPrefix(base, "test_") || strings.HasSuffix(base, "_test.cairo") || base == "tests.cairo" {
		return true
	}
	for _, segment := range strings.Split(filepath.ToSlash(path), "/") {
		if segment == "test" || segment == "tests" {
			return true
		}
	}
	return false
}

// matchesAnyGlob reports whether the slash-normalized path matches any of
// patterns, using doublestar so "**"-style excludes from a loaded config
// behave the way their authors expect.
func matchesAnyGlob(path string, patterns []string) (bool, error) {
	normalized := filepath.ToSlash(path)
	for _, pattern := range patterns {
		ok, err := doublestar.Match(pattern, normalized)
		if err != nil {
			return false, fmt.Errorf("discovery: invalid exclude glob %q: %w", pattern, err)
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}
