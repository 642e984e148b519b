// Copyright 2025 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package version classifies Cairo source text as Cairo 0 or Cairo 1 from
// marker tokens. Detection is a hint for the import extractor only; the
// contract extractor uses a single regex family that tolerates both
// dialects.
package version

import "strings"

// cairo1Markers, in priority order, indicate Cairo 1 syntax.
var cairo1Markers = []string{
	"#[starknet::contract]",
	"#[starknet::interface]",
	"#[storage]",
	"felt252",
	"fn ",
}

// cairo0Markers, in priority order, indicate Cairo 0 syntax.
var cairo0Markers = []string{
	"@storage_var",
	"@external",
	"@view",
	"func ",
}

// Detect returns 1 for Cairo 1, 0 for Cairo 0, defaulting to 1 when neither
// marker set appears in src.
func Detect(src string) int {
	for _, marker := range cairo1Markers {
		if strings.Contains(src, marker) {
			return 1
		}
	}
	for _, marker := range cairo0Markers {
		if strings.Contains(src, marker) {
			return 0
		}
	}
	return 1
}
