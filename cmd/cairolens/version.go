// Copyright 2025 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package main

import "fmt"

// runVersion prints the CLI's build version information.
func runVersion() {
	fmt.Printf("cairolens version %s\n", buildVersion)
	fmt.Printf("commit: %s\n", buildCommit)
	fmt.Printf("built: %s\n", buildDate)
}
