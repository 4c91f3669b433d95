// Copyright 2025 The Islands Bharath Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"github.com/islands-bharath/islands/cmd"
)

var Version = "development"

func main() {
	cmd.Execute(Version)
}
