// SPDX-License-Identifier: MPL-2.0

package main

import "github.com/extreg/extreg/cmd/extreg"

func main() {
	cmd.Execute()
}
