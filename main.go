// SPDX-License-Identifier: MPL-2.0

package main

import cmd "github.com/pharbox/box/cmd/box"

func main() {
	cmd.Execute()
}
