/*
	Copyright 2023 Markus Papenbrock
*/

package main

import "github.com/mpapenbr/binkrace/cmd"

func main() {
	cmd.Execute()
}
