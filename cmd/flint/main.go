package main

import "github.com/indigo-web/flint/cmd/flint/cmd"

func main() {
	cmd.Execute()
}
