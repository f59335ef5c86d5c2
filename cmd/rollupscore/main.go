package main

import "github.com/rollupscore/rollupscore/internal/cli"

func main() {
	cli.Execute()
}
