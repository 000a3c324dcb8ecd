package main

import "github.com/kasard/thermactl/internal/cli"

var version = "dev"

func main() {
	cli.Execute(version)
}
