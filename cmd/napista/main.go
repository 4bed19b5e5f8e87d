package main

import "github.com/itantech/napista/internal/cli"

func main() {
	cli.Execute()
}
