package main

import "github.com/andrescamacho/supplysim-go/internal/adapters/cli"

func main() {
	cli.Execute()
}
