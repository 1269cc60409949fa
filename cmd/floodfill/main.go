package main

import "github.com/andrescamacho/floodfill-go/internal/adapters/cli"

func main() {
	cli.Execute()
}
