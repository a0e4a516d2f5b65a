package main

import "github.com/go-andiamo/rowmap/internal/cli"

func main() {
	cli.Execute()
}
