package main

import "github.com/dgallion1/specchunk/internal/cli"

func main() {
	cli.Execute()
}
