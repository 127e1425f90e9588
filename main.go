package main

import (
	"os"

	"github.com/stackpress/reactus/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
