package main

import (
	"os"

	"github.com/mediguide-lk/mediguide/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
