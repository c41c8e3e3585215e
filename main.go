package main

import (
	"os"

	"github.com/cppla/nailgrow/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
