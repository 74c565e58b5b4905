package main

import (
	"os"

	"github.com/jmottier/notihub/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
