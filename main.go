package main

import (
	"os"

	"github.com/harshithareddy1810/SmartDocQ/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
