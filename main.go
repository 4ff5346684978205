package main

import (
	"os"

	"github.com/orgogpt/orgogpt/internal/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
