package main

import (
	"fmt"
	"os"

	"photocull/internal/memory"
)

func main() {
	// GOMEMLIMIT must be in place before the first decode allocates.
	memory.ConfigureFromEnv()

	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
