package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd(openBackends).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
