package main

import (
	"fmt"
	"os"

	"github.com/park285/llm-chess-arena/internal/arena/cmd"
)

func main() {
	if err := arena(); err != nil {
		fmt.Fprintf(os.Stderr, "\x1b[31merror\x1b[0m: %v\n", err)
		os.Exit(1)
	}
}

func arena() error {
	root := cmd.Root()
	root.SetArgs(os.Args[1:])
	return root.Execute()
}
