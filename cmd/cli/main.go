package main

import (
	"context"
	"fmt"
	"os"

	"github.com/dmitrijs2005/studymate/internal/admincli"
)

func main() {
	root := admincli.NewRootCommand(nil, os.Stdin, os.Stdout)
	if err := root.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
