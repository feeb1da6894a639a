package main

import (
	"context"
	"fmt"
	"os"

	"github.com/roach88/catalog/internal/cli"
)

func main() {
	err := cli.NewRootCommand().ExecuteContext(context.Background())
	if err != nil {
		fmt.Fprintln(os.Stderr, "catalog:", err)
	}
	os.Exit(cli.GetExitCode(err))
}
