package main

import (
	"os"

	"github.com/b97tsk/minirt/internal/cli"
)

func main() {
	if err := cli.NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
