package main

import (
	"fmt"
	"os"

	"github.com/hitoshi/membergate/internal/app"
)

func main() {
	if err := app.Run(os.Stdout, os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "membergate: %v\n", err)
		os.Exit(1)
	}
}
