package main

import (
	"context"
	"errors"
	"fmt"
	"os"
)

func main() {
	err := newRootCommand().Execute()
	if err == nil {
		return
	}
	// Ctrl-C already interrupts the command; no extra message needed.
	if !errors.Is(err, context.Canceled) {
		fmt.Fprintf(os.Stderr, "scribe: %v\n", err)
	}
	os.Exit(1)
}
