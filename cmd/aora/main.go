// Command aora runs the Aora backend gateway.
//
// Usage:
//
//	aora serve
//	aora migrate [up|status]
//	aora seed <name>
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/aora/backend/internal/app"
)

func main() {
	if err := app.Run(context.Background(), os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "aora:", err)
		os.Exit(1)
	}
}
