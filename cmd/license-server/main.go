// Command license-server runs the license verification HTTP service.
package main

import (
	"context"
	"fmt"
	"os"

	"qtxlicense/internal/app"
)

func main() {
	ctx := context.Background()

	application, err := app.NewApplication(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to start license server: %v\n", err)
		os.Exit(1)
	}

	if err := application.Run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "license server exited with error: %v\n", err)
		os.Exit(1)
	}
}
