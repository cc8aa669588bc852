package main

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/fx"
)

// run blocks until a signal arrives or the app shuts itself down, then stops
// the app so scheduled checkout teardown is flushed.
func run(ctx context.Context, app *fx.App) {
	if err := app.Start(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "storefront: start: %v\n", err)
		os.Exit(1)
	}

	select {
	case <-ctx.Done():
	case <-app.Done():
	}

	if err := app.Stop(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "storefront: stop: %v\n", err)
		os.Exit(1)
	}
}
