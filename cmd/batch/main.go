// Command batch applies the deadline outcome to every tour whose
// registrations are closed, then exits. It is meant to be run from an
// external scheduler when the in-process one is disabled.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"
	_ "time/tzdata"

	_ "github.com/joho/godotenv/autoload" // Autoload .env file.
	"go.uber.org/zap"

	"github.com/flyerdrop/tournees-api/cmd/app"
)

func main() {
	timeout := flag.Duration("timeout", 10*time.Minute, "maximum duration of the run")
	flag.Parse()

	if err := app.RunBatch(*timeout); err != nil {
		// The global logger is a no-op when setup failed early.
		fmt.Fprintln(os.Stderr, err)
		_ = zap.L().Sync()
		os.Exit(1)
	}

	zap.L().Info("status batch finished")
	_ = zap.L().Sync()
}
