// Command catalogctl inspects catalog configuration documents offline.
package main

import (
	"os"

	"opdsapi/internal/logging"
)

func main() {
	logging.Init(logging.Config{Level: "warn", Format: "console", Output: os.Stderr})
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
