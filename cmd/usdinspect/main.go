// Command usdinspect inspects composed USD-style stages from the terminal.
package main

import (
	"os"

	"github.com/custodia-labs/usdinspect/internal/adapters/driving/cli"
	"github.com/custodia-labs/usdinspect/internal/logger"
)

// version is set at build time via ldflags.
var version = "dev"

func main() {
	w := newWiring()
	cli.SetVersion(version)
	cli.SetBootstrap(w.bootstrap)
	cli.SetStageOpener(w.openStage)
	cli.SetBundler(w.bundle)
	cli.SetMetricsRegistry(w.registry)

	if err := cli.Execute(); err != nil {
		logger.Error("%v", err)
		os.Exit(1)
	}
}
