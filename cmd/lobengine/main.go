// Command lobengine runs the matching engine over a CSV transaction
// stream: `lobengine [-t | --trading-enabled] <path-to.csv>`.
package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"driftbook/internal/engine"
	"driftbook/internal/ingress"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	tradingEnabled, inputPath := parseArgs(os.Args[1:])
	if inputPath == "" {
		fmt.Fprintln(os.Stderr, "usage: lobengine [-t | --trading-enabled] <path-to.csv>")
		os.Exit(1)
	}

	file, err := os.Open(inputPath)
	if err != nil {
		log.Error().Err(err).Str("path", inputPath).Msg("unable to open input file")
		os.Exit(1)
	}
	defer file.Close()

	registry := engine.NewOrderBooks(tradingEnabled)
	pipeline := ingress.NewPipeline(registry, os.Stdout)

	if err := pipeline.Run(context.Background(), file); err != nil {
		log.Error().Err(err).Msg("pipeline aborted")
		os.Exit(1)
	}
}

// parseArgs mirrors the source's order-independent argument scan: a
// trading-enabled flag and the input path may appear in either order.
func parseArgs(args []string) (tradingEnabled bool, inputPath string) {
	for _, arg := range args {
		switch {
		case arg == "-t" || arg == "--trading-enabled":
			tradingEnabled = true
		case strings.HasSuffix(arg, ".csv"):
			inputPath = arg
		}
	}
	return tradingEnabled, inputPath
}
