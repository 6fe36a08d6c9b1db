// Command convert rewrites an enriched substation CSV as the final JSON
// document without fetching or downloading anything.
//
// Usage:
//
//	go run ./cmd/convert -csv enedis_data_with_images.csv -json enedis_data.json
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/couchcryptid/substation-imagery-etl/internal/observability"
	"github.com/couchcryptid/substation-imagery-etl/internal/pipeline"
	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
)

func main() {
	csvPath := flag.String("csv", sharedcfg.EnvOrDefault("CSV_PATH", "enedis_data_with_images.csv"), "enriched CSV input")
	jsonPath := flag.String("json", sharedcfg.EnvOrDefault("JSON_PATH", "enedis_data.json"), "JSON output")
	logFormat := flag.String("log-format", sharedcfg.EnvOrDefault("LOG_FORMAT", "text"), "log format: text or json")
	flag.Parse()

	if err := run(*csvPath, *jsonPath, *logFormat); err != nil {
		fmt.Fprintf(os.Stderr, "convert: %v\n", err)
		os.Exit(1)
	}
}

func run(csvPath, jsonPath, logFormat string) error {
	logger := observability.NewLoggerWith(os.Stderr, sharedcfg.EnvOrDefault("LOG_LEVEL", "info"), logFormat)
	c := pipeline.NewConverter(logger, observability.NewMetrics())

	records, err := c.ConvertFile(csvPath, jsonPath)
	if err != nil {
		return err
	}
	logger.Info("conversion complete", "records", len(records))
	return nil
}
