// Command validate checks the outputs of a pipeline run against each other:
// the enriched CSV, the final JSON and the downloaded image files. It verifies
// row counts, slot layout, per-department caps, file naming and that every
// referenced image exists and is large enough.
//
// Usage:
//
//	go run ./cmd/validate \
//	  -csv enedis_data_with_images.csv \
//	  -json enedis_data.json \
//	  -cap 10 -min-size 20000
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/couchcryptid/substation-imagery-etl/internal/adapter/csvfile"
	"github.com/couchcryptid/substation-imagery-etl/internal/adapter/jsonfile"
	"github.com/couchcryptid/substation-imagery-etl/internal/domain"
)

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	csvPath := flag.String("csv", "enedis_data_with_images.csv", "path to the enriched CSV")
	jsonPath := flag.String("json", "enedis_data.json", "path to the final JSON")
	capPerDepartment := flag.Int("cap", 10, "per-department row cap used for the run")
	minSize := flag.Int("min-size", 20000, "minimum image size in bytes used for the run")
	flag.Parse()

	if code := run(*csvPath, *jsonPath, *capPerDepartment, *minSize); code != 0 {
		os.Exit(code)
	}
}

func run(csvPath, jsonPath string, capPerDepartment, minSize int) int {
	fmt.Println("=== Substation Output Validation ===")
	fmt.Println()

	rows, err := loadCSV(csvPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load CSV: %v\n", err)
		return 1
	}

	final, err := loadJSON(jsonPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load JSON: %v\n", err)
		return 1
	}

	phases := []*phase{
		validateRows(rows, capPerDepartment),
		validateParity(rows, final),
		validateImages(final, minSize),
	}

	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Printf("  %-42s %s\n", p.name, status)
	}

	fmt.Println()
	fmt.Printf("Records: %d CSV rows, %d JSON records\n", len(rows), len(final))

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Printf("  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Println("\nAll validations passed.")
		return 0
	}
	fmt.Println("\nValidation FAILED.")
	return 1
}

// ── Data loading ──

func loadCSV(path string) ([]map[string]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return csvfile.ReadRows(f, domain.CSVHeader)
}

func loadJSON(path string) ([]domain.FinalRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return jsonfile.Read(f)
}
