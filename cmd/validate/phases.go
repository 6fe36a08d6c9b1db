package main

import (
	"fmt"
	"os"
	"regexp"

	"github.com/couchcryptid/substation-imagery-etl/internal/domain"
	"github.com/google/go-cmp/cmp"
)

var imageNamePattern = regexp.MustCompile(`image_\d+_heading_(\d)\.jpg$`)

// ── Phase 1: Row layout ──
// Every row carries at least one image, slots are packed from the left and
// no department exceeds the cap.

func validateRows(rows []map[string]string, capPerDepartment int) *phase {
	p := &phase{name: "Phase 1: Row Layout (CSV)"}

	perDept := domain.DepartmentCounts{}
	for i, row := range rows {
		line := i + 2
		perDept[row[domain.ColDepartmentCode]]++

		var slots [domain.ImageSlots]string
		for s, col := range domain.ImageColumns {
			slots[s] = row[col]
		}
		if !domain.HasAnyImage(slots) {
			p.errorf("line %d: no image in any slot", line)
			continue
		}

		seenEmpty := false
		for s, path := range slots {
			if path == "" {
				seenEmpty = true
				continue
			}
			if seenEmpty {
				p.errorf("line %d: %s filled after an empty slot", line, domain.ImageColumns[s])
			}
			checkSlotName(p, line, s, path)
		}
	}

	for dept, n := range perDept {
		if n > capPerDepartment {
			p.errorf("department %s: %d rows exceed cap %d", dept, n, capPerDepartment)
		}
	}
	return p
}

func checkSlotName(p *phase, line, slot int, path string) {
	m := imageNamePattern.FindStringSubmatch(path)
	if m == nil {
		p.errorf("line %d: unexpected image name %q", line, path)
		return
	}
	if want := fmt.Sprint(slot); m[1] != want {
		p.errorf("line %d: %q sits in slot %d", line, path, slot)
	}
}

// ── Phase 2: CSV/JSON parity ──
// The JSON must be exactly the conversion of the CSV.

func validateParity(rows []map[string]string, final []domain.FinalRecord) *phase {
	p := &phase{name: "Phase 2: Parity (JSON vs CSV)"}

	if len(rows) != len(final) {
		p.errorf("count: CSV has %d rows, JSON has %d records", len(rows), len(final))
		return p
	}

	for i, row := range rows {
		want, err := domain.FinalFromRow(row)
		if err != nil {
			p.errorf("line %d: %v", i+2, err)
			continue
		}
		if diff := cmp.Diff(want, final[i]); diff != "" {
			p.errorf("record %d (%s) differs (-csv +json):\n%s", i, want.CommuneCode, diff)
		}
	}
	return p
}

// ── Phase 3: Image files ──
// Every referenced file exists and is strictly larger than the minimum size.

func validateImages(final []domain.FinalRecord, minSize int) *phase {
	p := &phase{name: "Phase 3: Image Files"}

	seen := map[string]bool{}
	for i, rec := range final {
		for _, path := range rec.Images {
			if path == "" {
				continue
			}
			if seen[path] {
				p.errorf("record %d: %s referenced more than once", i, path)
				continue
			}
			seen[path] = true

			info, err := os.Stat(path)
			if err != nil {
				p.errorf("record %d: %v", i, err)
				continue
			}
			if info.Size() <= int64(minSize) {
				p.errorf("record %d: %s is %d bytes, want more than %d", i, path, info.Size(), minSize)
			}
		}
	}
	return p
}
