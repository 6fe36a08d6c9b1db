package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/couchcryptid/substation-imagery-etl/internal/domain"
	"github.com/couchcryptid/substation-imagery-etl/internal/observability"
)

// Fetcher collects geolocated substation records department by department.
type Fetcher struct {
	catalog     domain.Catalog
	departments int
	limit       int
	logger      *slog.Logger
	metrics     *observability.Metrics
}

// NewFetcher creates a Fetcher querying departments 1..departments with a
// request size derived from the per-department cap.
func NewFetcher(catalog domain.Catalog, departments, capPerDepartment int, logger *slog.Logger, metrics *observability.Metrics) *Fetcher {
	return &Fetcher{
		catalog:     catalog,
		departments: departments,
		limit:       domain.FetchLimit(capPerDepartment),
		logger:      logger,
		metrics:     metrics,
	}
}

// FetchAll queries every department in ascending order and returns the
// records that carry both coordinates, in response order. The first catalog
// error aborts the fetch.
func (f *Fetcher) FetchAll(ctx context.Context) ([]domain.LocationRecord, error) {
	f.logger.Info("fetch started", "departments", f.departments, "limit", f.limit)

	var records []domain.LocationRecord
	for n := 1; n <= f.departments; n++ {
		code := domain.DepartmentCode(n)

		results, err := f.catalog.FetchDepartment(ctx, code, f.limit)
		if err != nil {
			return nil, fmt.Errorf("fetch department %s: %w", code, err)
		}
		f.metrics.DepartmentsFetched.Inc()

		kept := 0
		for _, raw := range results {
			loc, ok := raw.Location()
			if !ok {
				f.metrics.RecordsNoCoords.Inc()
				f.logger.Debug("record without coordinates dropped", "department", code, "code_commune", raw.CommuneCode)
				continue
			}
			records = append(records, loc)
			kept++
			f.logger.Debug("record added",
				"code_commune", loc.CommuneCode,
				"nom_commune", loc.CommuneName,
				"latitude", loc.Latitude,
				"longitude", loc.Longitude,
			)
		}
		f.metrics.RecordsFetched.Add(float64(kept))
		f.logger.Info("department fetched", "department", code, "results", len(results), "kept", kept)
	}

	f.logger.Info("fetch finished", "departments", f.departments, "records", len(records))
	return records, nil
}
