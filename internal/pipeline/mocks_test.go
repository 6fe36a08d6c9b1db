package pipeline_test

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"sync"

	"github.com/couchcryptid/substation-imagery-etl/internal/domain"
	"github.com/couchcryptid/substation-imagery-etl/internal/observability"
)

const testMinSize = 100

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestMetrics() *observability.Metrics {
	return observability.NewMetricsForTesting()
}

func ptr(v float64) *float64 { return &v }

func catalogRecord(commune, dept string, lat, lon *float64) domain.CatalogRecord {
	rec := domain.CatalogRecord{
		CommuneCode:    commune,
		CommuneName:    "Commune " + commune,
		DepartmentCode: dept,
		DepartmentName: "Département " + dept,
		RegionName:     "Région",
	}
	if lat != nil || lon != nil {
		rec.GeoPoint = &domain.GeoPoint{Lat: lat, Lon: lon}
	}
	return rec
}

func location(commune, dept string, lat, lon float64) domain.LocationRecord {
	return domain.LocationRecord{
		CommuneCode:    commune,
		CommuneName:    "Commune " + commune,
		DepartmentCode: dept,
		DepartmentName: "Département " + dept,
		RegionName:     "Région",
		Latitude:       lat,
		Longitude:      lon,
	}
}

// --- catalog ---

type catalogCall struct {
	code  string
	limit int
}

type mockCatalog struct {
	byDept map[string][]domain.CatalogRecord
	errOn  map[string]error
	calls  []catalogCall
}

func (m *mockCatalog) FetchDepartment(_ context.Context, code string, limit int) ([]domain.CatalogRecord, error) {
	m.calls = append(m.calls, catalogCall{code: code, limit: limit})
	if err := m.errOn[code]; err != nil {
		return nil, err
	}
	return m.byDept[code], nil
}

// --- imagery ---

var (
	metaOK      = domain.MetadataResult{StatusCode: http.StatusOK, Status: domain.MetadataStatusOK}
	metaZero    = domain.MetadataResult{StatusCode: http.StatusOK, Status: "ZERO_RESULTS"}
	metaDenied  = domain.MetadataResult{StatusCode: http.StatusForbidden}
	imageGood   = domain.ImageResponse{StatusCode: http.StatusOK, Body: bytes.Repeat([]byte{0xD8}, testMinSize+1)}
	imageTiny   = domain.ImageResponse{StatusCode: http.StatusOK, Body: bytes.Repeat([]byte{0xD8}, testMinSize)}
	imageFailed = domain.ImageResponse{StatusCode: http.StatusInternalServerError}
)

type imageryCall struct {
	lat     float64
	heading int
}

// mockImagery answers per heading. Headings without an entry report no
// imagery. Locations listed in blank never have imagery.
type mockImagery struct {
	mu         sync.Mutex
	meta       map[int]domain.MetadataResult
	images     map[int]domain.ImageResponse
	blank      map[float64]bool
	metaErr    error
	imageErr   error
	metaCalls  []imageryCall
	imageCalls []imageryCall
}

func fullImagery() *mockImagery {
	m := &mockImagery{meta: map[int]domain.MetadataResult{}, images: map[int]domain.ImageResponse{}}
	for _, h := range domain.Headings {
		m.meta[h] = metaOK
		m.images[h] = imageGood
	}
	return m
}

func (m *mockImagery) Metadata(_ context.Context, lat, _ float64, heading int) (domain.MetadataResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.metaCalls = append(m.metaCalls, imageryCall{lat: lat, heading: heading})
	if m.metaErr != nil {
		return domain.MetadataResult{}, m.metaErr
	}
	if m.blank[lat] {
		return metaZero, nil
	}
	if r, ok := m.meta[heading]; ok {
		return r, nil
	}
	return metaZero, nil
}

func (m *mockImagery) Image(_ context.Context, lat, _ float64, heading int) (domain.ImageResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.imageCalls = append(m.imageCalls, imageryCall{lat: lat, heading: heading})
	if m.imageErr != nil {
		return domain.ImageResponse{}, m.imageErr
	}
	return m.images[heading], nil
}

func (m *mockImagery) metadataLatitudes() map[float64]bool {
	seen := map[float64]bool{}
	for _, c := range m.metaCalls {
		seen[c.lat] = true
	}
	return seen
}

// --- writers ---

type memoryRows struct {
	rows []domain.EnrichedRecord
	err  error
}

func (m *memoryRows) Write(rec domain.EnrichedRecord) error {
	if m.err != nil {
		return m.err
	}
	m.rows = append(m.rows, rec)
	return nil
}

type mockPublisher struct {
	published []domain.FinalRecord
	err       error
}

func (m *mockPublisher) LoadBatch(_ context.Context, records []domain.FinalRecord) error {
	if m.err != nil {
		return m.err
	}
	m.published = append(m.published, records...)
	return nil
}
