package pipeline_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/couchcryptid/substation-imagery-etl/internal/domain"
	"github.com/couchcryptid/substation-imagery-etl/internal/observability"
	"github.com/couchcryptid/substation-imagery-etl/internal/pipeline"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEnricher(t *testing.T, imagery domain.Imagery, limit int) (*pipeline.Enricher, string, *observability.Metrics) {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "images")
	metrics := newTestMetrics()
	return pipeline.NewEnricher(imagery, dir, limit, testMinSize, discardLogger(), metrics), dir, metrics
}

func TestDownloadImagesForLocation_SlotsFillSequentially(t *testing.T) {
	imagery := &mockImagery{
		meta: map[int]domain.MetadataResult{
			0:   metaOK,
			90:  metaZero,
			180: metaOK,
			270: metaDenied,
		},
		images: map[int]domain.ImageResponse{0: imageGood, 180: imageGood},
	}
	e, dir, metrics := newEnricher(t, imagery, 10)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	base := filepath.Join(dir, "image_7")

	slots, err := e.DownloadImagesForLocation(context.Background(), 45.5, 4.8, base)
	require.NoError(t, err)

	assert.Equal(t, [domain.ImageSlots]string{base + "_heading_0.jpg", base + "_heading_1.jpg", "", ""}, slots)
	for _, p := range slots[:2] {
		data, err := os.ReadFile(p)
		require.NoError(t, err)
		assert.Equal(t, imageGood.Body, data)
	}

	assert.Equal(t, []imageryCall{{45.5, 0}, {45.5, 180}}, imagery.imageCalls, "only available headings are downloaded")
	assert.InDelta(t, 2, testutil.ToFloat64(metrics.MetadataChecks.WithLabelValues(observability.OutcomeAvailable)), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.MetadataChecks.WithLabelValues(observability.OutcomeUnavailable)), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.MetadataChecks.WithLabelValues(observability.OutcomeHTTPError)), 0)
}

func TestDownloadImagesForLocation_UndersizedCountsAsFailure(t *testing.T) {
	imagery := fullImagery()
	imagery.images[0] = imageTiny
	imagery.images[90] = imageFailed

	e, dir, metrics := newEnricher(t, imagery, 10)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	base := filepath.Join(dir, "image_0")

	slots, err := e.DownloadImagesForLocation(context.Background(), 1, 2, base)
	require.NoError(t, err)

	assert.Equal(t, [domain.ImageSlots]string{base + "_heading_0.jpg", base + "_heading_1.jpg", "", ""}, slots)
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.ImageDownloads.WithLabelValues(observability.OutcomeTooSmall)), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.ImageDownloads.WithLabelValues(observability.OutcomeHTTPError)), 0)
	assert.InDelta(t, 2, testutil.ToFloat64(metrics.ImageDownloads.WithLabelValues(observability.OutcomeSaved)), 0)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 2, "rejected images are not written")
}

func TestDownloadImagesForLocation_AllHeadings(t *testing.T) {
	e, dir, _ := newEnricher(t, fullImagery(), 10)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	base := filepath.Join(dir, "image_3")

	slots, err := e.DownloadImagesForLocation(context.Background(), 1, 2, base)
	require.NoError(t, err)
	for i, p := range slots {
		assert.Equal(t, domain.ImagePath(base, i), p)
	}
}

func TestDownloadImagesForLocation_NoImagery(t *testing.T) {
	imagery := &mockImagery{}
	e, _, _ := newEnricher(t, imagery, 10)

	slots, err := e.DownloadImagesForLocation(context.Background(), 1, 2, "unused")
	require.NoError(t, err)
	assert.False(t, domain.HasAnyImage(slots))
	assert.Len(t, imagery.metaCalls, len(domain.Headings))
	assert.Empty(t, imagery.imageCalls)
}

func TestDownloadImagesForLocation_TransportErrorIsFatal(t *testing.T) {
	boom := errors.New("dial tcp: i/o timeout")

	t.Run("metadata", func(t *testing.T) {
		imagery := fullImagery()
		imagery.metaErr = boom
		e, _, _ := newEnricher(t, imagery, 10)

		_, err := e.DownloadImagesForLocation(context.Background(), 1, 2, "unused")
		require.ErrorIs(t, err, boom)
		assert.Len(t, imagery.metaCalls, 1)
	})

	t.Run("image", func(t *testing.T) {
		imagery := fullImagery()
		imagery.imageErr = boom
		e, _, _ := newEnricher(t, imagery, 10)

		_, err := e.DownloadImagesForLocation(context.Background(), 1, 2, "unused")
		require.ErrorIs(t, err, boom)
		assert.Len(t, imagery.imageCalls, 1)
	})
}

func TestEnrich_CapLimitsAttemptsPerDepartment(t *testing.T) {
	records := make([]domain.LocationRecord, 12)
	for i := range records {
		records[i] = location("010"+string(rune('a'+i)), "01", float64(i+1), 5)
	}

	imagery := fullImagery()
	imagery.blank = map[float64]bool{3: true, 6: true}

	e, dir, metrics := newEnricher(t, imagery, 10)
	rows := &memoryRows{}

	written, err := e.Enrich(context.Background(), records, rows)
	require.NoError(t, err)

	assert.Equal(t, 8, written)
	assert.Len(t, rows.rows, 8)
	assert.InDelta(t, 2, testutil.ToFloat64(metrics.RecordsCapped), 0)
	assert.InDelta(t, 2, testutil.ToFloat64(metrics.RowsDropped), 0)
	assert.InDelta(t, 8, testutil.ToFloat64(metrics.RowsWritten), 0)

	seen := imagery.metadataLatitudes()
	assert.Len(t, seen, 10, "at most cap records are attempted")
	assert.False(t, seen[11])
	assert.False(t, seen[12])

	for _, row := range rows.rows {
		assert.True(t, domain.HasAnyImage(row.Images))
		assert.NotEqual(t, 3.0, row.Latitude)
		assert.NotEqual(t, 6.0, row.Latitude)
	}

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestEnrich_CappedDepartmentNeverResumes(t *testing.T) {
	records := []domain.LocationRecord{
		location("01001", "01", 1, 1),
		location("01002", "01", 2, 2),
		location("02001", "02", 3, 3),
		location("01003", "01", 4, 4),
	}
	imagery := &mockImagery{
		meta:   map[int]domain.MetadataResult{0: metaOK},
		images: map[int]domain.ImageResponse{0: imageGood},
	}
	e, dir, _ := newEnricher(t, imagery, 1)
	rows := &memoryRows{}

	_, err := e.Enrich(context.Background(), records, rows)
	require.NoError(t, err)

	require.Len(t, rows.rows, 2)
	assert.Equal(t, "01001", rows.rows[0].CommuneCode)
	assert.Equal(t, "02001", rows.rows[1].CommuneCode)

	// File names keep the record's position in the fetched sequence.
	assert.Equal(t, filepath.Join(dir, "image_0_heading_0.jpg"), rows.rows[0].Images[0])
	assert.Equal(t, filepath.Join(dir, "image_2_heading_0.jpg"), rows.rows[1].Images[0])
}

func TestEnrich_DroppedRowsStillCountTowardCap(t *testing.T) {
	records := []domain.LocationRecord{
		location("01001", "01", 1, 1),
		location("01002", "01", 2, 2),
	}
	imagery := fullImagery()
	imagery.blank = map[float64]bool{1: true}

	e, _, _ := newEnricher(t, imagery, 1)
	rows := &memoryRows{}

	written, err := e.Enrich(context.Background(), records, rows)
	require.NoError(t, err)
	assert.Zero(t, written)
	assert.Empty(t, rows.rows)
	assert.False(t, imagery.metadataLatitudes()[2])
}

func TestEnrich_WriterErrorStops(t *testing.T) {
	boom := errors.New("disk full")
	records := []domain.LocationRecord{location("01001", "01", 1, 1), location("01002", "01", 2, 2)}
	imagery := fullImagery()

	e, _, _ := newEnricher(t, imagery, 10)
	written, err := e.Enrich(context.Background(), records, &memoryRows{err: boom})
	require.ErrorIs(t, err, boom)
	assert.Zero(t, written)
	assert.False(t, imagery.metadataLatitudes()[2])
}

func TestEnrich_ImageDirUnwritable(t *testing.T) {
	parent := t.TempDir()
	blocker := filepath.Join(parent, "images")
	require.NoError(t, os.WriteFile(blocker, []byte("not a dir"), 0o644))

	e := pipeline.NewEnricher(fullImagery(), blocker, 10, testMinSize, discardLogger(), newTestMetrics())
	_, err := e.Enrich(context.Background(), nil, &memoryRows{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "create image directory")
}
