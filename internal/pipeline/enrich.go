package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/couchcryptid/substation-imagery-etl/internal/domain"
	"github.com/couchcryptid/substation-imagery-etl/internal/observability"
)

// RowWriter receives enriched rows. csvfile.Writer implements it.
type RowWriter interface {
	Write(rec domain.EnrichedRecord) error
}

// Enricher downloads street-level images for each location and emits the
// rows that end up with at least one image.
type Enricher struct {
	imagery  domain.Imagery
	imageDir string
	limit    int
	minSize  int
	logger   *slog.Logger
	metrics  *observability.Metrics
}

// NewEnricher creates an Enricher saving images under imageDir. At most
// capPerDepartment records are attempted per department; images must be
// strictly larger than minImageSize bytes.
func NewEnricher(imagery domain.Imagery, imageDir string, capPerDepartment, minImageSize int, logger *slog.Logger, metrics *observability.Metrics) *Enricher {
	return &Enricher{
		imagery:  imagery,
		imageDir: imageDir,
		limit:    capPerDepartment,
		minSize:  minImageSize,
		logger:   logger,
		metrics:  metrics,
	}
}

// Enrich processes records in order and writes qualifying rows to w. It
// returns the number of rows written.
//
// A department stops being processed once its cap is reached and is never
// resumed. Capped records keep their position in the image file names.
func (e *Enricher) Enrich(ctx context.Context, records []domain.LocationRecord, w RowWriter) (int, error) {
	if err := os.MkdirAll(e.imageDir, 0o755); err != nil {
		return 0, fmt.Errorf("create image directory: %w", err)
	}

	counts := domain.DepartmentCounts{}
	written := 0

	for index, rec := range records {
		dept := rec.DepartmentCode
		if !domain.UnderCap(dept, counts, e.limit) {
			e.metrics.RecordsCapped.Inc()
			e.logger.Debug("department cap reached, record skipped", "department", dept, "index", index)
			continue
		}
		counts[dept]++

		base := domain.ImageBasePath(e.imageDir, index)
		images, err := e.DownloadImagesForLocation(ctx, rec.Latitude, rec.Longitude, base)
		if err != nil {
			return written, fmt.Errorf("record %d (%s): %w", index, rec.CommuneCode, err)
		}

		if !domain.HasAnyImage(images) {
			e.metrics.RowsDropped.Inc()
			e.logger.Info("row dropped, no valid image", "code_commune", rec.CommuneCode, "latitude", rec.Latitude, "longitude", rec.Longitude)
			continue
		}

		if err := w.Write(domain.EnrichedRecord{LocationRecord: rec, Images: images}); err != nil {
			return written, err
		}
		written++
		e.metrics.RowsWritten.Inc()
		e.logger.Info("row written", "code_commune", rec.CommuneCode, "images", countImages(images))
	}

	return written, nil
}

// DownloadImagesForLocation scans the headings in order and saves every image
// that passes the metadata and size checks. Saved images fill slots
// sequentially; unused slots are empty.
func (e *Enricher) DownloadImagesForLocation(ctx context.Context, lat, lon float64, basePath string) ([domain.ImageSlots]string, error) {
	paths := make([]string, 0, domain.ImageSlots)

	for _, heading := range domain.Headings {
		ok, err := e.imageExists(ctx, lat, lon, heading)
		if err != nil {
			return [domain.ImageSlots]string{}, err
		}
		if !ok {
			continue
		}

		img, err := e.imagery.Image(ctx, lat, lon, heading)
		if err != nil {
			return [domain.ImageSlots]string{}, fmt.Errorf("download heading %d: %w", heading, err)
		}

		switch {
		case img.StatusCode != http.StatusOK:
			e.metrics.ImageDownloads.WithLabelValues(observability.OutcomeHTTPError).Inc()
			e.logger.Warn("image download failed", "heading", heading, "status", img.StatusCode)
		case !img.Valid(e.minSize):
			e.metrics.ImageDownloads.WithLabelValues(observability.OutcomeTooSmall).Inc()
			e.logger.Debug("image too small", "heading", heading, "bytes", len(img.Body), "min_bytes", e.minSize)
		default:
			path := domain.ImagePath(basePath, len(paths))
			if err := os.WriteFile(path, img.Body, 0o644); err != nil {
				return [domain.ImageSlots]string{}, fmt.Errorf("save image: %w", err)
			}
			paths = append(paths, path)
			e.metrics.ImageDownloads.WithLabelValues(observability.OutcomeSaved).Inc()
			e.logger.Debug("image saved", "path", path, "heading", heading, "bytes", len(img.Body))
		}

		if len(paths) == domain.ImageSlots {
			break
		}
	}

	return domain.PadImages(paths), nil
}

// imageExists runs the metadata check for one heading.
func (e *Enricher) imageExists(ctx context.Context, lat, lon float64, heading int) (bool, error) {
	meta, err := e.imagery.Metadata(ctx, lat, lon, heading)
	if err != nil {
		return false, fmt.Errorf("metadata heading %d: %w", heading, err)
	}

	switch {
	case meta.StatusCode != http.StatusOK:
		e.metrics.MetadataChecks.WithLabelValues(observability.OutcomeHTTPError).Inc()
		e.logger.Warn("metadata lookup failed", "latitude", lat, "longitude", lon, "heading", heading, "status", meta.StatusCode)
		return false, nil
	case !meta.Available():
		e.metrics.MetadataChecks.WithLabelValues(observability.OutcomeUnavailable).Inc()
		e.logger.Debug("no image at heading", "latitude", lat, "longitude", lon, "heading", heading, "status", meta.Status)
		return false, nil
	}

	e.metrics.MetadataChecks.WithLabelValues(observability.OutcomeAvailable).Inc()
	return true, nil
}

func countImages(images [domain.ImageSlots]string) int {
	n := 0
	for _, p := range images {
		if p != "" {
			n++
		}
	}
	return n
}
