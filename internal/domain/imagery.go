package domain

import (
	"context"
	"net/http"
)

// MetadataStatusOK is the metadata body status signalling an available image.
const MetadataStatusOK = "OK"

// ImageSize is the dimension requested from the imagery endpoint.
const ImageSize = "600x400"

// MetadataResult is the outcome of an imagery metadata lookup.
type MetadataResult struct {
	StatusCode int
	Status     string // body "status" field, empty when the response was not 200
}

// Available reports whether an image exists. Anything other than HTTP 200 with
// status "OK" counts as unavailable.
func (m MetadataResult) Available() bool {
	return m.StatusCode == http.StatusOK && m.Status == MetadataStatusOK
}

// ImageResponse is a downloaded image. Body is only populated on HTTP 200.
type ImageResponse struct {
	StatusCode int
	Body       []byte
}

// Valid reports whether the download succeeded and is strictly larger than
// minSize bytes.
func (r ImageResponse) Valid(minSize int) bool {
	return r.StatusCode == http.StatusOK && len(r.Body) > minSize
}

// Imagery looks up and downloads street-level images.
type Imagery interface {
	// Metadata checks whether imagery exists at a location and heading.
	Metadata(ctx context.Context, lat, lon float64, heading int) (MetadataResult, error)

	// Image downloads the image at a location and heading.
	Image(ctx context.Context, lat, lon float64, heading int) (ImageResponse, error)
}
