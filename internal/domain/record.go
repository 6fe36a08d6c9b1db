package domain

import (
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
)

// ErrMissingColumn is returned when a CSV header lacks a required column.
var ErrMissingColumn = errors.New("missing column")

// ImageSlots is the fixed number of image paths carried by every output row.
const ImageSlots = 4

// Headings are the compass bearings scanned for each location, in order.
var Headings = []int{0, 90, 180, 270}

// CSV column names shared by the enriched CSV and the final JSON.
const (
	ColCommuneCode    = "code_commune"
	ColCommuneName    = "nom_commune"
	ColDepartmentCode = "code_departement"
	ColDepartmentName = "nom_departement"
	ColRegionName     = "nom_region"
	ColLatitude       = "latitude"
	ColLongitude      = "longitude"
)

// ImageColumns are the slot columns of the enriched CSV, in slot order.
var ImageColumns = []string{"image_1", "image_2", "image_3", "image_4"}

// CSVHeader is the fixed header of the enriched CSV file.
var CSVHeader = []string{
	ColCommuneCode, ColCommuneName, ColDepartmentCode, ColDepartmentName, ColRegionName,
	ColLatitude, ColLongitude,
	ImageColumns[0], ImageColumns[1], ImageColumns[2], ImageColumns[3],
}

// LocationRecord is a geolocated substation as returned by the catalog.
type LocationRecord struct {
	CommuneCode    string
	CommuneName    string
	DepartmentCode string
	DepartmentName string
	RegionName     string
	Latitude       float64
	Longitude      float64
}

// EnrichedRecord is a LocationRecord with its image slots filled.
type EnrichedRecord struct {
	LocationRecord
	Images [ImageSlots]string
}

// Row renders the record in CSVHeader column order.
func (r EnrichedRecord) Row() []string {
	row := []string{
		r.CommuneCode,
		r.CommuneName,
		r.DepartmentCode,
		r.DepartmentName,
		r.RegionName,
		FormatCoordinate(r.Latitude),
		FormatCoordinate(r.Longitude),
	}
	return append(row, r.Images[:]...)
}

// FinalRecord is the JSON form of an enriched record. Field order is the
// serialization order and must stay stable.
type FinalRecord struct {
	CommuneCode    string   `json:"code_commune"`
	CommuneName    string   `json:"nom_commune"`
	DepartmentCode string   `json:"code_departement"`
	DepartmentName string   `json:"nom_departement"`
	RegionName     string   `json:"nom_region"`
	Latitude       float64  `json:"latitude"`
	Longitude      float64  `json:"longitude"`
	Images         []string `json:"images"`
}

// ImageCount returns the number of non-empty image paths.
func (f FinalRecord) ImageCount() int {
	n := 0
	for _, p := range f.Images {
		if p != "" {
			n++
		}
	}
	return n
}

// FinalFromRow builds a FinalRecord from a CSV row keyed by column name.
// Coordinates must parse as floats; string fields are copied verbatim.
func FinalFromRow(row map[string]string) (FinalRecord, error) {
	lat, err := parseCoordinate(row[ColLatitude])
	if err != nil {
		return FinalRecord{}, fmt.Errorf("parse %s: %w", ColLatitude, err)
	}
	lon, err := parseCoordinate(row[ColLongitude])
	if err != nil {
		return FinalRecord{}, fmt.Errorf("parse %s: %w", ColLongitude, err)
	}

	images := make([]string, 0, ImageSlots)
	for _, col := range ImageColumns {
		images = append(images, row[col])
	}

	return FinalRecord{
		CommuneCode:    row[ColCommuneCode],
		CommuneName:    row[ColCommuneName],
		DepartmentCode: row[ColDepartmentCode],
		DepartmentName: row[ColDepartmentName],
		RegionName:     row[ColRegionName],
		Latitude:       lat,
		Longitude:      lon,
		Images:         images,
	}, nil
}

// FormatCoordinate renders a coordinate in its shortest round-trip form.
func FormatCoordinate(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// FormatLocation renders the "lat,lon" parameter used by the imagery API.
func FormatLocation(lat, lon float64) string {
	return FormatCoordinate(lat) + "," + FormatCoordinate(lon)
}

func parseCoordinate(s string) (float64, error) {
	return strconv.ParseFloat(strings.TrimSpace(s), 64)
}

// ImageBasePath returns the per-record file prefix, e.g. "images/image_12".
func ImageBasePath(dir string, index int) string {
	return filepath.Join(dir, fmt.Sprintf("image_%d", index))
}

// ImagePath returns the file name for the image saved into the given slot.
func ImagePath(basePath string, slot int) string {
	return fmt.Sprintf("%s_heading_%d.jpg", basePath, slot)
}
