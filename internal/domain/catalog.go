package domain

import (
	"context"
	"fmt"
)

// FetchHeadroom multiplies the per-department cap to size catalog requests,
// leaving room for records later dropped for lack of imagery.
const FetchHeadroom = 2

// GeoPoint is the catalog's geo_point_2d object. Either coordinate may be null.
type GeoPoint struct {
	Lat *float64 `json:"lat"`
	Lon *float64 `json:"lon"`
}

// CatalogRecord is one element of the catalog's "results" array.
type CatalogRecord struct {
	CommuneCode    string    `json:"code_commune"`
	CommuneName    string    `json:"nom_commune"`
	DepartmentCode string    `json:"code_departement"`
	DepartmentName string    `json:"nom_departement"`
	RegionName     string    `json:"nom_region"`
	GeoPoint       *GeoPoint `json:"geo_point_2d"`
}

// Location converts a catalog record into a LocationRecord. It reports false
// when either coordinate is missing.
func (c CatalogRecord) Location() (LocationRecord, bool) {
	if c.GeoPoint == nil || c.GeoPoint.Lat == nil || c.GeoPoint.Lon == nil {
		return LocationRecord{}, false
	}
	return LocationRecord{
		CommuneCode:    c.CommuneCode,
		CommuneName:    c.CommuneName,
		DepartmentCode: c.DepartmentCode,
		DepartmentName: c.DepartmentName,
		RegionName:     c.RegionName,
		Latitude:       *c.GeoPoint.Lat,
		Longitude:      *c.GeoPoint.Lon,
	}, true
}

// Catalog queries the open-data substation dataset.
type Catalog interface {
	// FetchDepartment returns up to limit raw records for one department code.
	FetchDepartment(ctx context.Context, code string, limit int) ([]CatalogRecord, error)
}

// DepartmentCode zero-pads a department number to two digits.
func DepartmentCode(n int) string {
	return fmt.Sprintf("%02d", n)
}

// RefineDepartment builds the catalog refine filter for a department code.
func RefineDepartment(code string) string {
	return "code_departement:" + code
}

// FetchLimit returns the catalog request size for a per-department cap.
func FetchLimit(capPerDepartment int) int {
	return capPerDepartment * FetchHeadroom
}
