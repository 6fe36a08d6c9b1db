// Package domain models electrical substation records from the Enedis open-data
// catalog and the street-level imagery attached to them.
//
// # Data Source
//
// Substation locations come from the "poste-electrique" dataset of the Enedis
// open-data portal (Opendatasoft Explore API v2.1). The catalog is queried once
// per French department, filtered with refine=code_departement:<code>. Each
// result carries administrative labels (commune, department, region) and an
// optional geo_point_2d object holding lat/lon.
//
// # Department Codes
//
// Departments are iterated 1..N and zero-padded to two digits: 1 -> "01",
// 13 -> "13". Corsica (2A/2B) and overseas codes are never generated.
//
// # Imagery Conventions
//
// Street-level imagery follows the Google Street View Static API:
//
//	metadata: GET <base>/metadata?location=<lat>,<lon>&heading=<deg>&key=<key>
//	          -> {"status": "OK" | "ZERO_RESULTS" | ...}
//	image:    GET <base>?size=600x400&location=<lat>,<lon>&heading=<deg>&key=<key>
//	          -> raw JPEG bytes
//
// Headings are scanned in the fixed order 0, 90, 180, 270. The provider returns
// a small grey placeholder instead of an error when nothing is available, so
// images at or below a configured byte size are discarded.
//
// # Slots
//
// A record carries exactly four image slots. Saved images fill slots in scan
// order and the remainder is padded with empty strings, so a slot position does
// not identify a heading. See [PadImages].
package domain
