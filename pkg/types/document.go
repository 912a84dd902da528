// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// Report type names as they appear in filenames and the reports table.
const (
	ReportAnnual               = "Annual Report"
	ReportCorporateGovernance  = "Corporate Governance Report"
	ReportSustainability       = "Sustainability Report"
	ReportOther                = "Other"
)

// Document identifies one source report file. Identity is parsed from the
// filename (or supplied as metadata) before processing and is immutable
// from then on.
type Document struct {
	// CompanyName is the reporting company, e.g. "Maybank".
	CompanyName string `json:"company_name" yaml:"company_name"`

	// ReportType is one of the Report* constants.
	ReportType string `json:"report_type" yaml:"report_type"`

	// Year is the report year as found in the filename ("2023"), or ""
	// when no year could be parsed.
	Year string `json:"year" yaml:"year"`

	// Filename is the base name of the source PDF.
	Filename string `json:"filename" yaml:"filename"`

	// Path is the full path to the source PDF.
	Path string `json:"path" yaml:"path"`
}
