// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pdftext

import (
	"path/filepath"
	"regexp"
	"strings"

	"github.com/pdiddy/dx-index/pkg/types"
)

// yearPattern matches the supported report-year window.
var yearPattern = regexp.MustCompile(`\b(202[2-5])\b`)

// separatorPattern collapses the -, _ and whitespace runs left behind once
// year and report type are removed from a filename.
var separatorPattern = regexp.MustCompile(`[-_\s]+`)

// reportTypeIndicators maps filename fragments to report types, tried in
// order. Underscored variants cover "Company_Annual Report_2023.pdf"-style
// names.
var reportTypeIndicators = []struct {
	fragment   string
	reportType string
}{
	{"Annual Report", types.ReportAnnual},
	{"Annual_Report", types.ReportAnnual},
	{"Corporate Governance Report", types.ReportCorporateGovernance},
	{"Corporate_Governance_Report", types.ReportCorporateGovernance},
	{"Corporate Governance", types.ReportCorporateGovernance},
	{"CG Report", types.ReportCorporateGovernance},
	{"Sustainability Report", types.ReportSustainability},
	{"Sustainability_Report", types.ReportSustainability},
	{"Sustainability", types.ReportSustainability},
	{"ESG Report", types.ReportSustainability},
	{"ESG", types.ReportSustainability},
}

// ParseFilename derives a Document's identity from its filename. Expected
// shapes:
//
//	CompanyName - Annual Report 2023.pdf
//	CompanyName_Sustainability Report_2024.pdf
//
// Missing pieces degrade gracefully: unknown report types become
// ReportOther and an unmatched year stays empty.
func ParseFilename(path string) types.Document {
	filename := filepath.Base(path)
	doc := types.Document{
		Filename:   filename,
		Path:       path,
		ReportType: types.ReportOther,
	}

	name := strings.TrimSuffix(filename, filepath.Ext(filename))

	if m := yearPattern.FindString(name); m != "" {
		doc.Year = m
		name = strings.Replace(name, m, "", 1)
	}

	for _, ind := range reportTypeIndicators {
		if idx := indexFold(name, ind.fragment); idx >= 0 {
			doc.ReportType = ind.reportType
			name = name[:idx] + name[idx+len(ind.fragment):]
			break
		}
	}

	doc.CompanyName = strings.TrimSpace(separatorPattern.ReplaceAllString(name, " "))
	return doc
}

// indexFold is a case-insensitive strings.Index.
func indexFold(s, substr string) int {
	return strings.Index(strings.ToLower(s), strings.ToLower(substr))
}
