// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/pdiddy/dx-index/pkg/types"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "initiatives.db"))
	if err != nil {
		t.Fatalf("opening store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func testDocument() types.Document {
	return types.Document{
		CompanyName: "Maybank",
		ReportType:  types.ReportAnnual,
		Year:        "2023",
		Filename:    "Maybank - Annual Report 2023.pdf",
		Path:        "data/Maybank - Annual Report 2023.pdf",
	}
}

func testInitiatives() []types.Initiative {
	return []types.Initiative{
		{
			CompanyName:    "Maybank",
			Category:       types.CategoryAIAutomation,
			Initiative:     "AI-powered credit scoring rollout",
			TechnologyUsed: "Machine Learning",
			Department:     "Risk",
			YearMentioned:  "2023",
			ExpectedImpact: "Faster loan approvals",
			SourceFile:     "Maybank - Annual Report 2023.pdf",
			ReportType:     types.ReportAnnual,
			ChunkIndex:     0,
		},
		{
			CompanyName:       "Maybank",
			Category:          types.CategoryInfrastructure,
			Initiative:        "Core banking migration to cloud",
			TechnologyUsed:    "Cloud Computing",
			YearMentioned:     "2024",
			DigitalInvestment: "RM 500 million",
			SourceFile:        "Maybank - Annual Report 2023.pdf",
			ReportType:        types.ReportAnnual,
			ChunkIndex:        3,
		},
	}
}

func TestSaveDocument_RoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	reportID, err := s.SaveDocument(ctx, testDocument(), testInitiatives())
	if err != nil {
		t.Fatalf("SaveDocument: %v", err)
	}
	if reportID == 0 {
		t.Fatal("reportID = 0")
	}

	got, err := s.ByCompany(ctx, "Maybank")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d initiatives, want 2", len(got))
	}
	for _, si := range got {
		if si.ReportID != reportID {
			t.Errorf("ReportID = %d, want %d", si.ReportID, reportID)
		}
		if si.SourceFile != "Maybank - Annual Report 2023.pdf" {
			t.Errorf("SourceFile = %q", si.SourceFile)
		}
		if si.ReportType != types.ReportAnnual {
			t.Errorf("ReportType = %q", si.ReportType)
		}
	}
}

func TestSaveDocument_ReprocessingReplacesRows(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	doc := testDocument()

	if _, err := s.SaveDocument(ctx, doc, testInitiatives()); err != nil {
		t.Fatal(err)
	}
	// Second run extracts only one initiative; the first run's rows must go.
	if _, err := s.SaveDocument(ctx, doc, testInitiatives()[:1]); err != nil {
		t.Fatal(err)
	}

	got, err := s.ByCompany(ctx, "Maybank")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 {
		t.Fatalf("got %d initiatives after re-run, want 1", len(got))
	}

	stats, err := s.Statistics(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if stats.TotalCompanies != 1 || stats.TotalReports != 1 {
		t.Errorf("companies = %d, reports = %d, want 1 and 1",
			stats.TotalCompanies, stats.TotalReports)
	}
}

func TestSaveDocument_EmptyInitiatives(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if _, err := s.SaveDocument(ctx, testDocument(), nil); err != nil {
		t.Fatal(err)
	}

	got, err := s.ByCompany(ctx, "Maybank")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 0 {
		t.Errorf("got %d initiatives, want 0", len(got))
	}
	// The report itself is still recorded as processed.
	n, err := s.ReportCount(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Errorf("reports = %d, want 1", n)
	}
}

func TestUpsertCompany_Idempotent(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	id1, err := s.UpsertCompany(ctx, "Axiata", "Telecommunications", "6888")
	if err != nil {
		t.Fatal(err)
	}
	id2, err := s.UpsertCompany(ctx, "Axiata", "", "")
	if err != nil {
		t.Fatal(err)
	}
	if id1 != id2 {
		t.Errorf("ids differ: %d vs %d", id1, id2)
	}
}

func TestUpsertReport_Idempotent(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	companyID, err := s.UpsertCompany(ctx, "CIMB", "", "")
	if err != nil {
		t.Fatal(err)
	}
	id1, err := s.UpsertReport(ctx, companyID, types.ReportAnnual, 2023, "a.pdf", "data/a.pdf")
	if err != nil {
		t.Fatal(err)
	}
	id2, err := s.UpsertReport(ctx, companyID, types.ReportAnnual, 2023, "a.pdf", "data/a.pdf")
	if err != nil {
		t.Fatal(err)
	}
	if id1 != id2 {
		t.Errorf("ids differ: %d vs %d", id1, id2)
	}
	id3, err := s.UpsertReport(ctx, companyID, types.ReportSustainability, 2023, "b.pdf", "data/b.pdf")
	if err != nil {
		t.Fatal(err)
	}
	if id3 == id1 {
		t.Error("different report type reused the same report row")
	}
}

func TestQueries(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if _, err := s.SaveDocument(ctx, testDocument(), testInitiatives()); err != nil {
		t.Fatal(err)
	}
	otherDoc := types.Document{
		CompanyName: "Tenaga Nasional",
		ReportType:  types.ReportSustainability,
		Year:        "2024",
		Filename:    "Tenaga Nasional - Sustainability Report 2024.pdf",
	}
	otherInits := []types.Initiative{{
		CompanyName:   "Tenaga Nasional",
		Category:      types.CategoryESGTech,
		Initiative:    "Smart grid emissions monitoring",
		YearMentioned: "2024",
		SourceFile:    otherDoc.Filename,
		ReportType:    types.ReportSustainability,
	}}
	if _, err := s.SaveDocument(ctx, otherDoc, otherInits); err != nil {
		t.Fatal(err)
	}

	t.Run("by company substring", func(t *testing.T) {
		got, err := s.ByCompany(ctx, "tenaga")
		if err != nil {
			t.Fatal(err)
		}
		if len(got) != 1 || got[0].CompanyName != "Tenaga Nasional" {
			t.Errorf("got %+v", got)
		}
	})

	t.Run("by category", func(t *testing.T) {
		got, err := s.ByCategory(ctx, types.CategoryAIAutomation)
		if err != nil {
			t.Fatal(err)
		}
		if len(got) != 1 || got[0].Initiative.Initiative != "AI-powered credit scoring rollout" {
			t.Errorf("got %+v", got)
		}
	})

	t.Run("by year", func(t *testing.T) {
		got, err := s.ByYear(ctx, "2024")
		if err != nil {
			t.Fatal(err)
		}
		if len(got) != 2 {
			t.Errorf("got %d initiatives for 2024, want 2", len(got))
		}
	})

	t.Run("statistics", func(t *testing.T) {
		stats, err := s.Statistics(ctx)
		if err != nil {
			t.Fatal(err)
		}
		if stats.TotalCompanies != 2 || stats.TotalReports != 2 || stats.TotalInitiatives != 3 {
			t.Errorf("totals = %d/%d/%d, want 2/2/3",
				stats.TotalCompanies, stats.TotalReports, stats.TotalInitiatives)
		}
		if stats.ByCategory[string(types.CategoryESGTech)] != 1 {
			t.Errorf("ByCategory = %v", stats.ByCategory)
		}
		if stats.ByYear["2024"] != 2 {
			t.Errorf("ByYear = %v", stats.ByYear)
		}
		if len(stats.TopCompanies) == 0 || stats.TopCompanies[0].CompanyName != "Maybank" {
			t.Errorf("TopCompanies = %v", stats.TopCompanies)
		}
	})
}

func TestExportJSON(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if _, err := s.SaveDocument(ctx, testDocument(), testInitiatives()); err != nil {
		t.Fatal(err)
	}

	path := filepath.Join(t.TempDir(), "exports", "all.json")
	if err := s.ExportJSON(ctx, path); err != nil {
		t.Fatalf("ExportJSON: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var doc exportDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("export is not valid JSON: %v", err)
	}
	if len(doc.Initiatives) != 2 {
		t.Errorf("exported %d initiatives, want 2", len(doc.Initiatives))
	}
	if doc.Statistics.TotalInitiatives != 2 {
		t.Errorf("exported stats = %+v", doc.Statistics)
	}
	if doc.ExportedAt == "" {
		t.Error("missing exported_at")
	}
}

func TestSaveDocument_CancelledContext(t *testing.T) {
	s := openTestStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.SaveDocument(ctx, testDocument(), testInitiatives())
	var werr *WriteError
	if !errors.As(err, &werr) {
		t.Fatalf("err = %v, want WriteError", err)
	}
}
