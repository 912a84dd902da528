// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package normalize

import (
	"bytes"
	"strings"
	"testing"

	"github.com/pdiddy/dx-index/pkg/types"
)

func testDoc() types.Document {
	return types.Document{
		CompanyName: "Acme Bhd",
		ReportType:  types.ReportAnnual,
		Year:        "2023",
		Filename:    "Acme Bhd - Annual Report 2023.pdf",
	}
}

// --- category coercion ---

func TestCoerceCategory(t *testing.T) {
	tests := []struct {
		raw         string
		want        types.Category
		wantCoerced bool
	}{
		{"Digital Infrastructure", types.CategoryInfrastructure, false},
		{"digital infrastructure", types.CategoryInfrastructure, false},
		{"AI & Automation", types.CategoryAIAutomation, false},
		{"  ESG Tech  ", types.CategoryESGTech, false},
		{"Cloud Computing", types.CategoryInfrastructure, true},
		{"ERP modernisation", types.CategoryInfrastructure, true},
		{"AI-powered Forecasting", types.CategoryAIAutomation, true},
		{"Data Analytics Platform", types.CategoryAIAutomation, true},
		{"Information Security", types.CategoryCybersecurity, true},
		{"Data Protection & Compliance", types.CategoryCybersecurity, true},
		{"Customer Engagement", types.CategoryCustomerExperience, true},
		{"Mobile Banking", types.CategoryCustomerExperience, true},
		{"Sustainability Technology", types.CategoryESGTech, true},
		{"Green IT", types.CategoryESGTech, true},
		{"Workforce Development", types.CategoryUncategorized, true},
		{"", types.CategoryUncategorized, true},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, coerced := CoerceCategory(tt.raw)
			if got != tt.want {
				t.Errorf("CoerceCategory(%q) = %q, want %q", tt.raw, got, tt.want)
			}
			if coerced != tt.wantCoerced {
				t.Errorf("CoerceCategory(%q) coerced = %v, want %v", tt.raw, coerced, tt.wantCoerced)
			}
		})
	}
}

func TestCoerceCategory_Deterministic(t *testing.T) {
	// "cloud analytics" contains keywords from two buckets; the fixed
	// table order must make Digital Infrastructure win every time.
	for i := 0; i < 20; i++ {
		got, _ := CoerceCategory("cloud analytics")
		if got != types.CategoryInfrastructure {
			t.Fatalf("run %d: got %q", i, got)
		}
	}
}

// --- normalization ---

func TestNormalize_CanonicalizesAndFillsContext(t *testing.T) {
	raws := []types.RawExtraction{
		{ChunkIndex: 0, Candidates: []types.RawInitiative{{
			Category:       "Digital Infrastructure",
			Initiative:     "  Migrated\tERP  to cloud\n platform ",
			TechnologyUsed: " SAP  S/4HANA ",
		}}},
	}

	got := Normalize(testDoc(), raws, Options{}, nil)
	if len(got) != 1 {
		t.Fatalf("got %d initiatives, want 1", len(got))
	}
	init := got[0]
	if init.Initiative != "Migrated ERP to cloud platform" {
		t.Errorf("Initiative = %q", init.Initiative)
	}
	if init.TechnologyUsed != "SAP S/4HANA" {
		t.Errorf("TechnologyUsed = %q", init.TechnologyUsed)
	}
	// Missing company and year fall back to document metadata.
	if init.CompanyName != "Acme Bhd" {
		t.Errorf("CompanyName = %q", init.CompanyName)
	}
	if init.YearMentioned != "2023" {
		t.Errorf("YearMentioned = %q", init.YearMentioned)
	}
	if init.SourceFile != "Acme Bhd - Annual Report 2023.pdf" || init.ReportType != types.ReportAnnual {
		t.Errorf("provenance = %q / %q", init.SourceFile, init.ReportType)
	}
}

func TestNormalize_OverlapDuplicateRemoved(t *testing.T) {
	// Adjacent chunks both surface the same initiative from the overlap
	// region; exactly one record must come out, from the earlier chunk.
	raws := []types.RawExtraction{
		{ChunkIndex: 2, Candidates: []types.RawInitiative{{
			Category:   "Digital Infrastructure",
			Initiative: "Migrated ERP to cloud platform",
		}}},
		{ChunkIndex: 3, Candidates: []types.RawInitiative{{
			Category:   "Digital Infrastructure",
			Initiative: "Migrated  ERP to cloud platform",
		}}},
	}

	var audit bytes.Buffer
	got := Normalize(testDoc(), raws, Options{}, &audit)
	if len(got) != 1 {
		t.Fatalf("got %d initiatives, want 1", len(got))
	}
	if got[0].ChunkIndex != 2 {
		t.Errorf("kept chunk %d, want first occurrence (2)", got[0].ChunkIndex)
	}
	if !strings.Contains(audit.String(), "deduped") {
		t.Error("dedup not audited")
	}
}

func TestNormalize_DistantRepeatKept(t *testing.T) {
	// The same wording three chunks apart cannot come from one overlap
	// region; both records stay.
	cand := types.RawInitiative{Category: "Cybersecurity", Initiative: "Deployed SOC monitoring"}
	raws := []types.RawExtraction{
		{ChunkIndex: 0, Candidates: []types.RawInitiative{cand}},
		{ChunkIndex: 3, Candidates: []types.RawInitiative{cand}},
	}

	got := Normalize(testDoc(), raws, Options{}, nil)
	if len(got) != 2 {
		t.Fatalf("got %d initiatives, want 2", len(got))
	}
}

func TestNormalize_SimilarityThreshold(t *testing.T) {
	a := types.RawInitiative{Initiative: "Launched mobile banking app for retail customers in Malaysia"}
	b := types.RawInitiative{Initiative: "Launched mobile banking app for retail customers in  Malaysia."}
	raws := []types.RawExtraction{
		{ChunkIndex: 0, Candidates: []types.RawInitiative{a}},
		{ChunkIndex: 1, Candidates: []types.RawInitiative{b}},
	}

	// Loose threshold: near-identical wording dedupes.
	got := Normalize(testDoc(), raws, Options{SimilarityThreshold: 0.7}, nil)
	if len(got) != 1 {
		t.Errorf("threshold 0.7: got %d initiatives, want 1", len(got))
	}

	// Threshold above the actual overlap keeps both ("Malaysia" vs
	// "Malaysia." are distinct tokens).
	got = Normalize(testDoc(), raws, Options{SimilarityThreshold: 0.95}, nil)
	if len(got) != 2 {
		t.Errorf("threshold 0.95: got %d initiatives, want 2", len(got))
	}
}

func TestNormalize_OrderingByChunkThenCandidate(t *testing.T) {
	raws := []types.RawExtraction{
		{ChunkIndex: 1, Candidates: []types.RawInitiative{
			{Initiative: "third"},
			{Initiative: "fourth"},
		}},
		{ChunkIndex: 0, Candidates: []types.RawInitiative{
			{Initiative: "first"},
			{Initiative: "second"},
		}},
	}

	got := Normalize(testDoc(), raws, Options{}, nil)
	want := []string{"first", "second", "third", "fourth"}
	if len(got) != len(want) {
		t.Fatalf("got %d initiatives, want %d", len(got), len(want))
	}
	for i, w := range want {
		if got[i].Initiative != w {
			t.Errorf("position %d = %q, want %q", i, got[i].Initiative, w)
		}
	}
}

func TestNormalize_EmptyInitiativeDropped(t *testing.T) {
	raws := []types.RawExtraction{
		{ChunkIndex: 0, Candidates: []types.RawInitiative{
			{Category: "ESG Tech", Initiative: "   "},
			{Category: "ESG Tech", Initiative: "Installed solar monitoring platform"},
		}},
	}

	var audit bytes.Buffer
	got := Normalize(testDoc(), raws, Options{}, &audit)
	if len(got) != 1 {
		t.Fatalf("got %d initiatives, want 1", len(got))
	}
	if !strings.Contains(audit.String(), "dropped") {
		t.Error("dropped candidate not audited")
	}
}

func TestNormalize_CoercionAudited(t *testing.T) {
	raws := []types.RawExtraction{
		{ChunkIndex: 0, Candidates: []types.RawInitiative{
			{Category: "Cloud Migration", Initiative: "Moved workloads to AWS"},
		}},
	}

	var audit bytes.Buffer
	got := Normalize(testDoc(), raws, Options{}, &audit)
	if len(got) != 1 {
		t.Fatal("initiative missing")
	}
	if got[0].Category != types.CategoryInfrastructure {
		t.Errorf("Category = %q", got[0].Category)
	}
	if !strings.Contains(audit.String(), `coerced: chunk 0 category "Cloud Migration"`) {
		t.Errorf("coercion not audited: %q", audit.String())
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	raws := []types.RawExtraction{
		{ChunkIndex: 0, Candidates: []types.RawInitiative{
			{Category: "ai", Initiative: "Deployed chatbot"},
			{Category: "Cybersecurity", Initiative: "Rolled out MFA"},
		}},
		{ChunkIndex: 1, Candidates: []types.RawInitiative{
			{Category: "ai", Initiative: "Deployed chatbot"},
		}},
	}

	first := Normalize(testDoc(), raws, Options{}, nil)
	second := Normalize(testDoc(), raws, Options{}, nil)
	if len(first) != len(second) {
		t.Fatalf("runs produced %d and %d initiatives", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Errorf("initiative %d differs between runs", i)
		}
	}
}

// --- jaccard ---

func TestJaccard(t *testing.T) {
	tests := []struct {
		a, b string
		want float64
	}{
		{"a b c", "a b c", 1.0},
		{"a b c d", "a b c", 0.75},
		{"a b", "c d", 0.0},
		{"", "a", 0.0},
		{"a a a b", "a b", 1.0}, // repeated tokens collapse
	}

	for _, tt := range tests {
		if got := jaccard(tt.a, tt.b); got != tt.want {
			t.Errorf("jaccard(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
	}
}
