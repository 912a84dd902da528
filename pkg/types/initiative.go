// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types holds the domain records and configuration shared by all
// pipeline stages.
package types

// Category classifies a digital transformation initiative into one of five
// fixed buckets. Model output that matches none of them is coerced to
// CategoryUncategorized rather than rejected.
type Category string

const (
	CategoryInfrastructure     Category = "Digital Infrastructure"
	CategoryAIAutomation       Category = "AI & Automation"
	CategoryCybersecurity      Category = "Cybersecurity"
	CategoryCustomerExperience Category = "Customer Experience"
	CategoryESGTech            Category = "ESG Tech"
	CategoryUncategorized      Category = "Uncategorized"
)

// Categories lists the five extraction buckets in their fixed coercion
// order. The order matters: the keyword-containment rule tries each bucket
// in sequence and the first hit wins.
func Categories() []Category {
	return []Category{
		CategoryInfrastructure,
		CategoryAIAutomation,
		CategoryCybersecurity,
		CategoryCustomerExperience,
		CategoryESGTech,
	}
}

// RawInitiative is a single unvalidated candidate from the model's response
// for one chunk. Field names match the JSON contract in the extraction
// prompt; any field may be empty and must be tolerated downstream.
type RawInitiative struct {
	CompanyName       string `json:"CompanyName"`
	Category          string `json:"Category"`
	Initiative        string `json:"Initiative"`
	TechnologyUsed    string `json:"TechnologyUsed"`
	Department        string `json:"Department"`
	YearMentioned     string `json:"YearMentioned"`
	ExpectedImpact    string `json:"ExpectedImpact"`
	DigitalInvestment string `json:"DigitalInvestment"`
}

// RawExtraction is the validated-but-unnormalized model output for one
// chunk. Candidates keep the order the model returned them in; an empty
// slice is a legitimate result (no initiatives in the chunk, or the call
// terminally failed and was skipped).
type RawExtraction struct {
	ChunkIndex int             `json:"chunk_index" yaml:"chunk_index"`
	Candidates []RawInitiative `json:"candidates" yaml:"candidates"`
}

// Initiative is the canonical, deduplicated record produced by the
// normalizer. It is never mutated after creation; the store adapter owns
// it from then on.
type Initiative struct {
	CompanyName       string   `json:"company_name" yaml:"company_name"`
	Category          Category `json:"category" yaml:"category"`
	Initiative        string   `json:"initiative" yaml:"initiative"`
	TechnologyUsed    string   `json:"technology_used" yaml:"technology_used"`
	Department        string   `json:"department,omitempty" yaml:"department,omitempty"`
	YearMentioned     string   `json:"year_mentioned" yaml:"year_mentioned"`
	ExpectedImpact    string   `json:"expected_impact,omitempty" yaml:"expected_impact,omitempty"`
	DigitalInvestment string   `json:"digital_investment,omitempty" yaml:"digital_investment,omitempty"`

	// Provenance.
	SourceFile string `json:"source_file" yaml:"source_file"`
	ReportType string `json:"report_type" yaml:"report_type"`
	ChunkIndex int    `json:"chunk_index" yaml:"chunk_index"`
}
