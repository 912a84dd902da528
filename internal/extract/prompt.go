// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"bytes"
	"text/template"
)

// extractionPromptTmpl is the prompt sent to the model for each chunk. It
// fixes the five categories and the required JSON field set; the response
// contract is a bare JSON array, possibly empty.
var extractionPromptTmpl = template.Must(template.New("extraction").Parse(`You are a research analyst specializing in digital economy transformation.
Analyze the following excerpt from a company's corporate report. Identify and extract all relevant digital transformation efforts under these key areas:

1. Digital Infrastructure - ERP systems, cloud migration, IT upgrades, digital tools
2. AI & Automation - AI/ML, analytics, RPA, blockchain, IoT
3. Cybersecurity - IT security, data protection, governance, compliance
4. Customer Experience - E-commerce, mobile platforms, chatbots, digital marketing
5. ESG Tech - Green IT, sustainability tech, social/environmental platforms

Your task is to extract real initiatives, not generic statements. Focus on what the company *did*, *what tech was used*, and *why*.

IMPORTANT INSTRUCTIONS:
- Only extract SPECIFIC, CONCRETE initiatives with actual implementation details
- Skip generic statements like "we are committed to digital transformation"
- Look for: specific systems named, technologies deployed, projects completed, platforms launched
- Extract technology names, vendor names, system names when mentioned
- Include financial figures if mentioned (investments, budgets, savings)
- If no specific initiatives are found, return an empty JSON array: []

Company Name: {{.CompanyName}}
Report Year: {{.Year}}
Report Type: {{.ReportType}}

Return the output as a valid JSON array of objects. Each object should have these fields:
- CompanyName: string
- Category: string (must be one of: "Digital Infrastructure", "AI & Automation", "Cybersecurity", "Customer Experience", "ESG Tech")
- Initiative: string (specific description of what was done)
- TechnologyUsed: string (specific tech, platform, or system)
- Department: string (optional, which department/unit)
- YearMentioned: string (the year, usually {{.Year}})
- ExpectedImpact: string (optional, outcomes or benefits)
- DigitalInvestment: string (optional, budget or investment amount)

Text:
{{.ChunkText}}

Return ONLY a valid JSON array, no additional text or explanation:`))

// promptData feeds the extraction template.
type promptData struct {
	DocumentContext
	ChunkText string
}

// renderPrompt executes the extraction template for one chunk.
func renderPrompt(docCtx DocumentContext, chunkText string) (string, error) {
	var buf bytes.Buffer
	if err := extractionPromptTmpl.Execute(&buf, promptData{DocumentContext: docCtx, ChunkText: chunkText}); err != nil {
		return "", err
	}
	return buf.String(), nil
}
