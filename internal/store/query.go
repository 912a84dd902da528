// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pdiddy/dx-index/pkg/types"
)

// StoredInitiative is an initiative row joined with its report metadata.
type StoredInitiative struct {
	ID       int64 `json:"id"`
	ReportID int64 `json:"report_id"`
	types.Initiative
}

const initiativeSelect = `
	SELECT i.id, i.report_id, i.company_name, i.category, i.initiative,
	       COALESCE(i.technology_used, ''), COALESCE(i.department, ''),
	       COALESCE(i.year_mentioned, ''), COALESCE(i.expected_impact, ''),
	       COALESCE(i.digital_investment, ''), i.chunk_index,
	       r.filename, r.report_type
	FROM initiatives i
	JOIN reports r ON r.id = i.report_id`

func (s *Store) queryInitiatives(ctx context.Context, where string, args ...any) ([]StoredInitiative, error) {
	q := initiativeSelect
	if where != "" {
		q += " WHERE " + where
	}
	q += " ORDER BY i.company_name, i.category, i.id"

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("querying initiatives: %w", err)
	}
	defer rows.Close()

	var out []StoredInitiative
	for rows.Next() {
		var si StoredInitiative
		var category string
		if err := rows.Scan(
			&si.ID, &si.ReportID, &si.CompanyName, &category, &si.Initiative.Initiative,
			&si.TechnologyUsed, &si.Department, &si.YearMentioned,
			&si.ExpectedImpact, &si.DigitalInvestment, &si.ChunkIndex,
			&si.SourceFile, &si.ReportType,
		); err != nil {
			return nil, fmt.Errorf("scanning initiative: %w", err)
		}
		si.Category = types.Category(category)
		out = append(out, si)
	}
	return out, rows.Err()
}

func (s *Store) all(ctx context.Context) ([]StoredInitiative, error) {
	return s.queryInitiatives(ctx, "")
}

// ByCompany returns all initiatives whose company name contains the given
// substring, case-insensitively.
func (s *Store) ByCompany(ctx context.Context, name string) ([]StoredInitiative, error) {
	return s.queryInitiatives(ctx, "i.company_name LIKE ?", "%"+name+"%")
}

// ByCategory returns all initiatives in the given category.
func (s *Store) ByCategory(ctx context.Context, category types.Category) ([]StoredInitiative, error) {
	return s.queryInitiatives(ctx, "i.category = ?", string(category))
}

// ByYear returns all initiatives that mention the given year.
func (s *Store) ByYear(ctx context.Context, year string) ([]StoredInitiative, error) {
	return s.queryInitiatives(ctx, "i.year_mentioned = ?", year)
}

// CompanyCount pairs a company with its initiative count.
type CompanyCount struct {
	CompanyName string `json:"company_name"`
	Count       int    `json:"count"`
}

// Statistics summarizes the database contents.
type Statistics struct {
	TotalCompanies   int            `json:"total_companies"`
	TotalReports     int            `json:"total_reports"`
	TotalInitiatives int            `json:"total_initiatives"`
	ByCategory       map[string]int `json:"by_category"`
	ByYear           map[string]int `json:"by_year"`
	TopCompanies     []CompanyCount `json:"top_companies"`
}

// Statistics computes totals and per-category, per-year, and per-company
// breakdowns.
func (s *Store) Statistics(ctx context.Context) (Statistics, error) {
	stats := Statistics{
		ByCategory: make(map[string]int),
		ByYear:     make(map[string]int),
	}

	counts := []struct {
		query string
		dest  *int
	}{
		{`SELECT COUNT(*) FROM companies`, &stats.TotalCompanies},
		{`SELECT COUNT(*) FROM reports`, &stats.TotalReports},
		{`SELECT COUNT(*) FROM initiatives`, &stats.TotalInitiatives},
	}
	for _, c := range counts {
		if err := s.db.QueryRowContext(ctx, c.query).Scan(c.dest); err != nil {
			return Statistics{}, fmt.Errorf("counting rows: %w", err)
		}
	}

	if err := s.groupCount(ctx,
		`SELECT category, COUNT(*) FROM initiatives GROUP BY category`,
		stats.ByCategory,
	); err != nil {
		return Statistics{}, err
	}

	if err := s.groupCount(ctx,
		`SELECT year_mentioned, COUNT(*) FROM initiatives
		 WHERE year_mentioned IS NOT NULL AND year_mentioned != ''
		 GROUP BY year_mentioned`,
		stats.ByYear,
	); err != nil {
		return Statistics{}, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT company_name, COUNT(*) AS n FROM initiatives
		 GROUP BY company_name ORDER BY n DESC, company_name LIMIT 10`)
	if err != nil {
		return Statistics{}, fmt.Errorf("querying top companies: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var cc CompanyCount
		if err := rows.Scan(&cc.CompanyName, &cc.Count); err != nil {
			return Statistics{}, fmt.Errorf("scanning company count: %w", err)
		}
		stats.TopCompanies = append(stats.TopCompanies, cc)
	}
	return stats, rows.Err()
}

func (s *Store) groupCount(ctx context.Context, query string, dest map[string]int) error {
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return fmt.Errorf("grouped count: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var key string
		var n int
		if err := rows.Scan(&key, &n); err != nil {
			return fmt.Errorf("scanning grouped count: %w", err)
		}
		dest[key] = n
	}
	return rows.Err()
}

// ReportCount returns the number of stored reports. Used by the CLI to
// report whether the database has been populated.
func (s *Store) ReportCount(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM reports`).Scan(&n)
	return n, err
}

func writeJSON(path string, v any) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating output directory: %w", err)
		}
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding JSON: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
