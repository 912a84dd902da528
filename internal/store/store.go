// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package store persists normalized initiatives in a SQLite database with
// the companies / reports / initiatives schema. Writes for one document
// are transactional and replace any earlier rows for the same report, so
// re-processing a document never accumulates duplicates.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/dx-index/pkg/types"
)

// WriteError reports a failed per-document transaction. The transaction is
// rolled back; the document is recorded as failed and the run continues.
type WriteError struct {
	Document string
	Err      error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("storing %s: %v", e.Document, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }

// Store manages the initiative database.
type Store struct {
	db *sql.DB
}

// Open opens or creates the SQLite database at path, creating parent
// directories and the schema as needed.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS companies (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			company_name TEXT UNIQUE NOT NULL,
			industry TEXT,
			stock_code TEXT,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS reports (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			company_id INTEGER NOT NULL REFERENCES companies(id),
			report_type TEXT NOT NULL,
			report_year INTEGER NOT NULL,
			filename TEXT NOT NULL,
			file_path TEXT,
			processed_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			UNIQUE(company_id, report_type, report_year)
		)`,
		`CREATE TABLE IF NOT EXISTS initiatives (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			report_id INTEGER NOT NULL REFERENCES reports(id),
			company_name TEXT NOT NULL,
			category TEXT NOT NULL,
			initiative TEXT NOT NULL,
			technology_used TEXT,
			department TEXT,
			year_mentioned TEXT,
			expected_impact TEXT,
			digital_investment TEXT,
			chunk_index INTEGER NOT NULL DEFAULT 0,
			extracted_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_initiatives_company ON initiatives(company_name)`,
		`CREATE INDEX IF NOT EXISTS idx_initiatives_category ON initiatives(category)`,
		`CREATE INDEX IF NOT EXISTS idx_initiatives_year ON initiatives(year_mentioned)`,
		`CREATE INDEX IF NOT EXISTS idx_reports_company_year ON reports(company_id, report_year)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// UpsertCompany returns the ID for the named company, creating the record
// if it does not exist. Industry and stock code are optional and only set
// on first insert.
func (s *Store) UpsertCompany(ctx context.Context, name, industry, stockCode string) (int64, error) {
	return upsertCompanyTx(ctx, s.db, name, industry, stockCode)
}

// querier covers *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func upsertCompanyTx(ctx context.Context, q querier, name, industry, stockCode string) (int64, error) {
	var id int64
	err := q.QueryRowContext(ctx,
		`SELECT id FROM companies WHERE company_name = ?`, name,
	).Scan(&id)
	if err == nil {
		return id, nil
	}
	if err != sql.ErrNoRows {
		return 0, fmt.Errorf("looking up company: %w", err)
	}

	res, err := q.ExecContext(ctx,
		`INSERT INTO companies (company_name, industry, stock_code) VALUES (?, ?, ?)`,
		name, nullable(industry), nullable(stockCode),
	)
	if err != nil {
		return 0, fmt.Errorf("inserting company: %w", err)
	}
	return res.LastInsertId()
}

// UpsertReport returns the ID for the (company, type, year) report,
// creating the record if it does not exist.
func (s *Store) UpsertReport(ctx context.Context, companyID int64, reportType string, reportYear int, filename, filePath string) (int64, error) {
	return upsertReportTx(ctx, s.db, companyID, reportType, reportYear, filename, filePath)
}

func upsertReportTx(ctx context.Context, q querier, companyID int64, reportType string, reportYear int, filename, filePath string) (int64, error) {
	var id int64
	err := q.QueryRowContext(ctx,
		`SELECT id FROM reports WHERE company_id = ? AND report_type = ? AND report_year = ?`,
		companyID, reportType, reportYear,
	).Scan(&id)
	if err == nil {
		return id, nil
	}
	if err != sql.ErrNoRows {
		return 0, fmt.Errorf("looking up report: %w", err)
	}

	res, err := q.ExecContext(ctx,
		`INSERT INTO reports (company_id, report_type, report_year, filename, file_path) VALUES (?, ?, ?, ?, ?)`,
		companyID, reportType, reportYear, filename, nullable(filePath),
	)
	if err != nil {
		return 0, fmt.Errorf("inserting report: %w", err)
	}
	return res.LastInsertId()
}

// SaveDocument persists all initiatives for one document atomically. Any
// rows a previous run wrote for the same report are replaced, which keeps
// re-processing idempotent. Failures roll the whole document back and come
// out as a WriteError.
func (s *Store) SaveDocument(ctx context.Context, doc types.Document, initiatives []types.Initiative) (reportID int64, err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, &WriteError{Document: doc.Filename, Err: fmt.Errorf("beginning transaction: %w", err)}
	}
	defer tx.Rollback()

	companyID, err := upsertCompanyTx(ctx, tx, doc.CompanyName, "", "")
	if err != nil {
		return 0, &WriteError{Document: doc.Filename, Err: err}
	}

	year, _ := strconv.Atoi(doc.Year) // unparsable year stored as 0
	reportID, err = upsertReportTx(ctx, tx, companyID, doc.ReportType, year, doc.Filename, doc.Path)
	if err != nil {
		return 0, &WriteError{Document: doc.Filename, Err: err}
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM initiatives WHERE report_id = ?`, reportID); err != nil {
		return 0, &WriteError{Document: doc.Filename, Err: fmt.Errorf("clearing old initiatives: %w", err)}
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO initiatives (
			report_id, company_name, category, initiative, technology_used,
			department, year_mentioned, expected_impact, digital_investment, chunk_index
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, &WriteError{Document: doc.Filename, Err: fmt.Errorf("preparing insert: %w", err)}
	}
	defer stmt.Close()

	for _, init := range initiatives {
		_, err := stmt.ExecContext(ctx,
			reportID, init.CompanyName, string(init.Category), init.Initiative,
			nullable(init.TechnologyUsed), nullable(init.Department),
			init.YearMentioned, nullable(init.ExpectedImpact),
			nullable(init.DigitalInvestment), init.ChunkIndex,
		)
		if err != nil {
			return 0, &WriteError{Document: doc.Filename, Err: fmt.Errorf("inserting initiative: %w", err)}
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, &WriteError{Document: doc.Filename, Err: fmt.Errorf("committing: %w", err)}
	}
	return reportID, nil
}

// nullable maps empty strings to NULL.
func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// ExportJSON writes every stored initiative plus summary statistics to a
// JSON file.
func (s *Store) ExportJSON(ctx context.Context, path string) error {
	initiatives, err := s.all(ctx)
	if err != nil {
		return err
	}
	stats, err := s.Statistics(ctx)
	if err != nil {
		return err
	}

	return writeJSON(path, exportDocument{
		Initiatives: initiatives,
		Statistics:  stats,
		ExportedAt:  time.Now().UTC().Format(time.RFC3339),
	})
}

// exportDocument is the database export layout.
type exportDocument struct {
	Initiatives []StoredInitiative `json:"initiatives"`
	Statistics  Statistics         `json:"statistics"`
	ExportedAt  string             `json:"exported_at"`
}
