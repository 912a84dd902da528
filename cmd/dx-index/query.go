// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/dx-index/internal/store"
	"github.com/pdiddy/dx-index/pkg/types"
)

var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "Search stored initiatives by company, category, or year",
	Long: `Query searches the initiative database. Exactly one filter is required:
--company matches a substring of the company name, --category matches one
of the five canonical categories (or Uncategorized), and --year matches
the year the initiative was mentioned for.`,
	RunE: runQuery,
}

func runQuery(cmd *cobra.Command, args []string) error {
	company, _ := cmd.Flags().GetString("company")
	category, _ := cmd.Flags().GetString("category")
	year, _ := cmd.Flags().GetString("year")

	filters := 0
	for _, f := range []string{company, category, year} {
		if f != "" {
			filters++
		}
	}
	if filters != 1 {
		return fmt.Errorf("exactly one of --company, --category, or --year is required")
	}

	db, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer db.Close()

	ctx := context.Background()
	var results []store.StoredInitiative
	switch {
	case company != "":
		results, err = db.ByCompany(ctx, company)
	case category != "":
		cat, ok := matchCategory(category)
		if !ok {
			return fmt.Errorf("unknown category %q: one of %s", category, categoryList())
		}
		results, err = db.ByCategory(ctx, cat)
	case year != "":
		results, err = db.ByYear(ctx, year)
	}
	if err != nil {
		return err
	}

	jsonOutput, _ := cmd.Flags().GetBool("json")
	return formatQueryOutput(results, jsonOutput)
}

func matchCategory(s string) (types.Category, bool) {
	for _, c := range types.Categories() {
		if strings.EqualFold(s, string(c)) {
			return c, true
		}
	}
	if strings.EqualFold(s, string(types.CategoryUncategorized)) {
		return types.CategoryUncategorized, true
	}
	return "", false
}

func categoryList() string {
	names := make([]string, 0, len(types.Categories())+1)
	for _, c := range types.Categories() {
		names = append(names, string(c))
	}
	names = append(names, string(types.CategoryUncategorized))
	return strings.Join(names, ", ")
}

func formatQueryOutput(results []store.StoredInitiative, jsonOutput bool) error {
	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	}

	if len(results) == 0 {
		fmt.Println("No initiatives found.")
		return nil
	}

	fmt.Fprintf(os.Stdout, "%-20s  %-22s  %-50s  %-6s  %s\n",
		"Company", "Category", "Initiative", "Year", "Source")
	fmt.Fprintln(os.Stdout, strings.Repeat("-", 120))

	for _, r := range results {
		initiative := r.Initiative.Initiative
		if len(initiative) > 50 {
			initiative = initiative[:47] + "..."
		}
		company := r.CompanyName
		if len(company) > 20 {
			company = company[:17] + "..."
		}
		fmt.Fprintf(os.Stdout, "%-20s  %-22s  %-50s  %-6s  %s\n",
			company, r.Category, initiative, r.YearMentioned, r.SourceFile)
	}

	fmt.Fprintf(os.Stdout, "\n%d initiatives\n", len(results))
	return nil
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Summarize the initiative database",
	RunE:  runStats,
}

func runStats(cmd *cobra.Command, args []string) error {
	db, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer db.Close()

	stats, err := db.Statistics(context.Background())
	if err != nil {
		return err
	}

	jsonOutput, _ := cmd.Flags().GetBool("json")
	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(stats)
	}

	fmt.Printf("Companies:   %d\n", stats.TotalCompanies)
	fmt.Printf("Reports:     %d\n", stats.TotalReports)
	fmt.Printf("Initiatives: %d\n", stats.TotalInitiatives)

	if len(stats.ByCategory) > 0 {
		fmt.Println("\nBy category:")
		for _, c := range append(types.Categories(), types.CategoryUncategorized) {
			if n, ok := stats.ByCategory[string(c)]; ok {
				fmt.Printf("  %-24s %d\n", c, n)
			}
		}
	}
	if len(stats.TopCompanies) > 0 {
		fmt.Println("\nTop companies:")
		for _, cc := range stats.TopCompanies {
			fmt.Printf("  %-24s %d\n", cc.CompanyName, cc.Count)
		}
	}
	return nil
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the initiative database to a JSON file",
	RunE:  runExport,
}

func runExport(cmd *cobra.Command, args []string) error {
	out, _ := cmd.Flags().GetString("out")

	db, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := db.ExportJSON(context.Background(), out); err != nil {
		return err
	}
	fmt.Println("Exported to", out)
	return nil
}

func openStore(cmd *cobra.Command) (*store.Store, error) {
	dbPath, _ := cmd.Flags().GetString("db")
	return store.Open(dbPath)
}

func init() {
	queryCmd.Flags().String("company", "", "filter by company name substring")
	queryCmd.Flags().String("category", "", "filter by canonical category")
	queryCmd.Flags().String("year", "", "filter by year mentioned")
	queryCmd.Flags().Bool("json", false, "output results as JSON")

	statsCmd.Flags().Bool("json", false, "output statistics as JSON")

	exportCmd.Flags().String("out", "outputs/export.json", "export file path")

	rootCmd.AddCommand(queryCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(exportCmd)
}
