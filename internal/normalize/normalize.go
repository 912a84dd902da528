// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package normalize turns noisy per-chunk model output into canonical
// initiative records: categories coerced into the closed enumeration,
// whitespace canonicalized, and chunk-overlap duplicates removed.
package normalize

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"unicode"

	"github.com/pdiddy/dx-index/pkg/types"
)

// DefaultSimilarityThreshold is the token-overlap ratio at or above which
// two candidates from adjacent chunks count as the same initiative.
const DefaultSimilarityThreshold = 0.9

// Options tunes deduplication.
type Options struct {
	// SimilarityThreshold in (0,1]; zero uses the default. Exact matches
	// on normalized text always dedupe regardless of this value.
	SimilarityThreshold float64
}

// Normalize maps the accumulated raw extractions for one document into
// canonical, deduplicated Initiative records. Output order follows chunk
// index, then candidate order within a chunk; raw extractions arriving out
// of chunk order are sorted first, so a future parallel orchestrator gets
// the same result. Coercions and dropped candidates are reported to w for
// audit.
func Normalize(doc types.Document, raws []types.RawExtraction, opts Options, w io.Writer) []types.Initiative {
	threshold := opts.SimilarityThreshold
	if threshold <= 0 {
		threshold = DefaultSimilarityThreshold
	}
	if w == nil {
		w = io.Discard
	}

	ordered := make([]types.RawExtraction, len(raws))
	copy(ordered, raws)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].ChunkIndex < ordered[j].ChunkIndex
	})

	// seen tracks emitted initiatives as (chunk index, folded text) so a
	// candidate can be checked against its own and the preceding chunk.
	type seenEntry struct {
		chunk  int
		folded string
	}
	var seen []seenEntry

	var out []types.Initiative
	for _, raw := range ordered {
		for _, cand := range raw.Candidates {
			initiative := canonical(cand.Initiative)
			if initiative == "" {
				fmt.Fprintf(w, "dropped: chunk %d candidate with empty initiative text\n", raw.ChunkIndex)
				continue
			}

			folded := strings.ToLower(initiative)
			dup := false
			for _, s := range seen {
				if s.chunk < raw.ChunkIndex-1 {
					continue // only the same or the adjacent previous chunk overlaps
				}
				if s.folded == folded || jaccard(s.folded, folded) >= threshold {
					dup = true
					break
				}
			}
			if dup {
				fmt.Fprintf(w, "deduped: chunk %d %q\n", raw.ChunkIndex, initiative)
				continue
			}
			seen = append(seen, seenEntry{chunk: raw.ChunkIndex, folded: folded})

			category, coerced := CoerceCategory(cand.Category)
			if coerced {
				fmt.Fprintf(w, "coerced: chunk %d category %q -> %q\n", raw.ChunkIndex, cand.Category, category)
			}

			company := canonical(cand.CompanyName)
			if company == "" {
				company = doc.CompanyName
			}
			year := canonical(cand.YearMentioned)
			if year == "" {
				year = doc.Year // may itself be "", the unknown sentinel
			}

			out = append(out, types.Initiative{
				CompanyName:       company,
				Category:          category,
				Initiative:        initiative,
				TechnologyUsed:    canonical(cand.TechnologyUsed),
				Department:        canonical(cand.Department),
				YearMentioned:     year,
				ExpectedImpact:    canonical(cand.ExpectedImpact),
				DigitalInvestment: canonical(cand.DigitalInvestment),
				SourceFile:        doc.Filename,
				ReportType:        doc.ReportType,
				ChunkIndex:        raw.ChunkIndex,
			})
		}
	}

	return out
}

// categoryKeywords drives the containment rule, tried in this fixed order
// with the first hit winning. Keeping the table explicit makes the
// coercion auditable and deterministic.
var categoryKeywords = []struct {
	category types.Category
	keywords []string
}{
	{types.CategoryInfrastructure, []string{"infrastructure", "erp", "cloud", "it upgrade"}},
	{types.CategoryAIAutomation, []string{"ai", "automation", "analytics", "rpa", "blockchain"}},
	{types.CategoryCybersecurity, []string{"security", "cyber", "protection", "compliance"}},
	{types.CategoryCustomerExperience, []string{"customer", "ecommerce", "mobile", "chatbot"}},
	{types.CategoryESGTech, []string{"esg", "sustainability", "green", "environment"}},
}

// CoerceCategory maps free-text category output into the closed
// enumeration: exact case-insensitive match first, then keyword matching
// in fixed order, else Uncategorized. Single-word keywords must match a
// whole token (so "sustainability" is never an "ai" hit); multi-word
// keywords match as phrases. coerced reports whether the input was
// anything other than an exact match.
func CoerceCategory(raw string) (category types.Category, coerced bool) {
	trimmed := canonical(raw)
	for _, c := range types.Categories() {
		if strings.EqualFold(trimmed, string(c)) {
			return c, false
		}
	}

	lower := strings.ToLower(trimmed)
	tokens := tokenSet(lower)
	if len(tokens) > 0 {
		for _, ck := range categoryKeywords {
			for _, kw := range ck.keywords {
				if strings.ContainsRune(kw, ' ') {
					if strings.Contains(lower, kw) {
						return ck.category, true
					}
				} else if tokens[kw] {
					return ck.category, true
				}
			}
		}
	}

	return types.CategoryUncategorized, true
}

// tokenSet splits a lowered string on non-alphanumeric runes, so
// "AI-powered" yields the tokens "ai" and "powered".
func tokenSet(s string) map[string]bool {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	set := make(map[string]bool, len(fields))
	for _, f := range fields {
		set[f] = true
	}
	return set
}

// canonical trims and collapses internal whitespace runs to single spaces.
func canonical(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// jaccard computes token-set overlap between two folded strings:
// |intersection| / |union|. Both empty counts as no similarity.
func jaccard(a, b string) float64 {
	ta := strings.Fields(a)
	tb := strings.Fields(b)
	if len(ta) == 0 || len(tb) == 0 {
		return 0
	}

	set := make(map[string]bool, len(ta))
	for _, tok := range ta {
		set[tok] = true
	}

	union := len(set)
	shared := 0
	seen := make(map[string]bool, len(tb))
	for _, tok := range tb {
		if seen[tok] {
			continue
		}
		seen[tok] = true
		if set[tok] {
			shared++
		} else {
			union++
		}
	}

	return float64(shared) / float64(union)
}
