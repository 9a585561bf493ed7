// Package serialize implements the relational-to-pyreport direction
// described in spec §4.3: report-JSON and chunks output reconstructed from
// a report.Report via its listing methods.
package serialize

import (
	"fmt"

	"git.home.luguber.info/inful/pyreport/internal/report/models"
)

// classify buckets a Line or Branch sample into "hit", "partial", or "miss".
// Method samples and anything else classify to "" and are excluded from
// line totals. Mirrors the rule sqlite.Report.Totals applies at the
// whole-report level, here applied per file and per session.
func classify(s models.CoverageSample) string {
	switch s.Type {
	case models.CoverageLine:
		if s.Hits != nil && *s.Hits > 0 {
			return "hit"
		}
		return "miss"
	case models.CoverageBranch:
		if s.HitBranches != nil && s.TotalBranches != nil && *s.TotalBranches > 0 {
			if *s.HitBranches == *s.TotalBranches {
				return "hit"
			}
			if *s.HitBranches > 0 {
				return "partial"
			}
		}
		return "miss"
	default:
		return ""
	}
}

// verdictRank orders verdicts so the best of several sessions' verdicts for
// the same line can be picked with a plain max.
func verdictRank(v string) int {
	switch v {
	case "hit":
		return 2
	case "partial":
		return 1
	default:
		return 0
	}
}

// formatPct renders a hit/line ratio per §4.3's exact rule.
func formatPct(hits, lines int) string {
	if hits == 0 || lines == 0 {
		return "0"
	}
	if hits == lines {
		return "100"
	}
	return fmt.Sprintf("%.5f", float64(hits)/float64(lines)*100)
}

// trimTrailingNulls drops trailing nil entries, implementing the §4.3
// trimming rule. Because trimming only ever removes from the true end, a
// non-nil element at a later position (e.g. datapoints) naturally forces
// every nil element before it to stay in place — which is exactly the
// "retain messages/complexity as null when datapoints is present" carve-out.
func trimTrailingNulls(arr []any) []any {
	end := len(arr)
	for end > 0 && arr[end-1] == nil {
		end--
	}
	return arr[:end]
}
