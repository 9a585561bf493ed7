package models

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestReportTotalsZeroValue(t *testing.T) {
	var totals ReportTotals
	require.Zero(t, totals.Files)
	require.Zero(t, totals.Lines)
	require.Zero(t, totals.HitComplexity)
}

func TestBranchFormatConstantsAreDistinct(t *testing.T) {
	formats := []BranchFormat{BranchBlockAndBranch, BranchCondition, BranchLine}
	seen := make(map[BranchFormat]bool, len(formats))
	for _, f := range formats {
		require.False(t, seen[f], "duplicate BranchFormat value %q", f)
		seen[f] = true
	}
}

func TestCoverageTypeConstantsAreDistinct(t *testing.T) {
	types := []CoverageType{CoverageLine, CoverageBranch, CoverageMethod}
	seen := make(map[CoverageType]bool, len(types))
	for _, ty := range types {
		require.False(t, seen[ty], "duplicate CoverageType value %q", ty)
		seen[ty] = true
	}
}
